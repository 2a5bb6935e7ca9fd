package server

import (
	"context"

	"github.com/segmentio/kafka-go"

	pkgkafka "QuantSuperior/pkg/kafka"
	applogger "QuantSuperior/pkg/logger"
)

// consumerLogHook logs failed handling attempts with the propagated trace id.
func (a *App) consumerLogHook() pkgkafka.ConsumerHook {
	return pkgkafka.HookFuncs{
		After: func(ctx context.Context, km kafka.Message, attempt int, err error) {
			if err == nil {
				return
			}
			a.log.Warn("kafka handle attempt failed",
				applogger.String("topic", km.Topic),
				applogger.Int64("offset", km.Offset),
				applogger.Int("attempt", attempt),
				applogger.String("trace_id", pkgkafka.TraceID(ctx)),
				applogger.Error(err),
			)
		},
	}
}
