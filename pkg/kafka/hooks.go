package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook observes message handling. A BeforeHandle error skips the
// handler and is treated as a handling failure.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error)
	AfterHandle(ctx context.Context, km kafka.Message, attempt int, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ kafka.Message) (context.Context, error) {
	return ctx, nil
}

func (NoopHook) AfterHandle(context.Context, kafka.Message, int, error) {}

// HookFuncs adapts plain functions to ConsumerHook; nil functions are no-ops.
type HookFuncs struct {
	Before func(context.Context, kafka.Message) (context.Context, error)
	After  func(context.Context, kafka.Message, int, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error) {
	if h.Before == nil {
		return ctx, nil
	}
	return h.Before(ctx, km)
}

func (h HookFuncs) AfterHandle(ctx context.Context, km kafka.Message, attempt int, err error) {
	if h.After != nil {
		h.After(ctx, km, attempt, err)
	}
}

// HookChain runs hooks in order before handling and in reverse order after.
// Hook panics are converted to errors (before) or swallowed (after).
type HookChain []ConsumerHook

func (c HookChain) BeforeHandle(ctx context.Context, km kafka.Message) (_ context.Context, err error) {
	for _, h := range c {
		if h == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("hook panic: %v", r)
				}
			}()
			ctx, err = h.BeforeHandle(ctx, km)
		}()
		if err != nil {
			return ctx, err
		}
	}
	return ctx, nil
}

func (c HookChain) AfterHandle(ctx context.Context, km kafka.Message, attempt int, err error) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i] == nil {
			continue
		}
		func() {
			defer func() { _ = recover() }()
			c[i].AfterHandle(ctx, km, attempt, err)
		}()
	}
}

type ctxKey string

// CtxTraceID holds the trace id propagated in message headers.
const CtxTraceID ctxKey = "kafka_trace_id"

// TraceHook copies the trace_id header into the context.
var TraceHook = HookFuncs{
	Before: func(ctx context.Context, km kafka.Message) (context.Context, error) {
		if id := HeaderValue(km, "trace_id"); id != "" {
			ctx = context.WithValue(ctx, CtxTraceID, id)
		}
		return ctx, nil
	},
}

// HeaderValue returns the first header value for key.
func HeaderValue(km kafka.Message, key string) string {
	for _, h := range km.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// TraceID extracts the trace id set by TraceHook.
func TraceID(ctx context.Context) string {
	s, _ := ctx.Value(CtxTraceID).(string)
	return s
}
