package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"QuantSuperior/internal/handler/ws"
	"QuantSuperior/internal/service/ratelimit"
	"QuantSuperior/internal/usecase"
	"QuantSuperior/pkg/config"
	xhttp "QuantSuperior/pkg/http"
	pkgkafka "QuantSuperior/pkg/kafka"
	applogger "QuantSuperior/pkg/logger"
	"QuantSuperior/pkg/queue"
)

// Components are the long-running parts of the service. Everything except
// HTTP is optional and skipped when nil.
type Components struct {
	HTTP      *xhttp.Server
	Hub       *ws.Hub
	Scheduler *usecase.DailyScheduler
	Consumer  *pkgkafka.Consumer
	Alerts    pkgkafka.MessageHandler
	Queue     *queue.RedisQueue
	Jobs      []queue.Job
	Limiter   *ratelimit.Limiter
	Digest    *applogger.Digest
	Closers   map[string]io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg  *config.Config
	log  *applogger.Logger
	c    Components
	stop context.CancelFunc
}

func New(cfg *config.Config, log *applogger.Logger, c Components) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{cfg: cfg, log: log, c: c}
}

// Start launches every configured component in dependency order.
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.stop = cancel

	if a.c.Digest != nil {
		a.log.AttachDigest(a.c.Digest)
	}

	if a.c.Queue != nil {
		for _, j := range a.c.Jobs {
			a.c.Queue.RegisterJob(j)
		}
		if err := a.c.Queue.Start(); err != nil {
			return err
		}
	}

	if a.c.Consumer != nil && a.c.Alerts != nil {
		a.c.Consumer.RegisterHandler(a.c.Alerts)
		a.c.Consumer.SetHook(pkgkafka.HookChain{pkgkafka.TraceHook, a.consumerLogHook()})
		if err := a.c.Consumer.Start(); err != nil {
			return err
		}
	}

	if a.c.Limiter != nil {
		go a.pruneLimiter(ctx)
	}

	if a.c.Scheduler != nil {
		a.c.Scheduler.Start()
	}

	return a.c.HTTP.Start()
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		a.log.Error("startup failed", applogger.Error(err))
		_ = a.Shutdown(context.Background())
		return err
	}
	a.log.Info("service started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("symbol", a.cfg.Strategy.Symbol),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("transport", a.cfg.Notify.Transport),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	a.log.Info("shutdown signal received")

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return a.Shutdown(ctx)
}

// Shutdown stops components in reverse start order and closes clients.
func (a *App) Shutdown(ctx context.Context) error {
	if a.stop != nil {
		a.stop()
	}
	if a.c.HTTP != nil {
		if err := a.c.HTTP.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}
	if a.c.Hub != nil {
		a.c.Hub.Close()
	}
	if a.c.Scheduler != nil {
		if err := a.c.Scheduler.Stop(ctx); err != nil {
			a.log.Warn("scheduler stop error", applogger.Error(err))
		}
	}
	if a.c.Consumer != nil {
		if err := a.c.Consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.c.Queue != nil {
		if err := a.c.Queue.Stop(ctx); err != nil {
			a.log.Warn("queue stop error", applogger.Error(err))
		}
	}
	if a.c.Digest != nil {
		a.log.DetachDigest()
	}
	for name, c := range a.c.Closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("component", name), applogger.Error(err))
		}
	}
	a.log.Info("shutdown complete")
	return nil
}

func (a *App) pruneLimiter(ctx context.Context) {
	every := a.cfg.Server.RateLimit.Window
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if n := a.c.Limiter.Prune(2 * every); n > 0 {
				a.log.Debug("rate limiter pruned", applogger.Int("clients", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
