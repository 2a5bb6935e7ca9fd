package usecase

import (
	"context"
	"sync"
	"time"

	"QuantSuperior/internal/domain/models"
	"QuantSuperior/pkg/cache"
	applogger "QuantSuperior/pkg/logger"
	"QuantSuperior/pkg/util"
)

// Broadcaster pushes a message to every connected client.
type Broadcaster interface {
	Broadcast(msg any)
}

// SignalEvent is what live chart clients receive after each run.
type SignalEvent struct {
	Type       string                `json:"type"`
	Symbol     string                `json:"symbol"`
	SignalNext models.SignalDecision `json:"signal_next"`
	Metrics    models.Metrics        `json:"metrics"`
	At         int64                 `json:"at"`
}

type ScheduleConfig struct {
	Hour     int
	Minute   int
	Location *time.Location
	Params   RunParams
}

// DailyScheduler runs the pipeline once a day at a fixed local time.
// A cache lock per symbol and date keeps replicas from running twice.
type DailyScheduler struct {
	cfg        ScheduleConfig
	runner     *BacktestRunner
	dispatcher *SignalDispatcher
	lock       cache.Service
	hub        Broadcaster
	log        *applogger.Logger
	now        func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDailyScheduler(cfg ScheduleConfig, runner *BacktestRunner, dispatcher *SignalDispatcher, lock cache.Service, hub Broadcaster, log *applogger.Logger) *DailyScheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if log == nil {
		log = applogger.Nop()
	}
	cfg.Params.NoCache = true
	return &DailyScheduler{
		cfg:        cfg,
		runner:     runner,
		dispatcher: dispatcher,
		lock:       lock,
		hub:        hub,
		log:        log,
		now:        time.Now,
	}
}

// Start launches the scheduling loop.
func (s *DailyScheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(ctx)
}

func (s *DailyScheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		next := util.NextDailyRun(s.now(), s.cfg.Hour, s.cfg.Minute, s.cfg.Location)
		s.log.Info("next scheduled run", applogger.String("at", next.Format(time.RFC3339)))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error("scheduled run failed", applogger.Error(err))
		}
	}
}

// RunOnce executes one run for today; ran is false when another instance holds the day.
func (s *DailyScheduler) RunOnce(ctx context.Context) (ran bool, err error) {
	p := s.cfg.Params
	day := s.now().In(s.cfg.Location).Format(util.DateLayout)
	key := cache.Key("scheduler", p.Symbol, day)

	if s.lock != nil {
		ok, lerr := s.lock.TryLock(ctx, key, 23*time.Hour)
		if lerr != nil {
			s.log.Warn("scheduler lock unavailable, running anyway", applogger.Error(lerr))
		} else if !ok {
			s.log.Info("scheduled run already taken", applogger.String("day", day))
			return false, nil
		}
	}

	out, err := s.runner.Run(ctx, p)
	if err != nil {
		// release so a retry or another replica can take the day
		if s.lock != nil {
			_ = s.lock.Unlock(context.Background(), key)
		}
		return false, err
	}
	s.Publish(out)
	if s.dispatcher != nil {
		if _, err := s.dispatcher.Dispatch(ctx, p.Symbol, out.Result); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Publish broadcasts the run's decision to live clients.
func (s *DailyScheduler) Publish(out *RunOutput) {
	if s.hub == nil || out == nil {
		return
	}
	s.hub.Broadcast(NewSignalEvent(out, s.now()))
}

// NewSignalEvent builds the live event for a finished run.
func NewSignalEvent(out *RunOutput, at time.Time) SignalEvent {
	return SignalEvent{
		Type:       "signal",
		Symbol:     out.Symbol,
		SignalNext: out.Result.SignalNext,
		Metrics:    out.Result.Metrics,
		At:         at.Unix(),
	}
}

func (s *DailyScheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

