package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	drepo "QuantSuperior/internal/domain/repository"
	"QuantSuperior/internal/engine"
	"QuantSuperior/internal/handler/api"
	"QuantSuperior/internal/handler/ws"
	internalrepo "QuantSuperior/internal/repository"
	"QuantSuperior/internal/service/marketdata"
	"QuantSuperior/internal/service/notify"
	"QuantSuperior/internal/service/ratelimit"
	"QuantSuperior/internal/usecase"
	"QuantSuperior/pkg/cache"
	pkgch "QuantSuperior/pkg/clickhouse"
	"QuantSuperior/pkg/config"
	xhttp "QuantSuperior/pkg/http"
	"QuantSuperior/pkg/http/middleware"
	pkgkafka "QuantSuperior/pkg/kafka"
	applogger "QuantSuperior/pkg/logger"
	"QuantSuperior/pkg/metrics"
	"QuantSuperior/pkg/queue"
	"QuantSuperior/pkg/server"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.LogLevel(),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the registry every collector registers against.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideRedisCache connects to Redis when enabled; nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache puts an in-process L1 in front of Redis, or uses memory alone.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	memOpts := []cache.MemoryOption{
		cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
		cache.WithMemoryTTL(cfg.MarketData.CacheTTL),
	}
	if rc == nil {
		return cache.NewMemoryCache(memOpts...)
	}
	return cache.NewLayeredCache(rc, memOpts...)
}

// ProvideClickHouseClient connects and creates the bar table; nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.BarSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideBarStore returns the ClickHouse store, or nil without ClickHouse.
func ProvideBarStore(ch *pkgch.Client) drepo.BarStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHBarStore(ch)
}

func kafkaEnabled(cfg *config.Config) bool {
	return len(cfg.Kafka.Brokers) > 0 &&
		(cfg.Notify.Transport == config.TransportKafka || cfg.Kafka.Consumer.Enabled)
}

// ProvideKafkaProducer creates a producer when any Kafka feature is on.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if !kafkaEnabled(cfg) {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogDigest ships deduplicated warn/error lines to the log topic and
// attaches itself to log.
func ProvideLogDigest(cfg *config.Config, producer *pkgkafka.Producer, log *applogger.Logger) *applogger.Digest {
	if producer == nil || cfg.Kafka.LogTopic == "" {
		return nil
	}
	d := applogger.NewDigest(applogger.DigestConfig{
		Interval:  30 * time.Second,
		Topic:     cfg.Kafka.LogTopic,
		Publisher: producer,
	})
	log.AttachDigest(d)
	return d
}

func ProvideSignalPublisher(cfg *config.Config, producer *pkgkafka.Producer) drepo.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalTopic)
}

// ProvideQueue builds the Redis job queue for the queue transport.
func ProvideQueue(cfg *config.Config, log *applogger.Logger, rc *cache.RedisCache) *queue.RedisQueue {
	if rc == nil || cfg.Notify.Transport != config.TransportQueue {
		return nil
	}
	return queue.NewRedisQueue(log.With(applogger.String("component", "queue")), &queue.QueueConfig{
		Workers:      cfg.Queue.Workers,
		RetryLimit:   cfg.Queue.MaxRetries,
		PollInterval: cfg.Queue.PollInterval,
	}, rc.Client(), queue.WithKeyPrefix(cache.Key(cfg.Cache.Redis.Prefix, "queue", cfg.Queue.Name)))
}

func ProvideNotifier(cfg *config.Config) drepo.Notifier {
	s := cfg.Notify.SMTP
	return notify.NewEmailNotifier(notify.SMTPConfig{
		Host:      s.Host,
		Port:      s.Port,
		Sender:    s.Sender,
		Password:  s.Password,
		Recipient: s.Recipient,
	})
}

// ProvideDispatcher routes LONG alerts to the configured transport.
func ProvideDispatcher(
	cfg *config.Config,
	notifier drepo.Notifier,
	q *queue.RedisQueue,
	pub drepo.SignalPublisher,
	m drepo.Metrics,
	log *applogger.Logger,
) (*usecase.SignalDispatcher, error) {
	deps := usecase.DispatcherDeps{
		Notifier:  notifier,
		Publisher: pub,
		Metrics:   m,
		Log:       log.With(applogger.String("component", "dispatcher")),
	}
	if q != nil {
		deps.Queue = q
	}
	enabled := cfg.Notify.SendEmail && cfg.Notify.Transport != config.TransportNone
	d, err := usecase.NewSignalDispatcher(enabled, cfg.Notify.Transport, deps)
	if err != nil {
		return nil, fmt.Errorf("signal dispatcher: %w", err)
	}
	return d, nil
}

func ProvideBarProvider(cfg *config.Config) drepo.BarProvider {
	client := xhttp.NewClient(
		xhttp.WithTimeout(cfg.MarketData.Timeout),
		xhttp.WithUserAgent(cfg.MarketData.UserAgent),
	)
	return marketdata.NewYahooProvider(cfg.MarketData.BaseURL, client)
}

// ProvideEngineConfig translates the strategy section to engine settings.
func ProvideEngineConfig(cfg *config.Config) engine.Config {
	ec := engine.DefaultConfig()
	ec.CostBpsPerSide = cfg.Strategy.CostBps
	if len(cfg.Strategy.AllowedWeekdays) > 0 {
		ec.AllowedWeekdays = append([]int(nil), cfg.Strategy.AllowedWeekdays...)
	}
	if cfg.Strategy.VolumeWindow > 0 {
		ec.VolumeWindow = cfg.Strategy.VolumeWindow
	}
	return ec
}

func ProvideRunner(
	cfg *config.Config,
	ec engine.Config,
	provider drepo.BarProvider,
	store drepo.BarStore,
	c cache.Service,
	m drepo.Metrics,
	log *applogger.Logger,
) *usecase.BacktestRunner {
	return usecase.NewBacktestRunner(provider, store, c, m, log.With(applogger.String("component", "runner")), usecase.RunnerConfig{
		Engine:      ec,
		IndexSymbol: cfg.Strategy.IndexSymbol,
		VolSymbol:   cfg.Strategy.VolSymbol,
		CacheTTL:    cfg.MarketData.CacheTTL,
	})
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.Server.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window)
}

func ProvideHub(log *applogger.Logger) *ws.Hub {
	return ws.NewHub(log.With(applogger.String("component", "ws")))
}

func ProvideAPIHandler(
	log *applogger.Logger,
	runner *usecase.BacktestRunner,
	dispatcher *usecase.SignalDispatcher,
	limiter *ratelimit.Limiter,
	hub *ws.Hub,
) *api.QuantEchoHandler {
	var allow middleware.Allower
	if limiter != nil {
		allow = limiter
	}
	return api.NewQuantEchoHandler(log.With(applogger.String("component", "api")), runner, dispatcher, allow).
		WithBroadcaster(hub)
}

// ProvideHTTPServer mounts the API and the WebSocket hub.
func ProvideHTTPServer(
	cfg *config.Config,
	log *applogger.Logger,
	reg *prometheus.Registry,
	h *api.QuantEchoHandler,
	hub *ws.Hub,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(xhttp.Handlers{h, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.AllowOrigins...),
		xhttp.WithMetrics(metricsPath, reg, reg),
		xhttp.WithLogger(log.With(applogger.String("component", "http"))),
	)
}

// ProvideScheduler returns the daily run, or nil when scheduling is off.
func ProvideScheduler(
	cfg *config.Config,
	runner *usecase.BacktestRunner,
	dispatcher *usecase.SignalDispatcher,
	c cache.Service,
	hub *ws.Hub,
	log *applogger.Logger,
) *usecase.DailyScheduler {
	if !cfg.Schedule.Enabled {
		return nil
	}
	return usecase.NewDailyScheduler(usecase.ScheduleConfig{
		Hour:     cfg.Schedule.Hour,
		Minute:   cfg.Schedule.Minute,
		Location: cfg.Location(),
		Params: usecase.RunParams{
			Symbol: cfg.Strategy.Symbol,
			Period: drepo.NormalizePeriod(cfg.Strategy.Period),
			Limit:  cfg.Strategy.Limit,
		},
	}, runner, dispatcher, c, hub, log.With(applogger.String("component", "scheduler")))
}

func ProvideAlertHandler(cfg *config.Config, notifier drepo.Notifier, m drepo.Metrics) *usecase.SignalAlertHandler {
	return usecase.NewSignalAlertHandler(cfg.Kafka.SignalTopic, notifier, m)
}

// ProvideKafkaConsumer creates the alert consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, log *applogger.Logger, reg *prometheus.Registry) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	cc := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(log.With(applogger.String("component", "kafka")),
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cc.GroupID),
		pkgkafka.WithConsumerWorkers(cc.Workers),
		pkgkafka.WithConsumerRetry(cc.RetryMax, cc.BackoffMin, cc.BackoffMax),
		pkgkafka.WithConsumerDLQ(cc.DLQTopic),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideApp collects the long-running components.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	srv *xhttp.Server,
	hub *ws.Hub,
	scheduler *usecase.DailyScheduler,
	consumer *pkgkafka.Consumer,
	alerts *usecase.SignalAlertHandler,
	q *queue.RedisQueue,
	notifier drepo.Notifier,
	m drepo.Metrics,
	limiter *ratelimit.Limiter,
	digest *applogger.Digest,
	c cache.Service,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	comp := server.Components{
		HTTP:      srv,
		Hub:       hub,
		Scheduler: scheduler,
		Consumer:  consumer,
		Alerts:    alerts,
		Queue:     q,
		Limiter:   limiter,
		Digest:    digest,
		Closers:   map[string]io.Closer{},
	}
	if q != nil {
		comp.Jobs = []queue.Job{usecase.NewSignalEmailJob(notifier, m)}
	}
	// closing the layered cache also closes Redis
	if closer, ok := c.(io.Closer); ok {
		comp.Closers["cache"] = closer
	}
	if ch != nil {
		comp.Closers["clickhouse"] = ch
	}
	if producer != nil {
		comp.Closers["kafka_producer"] = producer
	}
	return server.New(cfg, log, comp)
}
