package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	applogger "QuantSuperior/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads registered topics and dispatches messages to a worker pool.
// Offsets are committed after successful handling, or after a DLQ write.
type Consumer struct {
	cfg      *ConsumerConfig
	log      *applogger.Logger
	handlers map[string]MessageHandler
	readers  map[string]messageReader
	dlq      messageWriter
	hook     ConsumerHook
	metrics  *consumerMetrics

	msgs     chan kafka.Message
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewConsumer(log *applogger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "default",
		WorkerCount: 1,
		BufferSize:  16,
		RetryMax:    3,
		BackoffMin:  100 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if log == nil {
		log = applogger.Nop()
	}
	c := &Consumer{
		cfg:      cfg,
		log:      log,
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]messageReader),
		hook:     NoopHook{},
		metrics:  newConsumerMetrics(cfg.Registerer),
		msgs:     make(chan kafka.Message, cfg.BufferSize),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}, AllowAutoTopicCreation: true}
	}
	return c, nil
}

// RegisterHandler registers a handler; a second handler for the same topic is ignored.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	if _, ok := c.handlers[h.Topic()]; ok {
		c.log.Warn("kafka handler already registered", applogger.String("topic", h.Topic()))
		return
	}
	c.handlers[h.Topic()] = h
}

// SetHook installs a lifecycle hook.
func (c *Consumer) SetHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start creates a reader per topic and launches the workers.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return errors.New("kafka consumer: no handlers registered")
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	for topic := range c.handlers {
		if _, ok := c.readers[topic]; !ok {
			c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
				Brokers:  c.cfg.Brokers,
				Topic:    topic,
				GroupID:  c.cfg.GroupID,
				MinBytes: c.cfg.MinBytes,
				MaxBytes: c.cfg.MaxBytes,
			})
		}
	}

	var workers sync.WaitGroup
	for i := 0; i < c.cfg.WorkerCount; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for km := range c.msgs {
				c.process(ctx, km)
			}
		}()
	}

	var fetchers sync.WaitGroup
	for topic, r := range c.readers {
		fetchers.Add(1)
		go func(topic string, r messageReader) {
			defer fetchers.Done()
			c.fetch(ctx, topic, r)
		}(topic, r)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fetchers.Wait()
		close(c.msgs)
		workers.Wait()
	}()

	c.log.Info("kafka consumer started",
		applogger.Int("topics", len(c.readers)),
		applogger.Int("workers", c.cfg.WorkerCount),
		applogger.String("group", c.cfg.GroupID),
	)
	return nil
}

func (c *Consumer) fetch(ctx context.Context, topic string, r messageReader) {
	for {
		km, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			select {
			case <-time.After(c.cfg.BackoffMin):
			case <-ctx.Done():
				return
			}
			continue
		}
		select {
		case c.msgs <- km:
			c.metrics.depth(topic, len(c.msgs))
		case <-ctx.Done():
			return
		}
	}
}

// process runs the handler with retries, then commits or dead-letters.
func (c *Consumer) process(ctx context.Context, km kafka.Message) {
	h, ok := c.handlers[km.Topic]
	if !ok {
		return
	}
	start := time.Now()

	var err error
	attempt := 0
	for {
		attempt++
		err = c.handleOnce(ctx, h, km, attempt)
		if err == nil || attempt > c.cfg.RetryMax {
			break
		}
		select {
		case <-time.After(backoff(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-ctx.Done():
			// uncommitted; redelivered after restart
			return
		}
	}

	if err != nil {
		c.log.Error("kafka message failed",
			applogger.String("topic", km.Topic),
			applogger.Int("partition", km.Partition),
			applogger.Int64("offset", km.Offset),
			applogger.Int("attempts", attempt),
			applogger.Error(err),
		)
		if !c.deadLetter(ctx, km, err) {
			c.metrics.handled(km.Topic, "failed", time.Since(start))
			return
		}
	}

	if r := c.readers[km.Topic]; r != nil {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if cerr := r.CommitMessages(cctx, km); cerr != nil {
			c.log.Warn("kafka commit failed", applogger.String("topic", km.Topic), applogger.Error(cerr))
		}
		cancel()
	}
	result := "ok"
	if err != nil {
		result = "dlq"
	}
	c.metrics.handled(km.Topic, result, time.Since(start))
}

func (c *Consumer) handleOnce(ctx context.Context, h MessageHandler, km kafka.Message, attempt int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	hctx, err := c.hook.BeforeHandle(ctx, km)
	if err != nil {
		c.hook.AfterHandle(ctx, km, attempt, err)
		return err
	}
	err = h.Handle(hctx, km.Value)
	c.hook.AfterHandle(hctx, km, attempt, err)
	return err
}

func (c *Consumer) deadLetter(ctx context.Context, km kafka.Message, cause error) bool {
	if c.dlq == nil || c.cfg.DLQTopic == "" {
		return false
	}
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Topic: c.cfg.DLQTopic,
		Key:   km.Key,
		Value: km.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "source_topic", Value: []byte(km.Topic)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
	if err != nil {
		c.log.Error("kafka dlq write failed", applogger.String("dlq", c.cfg.DLQTopic), applogger.Error(err))
		return false
	}
	return true
}

// Stop cancels fetching, drains workers and closes readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			stopErr = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		}
		for topic, r := range c.readers {
			if err := r.Close(); err != nil {
				c.log.Warn("kafka reader close failed", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			_ = c.dlq.Close()
		}
		c.log.Info("kafka consumer stopped")
	})
	return stopErr
}

func backoff(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := min << uint(attempt-1)
	if d > max || d <= 0 {
		d = max
	}
	half := int64(d) / 2
	if half <= 0 {
		return d
	}
	return d - time.Duration(rand.Int63n(half))
}

type consumerMetrics struct {
	queue   *prometheus.GaugeVec
	latency *prometheus.HistogramVec
	results *prometheus.CounterVec
}

func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	return &consumerMetrics{
		queue: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quant_kafka_consumer_queue_depth",
			Help: "Messages waiting for a worker",
		}, []string{"topic"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "quant_kafka_consumer_handle_seconds",
			Help: "Handling time per message including retries",
		}, []string{"topic"}),
		results: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quant_kafka_consumer_messages_total",
			Help: "Handled messages by result",
		}, []string{"topic", "result"}),
	}
}

func (m *consumerMetrics) depth(topic string, n int) {
	if m != nil {
		m.queue.WithLabelValues(topic).Set(float64(n))
	}
}

func (m *consumerMetrics) handled(topic, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(topic, result).Inc()
	m.latency.WithLabelValues(topic).Observe(d.Seconds())
}
