package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"ZPulse/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler consumes messages of one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerConfig holds reader and worker-pool settings. Zero values fall back
// to safe defaults in NewConsumer.
type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	Workers    int
	BufferSize int
	RetryMax   int
	BackoffMin time.Duration
	BackoffMax time.Duration
	DLQTopic   string
	MinBytes   int
	MaxBytes   int
}

// Consumer fans messages from per-topic readers into a worker pool. Handler
// errors are retried with jittered backoff; messages that exhaust retries go
// to the dead-letter topic so the offset can still advance.
type Consumer struct {
	cfg      ConsumerConfig
	log      *logger.Logger
	handlers map[string]MessageHandler
	readers  map[string]*kafka.Reader
	dlq      *kafka.Writer
	hook     ConsumerHook

	inbox    chan envelope
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu        sync.Mutex
	partLocks map[string]map[int]*sync.Mutex
}

type envelope struct {
	topic string
	msg   kafka.Message
}

// NewConsumer builds a consumer from cfg. Handlers are registered before
// Start.
func NewConsumer(cfg ConsumerConfig, log *logger.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: brokers are required")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "default"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = 50 * time.Millisecond
	}
	if cfg.BackoffMax < cfg.BackoffMin {
		cfg.BackoffMax = 2 * time.Second
	}
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = 10e3
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10e6
	}

	c := &Consumer{
		cfg:       cfg,
		log:       log,
		handlers:  make(map[string]MessageHandler),
		readers:   make(map[string]*kafka.Reader),
		hook:      NoopHook{},
		inbox:     make(chan envelope, cfg.BufferSize),
		stop:      make(chan struct{}),
		partLocks: make(map[string]map[int]*sync.Mutex),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}
	consumerMetrics.init()
	return c, nil
}

// RegisterHandler binds a handler to its topic. Later registrations for the
// same topic are ignored.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	if _, dup := c.handlers[h.Topic()]; dup {
		c.log.Warn("kafka handler already registered", logger.String("topic", h.Topic()))
		return
	}
	c.handlers[h.Topic()] = h
}

// WithConsumerHook installs a lifecycle hook around message handling.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start opens one reader per registered topic and launches the worker pool.
func (c *Consumer) Start() error {
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}

	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	for topic, r := range c.readers {
		c.wg.Add(1)
		go c.readLoop(topic, r)
	}

	c.log.Info("kafka consumer started",
		logger.Int("topics", len(c.readers)),
		logger.Int("workers", c.cfg.Workers))
	return nil
}

// Stop drains the pool and closes the readers, bounded by ctx.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		close(c.stop)
		close(c.inbox)

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-ctx.Done():
			stopErr = fmt.Errorf("consumer shutdown: %w", ctx.Err())
		case <-done:
		}

		for topic, r := range c.readers {
			if err := r.Close(); err != nil {
				c.log.Error("close reader", logger.String("topic", topic), logger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Error("close dlq writer", logger.Error(err))
			}
		}
	})
	return stopErr
}

func (c *Consumer) readLoop(topic string, r *kafka.Reader) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		msg, err := r.ReadMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				c.log.Error("kafka read", logger.String("topic", topic), logger.Error(err))
			}
			continue
		}

		select {
		case c.inbox <- envelope{topic: topic, msg: msg}:
			consumerMetrics.queued(topic, len(c.inbox), cap(c.inbox))
		case <-c.stop:
			return
		}
	}
}

func (c *Consumer) worker() {
	defer c.wg.Done()

	for env := range c.inbox {
		handler, ok := c.handlers[env.topic]
		if !ok {
			continue
		}
		start := time.Now()
		c.handleOne(env, handler)
		consumerMetrics.handled(env.topic, time.Since(start))
	}
}

// handleOne runs the retry loop for a single message under the per-partition
// lock, so at most one message per (topic, partition) is in flight and
// ordering within a partition is preserved.
func (c *Consumer) handleOne(env envelope, handler MessageHandler) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("kafka handler panic",
				logger.String("topic", env.topic),
				logger.Any("panic", r))
		}
	}()

	lock := c.partitionLock(env.topic, env.msg.Partition)
	lock.Lock()
	defer lock.Unlock()

	var err error
	for attempt := 1; ; attempt++ {
		hctx, hmsg, data, berr := c.hook.BeforeHandle(context.Background(), env.topic, env.msg, env.msg.Value)
		if berr != nil {
			err = berr
			break
		}
		err = handler.Handle(hctx, data)
		c.hook.AfterHandle(hctx, env.topic, hmsg, data, err)
		if err == nil || attempt > c.cfg.RetryMax {
			break
		}
		c.hook.OnError(hctx, env.topic, hmsg, data, err)
		select {
		case <-time.After(jitteredBackoff(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.stop:
			return
		}
	}

	if err != nil {
		c.hook.OnError(context.Background(), env.topic, env.msg, env.msg.Value, err)
		c.log.Error("kafka message failed",
			logger.String("topic", env.topic),
			logger.Error(err))
		c.deadLetter(env)
	}

	// Commit on success, or after dead-lettering so a poison message cannot
	// wedge the partition.
	if err == nil || c.dlq != nil {
		if r := c.readers[env.topic]; r != nil {
			c.commit(r, env.msg)
		}
	}
}

func (c *Consumer) deadLetter(env envelope) {
	if c.dlq == nil {
		return
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Value:   env.msg.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(env.topic)}},
	})
	if err != nil {
		c.log.Error("dlq publish", logger.String("topic", c.cfg.DLQTopic), logger.Error(err))
	}
}

func (c *Consumer) commit(r *kafka.Reader, msg kafka.Message) {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, msg)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(jitteredBackoff(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("commit offset", logger.Error(err))
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.partLocks[topic]
	if !ok {
		m = make(map[int]*sync.Mutex)
		c.partLocks[topic] = m
	}
	l, ok := m[partition]
	if !ok {
		l = &sync.Mutex{}
		m[partition] = l
	}
	return l
}

func jitteredBackoff(min, max time.Duration, attempt int) time.Duration {
	exp := min * time.Duration(1<<uint(attempt-1))
	if exp > max {
		exp = max
	}
	jitter := time.Duration(rand.Int63n(int64(exp)/2 + 1))
	return exp - jitter
}

var consumerMetrics = &subMetrics{}

type subMetrics struct {
	once     sync.Once
	depth    *prometheus.GaugeVec
	fullness *prometheus.GaugeVec
	latency  *prometheus.HistogramVec
}

func (m *subMetrics) init() {
	m.once.Do(func() {
		m.depth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{Name: "zpulse_kafka_consumer_queue_depth", Help: "Messages waiting in the worker queue"},
			[]string{"topic"},
		)
		m.fullness = promauto.NewGaugeVec(
			prometheus.GaugeOpts{Name: "zpulse_kafka_consumer_queue_fullness", Help: "Worker queue utilization (len/cap)"},
			[]string{"topic"},
		)
		m.latency = promauto.NewHistogramVec(
			prometheus.HistogramOpts{Name: "zpulse_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)
	})
}

func (m *subMetrics) queued(topic string, depth, capacity int) {
	if m.depth == nil {
		return
	}
	m.depth.WithLabelValues(topic).Set(float64(depth))
	m.fullness.WithLabelValues(topic).Set(float64(depth) / float64(capacity))
}

func (m *subMetrics) handled(topic string, dur time.Duration) {
	if m.latency == nil {
		return
	}
	m.latency.WithLabelValues(topic).Observe(dur.Seconds())
}
