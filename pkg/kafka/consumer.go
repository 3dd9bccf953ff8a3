package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	applogger "FinTrack/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Permanent marks err as not worth retrying; the message goes straight to the DLQ.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads one topic in a consumer group and hands messages to a
// worker pool. Offsets are committed after a message is handled or
// dead-lettered.
type Consumer struct {
	cfg     *ConsumerConfig
	handler MessageHandler
	reader  messageReader
	dlq     messageWriter
	hook    ConsumerHook
	log     *applogger.Logger
	metrics *consumerMetrics
}

func NewConsumer(handler MessageHandler, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "fintrack",
		WorkerCount: 1,
		BufferSize:  64,
		RetryMax:    3,
		BackoffMin:  100 * time.Millisecond,
		BackoffMax:  5 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}

	reader := cfg.reader
	if reader == nil {
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("brokers are required")
		}
		reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    handler.Topic(),
			GroupID:  cfg.GroupID,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		})
	}
	dlq := cfg.dlq
	if dlq == nil && cfg.DLQTopic != "" && len(cfg.Brokers) > 0 {
		dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}, AllowAutoTopicCreation: true}
	}

	c := &Consumer{
		cfg:     cfg,
		handler: handler,
		reader:  reader,
		dlq:     dlq,
		hook:    cfg.Hook,
		log:     cfg.Logger,
		metrics: newConsumerMetrics(cfg.Registerer),
	}
	if c.hook == nil {
		c.hook = NoopHook{}
	}
	if c.log == nil {
		c.log = applogger.Nop()
	}
	return c, nil
}

// Run consumes until ctx is cancelled, then drains the workers and closes
// the reader and DLQ writer.
func (c *Consumer) Run(ctx context.Context) error {
	topic := c.handler.Topic()
	queues := make([]chan kafka.Message, c.cfg.WorkerCount)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan kafka.Message, c.cfg.BufferSize)
		wg.Add(1)
		go func(q <-chan kafka.Message) {
			defer wg.Done()
			for msg := range q {
				c.process(ctx, msg)
			}
		}(queues[i])
	}
	c.log.Info("kafka consumer started",
		applogger.String("topic", topic),
		applogger.String("group", c.cfg.GroupID),
		applogger.Int("workers", c.cfg.WorkerCount),
	)

	var runErr error
fetch:
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			runErr = fmt.Errorf("kafka fetch %s: %w", topic, err)
			break
		}
		q := queues[msg.Partition%len(queues)]
		select {
		case q <- msg:
		case <-ctx.Done():
			break fetch
		}
	}

	for _, q := range queues {
		close(q)
	}
	wg.Wait()

	closeErr := c.reader.Close()
	if c.dlq != nil {
		closeErr = errors.Join(closeErr, c.dlq.Close())
	}
	c.log.Info("kafka consumer stopped", applogger.String("topic", topic))
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// process handles one message with retries and commits its offset.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	topic := c.handler.Topic()
	start := time.Now()

	err := c.handleWithRetry(ctx, msg)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// shutting down mid-retry; redelivered after restart
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
		c.log.Error("kafka message failed",
			applogger.String("topic", topic),
			applogger.Int("partition", msg.Partition),
			applogger.Int64("offset", msg.Offset),
			applogger.Error(err),
		)
		if c.dlq == nil || c.cfg.DLQTopic == "" {
			// leave uncommitted so it is redelivered after a restart
			c.metrics.observe(topic, result, time.Since(start))
			return
		}
		if dlqErr := c.deadLetter(msg, err); dlqErr != nil {
			c.log.Error("kafka dlq write failed", applogger.String("dlq", c.cfg.DLQTopic), applogger.Error(dlqErr))
			c.metrics.observe(topic, result, time.Since(start))
			return
		}
		result = "dead_lettered"
	}
	c.metrics.observe(topic, result, time.Since(start))

	// commit with a fresh context so a shutdown does not drop the ack
	commitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
		c.log.Warn("kafka commit failed", applogger.String("topic", topic), applogger.Error(err))
	}
}

// handleWithRetry runs the handler under a context that survives shutdown so
// queued messages drain; only the waits between retries observe ctx.
func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message) error {
	topic := c.handler.Topic()
	hctx, hmsg, data, err := c.hook.BeforeHandle(context.WithoutCancel(ctx), topic, msg, msg.Value)
	if err != nil {
		c.hook.OnError(ctx, topic, msg, msg.Value, err)
		return err
	}

	op := func() error {
		herr := c.handler.Handle(hctx, data)
		c.hook.AfterHandle(hctx, topic, hmsg, data, herr)
		return herr
	}
	notify := func(err error, wait time.Duration) {
		c.hook.OnError(hctx, topic, hmsg, data, err)
		c.log.Warn("kafka handler retry",
			applogger.String("topic", topic),
			applogger.Duration("wait_ms", wait),
			applogger.Error(err),
		)
	}
	return backoff.RetryNotify(op, c.retryPolicy(ctx), notify)
}

func (c *Consumer) retryPolicy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.BackoffMin
	exp.MaxInterval = c.cfg.BackoffMax
	exp.MaxElapsedTime = 0
	exp.RandomizationFactor = 0.5
	retries := c.cfg.RetryMax
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

func (c *Consumer) deadLetter(msg kafka.Message, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.dlq.WriteMessages(ctx, kafka.Message{
		Topic: c.cfg.DLQTopic,
		Key:   msg.Key,
		Value: msg.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "source_topic", Value: []byte(msg.Topic)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
}

type consumerMetrics struct {
	handled *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	return &consumerMetrics{
		handled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_kafka_consumer_messages_total",
			Help: "Messages handled by result",
		}, []string{"topic", "result"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "fintrack_kafka_consumer_handle_seconds",
			Help: "Handling time per message including retries",
		}, []string{"topic"}),
	}
}

func (m *consumerMetrics) observe(topic, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.handled.WithLabelValues(topic, result).Inc()
	m.latency.WithLabelValues(topic).Observe(d.Seconds())
}
