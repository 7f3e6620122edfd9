package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
	ErrNoHandler      = errors.New(errors.ErrCodeValidation, "consumer has no handler")
)

// Handler processes one consumed message.  A returned error triggers the
// retry policy.
type Handler func(ctx context.Context, msg *Message) error

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"`
	Backoff         time.Duration `mapstructure:"backoff"`
	MaxBackoff      time.Duration `mapstructure:"max_backoff"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers        []string       `mapstructure:"brokers"`
	GroupID        string         `mapstructure:"group_id"`
	Topic          string         `mapstructure:"topic"`
	StartOffset    string         `mapstructure:"start_offset"` // earliest, latest
	MaxWait        time.Duration  `mapstructure:"max_wait"`
	CommitInterval time.Duration  `mapstructure:"commit_interval"`
	Retry          RetryConfig    `mapstructure:"retry"`
	Security       SecurityConfig `mapstructure:"security"`
}

// ValidateConsumerConfig validates configuration.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeValidation, "consumer group_id required")
	}
	if cfg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "consumer topic required")
	}
	if cfg.StartOffset != "" && cfg.StartOffset != "earliest" && cfg.StartOffset != "latest" {
		return errors.Newf(errors.ErrCodeValidation, "invalid start_offset %q", cfg.StartOffset)
	}
	if cfg.Retry.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "retry.max_retries must be >= 0")
	}
	return cfg.Security.validate()
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// publisher is the part of Producer the dead-letter path needs.
type publisher interface {
	Publish(ctx context.Context, msg *Message) error
	Close() error
}

// ConsumerStats counts consumed messages.
type ConsumerStats struct {
	Consumed     int64
	Processed    int64
	Failed       int64
	Retried      int64
	DeadLettered int64
}

// Consumer runs a handler over one topic of a consumer group.  Offsets are
// committed after the handler succeeds or the message is given up on.
type Consumer struct {
	reader     ReaderInterface
	retry      RetryConfig
	deadLetter publisher
	logger     logging.Logger
	handler    Handler

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	consumed, processed, failed, retried, deadLettered atomic.Int64
}

// NewConsumer creates a Consumer and, when a dead-letter topic is set, the
// producer that feeds it.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger logging.Logger) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	tlsConfig, err := cfg.Security.tlsConfig()
	if err != nil {
		return nil, err
	}
	mech, err := cfg.Security.mechanism()
	if err != nil {
		return nil, err
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 10 * time.Second
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MaxWait:        cfg.MaxWait,
		CommitInterval: cfg.CommitInterval,
		StartOffset:    kafka.FirstOffset,
		Dialer:         &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true, TLS: tlsConfig, SASLMechanism: mech},
	}
	if cfg.StartOffset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}

	var dl publisher
	if cfg.Retry.DeadLetterTopic != "" {
		p, err := NewProducer(ProducerConfig{Brokers: cfg.Brokers, Security: cfg.Security}, logger)
		if err != nil {
			return nil, err
		}
		dl = p
	}
	return newConsumer(kafka.NewReader(readerCfg), handler, cfg.Retry, dl, logger), nil
}

func newConsumer(r ReaderInterface, h Handler, retry RetryConfig, dl publisher, logger logging.Logger) *Consumer {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.Backoff == 0 {
		retry.Backoff = time.Second
	}
	if retry.MaxBackoff == 0 {
		retry.MaxBackoff = 30 * time.Second
	}
	return &Consumer{
		reader:     r,
		retry:      retry,
		deadLetter: dl,
		handler:    h,
		logger:     logging.OrDefault(logger).Named("kafka_consumer"),
	}
}

// Start runs the consume loop in the background until ctx ends or Close is
// called.
func (c *Consumer) Start(ctx context.Context) error {
	if c.handler == nil {
		return ErrNoHandler
	}
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.loop(ctx)
	c.logger.Info("kafka consumer started")
	return nil
}

func (c *Consumer) loop(ctx context.Context) {
	defer c.wg.Done()
	for ctx.Err() == nil {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch failed", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		c.consumed.Add(1)

		if err := c.process(ctx, fromKafkaMessage(m)); err != nil {
			c.failed.Add(1)
		} else {
			c.processed.Add(1)
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed", logging.Err(err), logging.Int64("offset", m.Offset))
		}
	}
}

// process returns the handler's last error once retries are exhausted and
// the message was dead-lettered or dropped.
func (c *Consumer) process(ctx context.Context, msg *Message) error {
	err := c.handler(ctx, msg)
	backoff := c.retry.Backoff
	for i := 0; err != nil && i < c.retry.MaxRetries; i++ {
		c.retried.Add(1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		err = c.handler(ctx, msg)
		if backoff *= 2; backoff > c.retry.MaxBackoff {
			backoff = c.retry.MaxBackoff
		}
	}
	if err == nil {
		return nil
	}

	c.logger.Error("message processing failed after retries",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Err(err))

	if c.deadLetter != nil && c.retry.DeadLetterTopic != "" {
		headers := make(map[string]string, len(msg.Headers)+2)
		for k, v := range msg.Headers {
			headers[k] = v
		}
		headers["original_topic"] = msg.Topic
		headers["error_message"] = err.Error()
		dl := &Message{Topic: c.retry.DeadLetterTopic, Key: msg.Key, Value: msg.Value, Headers: headers}
		if dlErr := c.deadLetter.Publish(ctx, dl); dlErr != nil {
			c.logger.Error("failed to dead-letter message", logging.Err(dlErr))
		} else {
			c.deadLettered.Add(1)
		}
	}
	return err
}

// Stats returns a snapshot of the counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:     c.consumed.Load(),
		Processed:    c.processed.Load(),
		Failed:       c.failed.Load(),
		Retried:      c.retried.Load(),
		DeadLettered: c.deadLettered.Load(),
	}
}

// Close stops the loop and closes the reader.
func (c *Consumer) Close() error {
	if c.running.CompareAndSwap(true, false) {
		c.cancel()
		c.wg.Wait()
	}
	err := c.reader.Close()
	if c.deadLetter != nil {
		_ = c.deadLetter.Close()
	}
	c.logger.Info("kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

func fromKafkaMessage(m kafka.Message) *Message {
	msg := &Message{
		Topic:     m.Topic,
		Key:       m.Key,
		Value:     m.Value,
		Partition: m.Partition,
		Offset:    m.Offset,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

//Personal.AI order the ending
