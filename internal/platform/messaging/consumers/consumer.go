package consumers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/banquito-core-processor/internal/config"
	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// KafkaReader wraps kafka.Reader methods for testing
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer using a consumer-group reader
type KafkaConsumer struct {
	reader      KafkaReader
	logger      *slog.Logger
	topic       string
	groupID     string
	fetchPause  time.Duration
	maxInFlight int
	commitMu    sync.Mutex
	committed   map[int]int64
	done        chan struct{}
}

const commitTimeout = 5 * time.Second

// NewKafkaConsumer creates a group reader on the request topic. maxInFlight bounds how many
// messages are handed to the handler concurrently.
func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig, maxInFlight int) *KafkaConsumer {
	startOffset := cfg.StartOffset
	if startOffset == 0 {
		startOffset = kafka.FirstOffset
	}

	return &KafkaConsumer{
		logger:      logger,
		topic:       cfg.RequestTopic,
		groupID:     cfg.ConsumerGroup,
		fetchPause:  time.Second,
		maxInFlight: maxInFlight,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.RequestTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: startOffset,
		}),
	}
}

// Subscribe starts consuming in the background. Done is closed when the loop exits.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	if handler == nil {
		return errors.New("message handler cannot be nil")
	}

	c.logger.Info("Subscribed to Kafka topic",
		"topic", c.topic,
		"group_id", c.groupID,
	)

	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		c.consume(ctx, handler)
	}()
	return nil
}

// Done reports when the consume loop has stopped
func (c *KafkaConsumer) Done() <-chan struct{} {
	return c.done
}

// consume fetches until ctx ends, keeping up to maxInFlight messages in the handler at once.
// Offsets are committed per partition up to the last message whose predecessors all finished.
func (c *KafkaConsumer) consume(ctx context.Context, handler MessageHandler) {
	maxInFlight := c.maxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	slots := make(chan struct{}, maxInFlight)
	offsets := newOffsetTracker()

	var inFlight sync.WaitGroup
	defer inFlight.Wait()

	for {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			c.logger.Info("Context canceled, stopping consumer", "topic", c.topic, "group_id", c.groupID)
			return
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			<-slots
			if ctx.Err() != nil {
				c.logger.Info("Context canceled, stopping consumer", "topic", c.topic, "group_id", c.groupID)
				return
			}
			c.logger.Error("Failed to fetch message from Kafka", "topic", c.topic, "group_id", c.groupID, "error", err)
			if errors.Is(err, io.EOF) {
				return
			}
			time.Sleep(c.fetchPause)
			continue
		}

		c.logger.Debug("Received message from Kafka",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)

		offsets.track(msg)
		inFlight.Add(1)
		go func(msg kafka.Message) {
			defer inFlight.Done()
			defer func() { <-slots }()

			if !c.handle(ctx, handler, msg) {
				return
			}
			if next, ok := offsets.complete(msg); ok {
				c.commit(ctx, next)
			}
		}(msg)
	}
}

// handle retries a failed message after fetchPause until it succeeds or ctx ends
func (c *KafkaConsumer) handle(ctx context.Context, handler MessageHandler, msg kafka.Message) bool {
	for {
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return true
		}
		c.logger.Error("Failed to process message, retrying",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)

		select {
		case <-ctx.Done():
			c.logger.Warn("Consumer stopping, message left uncommitted",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			return false
		case <-time.After(c.fetchPause):
		}
	}
}

func (c *KafkaConsumer) commit(ctx context.Context, msg kafka.Message) {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	if c.committed == nil {
		c.committed = make(map[int]int64)
	}
	if last, ok := c.committed[msg.Partition]; ok && msg.Offset <= last {
		return
	}

	// handlers finishing at shutdown still get their offsets stored
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
		c.logger.Error("Failed to commit message after successful processing",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return
	}
	c.committed[msg.Partition] = msg.Offset
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
