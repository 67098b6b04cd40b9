package consumers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/banquito-core-processor/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader hands out queued messages, then blocks until the context ends
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	fetchErrs []error
	committed []kafka.Message
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.fetchErrs) > 0 {
		err := f.fetchErrs[0]
		f.fetchErrs = f.fetchErrs[1:]
		f.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(f.messages) > 0 {
		msg := f.messages[0]
		f.messages = f.messages[1:]
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) committedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.committed))
	for _, msg := range f.committed {
		keys = append(keys, string(msg.Key))
	}
	return keys
}

func (f *fakeReader) committedOffsets() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	offsets := make([]int64, 0, len(f.committed))
	for _, msg := range f.committed {
		offsets = append(offsets, msg.Offset)
	}
	return offsets
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:       "localhost:9092",
		RequestTopic:  "core_transaction_requests",
		ConsumerGroup: "core-worker-group",
		MinBytes:      1024,
		MaxBytes:      10240,
		MaxWait:       time.Second,
	}

	consumer := NewKafkaConsumer(context.Background(), testLogger(), cfg, 8)
	require.NotNil(t, consumer)
	assert.Equal(t, 8, consumer.maxInFlight)
	assert.NotNil(t, consumer.reader)
	assert.Equal(t, "core_transaction_requests", consumer.topic)
	assert.Equal(t, "core-worker-group", consumer.groupID)
	assert.NoError(t, consumer.Close())
}

func TestKafkaConsumer_RetriesFailedMessageBeforeCommitting(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Key: []byte("ok-1"), Value: []byte("a"), Offset: 0},
		{Key: []byte("flaky"), Value: []byte("b"), Offset: 1},
		{Key: []byte("ok-2"), Value: []byte("c"), Offset: 2},
	}}
	consumer := &KafkaConsumer{reader: reader, logger: testLogger(), topic: "requests", fetchPause: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var handled []string
	flakyFailures := 1
	handler := func(_ context.Context, key, _ []byte) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, string(key))
		if string(key) == "flaky" && flakyFailures > 0 {
			flakyFailures--
			return errors.New("transient failure")
		}
		return nil
	}

	require.NoError(t, consumer.Subscribe(ctx, handler))
	assert.Eventually(t, func() bool {
		return len(reader.committedOffsets()) > 0 && reader.committedOffsets()[len(reader.committedOffsets())-1] == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-consumer.Done():
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"ok-1", "flaky", "flaky", "ok-2"}, handled)
	assert.Equal(t, []int64{0, 1, 2}, reader.committedOffsets())
}

func TestKafkaConsumer_FailingMessageIsNotCommittedOnShutdown(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Key: []byte("broken"), Value: []byte("a"), Offset: 0},
		{Key: []byte("ok"), Value: []byte("b"), Offset: 1},
	}}
	consumer := &KafkaConsumer{reader: reader, logger: testLogger(), topic: "requests", fetchPause: time.Millisecond, maxInFlight: 2}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	handler := func(_ context.Context, key, _ []byte) error {
		if string(key) == "broken" {
			attempts.Add(1)
			return errors.New("dlq unavailable")
		}
		return nil
	}

	require.NoError(t, consumer.Subscribe(ctx, handler))
	assert.Eventually(t, func() bool { return attempts.Load() >= 3 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-consumer.Done():
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}

	assert.Empty(t, reader.committedOffsets())
}

func TestKafkaConsumer_HandlesMessagesConcurrently(t *testing.T) {
	const inFlight = 4
	var messages []kafka.Message
	for i := 0; i < inFlight; i++ {
		messages = append(messages, kafka.Message{Key: []byte(fmt.Sprintf("req-%d", i)), Value: []byte("v"), Offset: int64(i)})
	}
	reader := &fakeReader{messages: messages}
	consumer := &KafkaConsumer{reader: reader, logger: testLogger(), topic: "requests", fetchPause: time.Millisecond, maxInFlight: inFlight}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	var running, peak atomic.Int32
	handler := func(_ context.Context, _, _ []byte) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return nil
	}

	require.NoError(t, consumer.Subscribe(ctx, handler))
	assert.Eventually(t, func() bool { return peak.Load() == inFlight }, time.Second, time.Millisecond)
	assert.Empty(t, reader.committedOffsets())

	close(release)
	assert.Eventually(t, func() bool {
		offsets := reader.committedOffsets()
		return len(offsets) > 0 && offsets[len(offsets)-1] == inFlight-1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-consumer.Done()

	offsets := reader.committedOffsets()
	for i := 1; i < len(offsets); i++ {
		assert.Greater(t, offsets[i], offsets[i-1])
	}
}

func TestKafkaConsumer_BoundsMessagesInFlight(t *testing.T) {
	var messages []kafka.Message
	for i := 0; i < 6; i++ {
		messages = append(messages, kafka.Message{Key: []byte(fmt.Sprintf("req-%d", i)), Value: []byte("v"), Offset: int64(i)})
	}
	reader := &fakeReader{messages: messages}
	consumer := &KafkaConsumer{reader: reader, logger: testLogger(), topic: "requests", fetchPause: time.Millisecond, maxInFlight: 2}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	var started atomic.Int32
	handler := func(_ context.Context, _, _ []byte) error {
		started.Add(1)
		<-release
		return nil
	}

	require.NoError(t, consumer.Subscribe(ctx, handler))
	assert.Eventually(t, func() bool { return started.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), started.Load())

	close(release)
	assert.Eventually(t, func() bool { return started.Load() == 6 }, time.Second, time.Millisecond)
	cancel()
	<-consumer.Done()
}

func TestKafkaConsumer_CommitWaitsForEarlierOffsets(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Key: []byte("slow"), Value: []byte("a"), Offset: 10},
		{Key: []byte("fast-1"), Value: []byte("b"), Offset: 11},
		{Key: []byte("fast-2"), Value: []byte("c"), Offset: 12},
	}}
	consumer := &KafkaConsumer{reader: reader, logger: testLogger(), topic: "requests", fetchPause: time.Millisecond, maxInFlight: 3}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	var fastDone atomic.Int32
	handler := func(_ context.Context, key, _ []byte) error {
		if string(key) == "slow" {
			<-release
			return nil
		}
		fastDone.Add(1)
		return nil
	}

	require.NoError(t, consumer.Subscribe(ctx, handler))
	assert.Eventually(t, func() bool { return fastDone.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, reader.committedOffsets())

	close(release)
	assert.Eventually(t, func() bool { return len(reader.committedOffsets()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []int64{12}, reader.committedOffsets())

	cancel()
	<-consumer.Done()
}

func TestKafkaConsumer_RetriesFetchErrorsAndStopsOnEOF(t *testing.T) {
	reader := &fakeReader{fetchErrs: []error{errors.New("broker not available"), io.EOF}}
	consumer := &KafkaConsumer{reader: reader, logger: testLogger(), topic: "requests", fetchPause: time.Millisecond}

	require.NoError(t, consumer.Subscribe(context.Background(), func(context.Context, []byte, []byte) error { return nil }))

	select {
	case <-consumer.Done():
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop on EOF")
	}
	assert.Empty(t, reader.committedKeys())
}

func TestKafkaConsumer_SubscribeRequiresHandler(t *testing.T) {
	consumer := &KafkaConsumer{reader: &fakeReader{}, logger: testLogger()}
	assert.Error(t, consumer.Subscribe(context.Background(), nil))
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{reader: nil, logger: testLogger()}
		require.NoError(t, consumer.Close())
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := &KafkaConsumer{reader: reader, logger: testLogger()}
		require.NoError(t, consumer.Close())
		assert.True(t, reader.closed)
	})
}
