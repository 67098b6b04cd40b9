package producers

import (
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTopicAdmin struct {
	partitions []kafka.Partition
	readErr    error
	createErr  error
	reads      int
	created    []kafka.TopicConfig
}

func (f *fakeTopicAdmin) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	f.reads++
	return f.partitions, f.readErr
}

func (f *fakeTopicAdmin) CreateTopics(topics ...kafka.TopicConfig) error {
	f.created = append(f.created, topics...)
	return f.createErr
}

func noBackoff(t *testing.T) {
	t.Helper()
	previous := partitionReadBackoff
	partitionReadBackoff = time.Millisecond
	t.Cleanup(func() { partitionReadBackoff = previous })
}

func TestCreateKafkaTopicIfNotExists(t *testing.T) {
	t.Run("ExistingTopic", func(t *testing.T) {
		admin := &fakeTopicAdmin{partitions: []kafka.Partition{{Topic: "results", ID: 0}}}

		err := createKafkaTopicIfNotExists(admin, "results", 3, 1, testLogger())

		require.NoError(t, err)
		assert.Equal(t, 1, admin.reads)
		assert.Empty(t, admin.created)
	})

	t.Run("MissingTopicIsCreatedWithDefaults", func(t *testing.T) {
		noBackoff(t)
		admin := &fakeTopicAdmin{readErr: errors.New("unknown topic")}

		err := createKafkaTopicIfNotExists(admin, "alerts", 0, 0, testLogger())

		require.NoError(t, err)
		assert.Equal(t, partitionReadAttempts, admin.reads)
		require.Len(t, admin.created, 1)
		assert.Equal(t, kafka.TopicConfig{Topic: "alerts", NumPartitions: 1, ReplicationFactor: 1}, admin.created[0])
	})

	t.Run("CreationFailure", func(t *testing.T) {
		noBackoff(t)
		admin := &fakeTopicAdmin{readErr: errors.New("unknown topic"), createErr: errors.New("not controller")}

		err := createKafkaTopicIfNotExists(admin, "alerts", 2, 1, testLogger())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create kafka topic alerts")
	})
}
