package consumers

import (
	"sync"

	"github.com/segmentio/kafka-go"
)

// offsetTracker remembers fetched offsets per partition in fetch order, so a
// commit never moves past a message that is still being handled.
type offsetTracker struct {
	mu         sync.Mutex
	partitions map[int]*partitionOffsets
}

type partitionOffsets struct {
	pending []int64
	done    map[int64]bool
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{partitions: make(map[int]*partitionOffsets)}
}

func (t *offsetTracker) track(msg kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.partitions[msg.Partition]
	if !ok {
		p = &partitionOffsets{done: make(map[int64]bool)}
		t.partitions[msg.Partition] = p
	}
	p.pending = append(p.pending, msg.Offset)
}

// complete marks msg handled and returns the message to commit, if the
// contiguous handled prefix of its partition grew.
func (t *offsetTracker) complete(msg kafka.Message) (kafka.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.partitions[msg.Partition]
	if !ok {
		return kafka.Message{}, false
	}
	p.done[msg.Offset] = true

	last := int64(-1)
	for len(p.pending) > 0 && p.done[p.pending[0]] {
		last = p.pending[0]
		delete(p.done, last)
		p.pending = p.pending[1:]
	}
	if last < 0 {
		return kafka.Message{}, false
	}
	return kafka.Message{Topic: msg.Topic, Partition: msg.Partition, Offset: last}, true
}
