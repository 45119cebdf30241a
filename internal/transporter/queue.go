package transporter

import (
	"sync"

	"github.com/ProxymanApp/atlantis-go/internal/domain"
)

// sendQueue buffers outbound messages while the socket is unavailable.
// Bounded FIFO: overflow evicts the oldest entry, so a long disconnection
// keeps the most recent window of traffic. Lossy on purpose.
type sendQueue struct {
	mu       sync.Mutex
	items    []*domain.Message
	capacity int
}

func newSendQueue(capacity int) *sendQueue {
	if capacity <= 0 {
		capacity = 50
	}
	return &sendQueue{items: make([]*domain.Message, 0, capacity), capacity: capacity}
}

// Enqueue appends m, evicting the oldest entry first when at capacity.
// Never blocks. Reports whether an eviction happened.
func (q *sendQueue) Enqueue(m *domain.Message) (evicted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
		evicted = true
	}
	q.items = append(q.items, m)
	return evicted
}

// PushFront puts a message back at the head after a failed send so it leads
// the next flush.
func (q *sendQueue) PushFront(m *domain.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		q.items = q.items[:len(q.items)-1]
	}
	q.items = append([]*domain.Message{m}, q.items...)
}

// DrainInto pops entries oldest-first and hands each to sink. The queue lock
// is not held across sink calls, so enqueues during a flush don't block on
// socket I/O. Draining stops at the first sink error; the failed entry goes
// back to the front.
func (q *sendQueue) DrainInto(sink func(*domain.Message) error) error {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			return nil
		}
		m := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		if err := sink(m); err != nil {
			q.PushFront(m)
			return err
		}
	}
}

func (q *sendQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *sendQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
}
