package notification

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Queue holds notifications until they are due.
type Queue interface {
	Push(ctx context.Context, n *Notification) error
	// PopDue removes and returns up to limit notifications whose SendAt is at
	// or before now, earliest first.
	PopDue(ctx context.Context, now time.Time, limit int) ([]*Notification, error)
}

// MemoryQueue is a process-local Queue.
type MemoryQueue struct {
	mu    sync.Mutex
	items []*Notification
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Push(_ context.Context, n *Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := sort.Search(len(q.items), func(i int) bool {
		return q.items[i].SendAt.After(n.SendAt)
	})
	q.items = append(q.items, nil)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = n
	return nil
}

func (q *MemoryQueue) PopDue(_ context.Context, now time.Time, limit int) ([]*Notification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for n < len(q.items) && n < limit && !q.items[n].SendAt.After(now) {
		n++
	}
	due := make([]*Notification, n)
	copy(due, q.items[:n])
	q.items = q.items[n:]
	return due, nil
}

// Len reports how many notifications are waiting.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
