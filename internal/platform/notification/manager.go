package notification

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps the final state of notifications the dispatcher has handled.
type Store struct {
	mu            sync.RWMutex
	notifications map[string]*Notification
}

func NewStore() *Store {
	return &Store{notifications: make(map[string]*Notification)}
}

func (s *Store) Save(n *Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications[n.ID] = &cp
}

func (s *Store) Get(id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotificationNotFound, id)
	}
	cp := *n
	return &cp, nil
}

// ListByRecipient returns up to limit notifications for recipient, newest first.
func (s *Store) ListByRecipient(recipient string, limit int) []*Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Notification
	for _, n := range s.notifications {
		if n.Recipient == recipient {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats counts notifications by status.
func (s *Store) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := make(map[string]int)
	for _, n := range s.notifications {
		stats[n.Status]++
	}
	return stats
}

// Manager accepts notifications and puts them on the queue.
type Manager struct {
	queue     Queue
	templates *TemplateEngine
	store     *Store
	now       func() time.Time
}

func NewManager(queue Queue, templates *TemplateEngine, store *Store) *Manager {
	return &Manager{queue: queue, templates: templates, store: store, now: time.Now}
}

// Enqueue assigns an ID and timestamps, renders the template when one is
// named, records the notification as pending and queues it.
func (m *Manager) Enqueue(ctx context.Context, n *Notification) error {
	if n.Recipient == "" {
		return ErrNoRecipient
	}
	if n.TemplateID != "" {
		subject, body, err := m.templates.Render(n.TemplateID, n.TemplateData)
		if err != nil {
			return fmt.Errorf("render template: %w", err)
		}
		n.Subject, n.Body = subject, body
		if n.Type == "" {
			if t, ok := m.templates.Lookup(n.TemplateID); ok {
				n.Type = t.Type
			}
		}
	}
	if n.Type == "" {
		n.Type = TypeEmail
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := m.now().UTC()
	n.CreatedAt = now
	if n.SendAt.IsZero() {
		n.SendAt = now
	}
	n.Status = StatusPending

	if err := m.queue.Push(ctx, n); err != nil {
		return err
	}
	m.store.Save(n)
	return nil
}

func (m *Manager) Store() *Store { return m.store }
