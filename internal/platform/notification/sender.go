package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Sender delivers one notification over its channel.
type Sender interface {
	Send(ctx context.Context, n *Notification) error
}

// LogSender writes notifications to the log instead of a real channel.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, n *Notification) error {
	if n.Recipient == "" {
		return ErrNoRecipient
	}
	s.logger.Info().
		Str("notification_id", n.ID).
		Str("type", string(n.Type)).
		Str("recipient", n.Recipient).
		Str("subject", n.Subject).
		Msg("notification delivered")
	return nil
}

// BreakerSender stops calling a failing sender until it has had time to
// recover. While the breaker is open Send returns gobreaker.ErrOpenState.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

// BreakerSettings tunes a BreakerSender.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	MinRequests      uint32
	FailureThreshold float64
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "notification-sender",
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}
}

func NewBreakerSender(next Sender, bs BreakerSettings, logger zerolog.Logger) *BreakerSender {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        bs.Name,
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bs.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bs.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("notification circuit breaker state changed")
		},
	})
	return &BreakerSender{next: next, cb: cb}
}

func (s *BreakerSender) Send(ctx context.Context, n *Notification) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Send(ctx, n)
	})
	return err
}

// State exposes the breaker state for health reporting.
func (s *BreakerSender) State() gobreaker.State {
	return s.cb.State()
}

// IsBreakerOpen reports whether err came from an open or saturated breaker
// rather than from the wrapped sender.
func IsBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// MockSender is a test double for Sender.
type MockSender struct {
	mu         sync.Mutex
	sent       []*Notification
	ShouldFail bool
	FailError  string
}

func (m *MockSender) Send(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	m.sent = append(m.sent, n)
	return nil
}

// Sent returns a copy of the delivered notifications.
func (m *MockSender) Sent() []*Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Notification, len(m.sent))
	copy(out, m.sent)
	return out
}
