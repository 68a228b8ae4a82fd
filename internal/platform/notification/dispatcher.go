package notification

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher delivers due notifications from a Queue. Failed deliveries are
// pushed back with a growing delay until MaxAttempts is reached.
type Dispatcher struct {
	queue  Queue
	sender Sender
	store  *Store
	logger zerolog.Logger
	now    func() time.Time

	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

func NewDispatcher(queue Queue, sender Sender, store *Store, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:       queue,
		sender:      sender,
		store:       store,
		logger:      logger,
		now:         time.Now,
		Interval:    time.Minute,
		BatchSize:   50,
		MaxAttempts: 5,
	}
}

// Start delivers due notifications every Interval until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()

	d.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.RunOnce(ctx)
		}
	}
}

// RunOnce drains every notification due now and returns how many were sent.
func (d *Dispatcher) RunOnce(ctx context.Context) int {
	sent := 0
	for {
		batch, err := d.queue.PopDue(ctx, d.now(), d.BatchSize)
		if err != nil {
			d.logger.Error().Err(err).Msg("failed to read due notifications")
			return sent
		}
		for _, n := range batch {
			if d.deliver(ctx, n) {
				sent++
			}
		}
		if len(batch) < d.BatchSize {
			return sent
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n *Notification) bool {
	err := d.sender.Send(ctx, n)
	now := d.now().UTC()
	if err == nil {
		n.Status = StatusSent
		n.SentAt = &now
		n.Attempts++
		n.Error = ""
		d.store.Save(n)
		return true
	}

	// An open breaker never reached the channel, so it does not use up an attempt.
	if !IsBreakerOpen(err) {
		n.Attempts++
	}
	n.Error = err.Error()

	if n.Attempts >= d.MaxAttempts {
		n.Status = StatusFailed
		d.store.Save(n)
		d.logger.Error().Err(err).
			Str("notification_id", n.ID).
			Int("attempts", n.Attempts).
			Msg("notification abandoned")
		return false
	}

	n.SendAt = now.Add(retryBackoff(n.Attempts))
	d.store.Save(n)
	if perr := d.queue.Push(ctx, n); perr != nil {
		d.logger.Error().Err(perr).Str("notification_id", n.ID).Msg("failed to requeue notification")
		return false
	}
	d.logger.Warn().Err(err).
		Str("notification_id", n.ID).
		Int("attempts", n.Attempts).
		Time("retry_at", n.SendAt).
		Msg("notification delivery failed, will retry")
	return false
}

func retryBackoff(attempt int) time.Duration {
	switch attempt {
	case 0, 1:
		return 30 * time.Second
	case 2:
		return 1 * time.Minute
	case 3:
		return 5 * time.Minute
	case 4:
		return 15 * time.Minute
	default:
		return 1 * time.Hour
	}
}
