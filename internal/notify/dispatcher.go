// Package notify delivers completed submissions to the operators, both
// synchronously on completion and through a daily catch-up sweep.
package notify

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/fitcoach/intake-bot/internal/observability"
	"github.com/fitcoach/intake-bot/internal/repository"
)

// Notifier sends one text to one operator identity.
type Notifier interface {
	Notify(ctx context.Context, operatorID int64, text string) error
}

// Broadcaster pushes one text to the live operator feed.
type Broadcaster interface {
	Broadcast(text string)
}

// Dispatcher fans completed submissions out to every configured operator.
// Delivery is best effort: one operator failing never blocks the others, and
// the reported flag tracks "attempted", not "confirmed read".
type Dispatcher struct {
	subs      repository.SubmissionRepository
	notifier  Notifier
	operators []int64
	feed      Broadcaster
}

func NewDispatcher(subs repository.SubmissionRepository, notifier Notifier, operators []int64) *Dispatcher {
	return &Dispatcher{
		subs:      subs,
		notifier:  notifier,
		operators: operators,
	}
}

// SetFeed attaches the live operator feed. Optional.
func (d *Dispatcher) SetFeed(feed Broadcaster) {
	d.feed = feed
}

// DeliverNow renders the submission and sends it to every operator. Failures
// are logged per operator and swallowed.
func (d *Dispatcher) DeliverNow(ctx context.Context, sub *domain.Submission) {
	text := RenderSubmission(sub)
	for _, operatorID := range d.operators {
		if err := d.notifier.Notify(ctx, operatorID, text); err != nil {
			log.Printf("ERROR [notify.DeliverNow] submissionID=%d operatorID=%d: %v", sub.ID, operatorID, err)
			observability.RecordOperatorDelivery("error")
			continue
		}
		observability.RecordOperatorDelivery("ok")
	}
	if d.feed != nil {
		d.feed.Broadcast(text)
	}
}

// SweepUnreported delivers every submission never marked reported and then
// marks the whole batch in one update. This is the sole recovery path for
// completions that crashed between delivery and the reported flag.
func (d *Dispatcher) SweepUnreported(ctx context.Context) error {
	subs, err := d.subs.GetUnreported(ctx)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}
	observability.RecordSweepBatch()

	ids := make([]int64, 0, len(subs))
	for _, sub := range subs {
		d.DeliverNow(ctx, sub)
		ids = append(ids, sub.ID)
	}

	log.Printf("INFO [notify.SweepUnreported] delivered %d submissions", len(ids))
	return d.subs.MarkReported(ctx, ids)
}

// RunDaily triggers the sweep once per day at the given local time until the
// context ends. It should be called in a goroutine.
func (d *Dispatcher) RunDaily(ctx context.Context, hour, minute int) {
	for {
		timer := time.NewTimer(time.Until(nextOccurrence(time.Now(), hour, minute)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := d.SweepUnreported(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("ERROR [notify.RunDaily] sweep: %v", err)
			}
		}
	}
}

func nextOccurrence(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
