// Package scheduler keeps the feed cache warm by refreshing it on a cron
// schedule, so page loads rarely wait on the network.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/event-dashboard/internal/feed"
	"github.com/iliyamo/event-dashboard/internal/model"
)

// Refresher is the part of *feed.Store the warmer drives.
type Refresher interface {
	Refresh(ctx context.Context, trigger feed.Trigger) ([]model.Event, error)
}

// Warmer runs Refresh on a schedule.
type Warmer struct {
	cron    *cron.Cron
	target  Refresher
	timeout time.Duration
}

// NewWarmer parses spec (standard five-field cron or a descriptor such as
// "@every 4m") and prepares a Warmer.  Overlapping runs are skipped.
func NewWarmer(spec string, target Refresher, timeout time.Duration) (*Warmer, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	w := &Warmer{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		target:  target,
		timeout: timeout,
	}
	if _, err := w.cron.AddFunc(spec, w.Run); err != nil {
		return nil, fmt.Errorf("feed warm schedule %q: %w", spec, err)
	}
	return w, nil
}

// Run performs one refresh.  Failures are logged; the store already keeps
// the error state for the UI.
func (w *Warmer) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, err := w.target.Refresh(ctx, feed.TriggerCron); err != nil {
		log.Printf("scheduler: feed warm-up failed: %v", err)
	}
}

// Start begins the schedule in its own goroutine.
func (w *Warmer) Start() { w.cron.Start() }

// Stop halts the schedule and returns a context that is done once a
// running refresh has finished.
func (w *Warmer) Stop() context.Context { return w.cron.Stop() }

// Next reports when the next refresh is due; zero before Start.
func (w *Warmer) Next() time.Time {
	entries := w.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
