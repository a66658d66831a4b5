// Package session commits finished timer sessions to the time store.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/verte-zerg/studyclock/internal/calendar"
	"github.com/verte-zerg/studyclock/internal/model"
	"github.com/verte-zerg/studyclock/internal/store"
	"github.com/verte-zerg/studyclock/internal/timer"
)

// Result is the outcome of applying a delta.
type Result struct {
	Date   string
	Delta  model.Delta
	Record model.DailyRecord
	// Skipped is set when the delta was empty and the store was not touched.
	Skipped bool
	Err     error
}

// Finalizer applies commit deltas to today's record.
type Finalizer struct {
	store  store.TimeStore
	userID string
	cal    calendar.Calendar
	clock  timer.Clock

	mu   sync.Mutex
	last model.DailyRecord
}

// NewFinalizer returns a finalizer writing to st for userID.
func NewFinalizer(st store.TimeStore, userID string, cal calendar.Calendar, clock timer.Clock) *Finalizer {
	if clock == nil {
		clock = timer.SystemClock{}
	}
	return &Finalizer{store: st, userID: userID, cal: cal, clock: clock}
}

// UserID returns the user the finalizer writes for.
func (f *Finalizer) UserID() string {
	return f.userID
}

// Calendar returns the calendar used for date keys.
func (f *Finalizer) Calendar() calendar.Calendar {
	return f.cal
}

// Apply adds the delta to today's record and re-reads it. Store errors are
// logged and returned in the result; the delta is not retried.
func (f *Finalizer) Apply(ctx context.Context, delta model.Delta) Result {
	date := f.cal.Today(f.clock.Now())
	res := Result{Date: date, Delta: delta, Record: f.lastRecord()}
	if delta.Empty() {
		res.Skipped = true
		return res
	}
	if err := f.store.Increment(ctx, f.userID, date, delta); err != nil {
		log.Printf("session: commit %s for %s lost: %v", delta.Reason, date, err)
		res.Err = fmt.Errorf("failed to commit %s: %w", delta.Reason, err)
		return res
	}
	rec, err := f.store.Get(ctx, f.userID, date)
	if err != nil {
		log.Printf("session: refresh %s: %v", date, err)
		res.Err = fmt.Errorf("failed to refresh record: %w", err)
		return res
	}
	f.remember(rec)
	res.Record = rec
	return res
}

// Today reads today's record. Read failures are logged and yield zeros.
func (f *Finalizer) Today(ctx context.Context) (model.DailyRecord, error) {
	date := f.cal.Today(f.clock.Now())
	rec, err := f.store.Get(ctx, f.userID, date)
	if err != nil {
		log.Printf("session: read %s: %v", date, err)
		return model.DailyRecord{}, err
	}
	f.remember(rec)
	return rec, nil
}

func (f *Finalizer) lastRecord() model.DailyRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *Finalizer) remember(rec model.DailyRecord) {
	f.mu.Lock()
	f.last = rec
	f.mu.Unlock()
}

// Controller pairs an engine with the finalizer that persists its sessions.
type Controller struct {
	Engine    *timer.Engine
	Finalizer *Finalizer
}

// NewController returns a controller for the engine and finalizer.
func NewController(engine *timer.Engine, finalizer *Finalizer) *Controller {
	return &Controller{Engine: engine, Finalizer: finalizer}
}

// Commit computes the delta and resets the engine. The returned delta is
// meant for Apply, which may run later.
func (c *Controller) Commit(reason model.CommitReason) model.Delta {
	return c.Engine.CommitAndReset(reason)
}

// CommitAndReset commits the current session and waits for the store write.
// The engine is reset even when the write fails.
func (c *Controller) CommitAndReset(ctx context.Context, reason model.CommitReason) Result {
	return c.Finalizer.Apply(ctx, c.Commit(reason))
}
