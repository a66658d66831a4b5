package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/studyclock/internal/calendar"
	"github.com/verte-zerg/studyclock/internal/model"
	"github.com/verte-zerg/studyclock/internal/store"
	"github.com/verte-zerg/studyclock/internal/timer"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// failingStore wraps a real store and fails writes on demand.
type failingStore struct {
	store.TimeStore
	failIncrement bool
	failGet       bool
	increments    int
}

func (s *failingStore) Increment(ctx context.Context, userID, date string, delta model.Delta) error {
	s.increments++
	if s.failIncrement {
		return errors.New("network down")
	}
	return s.TimeStore.Increment(ctx, userID, date, delta)
}

func (s *failingStore) Get(ctx context.Context, userID, date string) (model.DailyRecord, error) {
	if s.failGet {
		return model.DailyRecord{}, errors.New("network down")
	}
	return s.TimeStore.Get(ctx, userID, date)
}

func newTestStore(t *testing.T) *failingStore {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "studyclock.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return &failingStore{TimeStore: st}
}

func newController(t *testing.T, st store.TimeStore, clock *fakeClock) *Controller {
	t.Helper()
	cal := calendar.In(time.UTC)
	engine := timer.New(clock, 25)
	return NewController(engine, NewFinalizer(st, "u1", cal, clock))
}

func TestFinishCommitsElapsedFocus(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	st := newTestStore(t)
	ctrl := newController(t, st, clock)
	ctx := context.Background()

	before, err := ctrl.Finalizer.Today(ctx)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	ctrl.Engine.Start()
	for i := 0; i < 600; i++ {
		ctrl.Engine.Tick()
	}
	res := ctrl.CommitAndReset(ctx, model.CommitFinish)
	if res.Err != nil {
		t.Fatalf("commit: %v", res.Err)
	}
	if res.Date != "2026-10-17" {
		t.Fatalf("expected today's key, got %s", res.Date)
	}
	if res.Record.StudySeconds-before.StudySeconds != 600 {
		t.Fatalf("expected study to grow by 600, got %+v", res.Record)
	}
	if res.Record.BreakSeconds != before.BreakSeconds {
		t.Fatalf("break should be unchanged, got %+v", res.Record)
	}
	snap := ctrl.Engine.Snapshot()
	if snap.Running || snap.RemainingSeconds != 25*60 || snap.Mode != model.ModeFocus {
		t.Fatalf("engine not reset: %+v", snap)
	}
}

func TestResumeFromBreakCommitsBreakOnly(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	st := newTestStore(t)
	ctrl := newController(t, st, clock)
	ctx := context.Background()

	ctrl.Engine.Start()
	for i := 0; i < 120; i++ {
		ctrl.Engine.Tick()
	}
	ctrl.Engine.EnterBreak()
	clock.now = clock.now.Add(5 * time.Minute)
	ctrl.Engine.Tick()

	res := ctrl.CommitAndReset(ctx, model.CommitResumeFromBreak)
	if res.Err != nil {
		t.Fatalf("commit: %v", res.Err)
	}
	if res.Record.StudySeconds != 0 || res.Record.BreakSeconds != 300 {
		t.Fatalf("expected {0 300}, got %+v", res.Record)
	}
}

func TestEmptyDeltaSkipsStore(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	st := newTestStore(t)
	ctrl := newController(t, st, clock)

	res := ctrl.CommitAndReset(context.Background(), model.CommitFinish)
	if !res.Skipped {
		t.Fatalf("expected skipped result, got %+v", res)
	}
	if st.increments != 0 {
		t.Fatalf("expected no store writes, got %d", st.increments)
	}
}

func TestFailedWriteStillResets(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	st := newTestStore(t)
	ctrl := newController(t, st, clock)
	ctx := context.Background()

	ctrl.Engine.Start()
	for i := 0; i < 60; i++ {
		ctrl.Engine.Tick()
	}
	first := ctrl.CommitAndReset(ctx, model.CommitFinish)
	if first.Err != nil {
		t.Fatalf("commit: %v", first.Err)
	}

	st.failIncrement = true
	ctrl.Engine.Start()
	for i := 0; i < 30; i++ {
		ctrl.Engine.Tick()
	}
	res := ctrl.CommitAndReset(ctx, model.CommitFinish)
	if res.Err == nil {
		t.Fatalf("expected write error")
	}
	if res.Record.StudySeconds != 60 {
		t.Fatalf("expected last known record, got %+v", res.Record)
	}
	if ctrl.Engine.State() != timer.StateFocusIdle || ctrl.Engine.Snapshot().RemainingSeconds != 25*60 {
		t.Fatalf("engine not reset after failed write: %+v", ctrl.Engine.Snapshot())
	}

	st.failIncrement = false
	rec, err := ctrl.Finalizer.Today(ctx)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if rec.StudySeconds != 60 {
		t.Fatalf("lost delta must not be retried, got %+v", rec)
	}
}

func TestTodayReadFailureIsZero(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	st := newTestStore(t)
	st.failGet = true
	f := NewFinalizer(st, "u1", calendar.In(time.UTC), clock)
	rec, err := f.Today(context.Background())
	if err == nil {
		t.Fatalf("expected read error")
	}
	if rec != (model.DailyRecord{}) {
		t.Fatalf("expected zero record, got %+v", rec)
	}
}

func TestCommitUsesCalendarZone(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	clock := &fakeClock{now: time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)}
	st := newTestStore(t)
	f := NewFinalizer(st, "u1", calendar.In(loc), clock)
	res := f.Apply(context.Background(), model.Delta{StudySeconds: 10})
	if res.Err != nil {
		t.Fatalf("apply: %v", res.Err)
	}
	if res.Date != "2026-10-18" {
		t.Fatalf("expected key in calendar zone, got %s", res.Date)
	}
}
