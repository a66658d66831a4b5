package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/studyclock/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "studyclock.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestGetMissingIsZero(t *testing.T) {
	st := openTestStore(t)
	rec, err := st.Get(context.Background(), "u1", "2026-10-17")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != (model.DailyRecord{}) {
		t.Fatalf("expected zero record, got %+v", rec)
	}
}

func TestIncrementAccumulates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.Increment(ctx, "u1", "2026-10-17", model.Delta{StudySeconds: 600}); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := st.Increment(ctx, "u1", "2026-10-17", model.Delta{StudySeconds: 60, BreakSeconds: 300}); err != nil {
		t.Fatalf("increment: %v", err)
	}
	rec, err := st.Get(ctx, "u1", "2026-10-17")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.StudySeconds != 660 || rec.BreakSeconds != 300 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	other, err := st.Get(ctx, "u2", "2026-10-17")
	if err != nil {
		t.Fatalf("get other user: %v", err)
	}
	if other != (model.DailyRecord{}) {
		t.Fatalf("records leaked across users: %+v", other)
	}
}

func TestLegacyScalarRecord(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, err := st.db.Exec(`INSERT INTO daily_time (user_id, date_key, payload, updated_at) VALUES ('u1', '2026-10-16', '900', '')`); err != nil {
		t.Fatalf("seed legacy record: %v", err)
	}
	rec, err := st.Get(ctx, "u1", "2026-10-16")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.StudySeconds != 900 || rec.BreakSeconds != 0 {
		t.Fatalf("expected {900 0}, got %+v", rec)
	}

	if err := st.Increment(ctx, "u1", "2026-10-16", model.Delta{BreakSeconds: 120}); err != nil {
		t.Fatalf("increment: %v", err)
	}
	var payload string
	if err := st.db.QueryRow(`SELECT payload FROM daily_time WHERE user_id = 'u1' AND date_key = '2026-10-16'`).Scan(&payload); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if payload != `{"study":{"seconds":900},"break":{"seconds":120}}` {
		t.Fatalf("expected migrated document, got %s", payload)
	}
}

func TestSetOverwritesAndDelete(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	_ = st.Increment(ctx, "u1", "2026-10-17", model.Delta{StudySeconds: 600})
	if err := st.Set(ctx, "u1", "2026-10-17", model.DailyRecord{StudySeconds: 30}); err != nil {
		t.Fatalf("set: %v", err)
	}
	rec, _ := st.Get(ctx, "u1", "2026-10-17")
	if rec.StudySeconds != 30 {
		t.Fatalf("expected overwrite to 30, got %+v", rec)
	}
	if err := st.Delete(ctx, "u1", "2026-10-17"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.Delete(ctx, "u1", "2026-10-17"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	rec, _ = st.Get(ctx, "u1", "2026-10-17")
	if rec != (model.DailyRecord{}) {
		t.Fatalf("expected zero after delete, got %+v", rec)
	}
}

func TestListRange(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for i, date := range []string{"2026-10-10", "2026-10-11", "2026-10-12", "2026-10-13"} {
		if err := st.Set(ctx, "u1", date, model.DailyRecord{StudySeconds: int64(i+1) * 60}); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	got, err := st.List(ctx, "u1", "2026-10-11", "2026-10-12")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Date != "2026-10-11" || got[1].Record.StudySeconds != 180 {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestValidateKey(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, err := st.Get(ctx, "u1", "10/17/2026"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if err := st.Increment(ctx, " ", "2026-10-17", model.Delta{StudySeconds: 1}); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}
}

func TestDecodeRecordShapes(t *testing.T) {
	cases := []struct {
		raw  string
		want model.DailyRecord
	}{
		{raw: "", want: model.DailyRecord{}},
		{raw: "null", want: model.DailyRecord{}},
		{raw: "900", want: model.DailyRecord{StudySeconds: 900}},
		{raw: "-4", want: model.DailyRecord{}},
		{raw: `{"study":{"seconds":61}}`, want: model.DailyRecord{StudySeconds: 61}},
		{raw: `{"study":{"seconds":1},"break":{"seconds":2}}`, want: model.DailyRecord{StudySeconds: 1, BreakSeconds: 2}},
	}
	for _, tc := range cases {
		got, err := decodeRecord([]byte(tc.raw))
		if err != nil {
			t.Fatalf("decode %q: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("decode %q: expected %+v, got %+v", tc.raw, tc.want, got)
		}
	}
	if _, err := decodeRecord([]byte("[1]")); err == nil {
		t.Fatalf("expected error for array payload")
	}
}

func TestOpenBackendRejectsUnknown(t *testing.T) {
	if _, err := OpenBackend(model.StoreConfig{Backend: "mongo"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	st, err := OpenBackend(model.StoreConfig{Path: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("open default backend: %v", err)
	}
	_ = st.Close()
}
