package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/studyclock/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLiteStore keeps daily records as JSON documents in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serializes the read-modify-write in Increment.
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS daily_time (
			user_id TEXT NOT NULL,
			date_key TEXT NOT NULL,
			payload TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (user_id, date_key)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the record for the day, or zeros when none exists.
func (s *SQLiteStore) Get(ctx context.Context, userID, date string) (model.DailyRecord, error) {
	if err := validateKey(userID, date); err != nil {
		return model.DailyRecord{}, err
	}
	rec, _, err := getRecord(ctx, s.db, userID, date)
	return rec, err
}

// Set overwrites the record for the day.
func (s *SQLiteStore) Set(ctx context.Context, userID, date string, rec model.DailyRecord) error {
	if err := validateKey(userID, date); err != nil {
		return err
	}
	return putRecord(ctx, s.db, userID, date, rec)
}

// Increment adds the delta inside one transaction.
func (s *SQLiteStore) Increment(ctx context.Context, userID, date string, delta model.Delta) (err error) {
	if err := validateKey(userID, date); err != nil {
		return err
	}
	if delta.Empty() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	current, _, err := getRecord(ctx, tx, userID, date)
	if err != nil {
		return err
	}
	if err = putRecord(ctx, tx, userID, date, current.Add(delta)); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the record for the day.
func (s *SQLiteStore) Delete(ctx context.Context, userID, date string) error {
	if err := validateKey(userID, date); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM daily_time WHERE user_id = ? AND date_key = ?`, userID, date)
	return err
}

// List returns the records between from and to inclusive, ordered by date.
func (s *SQLiteStore) List(ctx context.Context, userID, from, to string) ([]model.DatedRecord, error) {
	if err := validateKey(userID, from); err != nil {
		return nil, err
	}
	if err := validateKey(userID, to); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT date_key, payload FROM daily_time
		 WHERE user_id = ? AND date_key >= ? AND date_key <= ?
		 ORDER BY date_key ASC`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.DatedRecord
	for rows.Next() {
		var date, payload string
		if err := rows.Scan(&date, &payload); err != nil {
			return nil, err
		}
		rec, err := decodeRecord([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", date, err)
		}
		result = append(result, model.DatedRecord{Date: date, Record: rec})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getRecord(ctx context.Context, q queryer, userID, date string) (model.DailyRecord, bool, error) {
	var payload string
	err := q.QueryRowContext(ctx,
		`SELECT payload FROM daily_time WHERE user_id = ? AND date_key = ?`, userID, date).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DailyRecord{}, false, nil
	}
	if err != nil {
		return model.DailyRecord{}, false, err
	}
	rec, err := decodeRecord([]byte(payload))
	if err != nil {
		return model.DailyRecord{}, true, err
	}
	return rec, true, nil
}

func putRecord(ctx context.Context, q queryer, userID, date string, rec model.DailyRecord) error {
	payload, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO daily_time (user_id, date_key, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, date_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		userID, date, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}
