// Package store persists daily study/break records.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/studyclock/internal/model"
)

const (
	// BackendSQLite keeps records in a local SQLite database.
	BackendSQLite = "sqlite"
	// BackendRTDB keeps records in a Realtime Database over its REST API.
	BackendRTDB = "rtdb"
)

var (
	// ErrInvalidDate is returned for date keys not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date key")
	// ErrMissingUser is returned when no user id is given.
	ErrMissingUser = errors.New("user id is empty")
	// ErrConflict is returned when a conditional write keeps losing to
	// concurrent writers.
	ErrConflict = errors.New("record changed concurrently")
)

// Reader reads daily records.
type Reader interface {
	Get(ctx context.Context, userID, date string) (model.DailyRecord, error)
}

// TimeStore is a key-value store of daily records addressed by user and date.
type TimeStore interface {
	Reader
	// Set overwrites the record.
	Set(ctx context.Context, userID, date string, rec model.DailyRecord) error
	// Increment adds the delta to the record, creating it if needed.
	Increment(ctx context.Context, userID, date string, delta model.Delta) error
	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, userID, date string) error
	// List returns records with from <= date <= to, ordered by date.
	List(ctx context.Context, userID, from, to string) ([]model.DatedRecord, error)
	Close() error
}

// OpenBackend opens the store selected by cfg.
func OpenBackend(cfg model.StoreConfig) (TimeStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite store path is empty")
		}
		return Open(cfg.Path)
	case BackendRTDB:
		return OpenRTDB(cfg.URL, cfg.Auth, nil)
	default:
		return nil, fmt.Errorf("unknown store backend %q (use %s or %s)", cfg.Backend, BackendSQLite, BackendRTDB)
	}
}

func validateKey(userID, date string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUser
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}
