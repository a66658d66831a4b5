// Package cache persists the timer between runs.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// TimerState is the cached part of the timer. Running and break state are
// never cached: a restored timer always starts idle.
type TimerState struct {
	FocusMinutes     int       `toml:"focus-minutes"`
	RemainingSeconds int64     `toml:"remaining-seconds"`
	UserID           string    `toml:"user-id,omitempty"`
	SavedAt          time.Time `toml:"saved-at"`
}

// FileCache stores a TimerState in a TOML file.
type FileCache struct {
	path string
}

// NewFileCache returns a cache backed by the file at path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Path returns the cache file path.
func (c *FileCache) Path() string {
	return c.path
}

// Load reads the cached state. ok is false when nothing has been cached yet.
func (c *FileCache) Load() (state TimerState, ok bool, err error) {
	if _, err := os.Stat(c.path); err != nil {
		if os.IsNotExist(err) {
			return TimerState{}, false, nil
		}
		return TimerState{}, false, fmt.Errorf("failed to stat timer cache: %w", err)
	}
	if _, err := toml.DecodeFile(c.path, &state); err != nil {
		return TimerState{}, false, fmt.Errorf("failed to decode timer cache: %w", err)
	}
	return state, true, nil
}

// Save writes the state, replacing the previous file atomically.
func (c *FileCache) Save(state TimerState) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "timer-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp cache: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := toml.NewEncoder(tmpFile).Encode(state); err != nil {
		return fmt.Errorf("failed to encode timer cache: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close timer cache: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("failed to write timer cache: %w", err)
	}
	return nil
}
