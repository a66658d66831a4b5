package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timer.FocusMinutes != nil || cfg.User.ID != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[timer]
focus-minutes = 50

[user]
id = "alice"
timezone = "Asia/Tokyo"

[store]
backend = "rtdb"
url = "https://example.firebaseio.com"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timer.FocusMinutes == nil || *cfg.Timer.FocusMinutes != 50 {
		t.Fatalf("unexpected focus minutes: %+v", cfg.Timer)
	}
	if cfg.User.ID == nil || *cfg.User.ID != "alice" || cfg.User.Timezone == nil || *cfg.User.Timezone != "Asia/Tokyo" {
		t.Fatalf("unexpected user: %+v", cfg.User)
	}
	if cfg.Store.Backend == nil || *cfg.Store.Backend != "rtdb" || cfg.Store.Path != nil {
		t.Fatalf("unexpected store: %+v", cfg.Store)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(RTDBAuthEnv, "")
	if err := os.Unsetenv(RTDBAuthEnv); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	if err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(RTDBAuthEnv+"=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := LoadEnv(path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got := RTDBAuth(); got != "from-file" {
		t.Fatalf("expected secret from file, got %q", got)
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "studyclock", "config.toml") {
		t.Fatalf("config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "studyclock", "studyclock.db") {
		t.Fatalf("db path: %s", got)
	}
	if got := DefaultCachePath(); got != filepath.Join("/state", "studyclock", "timer.toml") {
		t.Fatalf("cache path: %s", got)
	}
}
