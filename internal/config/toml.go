// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// RTDBAuthEnv names the environment variable holding the REST backend secret.
const RTDBAuthEnv = "STUDYCLOCK_RTDB_AUTH"

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Timer TimerConfig `toml:"timer"`
	User  UserConfig  `toml:"user"`
	Store StoreConfig `toml:"store"`
}

// TimerConfig maps timer settings.
type TimerConfig struct {
	FocusMinutes *int `toml:"focus-minutes"`
}

// UserConfig maps the record owner and calendar settings.
type UserConfig struct {
	ID       *string `toml:"id"`
	Timezone *string `toml:"timezone"`
}

// StoreConfig maps the time store backend.
type StoreConfig struct {
	Backend *string `toml:"backend"`
	Path    *string `toml:"path"`
	URL     *string `toml:"url"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// LoadEnv loads variables from a .env file without overriding the
// environment. Missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// RTDBAuth returns the REST backend secret from the environment.
func RTDBAuth() string {
	return os.Getenv(RTDBAuthEnv)
}
