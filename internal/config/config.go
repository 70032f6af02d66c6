// Package config loads the replica's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds replica identity, retention, and logging settings.
type Config struct {
	Replica   ReplicaConfig   `toml:"replica"`
	Retention RetentionConfig `toml:"retention"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ReplicaConfig identifies this replica. ID is stamped on every locally
// recorded operation as its server id and must be stable across runs.
type ReplicaConfig struct {
	ID     string `toml:"id"`
	UserID string `toml:"user_id"`
}

// RetentionConfig bounds per-canvas history. MaxAge is a Go duration
// string such as "24h".
type RetentionConfig struct {
	MaxOperations int    `toml:"max_operations"`
	MaxAge        string `toml:"max_age"`
}

// LoggingConfig configures the runtime logger.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file overrides it.
func Default(replicaID string) Config {
	return Config{
		Replica: ReplicaConfig{
			ID: replicaID,
		},
		Retention: RetentionConfig{
			MaxOperations: 10000,
			MaxAge:        "24h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path on top of defaults. A missing or
// empty file yields the defaults unchanged.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run
// with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Replica.ID) == "" {
		return errors.New("replica id is required")
	}
	if c.Retention.MaxOperations <= 0 {
		return fmt.Errorf("retention.max_operations must be > 0, got %d", c.Retention.MaxOperations)
	}
	if _, err := c.MaxAge(); err != nil {
		return err
	}
	return nil
}

// MaxAge parses the retention age bound.
func (c Config) MaxAge() (time.Duration, error) {
	raw := strings.TrimSpace(c.Retention.MaxAge)
	if raw == "" {
		return 0, errors.New("retention.max_age is required")
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid retention.max_age: %q", raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("retention.max_age must be positive, got %q", raw)
	}
	return d, nil
}

// EnsureConfigDir creates the directory holding the config file.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
