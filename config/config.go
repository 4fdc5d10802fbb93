// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config holds the settings shared by the bookscan commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/poiesic/bookscan/search"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables read by LoadEnv.
const EnvPrefix = "BOOKSCAN"

// ErrInvalidConfig indicates a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds library and ingestion settings.
type Config struct {
	// DatabasePath is the BadgerDB directory.
	// Default: "./bookscan.db"
	DatabasePath string `yaml:"database_path" envconfig:"DB_PATH"`

	// InMemory opens a throwaway in-memory database instead of DatabasePath.
	InMemory bool `yaml:"in_memory" envconfig:"IN_MEMORY"`

	// JoinPolicy is the matcher join policy name, "carry-forward" or "clear-on-match".
	JoinPolicy string `yaml:"join_policy" envconfig:"JOIN_POLICY"`

	// PoolSize is the number of ingestion workers. Zero selects the pipeline default.
	PoolSize int `yaml:"pool_size" envconfig:"POOL_SIZE"`

	// SortContent sorts book content by page and line on ingestion.
	// Default: true
	SortContent bool `yaml:"sort_content" envconfig:"SORT_CONTENT"`

	// MaxRetries is the number of attempts for a conflicting storage write.
	// Default: 3
	MaxRetries int `yaml:"max_retries" envconfig:"MAX_RETRIES"`

	// RetryDelay is the delay before the first retry, doubled for each later one.
	// Default: 50ms
	RetryDelay time.Duration `yaml:"retry_delay" envconfig:"RETRY_DELAY"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithDatabasePath sets the database directory.
func WithDatabasePath(path string) ConfigOption {
	return func(c *Config) {
		c.DatabasePath = path
	}
}

// WithInMemory selects an in-memory database.
func WithInMemory(inMemory bool) ConfigOption {
	return func(c *Config) {
		c.InMemory = inMemory
	}
}

// WithJoinPolicy sets the matcher join policy by name.
func WithJoinPolicy(policy string) ConfigOption {
	return func(c *Config) {
		c.JoinPolicy = policy
	}
}

// WithPoolSize sets the ingestion worker count.
func WithPoolSize(size int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = size
	}
}

// WithSortContent controls content sorting on ingestion.
func WithSortContent(sortContent bool) ConfigOption {
	return func(c *Config) {
		c.SortContent = sortContent
	}
}

// WithRetry sets the storage retry attempts and base delay.
func WithRetry(maxRetries int, delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// DefaultConfig returns a Config with the default values.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath: "./bookscan.db",
		JoinPolicy:   search.CarryForward.String(),
		SortContent:  true,
		MaxRetries:   3,
		RetryDelay:   50 * time.Millisecond,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//		WithDatabasePath("/var/lib/bookscan"),
//		WithJoinPolicy("clear-on-match"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Load reads a YAML config file over the defaults.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv overrides fields from BOOKSCAN_* environment variables,
// e.g. BOOKSCAN_DB_PATH or BOOKSCAN_JOIN_POLICY. Unset variables leave the
// current values in place.
func (c *Config) LoadEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Normalize ensures the configuration is in a canonical form.
func (c *Config) Normalize() {
	c.DatabasePath = strings.TrimSpace(c.DatabasePath)
	c.JoinPolicy = strings.ToLower(strings.TrimSpace(c.JoinPolicy))
	if c.JoinPolicy == "" {
		c.JoinPolicy = search.CarryForward.String()
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.DatabasePath == "" && !c.InMemory {
		return fmt.Errorf("%w: database_path is required unless in_memory is set", ErrInvalidConfig)
	}
	if _, err := search.ParseJoinPolicy(c.JoinPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("%w: pool_size cannot be negative", ErrInvalidConfig)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max_retries must be at least 1", ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry_delay cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Policy returns the parsed join policy.
func (c *Config) Policy() (search.JoinPolicy, error) {
	return search.ParseJoinPolicy(c.JoinPolicy)
}
