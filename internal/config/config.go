// Package config loads grader settings from an optional YAML file overlaid by
// environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Blob provider names.
const (
	ProviderS3    = "s3"
	ProviderMinIO = "minio"
)

// Config is the complete runtime configuration.
type Config struct {
	Database    Database    `yaml:"database"`
	Blob        Blob        `yaml:"blob"`
	Supplements Supplements `yaml:"supplements"`
	Log         Log         `yaml:"log"`
}

// Database locates the read-only vehicle database.
type Database struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

// Blob configures the object store holding supplemental files.
type Blob struct {
	Provider        string        `yaml:"provider"`
	Bucket          string        `yaml:"bucket"`
	Endpoint        string        `yaml:"endpoint"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	Region          string        `yaml:"region"`
	Secure          bool          `yaml:"secure"`
	MaxAttempts     int           `yaml:"max_attempts"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
	Timeout         time.Duration `yaml:"timeout"`
}

// Supplements configures supplemental file lookup.
type Supplements struct {
	ResourcePrefix   string `yaml:"resource_prefix"`
	FetchConcurrency int    `yaml:"fetch_concurrency"`
}

// Log configures the command-line logger.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Database:    Database{Table: "AllCars"},
		Blob:        Blob{Provider: ProviderS3, Secure: true},
		Supplements: Supplements{ResourcePrefix: "ResourceFiles", FetchConcurrency: 4},
		Log:         Log{Level: "info"},
	}
}

// Load reads the YAML file at path, if any, over the defaults and then applies
// environment overrides read through getenv. Unknown YAML keys are rejected.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := decode(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overlays non-empty environment variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Database.Path, "DB_PATH")
	set(&c.Database.Table, "GRADER_TABLE")
	set(&c.Blob.Provider, "GRADER_BLOB_PROVIDER")
	set(&c.Blob.Bucket, "R2_BUCKET")
	set(&c.Blob.Endpoint, "R2_ENDPOINT")
	set(&c.Blob.AccessKeyID, "R2_ACCESS_KEY_ID")
	set(&c.Blob.SecretAccessKey, "R2_SECRET_ACCESS_KEY")
	set(&c.Supplements.ResourcePrefix, "GRADER_RESOURCE_PREFIX")
	set(&c.Log.Level, "GRADER_LOG_LEVEL")

	if v := strings.TrimSpace(getenv("GRADER_FETCH_CONCURRENCY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: GRADER_FETCH_CONCURRENCY: %w", err)
		}
		c.Supplements.FetchConcurrency = n
	}
	return nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database path is required (DB_PATH or --db)"))
	}
	if c.Database.Table == "" {
		errs = append(errs, errors.New("database table is required"))
	}
	if c.Supplements.FetchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("fetch concurrency must be at least 1, got %d", c.Supplements.FetchConcurrency))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ValidateBlob checks the settings needed to reach the object store.
func (c *Config) ValidateBlob() error {
	var errs []error
	switch c.Blob.Provider {
	case ProviderS3, ProviderMinIO:
	default:
		errs = append(errs, fmt.Errorf("unknown blob provider %q (want %s or %s)", c.Blob.Provider, ProviderS3, ProviderMinIO))
	}
	if c.Blob.Bucket == "" {
		errs = append(errs, errors.New("blob bucket is required (R2_BUCKET)"))
	}
	if c.Blob.Endpoint == "" {
		errs = append(errs, errors.New("blob endpoint is required (R2_ENDPOINT)"))
	}
	if c.Blob.AccessKeyID == "" || c.Blob.SecretAccessKey == "" {
		errs = append(errs, errors.New("blob credentials are required (R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY)"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	lvl, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}
