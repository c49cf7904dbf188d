// Package config loads reader settings from defaults, an optional YAML file
// and PERSEPHONE_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/wilhg/persephone/pkg/api"
	"github.com/wilhg/persephone/pkg/runtime"
)

// FileEnv names the variable pointing at a YAML config file.
const FileEnv = "PERSEPHONE_CONFIG"

// Session backends.
const (
	SessionMemory = "memory"
	SessionBolt   = "bolt"
	SessionRedis  = "redis"
)

// Config holds every setting of the CLI and its servers.
type Config struct {
	APIBaseURL string        `yaml:"api_url" env:"PERSEPHONE_API_URL"`
	Timeout    time.Duration `yaml:"timeout" env:"PERSEPHONE_TIMEOUT"`

	// DataDir holds the default journal and session files.
	DataDir string `yaml:"data_dir" env:"PERSEPHONE_DATA_DIR"`

	// DatabaseURL selects the journal, e.g. sqlite:file:/tmp/j.sqlite or a
	// postgres:// URL. "none" disables journaling.
	DatabaseURL   string `yaml:"database_url" env:"PERSEPHONE_DATABASE_URL"`
	RunID         string `yaml:"run_id" env:"PERSEPHONE_RUN_ID"`
	SnapshotEvery int    `yaml:"snapshot_every" env:"PERSEPHONE_SNAPSHOT_EVERY"`

	Session        string `yaml:"session" env:"PERSEPHONE_SESSION"`
	BoltPath       string `yaml:"bolt_path" env:"PERSEPHONE_BOLT_PATH"`
	RedisURL       string `yaml:"redis_url" env:"PERSEPHONE_REDIS_URL"`
	RedisNamespace string `yaml:"redis_namespace" env:"PERSEPHONE_REDIS_NAMESPACE"`

	LatestOnly bool `yaml:"latest_only" env:"PERSEPHONE_LATEST_ONLY"`
	Verbose    bool `yaml:"verbose" env:"PERSEPHONE_VERBOSE"`

	OTel OTel `yaml:"otel"`

	DevtoolsAddr string `yaml:"devtools_addr" env:"PERSEPHONE_DEVTOOLS_ADDR"`
}

type OTel struct {
	ServiceName  string `yaml:"service_name" env:"PERSEPHONE_OTEL_SERVICE"`
	Stdout       bool   `yaml:"stdout" env:"PERSEPHONE_OTEL_STDOUT"`
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"PERSEPHONE_OTLP_ENDPOINT"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIBaseURL:     api.DefaultBaseURL,
		Timeout:        15 * time.Second,
		DataDir:        defaultDataDir(),
		RunID:          runtime.DefaultRunID,
		SnapshotEvery:  50,
		Session:        SessionBolt,
		RedisNamespace: "default",
		OTel:           OTel{ServiceName: "persephone"},
		DevtoolsAddr:   ":8080",
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".persephone")
	}
	return ".persephone"
}

// Load reads path (or $PERSEPHONE_CONFIG when path is empty) over the
// defaults, then applies the environment, fills derived paths and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(FileEnv)
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.derive()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) derive() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = "sqlite:file:" + filepath.Join(c.DataDir, "journal.sqlite") + "?_pragma=busy_timeout(5000)"
	}
	if c.BoltPath == "" {
		c.BoltPath = filepath.Join(c.DataDir, "session.db")
	}
}

// Journaled reports whether actions are written to a journal.
func (c Config) Journaled() bool { return !strings.EqualFold(c.DatabaseURL, "none") }

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_url must be an absolute http(s) URL, got %q", c.APIBaseURL))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.RunID == "" {
		errs = append(errs, errors.New("run_id is required"))
	}
	if c.SnapshotEvery < 0 {
		errs = append(errs, errors.New("snapshot_every must not be negative"))
	}
	switch c.Session {
	case SessionMemory:
	case SessionBolt:
		if c.BoltPath == "" {
			errs = append(errs, errors.New("bolt_path is required for the bolt session"))
		}
	case SessionRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis_url is required for the redis session"))
		}
		if c.RedisNamespace == "" {
			errs = append(errs, errors.New("redis_namespace is required for the redis session"))
		}
	default:
		errs = append(errs, fmt.Errorf("session must be one of memory, bolt, redis; got %q", c.Session))
	}
	return errors.Join(errs...)
}
