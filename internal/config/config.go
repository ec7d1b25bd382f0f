// Package config loads fscan settings from an optional YAML file and the
// environment. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sirupsen/logrus"
)

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = "FSCAN_CONFIG"

// Local filesystem backends.
const (
	BackendOS    = "os"
	BackendBilly = "billy"
)

type Config struct {
	Scan    Scan    `yaml:"scan"`
	Log     Log     `yaml:"log"`
	SSH     SSH     `yaml:"ssh"`
	Export  Export  `yaml:"export"`
	Metrics Metrics `yaml:"metrics"`
	Watch   Watch   `yaml:"watch"`
}

type Scan struct {
	// Concurrency 0 picks a default from GOMAXPROCS.
	Concurrency    int  `yaml:"concurrency" env:"FSCAN_CONCURRENCY" env-default:"0"`
	MaxDepth       int  `yaml:"max_depth" env:"FSCAN_MAX_DEPTH" env-default:"0"`
	SkipHidden     bool `yaml:"skip_hidden" env:"FSCAN_SKIP_HIDDEN" env-default:"false"`
	FollowSymlinks bool `yaml:"follow_symlinks" env:"FSCAN_FOLLOW_SYMLINKS" env-default:"false"`
	NotifyOnStop   bool `yaml:"notify_on_stop" env:"FSCAN_NOTIFY_ON_STOP" env-default:"false"`

	// Backend reads local roots: "os" (afero) or "billy" (go-billy osfs).
	Backend string `yaml:"backend" env:"FSCAN_BACKEND" env-default:"os"`
}

type Log struct {
	Level  string `yaml:"level" env:"FSCAN_LOG_LEVEL" env-default:"warn"`
	Format string `yaml:"format" env:"FSCAN_LOG_FORMAT" env-default:"text"`
	// File receives log output; empty means stderr.
	File string `yaml:"file" env:"FSCAN_LOG_FILE"`
}

type SSH struct {
	Port       int           `yaml:"port" env:"FSCAN_SSH_PORT" env-default:"22"`
	BatchMode  bool          `yaml:"batch_mode" env:"FSCAN_SSH_BATCH" env-default:"false"`
	Timeout    time.Duration `yaml:"timeout" env:"FSCAN_SSH_TIMEOUT" env-default:"15s"`
	KnownHosts string        `yaml:"known_hosts" env:"FSCAN_SSH_KNOWN_HOSTS"`
}

type Export struct {
	Path string `yaml:"path" env:"FSCAN_EXPORT_PATH"`
}

type Metrics struct {
	Exporter string        `yaml:"exporter" env:"FSCAN_METRICS_EXPORTER" env-default:"none"`
	Interval time.Duration `yaml:"interval" env:"FSCAN_METRICS_INTERVAL" env-default:"10s"`
}

type Watch struct {
	Debounce time.Duration `yaml:"debounce" env:"FSCAN_WATCH_DEBOUNCE" env-default:"500ms"`
}

// Load reads path, if non-empty, then applies environment overrides and
// defaults. An empty path falls back to $FSCAN_CONFIG.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	cfg.Scan.Backend = BackendOS
	cfg.Log.Level = "warn"
	cfg.Log.Format = "text"
	cfg.SSH.Port = 22
	cfg.SSH.Timeout = 15 * time.Second
	cfg.Metrics.Exporter = "none"
	cfg.Metrics.Interval = 10 * time.Second
	cfg.Watch.Debounce = 500 * time.Millisecond
	return cfg
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.Scan.Concurrency < 0 {
		result = multierror.Append(result, errors.New("scan.concurrency must not be negative"))
	}
	if c.Scan.MaxDepth < 0 {
		result = multierror.Append(result, errors.New("scan.max_depth must not be negative"))
	}
	switch c.Scan.Backend {
	case BackendOS, BackendBilly:
	default:
		result = multierror.Append(result, fmt.Errorf("scan.backend %q must be os or billy", c.Scan.Backend))
	}
	if _, err := logrus.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		result = multierror.Append(result, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("ssh.port %d must be between 1 and 65535", c.SSH.Port))
	}
	if c.SSH.Timeout <= 0 {
		result = multierror.Append(result, errors.New("ssh.timeout must be positive"))
	}
	switch c.Metrics.Exporter {
	case "none", "stdout":
	default:
		result = multierror.Append(result, fmt.Errorf("metrics.exporter %q must be none or stdout", c.Metrics.Exporter))
	}
	if c.Watch.Debounce < 0 {
		result = multierror.Append(result, errors.New("watch.debounce must not be negative"))
	}
	return result.ErrorOrNil()
}
