// Package config loads prerender configuration from an optional YAML file, .env files
// and PRERENDER_* environment variables, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Site    SiteConfig    `yaml:"site"`
	Output  OutputConfig  `yaml:"output"`
	Build   BuildConfig   `yaml:"build"`
	QA      QAConfig      `yaml:"qa"`
	Retry   RetryConfig   `yaml:"retry"`
	Lock    LockConfig    `yaml:"lock"`
	Report  ReportConfig  `yaml:"report"`
	Metrics MetricsConfig `yaml:"metrics"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// SourceConfig identifies the upstream data source.
type SourceConfig struct {
	Driver SourceDriver `yaml:"driver"` // rest|postgres
	URL    string       `yaml:"url"`    // PostgREST base URL or Postgres DSN
	Key    string       `yaml:"key"`    // access credential (apikey)
}

// SiteConfig controls page content shared by every generated document.
type SiteConfig struct {
	Origin       string `yaml:"origin"` // canonical scheme://host used for absolute URLs
	Name         string `yaml:"name"`
	DefaultImage string `yaml:"default_image,omitempty"`
	Language     string `yaml:"language"`
	Currency     string `yaml:"currency"`
	TemplatePath string `yaml:"template_path,omitempty"` // overrides the embedded document template
	StylesPath   string `yaml:"styles_path,omitempty"`   // critical CSS inlined into every page
	PagesDir     string `yaml:"pages_dir,omitempty"`     // overrides the embedded fixed page table
}

// OutputConfig represents prebuild output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// BuildConfig describes the opaque external build step.
type BuildConfig struct {
	Command   string `yaml:"command,omitempty"`
	Directory string `yaml:"directory"`
}

// QAConfig holds validation thresholds; they are policy, not constants.
type QAConfig struct {
	Directory         string   `yaml:"directory"`
	TitleMin          int      `yaml:"title_min"`
	TitleMax          int      `yaml:"title_max"`
	DescriptionMin    int      `yaml:"description_min"`
	DescriptionMax    int      `yaml:"description_max"`
	RequiredArtifacts []string `yaml:"required_artifacts"`
	Exclude           []string `yaml:"exclude,omitempty"`
}

// RetryConfig bounds the data source calls.
type RetryConfig struct {
	Mode           RetryBackoffMode `yaml:"mode"`
	Initial        time.Duration    `yaml:"initial"`
	Max            time.Duration    `yaml:"max"`
	MaxRetries     int              `yaml:"max_retries"`
	AttemptTimeout time.Duration    `yaml:"attempt_timeout"`
}

// LockConfig selects the run lock backend. An empty RedisURL selects the file lock.
type LockConfig struct {
	RedisURL string        `yaml:"redis_url,omitempty"`
	Key      string        `yaml:"key"`
	TTL      time.Duration `yaml:"ttl"`
}

// ReportConfig controls where audit artifacts go.
type ReportConfig struct {
	Directory   string `yaml:"directory"`
	HistoryPath string `yaml:"history_path,omitempty"`
}

// MetricsConfig enables Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// NotifyConfig enables the NATS run completion event.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject"`
}

// Load loads configuration from the specified file. An empty path skips the file and
// uses defaults plus environment.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if configPath != "" {
		data, err := os.ReadFile(configPath) // #nosec G304 -- path supplied by operator
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}
