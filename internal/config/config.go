// Package config loads and validates ripper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper. Flags bound by
// the CLI override file and environment values.
type Config struct {
	Output      OutputConfig      `mapstructure:"output"`
	Run         RunConfig         `mapstructure:"run"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	Sitemap     SitemapConfig     `mapstructure:"sitemap"`
	Readability ReadabilityConfig `mapstructure:"readability"`
	Monitor     MonitorConfig     `mapstructure:"monitor"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// OutputConfig sets the artifact destination.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// RunConfig governs catalog selection and the skip check.
type RunConfig struct {
	// Limit caps the number of catalog entries processed; zero means all.
	Limit int `mapstructure:"limit"`
	// Force ignores last-modified times and fetches every entry.
	Force bool `mapstructure:"force"`
}

// FetchConfig governs the worker pool and HTTP transport.
type FetchConfig struct {
	Workers         int    `mapstructure:"workers"`
	Retries         int    `mapstructure:"retries"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	UserAgent       string `mapstructure:"user_agent"`
	MaxConnsPerHost int    `mapstructure:"max_conns_per_host"`
}

// SitemapConfig bounds sitemap index resolution.
type SitemapConfig struct {
	MaxIndexDepth int `mapstructure:"max_index_depth"`
}

// ReadabilityConfig toggles main-content extraction.
type ReadabilityConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MonitorConfig controls the optional metrics/health listener. An empty Addr
// disables it.
type MonitorConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment using the supplied viper
// instance, which carries any CLI flag bindings.
func Load(v *viper.Viper, path string) (Config, error) {
	v.SetEnvPrefix("RIPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output.dir", "tmp")
	v.SetDefault("run.limit", 0)
	v.SetDefault("run.force", false)
	v.SetDefault("fetch.workers", 5)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.user_agent", "a2rchi-sitemap-ripper/0.1")
	v.SetDefault("fetch.max_conns_per_host", 16)
	v.SetDefault("sitemap.max_index_depth", 3)
	v.SetDefault("readability.enabled", false)
	v.SetDefault("monitor.addr", "")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Run.Limit < 0 {
		return fmt.Errorf("run.limit must be >= 0")
	}
	if c.Fetch.Workers <= 0 {
		return fmt.Errorf("fetch.workers must be > 0")
	}
	if c.Fetch.Retries <= 0 {
		return fmt.Errorf("fetch.retries must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Sitemap.MaxIndexDepth <= 0 {
		return fmt.Errorf("sitemap.max_index_depth must be > 0")
	}
	return nil
}

// RequestTimeout converts the fetch timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}
