// Package config loads the optional cellar YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that points at a config file.
const EnvPath = "CELLAR_CONFIG"

// Default values used when a key is absent or invalid.
const (
	DefaultTimeout      = 5 * time.Minute
	DefaultGracePeriod  = 5 * time.Second
	DefaultMaxOutput    = 1 << 20 // 1 MB
	DefaultMaxLine      = 64 << 10
	DefaultStreamBuffer = 64
	DefaultCacheSize    = 32
	DefaultCacheTTL     = 30 * time.Second
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"

	DefaultMetricsInterval = 15 * time.Second
)

// Config holds the parsed configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Brew             BrewConfig    `yaml:"brew"`
	RawTimeout       string        `yaml:"timeout"`        // e.g. "5m", "30s"
	RawStreamTimeout string        `yaml:"stream_timeout"` // empty = no limit
	RawGracePeriod   string        `yaml:"grace_period"`
	RawMaxOutput     int           `yaml:"max_output"` // bytes per stream
	RawMaxLine       int           `yaml:"max_line"`   // bytes per emitted line
	RawStreamBuffer  int           `yaml:"stream_buffer"`
	Cache            CacheConfig   `yaml:"cache"`
	Log              LogConfig     `yaml:"log"`
	Metrics          MetricsConfig `yaml:"metrics"`
}

// BrewConfig controls how the brew executable is found.
type BrewConfig struct {
	Path       string   `yaml:"path"`       // explicit path, skips probing
	Candidates []string `yaml:"candidates"` // replaces the default probe list
}

// CacheConfig sizes the query result cache.
type CacheConfig struct {
	Size   int    `yaml:"size"`
	RawTTL string `yaml:"ttl"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// MetricsConfig enables OTLP metric export. Empty Endpoint disables it.
type MetricsConfig struct {
	Endpoint    string `yaml:"endpoint"` // OTLP HTTP host:port
	Insecure    bool   `yaml:"insecure"`
	RawInterval string `yaml:"interval"`
}

// Interval returns the export interval.
func (m MetricsConfig) Interval() time.Duration {
	return parseDuration(m.RawInterval, DefaultMetricsInterval)
}

// Timeout returns the one-shot command timeout or the default.
func (c *Config) Timeout() time.Duration {
	return parseDuration(c.RawTimeout, DefaultTimeout)
}

// StreamTimeout returns the streaming run limit. Zero means none.
func (c *Config) StreamTimeout() time.Duration {
	return parseDuration(c.RawStreamTimeout, 0)
}

// GracePeriod returns how long a cancelled process gets before SIGKILL.
func (c *Config) GracePeriod() time.Duration {
	return parseDuration(c.RawGracePeriod, DefaultGracePeriod)
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// MaxLineBytes returns the longest line emitted before splitting.
func (c *Config) MaxLineBytes() int {
	if c.RawMaxLine > 0 {
		return c.RawMaxLine
	}
	return DefaultMaxLine
}

// StreamBuffer returns the fan-in channel capacity.
func (c *Config) StreamBuffer() int {
	if c.RawStreamBuffer > 0 {
		return c.RawStreamBuffer
	}
	return DefaultStreamBuffer
}

// CacheSize returns the number of cached query results.
func (c *Config) CacheSize() int {
	if c.Cache.Size > 0 {
		return c.Cache.Size
	}
	return DefaultCacheSize
}

// CacheTTL returns how long a cached query result stays valid.
func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.Cache.RawTTL, DefaultCacheTTL)
}

// LogLevel returns the configured level name or the default.
func (c *Config) LogLevel() string {
	if c.Log.Level != "" {
		return c.Log.Level
	}
	return DefaultLogLevel
}

// LogFormat returns "console" or "json".
func (c *Config) LogFormat() string {
	if c.Log.Format == "json" {
		return "json"
	}
	return DefaultLogFormat
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw != "" {
		d, err := time.ParseDuration(raw)
		if err == nil && d > 0 {
			return d
		}
	}
	return def
}

// LoadResult holds the parsed config and the file it came from.
type LoadResult struct {
	Config *Config
	Path   string // empty when defaults are used
}

// Load reads the configuration. The file is taken from explicit if set,
// then $CELLAR_CONFIG, then <user config dir>/cellar/config.yaml. A missing
// default file yields a default Config; a missing explicit file is an error.
func Load(explicit string) (*LoadResult, error) {
	path, required := explicit, true
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		required = false
		dir, err := os.UserConfigDir()
		if err != nil {
			return &LoadResult{Config: &Config{}}, nil
		}
		path = filepath.Join(dir, "cellar", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return &LoadResult{Config: &Config{}}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Path: path}, nil
}
