// Package config defines the tunables recognized by the image cache and
// loads them from a YAML file, applying sensible defaults for anything
// left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LogConfig controls the logger.
type LogConfig struct {
	ToStdout bool   `yaml:"toStdout"`
	ToFile   bool   `yaml:"toFile"`
	FilePath string `yaml:"filePath"`
	Debug    bool   `yaml:"debug"`
}

// MetricsConfig controls the optional Prometheus admin endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // ":0" picks a free port
}

// InvalidationConfig controls the optional distributed invalidation
// notifier.
type InvalidationConfig struct {
	Enabled bool   `yaml:"enabled"`
	Redis   string `yaml:"redis"`   // address, e.g. "localhost:6379"
	Channel string `yaml:"channel"` // pub/sub channel name
}

// Options is the full set of tunables recognized by the cache.
type Options struct {
	// StorageDir is the cache directory: one sidecar index, zero or more
	// blob files, and an advisory .lock file.
	StorageDir string `yaml:"storageDir"`

	// MaxRequests bounds concurrent HTTP transfers in flight.
	MaxRequests int `yaml:"maxRequests"`
	// CacheMaxSize is the maximum number of blob files scanAndEvict keeps.
	CacheMaxSize int `yaml:"cacheMaxSize"`
	// CacheMaxTime is the atime-based TTL applied during eviction.
	CacheMaxTime time.Duration `yaml:"cacheMaxTime"`
	// RequestTimeout bounds a single HTTP transfer end to end.
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	// MaxResponseBytes caps how large a single response body may grow
	// before the fetcher aborts the transfer as failed. Guards against
	// the unbounded realloc growth the original C implementation warned
	// about in its own design notes.
	MaxResponseBytes int64 `yaml:"maxResponseBytes"`
	// InsecureSkipVerify disables TLS certificate verification. The
	// spec's historical default is true; production embedders should
	// set this to false.
	InsecureSkipVerify bool `yaml:"insecureSkipVerify"`

	Log          LogConfig          `yaml:"log"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Invalidation InvalidationConfig `yaml:"invalidation"`
}

// Default returns sensible tunables for a standalone cache instance.
func Default() Options {
	return Options{
		StorageDir:         "imgcache-data",
		MaxRequests:        4,
		CacheMaxSize:       3,
		CacheMaxTime:       7 * 24 * time.Hour,
		RequestTimeout:     60 * time.Second,
		MaxResponseBytes:   32 << 20,
		InsecureSkipVerify: true,
		Log: LogConfig{
			ToStdout: true,
		},
	}
}

// applyDefaults fills any zero-valued field left unset after an
// unmarshal, the same "intelligent defaults" pattern as
// engine.InstantiateHermyxEngine.
func (o *Options) applyDefaults() {
	d := Default()
	if o.StorageDir == "" {
		o.StorageDir = d.StorageDir
	}
	if o.MaxRequests <= 0 {
		o.MaxRequests = d.MaxRequests
	}
	if o.CacheMaxSize <= 0 {
		o.CacheMaxSize = d.CacheMaxSize
	}
	if o.CacheMaxTime <= 0 {
		o.CacheMaxTime = d.CacheMaxTime
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = d.RequestTimeout
	}
	if o.MaxResponseBytes <= 0 {
		o.MaxResponseBytes = d.MaxResponseBytes
	}
	if o.Invalidation.Channel == "" {
		o.Invalidation.Channel = "imgcache:invalidate"
	}
}

// Load reads and parses a YAML config file, applying defaults to
// whatever was left unset.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	o.applyDefaults()
	return o, nil
}

// WriteDefault writes a commented-free default config to path, mirroring
// engine.InitConfig's generated starter file.
func WriteDefault(path string) error {
	o := Default()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
