// Package config loads runtime tunables. Provider endpoints and credentials
// stay environment-only (see internal/providers); this file covers the
// fetch, retry, breaker and cache knobs with an optional YAML override. The
// fan-out caps are constants in internal/resolve and are not configurable.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/sportsettle/sportsettle/internal/httpclient"
)

// FetchConfig tunes the HTTP fetcher.
type FetchConfig struct {
	TimeoutMS int    `yaml:"timeout_ms"`
	HostRPS   int    `yaml:"host_rps"`
	HostBurst int    `yaml:"host_burst"`
	UserAgent string `yaml:"user_agent"`
}

// RetryConfig tunes the backoff loop.
type RetryConfig struct {
	Retries        int     `yaml:"retries"`
	InitialDelayMS int     `yaml:"initial_delay_ms"`
	Factor         float64 `yaml:"factor"`
}

// BreakerConfig tunes the per-host circuit breakers.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold"`
	CooldownMS       int `yaml:"cooldown_ms"`
}

// CacheConfig tunes the optional payload cache.
type CacheConfig struct {
	TTLSecs int `yaml:"ttl_secs"`
}

// Config is the full tunable set.
type Config struct {
	Fetch   FetchConfig   `yaml:"fetch"`
	Retry   RetryConfig   `yaml:"retry"`
	Breaker BreakerConfig `yaml:"breaker"`
	Cache   CacheConfig   `yaml:"cache"`

	// Env-derived settings, not read from YAML.
	Debug     bool   `yaml:"-"`
	RedisAddr string `yaml:"-"`
}

// Default is the built-in tuning: 15s transport timeout, two retries from
// 300ms doubling, breakers opening after 3 failures for 15s.
func Default() Config {
	return Config{
		Fetch:   FetchConfig{TimeoutMS: 15000, HostRPS: 5, HostBurst: 10, UserAgent: "sportsettle/1.0"},
		Retry:   RetryConfig{Retries: 2, InitialDelayMS: 300, Factor: 2},
		Breaker: BreakerConfig{FailureThreshold: 3, CooldownMS: 15000},
		Cache:   CacheConfig{TTLSecs: 60},
	}
}

// Load returns the defaults overlaid with the YAML file at path (when path
// is non-empty) and the recognized environment roles.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrap(err, "parse config file")
		}
	}

	cfg.Debug = os.Getenv("DEBUG") == "true"
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Fetch.TimeoutMS <= 0 {
		return errors.Newf("fetch timeout_ms must be positive, got %d", c.Fetch.TimeoutMS)
	}
	if c.Retry.Retries < 0 {
		return errors.Newf("retry retries must not be negative, got %d", c.Retry.Retries)
	}
	if c.Retry.Factor < 1 {
		return errors.Newf("retry factor must be at least 1, got %f", c.Retry.Factor)
	}
	if c.Breaker.FailureThreshold <= 0 {
		return errors.Newf("breaker failure_threshold must be positive, got %d", c.Breaker.FailureThreshold)
	}
	if c.Breaker.CooldownMS <= 0 {
		return errors.Newf("breaker cooldown_ms must be positive, got %d", c.Breaker.CooldownMS)
	}
	return nil
}

// Timeout returns the fetch transport timeout.
func (c Config) Timeout() time.Duration { return time.Duration(c.Fetch.TimeoutMS) * time.Millisecond }

// Cooldown returns the breaker cooldown.
func (c Config) Cooldown() time.Duration { return time.Duration(c.Breaker.CooldownMS) * time.Millisecond }

// InitialDelay returns the first backoff delay.
func (c Config) InitialDelay() time.Duration {
	return time.Duration(c.Retry.InitialDelayMS) * time.Millisecond
}

// RetryPolicy returns the configured fetch retry policy.
func (c Config) RetryPolicy() httpclient.RetryPolicy {
	return httpclient.RetryPolicy{
		Retries:      c.Retry.Retries,
		InitialDelay: c.InitialDelay(),
		Factor:       c.Retry.Factor,
	}
}

// CacheTTL returns the payload cache TTL.
func (c Config) CacheTTL() time.Duration { return time.Duration(c.Cache.TTLSecs) * time.Second }
