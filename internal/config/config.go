// Package config handles configuration loading and validation for cw-inspector.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/certwatch-app/cw-inspector/internal/inspector"
)

// Cache backends
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config represents the complete inspector configuration
// Field order is the order of sections in generated config files.
type Config struct {
	LogLevel     string             `mapstructure:"log_level" yaml:"log_level"`
	Inspector    InspectorConfig    `mapstructure:"inspector" yaml:"inspector"`
	Transparency TransparencyConfig `mapstructure:"transparency" yaml:"transparency"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Watch        WatchConfig        `mapstructure:"watch" yaml:"watch"`
}

// InspectorConfig contains TLS connection settings
// Fields are ordered for optimal memory alignment
type InspectorConfig struct {
	DialTimeout      time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	Port             int           `mapstructure:"port" yaml:"port"`
	Concurrency      int           `mapstructure:"concurrency" yaml:"concurrency"`
	VerifyChain      bool          `mapstructure:"verify_chain" yaml:"verify_chain"`
}

// TransparencyConfig contains CT aggregator settings
type TransparencyConfig struct {
	URLTemplate string        `mapstructure:"url_template" yaml:"url_template"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
}

// CacheConfig selects and tunes the certificate cache
type CacheConfig struct {
	Backend   string        `mapstructure:"backend" yaml:"backend"`
	RedisAddr string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	KeyPrefix string        `mapstructure:"key_prefix" yaml:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
	RedisDB   int           `mapstructure:"redis_db" yaml:"redis_db"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
	// RateLimit is requests per second per client IP
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// WatchConfig contains scheduled rescan settings
type WatchConfig struct {
	Schedule   string   `mapstructure:"schedule" yaml:"schedule"`
	WebhookURL string   `mapstructure:"webhook_url" yaml:"webhook_url"`
	StateDir   string   `mapstructure:"state_dir" yaml:"state_dir"`
	Domains    []string `mapstructure:"domains" yaml:"domains"`
}

// Load reads configuration from viper
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Cache.Backend = strings.ToLower(cfg.Cache.Backend)

	return cfg, nil
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	//nolint:errcheck // defaults always decode
	v.Unmarshal(cfg)
	return cfg
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("inspector.port", 443)
	v.SetDefault("inspector.dial_timeout", "5s")
	v.SetDefault("inspector.handshake_timeout", "10s")
	v.SetDefault("inspector.verify_chain", true)
	v.SetDefault("inspector.concurrency", 4)

	v.SetDefault("transparency.enabled", true)
	v.SetDefault("transparency.url_template", inspector.DefaultCTURLTemplate)
	v.SetDefault("transparency.timeout", "10s")
	v.SetDefault("transparency.rate_limit", 1.0)

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.key_prefix", "cwi:cert:")

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.rate_limit", 20.0)

	v.SetDefault("watch.schedule", "@every 6h")
	v.SetDefault("watch.state_dir", ".")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}

	if err := c.validateInspector(); err != nil {
		return fmt.Errorf("inspector: %w", err)
	}

	if err := c.validateTransparency(); err != nil {
		return fmt.Errorf("transparency: %w", err)
	}

	if err := c.validateCache(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	return nil
}

// ValidateWatch checks the settings only the watch command needs
func (c *Config) ValidateWatch() error {
	if len(c.Watch.Domains) == 0 {
		return fmt.Errorf("watch: at least one domain is required")
	}

	if len(c.Watch.Domains) > 1000 {
		return fmt.Errorf("watch: maximum 1000 domains allowed")
	}

	seen := make(map[inspector.DomainName]bool)
	for i, raw := range c.Watch.Domains {
		domain, err := inspector.ParseDomain(raw)
		if err != nil {
			return fmt.Errorf("watch: domains[%d]: %w", i, err)
		}
		if seen[domain] {
			return fmt.Errorf("watch: domains[%d]: duplicate domain '%s'", i, domain)
		}
		seen[domain] = true
	}

	if _, err := cron.ParseStandard(c.Watch.Schedule); err != nil {
		return fmt.Errorf("watch: invalid schedule %q: %w", c.Watch.Schedule, err)
	}

	if c.Watch.WebhookURL != "" {
		if err := validateHTTPURL(c.Watch.WebhookURL); err != nil {
			return fmt.Errorf("watch: webhook_url: %w", err)
		}
	}

	if c.Watch.StateDir == "" {
		return fmt.Errorf("watch: state_dir is required")
	}

	return nil
}

func (c *Config) validateInspector() error {
	if c.Inspector.Port < 1 || c.Inspector.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if c.Inspector.DialTimeout < 100*time.Millisecond {
		return fmt.Errorf("dial_timeout must be at least 100ms")
	}

	if c.Inspector.HandshakeTimeout < 100*time.Millisecond {
		return fmt.Errorf("handshake_timeout must be at least 100ms")
	}

	if c.Inspector.Concurrency < 1 || c.Inspector.Concurrency > 50 {
		return fmt.Errorf("concurrency must be between 1 and 50")
	}

	return nil
}

func (c *Config) validateTransparency() error {
	if !c.Transparency.Enabled {
		return nil
	}

	if strings.Count(c.Transparency.URLTemplate, "%s") != 1 {
		return fmt.Errorf("url_template must contain exactly one %%s placeholder")
	}

	if err := validateHTTPURL(fmt.Sprintf(c.Transparency.URLTemplate, "example.com")); err != nil {
		return fmt.Errorf("url_template: %w", err)
	}

	if c.Transparency.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second")
	}

	if c.Transparency.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}

	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for the redis backend")
		}
		if c.Cache.RedisDB < 0 {
			return fmt.Errorf("redis_db must not be negative")
		}
	default:
		return fmt.Errorf("backend must be one of: memory, redis")
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("ttl must not be negative")
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("listen is required")
	}

	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("must use http or https scheme")
	}

	if u.Host == "" {
		return fmt.Errorf("host is required")
	}

	return nil
}

// DialConfig returns the TLS connection settings for the inspector
func (c *Config) DialConfig() inspector.DialConfig {
	return inspector.DialConfig{
		Port:             c.Inspector.Port,
		DialTimeout:      c.Inspector.DialTimeout,
		HandshakeTimeout: c.Inspector.HandshakeTimeout,
		VerifyChain:      c.Inspector.VerifyChain,
	}
}

// CorrelatorConfig returns the CT aggregator settings for the inspector
func (c *Config) CorrelatorConfig(userAgent string) inspector.CorrelatorConfig {
	return inspector.CorrelatorConfig{
		URLTemplate: c.Transparency.URLTemplate,
		UserAgent:   userAgent,
		Timeout:     c.Transparency.Timeout,
		RateLimit:   c.Transparency.RateLimit,
	}
}
