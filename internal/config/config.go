package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Environments. Admin endpoints only check credentials in production.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the root configuration for the oneofjob server and CLI.
type Config struct {
	Environment string
	Server      ServerConfig
	Upstream    UpstreamConfig
	Cache       CacheConfig
	Auth        AuthConfig
	Listing     ListingConfig
	Companies   []string // served when the upstream company list is unavailable
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// UpstreamConfig points at the job API the crawler populates.
type UpstreamConfig struct {
	BaseURL     string
	Timeout     time.Duration // per-request HTTP client timeout
	MinInterval time.Duration // minimum gap between list fetches; 0 disables
}

// CacheConfig describes the crawl schedule entries are aligned to.
type CacheConfig struct {
	CrawlHour   int
	CrawlMinute int
	Location    *time.Location
	DefaultTTL  time.Duration
	PersistPath string // SQLite snapshot file; empty disables persistence
}

// AuthConfig holds the credentials accepted by the cache admin endpoints.
type AuthConfig struct {
	AdminAPIKey          string        // "Authorization: Bearer <key>"
	CrawlerWebhookSecret string        // "X-Webhook-Secret: <secret>"
	InvalidateCooldown   time.Duration // per-caller gap between invalidations; 0 disables
}

// ListingConfig tunes the job listing endpoints.
type ListingConfig struct {
	PageSize    int
	LatestCount int
}

// Enforced reports whether admin credentials are checked.
func (c *Config) Enforced() bool {
	return c.Environment == EnvProduction
}

const (
	defaultAddr        = ":8080"
	defaultBaseURL     = "http://localhost:3000"
	defaultCrawlTime   = "10:00"
	defaultPageSize    = 20
	defaultLatestCount = 6
	maxPageSize        = 100
)

// DefaultCompanies is the fallback company list.
var DefaultCompanies = []string{"NAVER", "KAKAO", "LINE"}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Environment string           `yaml:"environment"`
	Server      rawServerConfig  `yaml:"server"`
	Upstream    rawUpstream      `yaml:"upstream"`
	Cache       rawCacheConfig   `yaml:"cache"`
	Auth        rawAuthConfig    `yaml:"auth"`
	Listing     rawListingConfig `yaml:"listing"`
	Companies   []string         `yaml:"fallback_companies"`
}

type rawServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type rawUpstream struct {
	BaseURL     string `yaml:"base_url"`
	Timeout     string `yaml:"timeout"`
	MinInterval string `yaml:"min_interval"`
}

type rawCacheConfig struct {
	CrawlTime   string `yaml:"crawl_time"`
	Timezone    string `yaml:"timezone"`
	DefaultTTL  string `yaml:"default_ttl"`
	PersistPath string `yaml:"persist_path"`
}

type rawAuthConfig struct {
	AdminAPIKey          string `yaml:"admin_api_key"`
	CrawlerWebhookSecret string `yaml:"crawler_webhook_secret"`
	InvalidateCooldown   string `yaml:"invalidate_cooldown"`
}

type rawListingConfig struct {
	PageSize    int `yaml:"page_size"`
	LatestCount int `yaml:"latest_count"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file read. ${VAR} references are expanded from
// the environment before parsing.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	readTimeout, err := durationOr(raw.Server.ReadTimeout, 10*time.Second, "server.read_timeout")
	if err != nil {
		return nil, err
	}
	writeTimeout, err := durationOr(raw.Server.WriteTimeout, 30*time.Second, "server.write_timeout")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := durationOr(raw.Server.ShutdownTimeout, 10*time.Second, "server.shutdown_timeout")
	if err != nil {
		return nil, err
	}
	upstreamTimeout, err := durationOr(raw.Upstream.Timeout, 15*time.Second, "upstream.timeout")
	if err != nil {
		return nil, err
	}
	minInterval, err := durationOr(raw.Upstream.MinInterval, 0, "upstream.min_interval")
	if err != nil {
		return nil, err
	}
	cooldown, err := durationOr(raw.Auth.InvalidateCooldown, 0, "auth.invalidate_cooldown")
	if err != nil {
		return nil, err
	}
	ttl, err := durationOr(raw.Cache.DefaultTTL, 60*time.Minute, "cache.default_ttl")
	if err != nil {
		return nil, err
	}

	crawlTime := raw.Cache.CrawlTime
	if crawlTime == "" {
		crawlTime = defaultCrawlTime
	}
	hour, minute, err := parseClock(crawlTime)
	if err != nil {
		return nil, fmt.Errorf("parse cache.crawl_time %q: %w", crawlTime, err)
	}

	loc := time.Local
	if raw.Cache.Timezone != "" {
		loc, err = time.LoadLocation(raw.Cache.Timezone)
		if err != nil {
			return nil, fmt.Errorf("parse cache.timezone %q: %w", raw.Cache.Timezone, err)
		}
	}

	cfg := &Config{
		Environment: orDefault(strings.ToLower(raw.Environment), EnvDevelopment),
		Server: ServerConfig{
			Addr:            orDefault(raw.Server.Addr, defaultAddr),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Upstream: UpstreamConfig{
			BaseURL:     strings.TrimRight(orDefault(raw.Upstream.BaseURL, defaultBaseURL), "/"),
			Timeout:     upstreamTimeout,
			MinInterval: minInterval,
		},
		Cache: CacheConfig{
			CrawlHour:   hour,
			CrawlMinute: minute,
			Location:    loc,
			DefaultTTL:  ttl,
			PersistPath: raw.Cache.PersistPath,
		},
		Auth: AuthConfig{
			AdminAPIKey:          raw.Auth.AdminAPIKey,
			CrawlerWebhookSecret: raw.Auth.CrawlerWebhookSecret,
			InvalidateCooldown:   cooldown,
		},
		Listing: ListingConfig{
			PageSize:    raw.Listing.PageSize,
			LatestCount: raw.Listing.LatestCount,
		},
		Companies: raw.Companies,
	}
	if cfg.Listing.PageSize == 0 {
		cfg.Listing.PageSize = defaultPageSize
	}
	if cfg.Listing.LatestCount == 0 {
		cfg.Listing.LatestCount = defaultLatestCount
	}
	if len(cfg.Companies) == 0 {
		cfg.Companies = append([]string(nil), DefaultCompanies...)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

func validate(cfg *Config) error {
	switch cfg.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("environment must be %q or %q, got %q", EnvDevelopment, EnvProduction, cfg.Environment)
	}

	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute http(s) URL, got %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive, got %v", cfg.Upstream.Timeout)
	}
	if cfg.Upstream.MinInterval < 0 {
		return fmt.Errorf("upstream.min_interval must not be negative, got %v", cfg.Upstream.MinInterval)
	}
	if cfg.Auth.InvalidateCooldown < 0 {
		return fmt.Errorf("auth.invalidate_cooldown must not be negative, got %v", cfg.Auth.InvalidateCooldown)
	}
	if cfg.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("cache.default_ttl must be positive, got %v", cfg.Cache.DefaultTTL)
	}

	if cfg.Enforced() && cfg.Auth.AdminAPIKey == "" && cfg.Auth.CrawlerWebhookSecret == "" {
		return fmt.Errorf("auth.admin_api_key or auth.crawler_webhook_secret is required in production")
	}

	if cfg.Listing.PageSize < 1 || cfg.Listing.PageSize > maxPageSize {
		return fmt.Errorf("listing.page_size must be between 1 and %d, got %d", maxPageSize, cfg.Listing.PageSize)
	}
	if cfg.Listing.LatestCount < 1 {
		return fmt.Errorf("listing.latest_count must be positive, got %d", cfg.Listing.LatestCount)
	}

	return nil
}

// parseClock parses "HH:MM" in 24-hour time.
func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("want HH:MM")
	}
	return t.Hour(), t.Minute(), nil
}

func durationOr(s string, def time.Duration, field string) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
