package model

import "time"

// Config is the full claimcheck configuration.
// Hierarchy: CLI flags > CLAIMCHECK_* env vars > config file > defaults.
type Config struct {
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Queue   QueueConfig   `mapstructure:"queue" yaml:"queue"`
	Gather  GatherConfig  `mapstructure:"gather" yaml:"gather"`
	Oracle  OracleConfig  `mapstructure:"oracle" yaml:"oracle"`
	Probe   ProbeConfig   `mapstructure:"probe" yaml:"probe"`
	Worker  WorkerConfig  `mapstructure:"worker" yaml:"worker"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify"`
	API     APIConfig     `mapstructure:"api" yaml:"api"`
}

// StoreConfig configures the claim store
type StoreConfig struct {
	// Path is the sqlite database file
	Path string `mapstructure:"path" yaml:"path"`
}

// QueueConfig configures the verification queue
type QueueConfig struct {
	// RedisURL is the Redis connection URL; empty selects the in-memory queue
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`
	// Name prefixes all Redis keys for this queue
	Name string `mapstructure:"name" yaml:"name"`
	// MaxAttempts bounds redelivery of a failing job
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
	// BackoffBase is the first retry delay; subsequent delays double
	BackoffBase time.Duration `mapstructure:"backoff_base" yaml:"backoff_base"`
}

// GatherConfig configures the evidence gatherer
type GatherConfig struct {
	ScraperURL      string        `mapstructure:"scraper_url" yaml:"scraper_url"`
	ImageCheckerURL string        `mapstructure:"image_checker_url" yaml:"image_checker_url"`
	ScraperTimeout  time.Duration `mapstructure:"scraper_timeout" yaml:"scraper_timeout"`
	ImageTimeout    time.Duration `mapstructure:"image_timeout" yaml:"image_timeout"`
	// MaxEvidence caps text-search results kept per claim
	MaxEvidence int `mapstructure:"max_evidence" yaml:"max_evidence"`
	// CacheTTL bounds reuse of scraper responses across requeued jobs
	CacheTTL  time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// OracleConfig configures the reasoning oracle adapter
type OracleConfig struct {
	// Provider: "openai", "ollama", or "" to disable the oracle entirely
	Provider string        `mapstructure:"provider" yaml:"provider"`
	Model    string        `mapstructure:"model" yaml:"model"`
	APIKey   string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL  string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// RateLimitRetries caps in-adapter retries on HTTP 429
	RateLimitRetries int `mapstructure:"rate_limit_retries" yaml:"rate_limit_retries"`
	// RateLimitDelay is the fallback wait when the vendor gives no hint
	RateLimitDelay time.Duration `mapstructure:"rate_limit_delay" yaml:"rate_limit_delay"`
}

// ProbeConfig configures the evidence URL probe
type ProbeConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Workers int           `mapstructure:"workers" yaml:"workers"`
	// RequestsPerSecond rate-limits probe traffic per host
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// WorkerConfig configures the verification job runner
type WorkerConfig struct {
	Count int `mapstructure:"count" yaml:"count"`
	// AutoPublishConfidence is the minimum confidence for flagging a result
	// for publication to outbound channels
	AutoPublishConfidence float64 `mapstructure:"auto_publish_confidence" yaml:"auto_publish_confidence"`
}

// NotifyConfig configures the best-effort completion webhook
type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url" yaml:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// APIConfig configures the ingest HTTP API
type APIConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// ClaimExtractorURL is the optional normalization service called at ingest
	ClaimExtractorURL string `mapstructure:"claim_extractor_url" yaml:"claim_extractor_url"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: "claimcheck.db",
		},
		Queue: QueueConfig{
			RedisURL:    "",
			Name:        "verification-queue",
			MaxAttempts: 3,
			BackoffBase: 2 * time.Second,
		},
		Gather: GatherConfig{
			ScraperTimeout: 10 * time.Second,
			ImageTimeout:   15 * time.Second,
			MaxEvidence:    5,
			CacheTTL:       5 * time.Minute,
			UserAgent:      "claimcheck/0.1",
		},
		Oracle: OracleConfig{
			Provider:         "openai",
			Timeout:          120 * time.Second,
			RateLimitRetries: 3,
			RateLimitDelay:   60 * time.Second,
		},
		Probe: ProbeConfig{
			Enabled:           true,
			Timeout:           10 * time.Second,
			Workers:           10,
			RequestsPerSecond: 2,
		},
		Worker: WorkerConfig{
			Count:                 1,
			AutoPublishConfidence: 0.85,
		},
		Notify: NotifyConfig{
			Timeout: 5 * time.Second,
		},
		API: APIConfig{
			Addr: ":8080",
		},
	}
}
