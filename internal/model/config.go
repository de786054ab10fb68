package model

import "time"

// Config is the complete nyaya configuration.
// Field tags serve both yaml.v3 (config init/show) and viper (mapstructure).
type Config struct {
	API          APIConfig          `yaml:"api" mapstructure:"api"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Listing      ListingConfig      `yaml:"listing" mapstructure:"listing"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Session      SessionConfig      `yaml:"session" mapstructure:"session"`
}

// APIConfig describes the backend
type APIConfig struct {
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	FallbackURLs []string      `yaml:"fallback_urls" mapstructure:"fallback_urls"` // Tried in order by the connectivity probe
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
	ProbePath    string        `yaml:"probe_path" mapstructure:"probe_path"`
	BypassHeader string        `yaml:"bypass_header" mapstructure:"bypass_header"` // Header the tunnelling proxy needs to skip its interstitial
	BypassValue  string        `yaml:"bypass_value" mapstructure:"bypass_value"`
	RefreshSkew  time.Duration `yaml:"refresh_skew" mapstructure:"refresh_skew"` // Refresh this long before the access token expires
}

// HTTPConfig tunes the underlying HTTP clients
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"` // 0 means no client-side timeout
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RateLimitingConfig throttles outgoing requests per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
	RespectRobotsTxt  bool    `yaml:"respect_robots_txt" mapstructure:"respect_robots_txt"` // PDF downloads only
}

// CacheConfig controls caching of reference data (acts, law mappings)
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"` // 0 disables the disk layer
	Dir       string        `yaml:"dir" mapstructure:"dir"` // Empty means $HOME/.nyaya/cache
}

// ListingConfig controls paginated list behaviour
type ListingConfig struct {
	PageSize         int           `yaml:"page_size" mapstructure:"page_size"`
	Debounce         time.Duration `yaml:"debounce" mapstructure:"debounce"`
	LoadMoreDistance int           `yaml:"load_more_distance" mapstructure:"load_more_distance"` // Rows from the end that trigger load-more
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	DownloadWorkers int `yaml:"download_workers" mapstructure:"download_workers"`
}

// LLMConfig configures the optional research brief
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // "openai" or "" (disabled)
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"-" mapstructure:"api_key"` // Never written to disk
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	StrictEvidence bool   `yaml:"strict_evidence" mapstructure:"strict_evidence"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	Format  string `yaml:"format" mapstructure:"format"` // table, json, markdown
}

// SessionConfig locates persisted credentials
type SessionConfig struct {
	File string `yaml:"file" mapstructure:"file"` // Empty means $HOME/.nyaya/session.json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:      "http://localhost:8000",
			ProbeTimeout: 3 * time.Second,
			ProbePath:    "/health",
			BypassHeader: "ngrok-skip-browser-warning",
			BypassValue:  "true",
			RefreshSkew:  30 * time.Second,
		},
		HTTP: HTTPConfig{
			UserAgent:    "nyaya/0.3",
			MaxBodyBytes: 50_000_000,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 10,
			BurstSize:         20,
			RespectRobotsTxt:  true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Listing: ListingConfig{
			PageSize:         20,
			Debounce:         600 * time.Millisecond,
			LoadMoreDistance: 5,
		},
		Concurrency: ConcurrencyConfig{
			DownloadWorkers: 4,
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			Timeout:        60,
			StrictEvidence: true,
			MaxTokens:      1200,
		},
		Output: OutputConfig{
			Format: "table",
		},
	}
}
