// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	APIs     APIsConfig              `mapstructure:"apis"`
	Research ResearchConfig          `mapstructure:"research"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Tracing  TracingConfig           `mapstructure:"tracing"`
	Server   ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	Enabled      bool   `mapstructure:"enabled"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- External Providers ---

// APIsConfig holds settings for the search, scraping and oracle providers.
type APIsConfig struct {
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	BrightData BrightDataConfig `mapstructure:"brightdata"`
	Search     SearchConfig     `mapstructure:"search"`
}

type GeminiConfig struct {
	APIKeys     []string `mapstructure:"api_keys"`
	Model       string   `mapstructure:"model"`
	Temperature float64  `mapstructure:"temperature"`
	Timeout     int      `mapstructure:"timeout"` // milliseconds
}

// BrightDataConfig covers both transports: the SERP proxy used for search,
// detail and reviews, and the request API used for raw page content.
type BrightDataConfig struct {
	ProxyHost     string `mapstructure:"proxy_host"`
	ProxyPort     int    `mapstructure:"proxy_port"`
	ProxyUsername string `mapstructure:"proxy_username"`
	ProxyPassword string `mapstructure:"proxy_password"`
	CACertPath    string `mapstructure:"ca_cert_path"`
	APIKey        string `mapstructure:"api_key"`
	Zone          string `mapstructure:"zone"`
	RequestURL    string `mapstructure:"request_url"`
}

// ProxyURL returns the authenticated proxy URL, or "" when no proxy is configured.
func (b BrightDataConfig) ProxyURL() string {
	if b.ProxyHost == "" {
		return ""
	}
	if b.ProxyUsername == "" {
		return fmt.Sprintf("http://%s:%d", b.ProxyHost, b.ProxyPort)
	}
	return fmt.Sprintf("http://%s:%s@%s:%d", b.ProxyUsername, b.ProxyPassword, b.ProxyHost, b.ProxyPort)
}

type SearchConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	MapsBaseURL string `mapstructure:"maps_base_url"`
	ReviewsURL  string `mapstructure:"reviews_url"`
	Language    string `mapstructure:"language"`
	Country     string `mapstructure:"country"`
}

// --- Research Engine ---

type ResearchConfig struct {
	FetchAttempts    int    `mapstructure:"fetch_attempts"`
	FetchBaseDelay   int    `mapstructure:"fetch_base_delay"` // milliseconds
	DetailTimeout    int    `mapstructure:"detail_timeout"`   // milliseconds
	ContentTimeout   int    `mapstructure:"content_timeout"`  // milliseconds
	ReviewsTimeout   int    `mapstructure:"reviews_timeout"`  // milliseconds
	ReviewSort       string `mapstructure:"review_sort"`
	MaxReviews       int    `mapstructure:"max_reviews"`
	ReviewFilter     string `mapstructure:"review_filter"`
	SummarizeReviews bool   `mapstructure:"summarize_reviews"`
	RequireResult    bool   `mapstructure:"require_result"`
	CacheTTL         int    `mapstructure:"cache_ttl"` // milliseconds
	BatchConcurrency int    `mapstructure:"batch_concurrency"`
	MaxContentLength int    `mapstructure:"max_content_length"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig enables span export to a Jaeger collector.
type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// ServerConfig holds the health/metrics listener.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}
