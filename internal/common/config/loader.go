// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// maxGeminiKeys is how many numbered GEMINI_API_KEY_<n> variables are scanned.
const maxGeminiKeys = 9

var validReviewSorts = map[string]bool{
	"qualityScore": true,
	"newestFirst":  true,
	"ratingHigh":   true,
	"ratingLow":    true,
}

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay is optional.
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Booleans cannot be defaulted after unmarshal.
	v.SetDefault("database.redis.enabled", true)
	v.SetDefault("research.summarize_reviews", true)
	return v
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills provider credentials from the conventional
// environment variable names when the config file leaves them empty.
func overrideEmptyConfig(cfg *Config) {
	cfg.APIs.Gemini.APIKeys = normalizeKeys(cfg.APIs.Gemini.APIKeys)
	if len(cfg.APIs.Gemini.APIKeys) == 0 {
		cfg.APIs.Gemini.APIKeys = geminiKeysFromEnv()
	}

	bd := &cfg.APIs.BrightData
	if bd.APIKey == "" {
		bd.APIKey = os.Getenv("BRIGHTDATA_API_KEY")
	}
	if bd.Zone == "" {
		bd.Zone = os.Getenv("BRIGHTDATA_API_ZONE")
	}
	if bd.ProxyUsername == "" {
		bd.ProxyUsername = os.Getenv("BRIGHTDATA_PROXY_USERNAME")
	}
	if bd.ProxyPassword == "" {
		bd.ProxyPassword = os.Getenv("BRIGHTDATA_PROXY_PASSWORD")
	}
	if bd.CACertPath == "" {
		bd.CACertPath = os.Getenv("BRIGHTDATA_CA_CERT_PATH")
	}

	if cfg.Database.Redis.Password == "" {
		cfg.Database.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
}

// geminiKeysFromEnv reads GEMINI_API_KEY_1..9, stopping at the first gap,
// then falls back to a single GEMINI_API_KEY.
func geminiKeysFromEnv() []string {
	var keys []string
	for i := 1; i <= maxGeminiKeys; i++ {
		val := strings.TrimSpace(os.Getenv(fmt.Sprintf("GEMINI_API_KEY_%d", i)))
		if val == "" {
			break
		}
		keys = append(keys, val)
	}
	if len(keys) == 0 {
		if val := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); val != "" {
			keys = append(keys, val)
		}
	}
	return keys
}

// normalizeKeys splits comma separated entries (as delivered by env
// overrides) and drops blanks.
func normalizeKeys(raw []string) []string {
	var keys []string
	for _, entry := range raw {
		for _, k := range strings.Split(entry, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "business-research"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Redis defaults
	if cfg.Database.Redis.PoolSize == 0 {
		cfg.Database.Redis.PoolSize = 10
	}
	if cfg.Database.Redis.MinIdleConns == 0 {
		cfg.Database.Redis.MinIdleConns = 5
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Tracing.JaegerEndpoint == "" {
		cfg.Tracing.JaegerEndpoint = "http://localhost:14268/api/traces"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1.0
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	// Worker defaults
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 120000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	// Provider defaults
	g := &cfg.APIs.Gemini
	if g.Model == "" {
		g.Model = "gemini-2.0-flash"
	}
	if g.Temperature == 0 {
		g.Temperature = 0.7
	}
	if g.Timeout == 0 {
		g.Timeout = 20000
	}

	bd := &cfg.APIs.BrightData
	if bd.ProxyHost == "" {
		bd.ProxyHost = "brd.superproxy.io"
	}
	if bd.ProxyPort == 0 {
		bd.ProxyPort = 33335
	}
	if bd.RequestURL == "" {
		bd.RequestURL = "https://api.brightdata.com/request"
	}

	s := &cfg.APIs.Search
	if s.BaseURL == "" {
		s.BaseURL = "https://www.google.com/search"
	}
	if s.MapsBaseURL == "" {
		s.MapsBaseURL = "https://www.google.com/maps"
	}
	if s.ReviewsURL == "" {
		s.ReviewsURL = "https://www.google.com/reviews"
	}
	if s.Language == "" {
		s.Language = "en"
	}
	if s.Country == "" {
		s.Country = "us"
	}

	// Research defaults
	r := &cfg.Research
	if r.FetchAttempts == 0 {
		r.FetchAttempts = 3
	}
	if r.FetchBaseDelay == 0 {
		r.FetchBaseDelay = 1500
	}
	if r.DetailTimeout == 0 {
		r.DetailTimeout = 30000
	}
	if r.ContentTimeout == 0 {
		r.ContentTimeout = 60000
	}
	if r.ReviewsTimeout == 0 {
		r.ReviewsTimeout = 30000
	}
	if r.ReviewSort == "" {
		r.ReviewSort = "qualityScore"
	}
	if r.MaxReviews == 0 {
		r.MaxReviews = 20
	}
	if r.CacheTTL == 0 {
		r.CacheTTL = 24 * 60 * 60 * 1000
	}
	if r.BatchConcurrency == 0 {
		r.BatchConcurrency = 5
	}
	if r.MaxContentLength == 0 {
		r.MaxContentLength = 20000
	}
}

// validateConfig validates fields every entry point depends on.
func validateConfig(cfg *Config) error {
	r := cfg.Research
	if r.FetchAttempts < 1 {
		return fmt.Errorf("research.fetch_attempts must be at least 1")
	}
	if r.MaxReviews < 1 {
		return fmt.Errorf("research.max_reviews must be at least 1")
	}
	if !validReviewSorts[r.ReviewSort] {
		return fmt.Errorf("research.review_sort %q is not one of qualityScore, newestFirst, ratingHigh, ratingLow", r.ReviewSort)
	}
	if r.BatchConcurrency < 1 {
		return fmt.Errorf("research.batch_concurrency must be at least 1")
	}

	if cfg.Database.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when the resolution cache is enabled")
	}

	return nil
}

// ValidateForWorkers adds the checks only the worker manager needs.
func ValidateForWorkers(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       120000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
