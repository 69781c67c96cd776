// Package config loads ALERTA-LINK's runtime configuration from the
// environment, modeled on the teacher's internal/app.Config /
// DefaultConfig() pattern but backed by viper's AutomaticEnv instead of
// hand-rolled os.Getenv parsing (see SPEC_FULL.md's AMBIENT STACK section).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process-wide configuration value. It is constructed once at
// boot and passed down through the Engine; nothing in the core reads the
// environment directly after Load returns.
type Config struct {
	AppName    string
	AppVersion string
	Debug      bool
	ListenAddr string

	SecretKey string

	TrancoAPIKey        string
	TrancoAPIEmail      string
	TrancoRankThreshold int

	VirusTotalAPIKey            string
	VirusTotalThreshold         int
	VirusTotalUncertaintyMin    int
	VirusTotalUncertaintyMax    int
	VirusTotalQuotaPerMinute    int

	ModelPath   string
	ModelSHA256 string

	WeightsPath string

	CORSOrigins []string

	DatabaseURL string
	StoreDir    string

	RateLimitTokensPerMinute int
	RateLimitBurst           int

	CrawlerEnabledDefault bool
	CrawlerMaxConcurrency int

	AnalyzeTimeout        time.Duration
	AnalyzeTimeoutCrawler time.Duration
}

// Load reads configuration from environment variables only (no config or
// .env file is read) via viper and validates the fatal-at-boot invariants
// from spec.md §7 ("Fatal: configuration missing at boot ... process
// refuses to start").
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "ALERTA-LINK")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("TRANCO_RANK_THRESHOLD", 100000)
	v.SetDefault("VIRUSTOTAL_THRESHOLD", 3)
	v.SetDefault("VIRUSTOTAL_UNCERTAINTY_MIN", 30)
	v.SetDefault("VIRUSTOTAL_UNCERTAINTY_MAX", 70)
	v.SetDefault("VIRUSTOTAL_QUOTA_PER_MINUTE", 4)
	v.SetDefault("MODEL_PATH", "models/step1_baseline.bin")
	v.SetDefault("MODEL_SHA256", "")
	v.SetDefault("WEIGHTS_PATH", "models/heuristic_weights.json")
	v.SetDefault("CORS_ORIGINS", "https://samuelortizospina.me")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STORE_DIR", "./data")
	v.SetDefault("RATE_LIMIT_TOKENS_PER_MINUTE", 30)
	v.SetDefault("RATE_LIMIT_BURST", 30)
	v.SetDefault("CRAWLER_ENABLED_DEFAULT", false)
	v.SetDefault("CRAWLER_MAX_CONCURRENCY", 4)
	v.SetDefault("ANALYZE_TIMEOUT_SECONDS", 10)
	v.SetDefault("ANALYZE_TIMEOUT_CRAWLER_SECONDS", 30)

	cfg := &Config{
		AppName:                  v.GetString("APP_NAME"),
		AppVersion:               v.GetString("APP_VERSION"),
		Debug:                    v.GetBool("DEBUG"),
		ListenAddr:               v.GetString("LISTEN_ADDR"),
		SecretKey:                v.GetString("SECRET_KEY"),
		TrancoAPIKey:             v.GetString("TRANCO_API_KEY"),
		TrancoAPIEmail:           v.GetString("TRANCO_API_EMAIL"),
		TrancoRankThreshold:      v.GetInt("TRANCO_RANK_THRESHOLD"),
		VirusTotalAPIKey:         v.GetString("VIRUSTOTAL_API_KEY"),
		VirusTotalThreshold:      v.GetInt("VIRUSTOTAL_THRESHOLD"),
		VirusTotalUncertaintyMin: v.GetInt("VIRUSTOTAL_UNCERTAINTY_MIN"),
		VirusTotalUncertaintyMax: v.GetInt("VIRUSTOTAL_UNCERTAINTY_MAX"),
		VirusTotalQuotaPerMinute: v.GetInt("VIRUSTOTAL_QUOTA_PER_MINUTE"),
		ModelPath:                v.GetString("MODEL_PATH"),
		ModelSHA256:              v.GetString("MODEL_SHA256"),
		WeightsPath:              v.GetString("WEIGHTS_PATH"),
		DatabaseURL:              v.GetString("DATABASE_URL"),
		StoreDir:                 v.GetString("STORE_DIR"),
		RateLimitTokensPerMinute: v.GetInt("RATE_LIMIT_TOKENS_PER_MINUTE"),
		RateLimitBurst:           v.GetInt("RATE_LIMIT_BURST"),
		CrawlerEnabledDefault:    v.GetBool("CRAWLER_ENABLED_DEFAULT"),
		CrawlerMaxConcurrency:    v.GetInt("CRAWLER_MAX_CONCURRENCY"),
		AnalyzeTimeout:           time.Duration(v.GetInt("ANALYZE_TIMEOUT_SECONDS")) * time.Second,
		AnalyzeTimeoutCrawler:    time.Duration(v.GetInt("ANALYZE_TIMEOUT_CRAWLER_SECONDS")) * time.Second,
	}

	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate enforces spec.md §7's fatal-at-boot taxonomy: missing SECRET_KEY
// or any wildcard CORS origin refuses to start (the server never enables
// CORS credentials, and the wildcard check does not depend on them).
// SECRET_KEY has no default and no debug exception (spec.md §6.4, §7).
func (c *Config) validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("config: SECRET_KEY is required")
	}
	for _, o := range c.CORSOrigins {
		if o == "*" {
			return fmt.Errorf("config: CORS_ORIGINS must not contain a wildcard when credentials are allowed")
		}
	}
	return nil
}
