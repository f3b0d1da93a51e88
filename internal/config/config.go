// Package config handles configuration loading for ProStock.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"     yaml:"llm"`
	Cache   CacheConfig   `mapstructure:"cache"   yaml:"cache"`
	Feed    FeedConfig    `mapstructure:"feed"    yaml:"feed"`
	Market  MarketConfig  `mapstructure:"market"  yaml:"market"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig holds completion provider configuration.
type LLMConfig struct {
	GeminiKey   string   `mapstructure:"gemini_key"  yaml:"gemini_key"`
	OpenAIKey   string   `mapstructure:"openai_key"  yaml:"openai_key"`
	Models      []string `mapstructure:"models"      yaml:"models"`
	MaxTokens   int      `mapstructure:"max_tokens"  yaml:"max_tokens"`
	Temperature float64  `mapstructure:"temperature" yaml:"temperature"`
}

// CacheConfig holds per-category cache TTLs, in seconds.
type CacheConfig struct {
	QuoteTTL   int `mapstructure:"quote_ttl"   yaml:"quote_ttl"`
	HistoryTTL int `mapstructure:"history_ttl" yaml:"history_ttl"`
	InfoTTL    int `mapstructure:"info_ttl"    yaml:"info_ttl"`
	NewsTTL    int `mapstructure:"news_ttl"    yaml:"news_ttl"`
	FeedTTL    int `mapstructure:"feed_ttl"    yaml:"feed_ttl"`
}

// FeedConfig holds RSS feed settings.
type FeedConfig struct {
	Sources    []string `mapstructure:"sources"     yaml:"sources"`
	TimeoutSec int      `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// MarketConfig holds reference tickers for derived market metrics.
type MarketConfig struct {
	VolatilityIndex string `mapstructure:"volatility_index" yaml:"volatility_index"`
	BroadIndex      string `mapstructure:"broad_index"      yaml:"broad_index"`
	RatePair        string `mapstructure:"rate_pair"        yaml:"rate_pair"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.prostock/config.yaml (home directory)
//  3. /etc/prostock/config.yaml (system)
//
// Environment variables override config file values.
// Format: PROSTOCK_<SECTION>_<KEY>, e.g., PROSTOCK_LLM_GEMINI_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".prostock"))
	v.AddConfigPath("/etc/prostock")

	v.SetEnvPrefix("PROSTOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not existing is fine, defaults plus env vars apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("PROSTOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.models", []string{"gemini-1.5-flash-latest", "gemini-1.5-flash"})
	v.SetDefault("llm.max_tokens", 300)
	v.SetDefault("llm.temperature", 0.7)

	// Cache defaults, in seconds
	v.SetDefault("cache.quote_ttl", 10)
	v.SetDefault("cache.history_ttl", 10)
	v.SetDefault("cache.info_ttl", 300)
	v.SetDefault("cache.news_ttl", 300)
	v.SetDefault("cache.feed_ttl", 600)

	// Feed defaults
	v.SetDefault("feed.sources", []string{
		"https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=10000664",
		"http://rss.cnn.com/rss/money_latest.rss",
	})
	v.SetDefault("feed.timeout_sec", 5)

	// Market defaults
	v.SetDefault("market.volatility_index", "^VIX")
	v.SetDefault("market.broad_index", "^GSPC")
	v.SetDefault("market.rate_pair", "KRW=X")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("PROSTOCK_LLM_GEMINI_KEY"); key != "" {
		cfg.LLM.GeminiKey = key
	}
	if key := os.Getenv("PROSTOCK_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	// Bare GEMINI_API_KEY is accepted so existing deployments keep working.
	if cfg.LLM.GeminiKey == "" {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			cfg.LLM.GeminiKey = key
		}
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
