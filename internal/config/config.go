// Package config loads brandintel's configuration from a YAML file with an
// environment-variable overlay, following the same Load/Validate shape the
// rest of the scraping stack this was built from uses.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	RequestTimeout int    `yaml:"requestTimeoutMs"`
}

type ScraperConfig struct {
	UserAgent         string `yaml:"userAgent"`
	Concurrency       int    `yaml:"concurrency"`
	ProbeTimeoutMs    int    `yaml:"probeTimeoutMs"`
	PageTimeoutMs     int    `yaml:"pageTimeoutMs"`
	LeaseWaitMs       int    `yaml:"leaseWaitMs"`
	JaccardThreshold  float64 `yaml:"jaccardThreshold"`
	MinPagesRequired  int    `yaml:"minPagesRequired"`
	RespectRobotsTxt  bool   `yaml:"respectRobotsTxt"`
}

type BrowserPoolConfig struct {
	Size int `yaml:"size"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	APIKey string `yaml:"apiKey"`
}

type RateLimitConfig struct {
	MaxPerMinute int `yaml:"maxPerMinute"`
}

type OpenAIConfig struct {
	APIKey    string `yaml:"apiKey"`
	BaseURL   string `yaml:"baseURL"`
	Model     string `yaml:"model"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

type GoogleLLMConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

type LLMConfig struct {
	DefaultProvider string          `yaml:"defaultProvider"`
	OpenAI          OpenAIConfig    `yaml:"openai"`
	Anthropic       AnthropicConfig `yaml:"anthropic"`
	Google          GoogleLLMConfig `yaml:"google"`
}

type CacheConfig struct {
	TTLScrapingSeconds int `yaml:"ttlScrapingSeconds"`
}

type RunConfig struct {
	ExpirationDays int `yaml:"expirationDays"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Scraper     ScraperConfig     `yaml:"scraper"`
	BrowserPool BrowserPoolConfig `yaml:"browserPool"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	RateLimit   RateLimitConfig   `yaml:"ratelimit"`
	LLM         LLMConfig         `yaml:"llm"`
	Cache       CacheConfig       `yaml:"cache"`
	Run         RunConfig         `yaml:"run"`
	LogLevel    string            `yaml:"logLevel"`
}

// Load reads the YAML file at path, then overlays the environment variables
// named in the external-interfaces contract. Required variables missing
// from both the file and the environment are left blank; Validate catches
// that.
func Load(path string) *Config {
	var cfg Config

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			log.Fatalf("failed to decode config: %v", err)
		}
	}

	applyDefaults(&cfg)
	applyEnvOverlay(&cfg)

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 120000
	}
	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = "brandintel-scraper/1.0"
	}
	if cfg.Scraper.Concurrency == 0 {
		cfg.Scraper.Concurrency = 5
	}
	if cfg.Scraper.ProbeTimeoutMs == 0 {
		cfg.Scraper.ProbeTimeoutMs = 5000
	}
	if cfg.Scraper.PageTimeoutMs == 0 {
		cfg.Scraper.PageTimeoutMs = 15000
	}
	if cfg.Scraper.LeaseWaitMs == 0 {
		cfg.Scraper.LeaseWaitMs = 30000
	}
	if cfg.Scraper.JaccardThreshold == 0 {
		cfg.Scraper.JaccardThreshold = 0.8
	}
	if cfg.Scraper.MinPagesRequired == 0 {
		cfg.Scraper.MinPagesRequired = 3
	}
	if cfg.BrowserPool.Size == 0 {
		cfg.BrowserPool.Size = 3
	}
	if cfg.RateLimit.MaxPerMinute == 0 {
		cfg.RateLimit.MaxPerMinute = 20
	}
	if cfg.Cache.TTLScrapingSeconds == 0 {
		cfg.Cache.TTLScrapingSeconds = 86400
	}
	if cfg.Run.ExpirationDays == 0 {
		cfg.Run.ExpirationDays = 7
	}
	if cfg.LLM.OpenAI.TimeoutMs == 0 {
		cfg.LLM.OpenAI.TimeoutMs = 60000
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvOverlay(cfg *Config) {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		switch cfg.LLM.DefaultProvider {
		case "anthropic":
			cfg.LLM.Anthropic.APIKey = v
		case "google":
			cfg.LLM.Google.APIKey = v
		default:
			cfg.LLM.OpenAI.APIKey = v
		}
	}
	if v := os.Getenv("AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := envInt("SCRAPE_CONCURRENCY"); v != 0 {
		cfg.Scraper.Concurrency = v
	}
	if v := envInt("BROWSER_POOL_SIZE"); v != 0 {
		cfg.BrowserPool.Size = v
	}
	if v := envInt("CACHE_TTL_SCRAPING"); v != 0 {
		cfg.Cache.TTLScrapingSeconds = v
	}
	if v := envInt("RATE_LIMIT_MAX"); v != 0 {
		cfg.RateLimit.MaxPerMinute = v
	}
	if v := envInt("REQUEST_TIMEOUT"); v != 0 {
		cfg.Server.RequestTimeout = v
	}
	if v := envInt("RUN_EXPIRATION_DAYS"); v != 0 {
		cfg.Run.ExpirationDays = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func envInt(name string) int {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// Validate performs basic sanity checks so that an obviously misconfigured
// deployment fails fast at startup rather than on the first request.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Auth.APIKey) == "" {
		return errors.New("auth.apiKey (or AUTH_API_KEY) must be set")
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return errors.New("database.dsn (or DATABASE_DSN) must be set")
	}
	if strings.TrimSpace(cfg.Redis.URL) == "" {
		return errors.New("redis.url (or REDIS_URL) must be set")
	}

	provider := strings.TrimSpace(cfg.LLM.DefaultProvider)
	if provider == "" {
		return errors.New("llm.defaultProvider must be set to 'openai', 'anthropic', or 'google'")
	}

	switch provider {
	case "openai":
		if cfg.LLM.OpenAI.APIKey == "" || cfg.LLM.OpenAI.Model == "" {
			return errors.New("openai llm provider is not fully configured")
		}
	case "anthropic":
		if cfg.LLM.Anthropic.APIKey == "" || cfg.LLM.Anthropic.Model == "" {
			return errors.New("anthropic llm provider is not fully configured")
		}
	case "google":
		if cfg.LLM.Google.APIKey == "" || cfg.LLM.Google.Model == "" {
			return errors.New("google llm provider is not fully configured")
		}
	default:
		return fmt.Errorf("unsupported llm.defaultProvider: %s", provider)
	}

	return nil
}
