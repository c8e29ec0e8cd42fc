package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "TRIAD_NEWS_CONFIG"
	databasePathEnv    = "DATABASE_PATH"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	anthropicModelEnv  = "ANTHROPIC_MODEL"
	maxAnalysesEnv     = "MAX_ANALYSES_PER_HOUR"
	httpAddrEnv        = "HTTP_ADDR"
	logLevelEnv        = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Logging   LoggingConfig   `yaml:"logging"`
	Sources   []SourceConfig  `yaml:"sources"`
}

// HTTPConfig describes the listen address of the JSON API.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig describes the SQLite datastore location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AnthropicConfig defines how to contact the enrichment API.
type AnthropicConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"apiKey"`
	MaxTokens int    `yaml:"maxTokens"`
}

// AnalysisConfig caps enrichment throughput.
type AnalysisConfig struct {
	MaxPerHour int `yaml:"maxPerHour"`
}

// RefreshConfig drives the optional background refresh loop.
// A zero interval disables it; refreshes then run only via POST /refresh.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig describes a single upstream source. An empty feedUrl
// switches the source to the homepage-scan strategy.
type SourceConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	FeedURL     string `yaml:"feedUrl"`
	HomepageURL string `yaml:"homepageUrl"`
	Color       string `yaml:"color"`
	Language    string `yaml:"language"`
	Bias        string `yaml:"bias"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(anthropicAPIKeyEnv); v != "" {
		c.Anthropic.APIKey = v
	}

	if v := os.Getenv(anthropicModelEnv); v != "" {
		c.Anthropic.Model = v
	}

	if v := os.Getenv(maxAnalysesEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Analysis.MaxPerHour = parsed
		}
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.HTTP.Addr != "" {
		base.HTTP = override.HTTP
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Anthropic.Endpoint != "" {
		base.Anthropic.Endpoint = override.Anthropic.Endpoint
	}
	if override.Anthropic.Model != "" {
		base.Anthropic.Model = override.Anthropic.Model
	}
	if override.Anthropic.APIKey != "" {
		base.Anthropic.APIKey = override.Anthropic.APIKey
	}
	if override.Anthropic.MaxTokens > 0 {
		base.Anthropic.MaxTokens = override.Anthropic.MaxTokens
	}

	if override.Analysis.MaxPerHour > 0 {
		base.Analysis.MaxPerHour = override.Analysis.MaxPerHour
	}

	if override.Refresh.Interval > 0 {
		base.Refresh.Interval = override.Refresh.Interval
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		HTTP:      HTTPConfig{Addr: ":8080"},
		Database:  DatabaseConfig{Path: "./data/triad.db"},
		Anthropic: AnthropicConfig{
			Endpoint:  "https://api.anthropic.com/v1/messages",
			Model:     "claude-sonnet-4-5-20250514",
			APIKey:    "",
			MaxTokens: 2000,
		},
		Analysis: AnalysisConfig{MaxPerHour: 20},
		Refresh:  RefreshConfig{Interval: 0},
		Logging:  LoggingConfig{Level: "info"},
		Sources: []SourceConfig{
			{
				ID:       "fox-news",
				Name:     "Fox News",
				FeedURL:  "https://moxie.foxnews.com/google-publisher/latest.xml",
				Color:    "#003366",
				Language: "en",
				Bias:     "right-leaning",
			},
			{
				ID:       "cnn",
				Name:     "CNN",
				FeedURL:  "http://rss.cnn.com/rss/edition.rss",
				Color:    "#CC0000",
				Language: "en",
				Bias:     "left-leaning",
			},
			{
				ID:       "24ur",
				Name:     "24ur.com",
				FeedURL:  "https://www.24ur.com/rss",
				Color:    "#FF6600",
				Language: "sl",
			},
			{
				ID:       "necenzurirano",
				Name:     "Necenzurirano.si",
				FeedURL:  "https://necenzurirano.si/rss/site.xml",
				Color:    "#1A1A2E",
				Language: "sl",
			},
			{
				ID:          "siol",
				Name:        "Siol.net",
				HomepageURL: "https://siol.net",
				Color:       "#0066CC",
				Language:    "sl",
			},
		},
	}
}
