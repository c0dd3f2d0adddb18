package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Auth      AuthConfig      `mapstructure:"auth"`
	TMDB      TMDBConfig      `mapstructure:"tmdb"`
	OMDB      OMDBConfig      `mapstructure:"omdb"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Search    SearchConfig    `mapstructure:"search"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Lists     ListsConfig     `mapstructure:"lists"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// AuthConfig holds authentication configuration.
// An empty JWTSecret disables authentication on the gateway.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// TMDBConfig holds TMDB API configuration.
// AccessToken is the v4 read access token; when set it is preferred over APIKey.
type TMDBConfig struct {
	APIKey       string `mapstructure:"api_key"`
	AccessToken  string `mapstructure:"access_token"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Timeout      int    `mapstructure:"timeout"` // seconds
}

// OMDBConfig holds OMDb API configuration.
type OMDBConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// OpenAIConfig holds configuration for the chat completion backend.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// SearchConfig holds enrichment settings.
type SearchConfig struct {
	Region     string `mapstructure:"region"`
	MaxResults int    `mapstructure:"max_results"`
}

// RecommendConfig holds AI recommendation settings.
type RecommendConfig struct {
	Count        int `mapstructure:"count"`
	HistoryLimit int `mapstructure:"history_limit"`
}

// CacheConfig holds upstream response cache settings.
type CacheConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	MaxItems int           `mapstructure:"max_items"`
}

// ListsConfig holds list store maintenance settings.
type ListsConfig struct {
	HistoryRetentionDays int  `mapstructure:"history_retention_days"`
	RefreshEnabled       bool `mapstructure:"refresh_enabled"`
}

// IsConfigured reports whether any TMDB credential is present.
func (c TMDBConfig) IsConfigured() bool {
	return c.APIKey != "" || c.AccessToken != ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "./data/streamscout.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TMDB: TMDBConfig{
			APIKey:       EmbeddedTMDBKey,
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p",
			Timeout:      15,
		},
		OMDB: OMDBConfig{
			APIKey:  EmbeddedOMDBKey,
			BaseURL: "https://www.omdbapi.com/",
			Timeout: 15,
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 60,
		},
		Search: SearchConfig{
			Region:     "US",
			MaxResults: 12,
		},
		Recommend: RecommendConfig{
			Count:        6,
			HistoryLimit: 10,
		},
		Cache: CacheConfig{
			TTL:      time.Hour,
			MaxItems: 1000,
		},
		Lists: ListsConfig{
			HistoryRetentionDays: 90,
			RefreshEnabled:       true,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > .env file > config file > defaults
func Load(configPath string) (*Config, error) {
	// A missing .env is the common case outside development.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.streamscout")
	}

	v.SetEnvPrefix("STREAMSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyLegacyEnv(cfg)

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("tmdb.api_key", d.TMDB.APIKey)
	v.SetDefault("tmdb.access_token", "")
	v.SetDefault("tmdb.base_url", d.TMDB.BaseURL)
	v.SetDefault("tmdb.image_base_url", d.TMDB.ImageBaseURL)
	v.SetDefault("tmdb.timeout", d.TMDB.Timeout)

	v.SetDefault("omdb.api_key", d.OMDB.APIKey)
	v.SetDefault("omdb.base_url", d.OMDB.BaseURL)
	v.SetDefault("omdb.timeout", d.OMDB.Timeout)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", d.OpenAI.BaseURL)
	v.SetDefault("openai.model", d.OpenAI.Model)
	v.SetDefault("openai.timeout", d.OpenAI.Timeout)

	v.SetDefault("search.region", d.Search.Region)
	v.SetDefault("search.max_results", d.Search.MaxResults)

	v.SetDefault("recommend.count", d.Recommend.Count)
	v.SetDefault("recommend.history_limit", d.Recommend.HistoryLimit)

	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.max_items", d.Cache.MaxItems)

	v.SetDefault("lists.history_retention_days", d.Lists.HistoryRetentionDays)
	v.SetDefault("lists.refresh_enabled", d.Lists.RefreshEnabled)
}

// applyLegacyEnv honours the variable names used by the original Node proxy
// when the prefixed keys are not set.
func applyLegacyEnv(cfg *Config) {
	legacy := []struct {
		env    string
		target *string
	}{
		{"OMDB_API_KEY", &cfg.OMDB.APIKey},
		{"TMDB_V4_TOKEN", &cfg.TMDB.AccessToken},
		{"TMDB_API_KEY", &cfg.TMDB.APIKey},
		{"OPENAI_API_KEY", &cfg.OpenAI.APIKey},
	}
	for _, l := range legacy {
		if *l.target != "" {
			continue
		}
		if val := os.Getenv(l.env); val != "" {
			*l.target = val
		}
	}
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
