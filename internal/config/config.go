// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Years     YearsConfig     `mapstructure:"years"`
	Libris    LibrisConfig    `mapstructure:"libris"`
	Goodreads GoodreadsConfig `mapstructure:"goodreads"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// YearsConfig bounds the publication year range to harvest.
type YearsConfig struct {
	Start int `mapstructure:"start"`
	End   int `mapstructure:"end"`
}

// LibrisConfig points at the SPARQL endpoint.
type LibrisConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// GoodreadsConfig points at the enrichment service.
type GoodreadsConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// HTTPConfig configures the shared HTTP client and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	BackoffBaseMs  int    `mapstructure:"backoff_base_ms"`
	UserAgent      string `mapstructure:"user_agent"`
}

// PipelineConfig bounds the stage pools.
type PipelineConfig struct {
	FetchConcurrency  int `mapstructure:"fetch_concurrency"`
	EnrichConcurrency int `mapstructure:"enrich_concurrency"`
	WriteConcurrency  int `mapstructure:"write_concurrency"`
}

// CacheConfig sets the root of the on-disk response caches.
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// OutputConfig sets where per-year JSON and the SQLite database land.
type OutputConfig struct {
	JSONDir      string `mapstructure:"json_dir"`
	DatabaseFile string `mapstructure:"database_file"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("years.start", 1850)
	v.SetDefault("years.end", 2024)
	v.SetDefault("libris.endpoint", "https://libris.kb.se/sparql")
	v.SetDefault("goodreads.endpoint", "https://www.goodreads.com")
	v.SetDefault("http.timeout_seconds", 60)
	v.SetDefault("http.max_attempts", 5)
	v.SetDefault("http.backoff_base_ms", 2000)
	v.SetDefault("http.user_agent", "swedish-books/1.0 (+https://github.com/Qluxzz/swedish-books)")
	v.SetDefault("pipeline.fetch_concurrency", 10)
	v.SetDefault("pipeline.enrich_concurrency", 20)
	v.SetDefault("pipeline.write_concurrency", 20)
	v.SetDefault("cache.dir", "cache")
	v.SetDefault("output.json_dir", "cache/json")
	v.SetDefault("output.database_file", "books.db")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Years.Start <= 0 {
		return fmt.Errorf("years.start must be > 0")
	}
	if c.Years.End < c.Years.Start {
		return fmt.Errorf("years.end must be >= years.start")
	}
	if c.Libris.Endpoint == "" {
		return fmt.Errorf("libris.endpoint must be set")
	}
	if c.Goodreads.Endpoint == "" {
		return fmt.Errorf("goodreads.endpoint must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxAttempts <= 0 {
		return fmt.Errorf("http.max_attempts must be > 0")
	}
	if c.Pipeline.FetchConcurrency <= 0 {
		return fmt.Errorf("pipeline.fetch_concurrency must be > 0")
	}
	if c.Pipeline.EnrichConcurrency <= 0 {
		return fmt.Errorf("pipeline.enrich_concurrency must be > 0")
	}
	if c.Pipeline.WriteConcurrency <= 0 {
		return fmt.Errorf("pipeline.write_concurrency must be > 0")
	}
	return nil
}

// HTTPTimeout converts the HTTP timeout config into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffBase converts the retry base delay config into a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.HTTP.BackoffBaseMs) * time.Millisecond
}
