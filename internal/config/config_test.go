package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Years.Start != 1850 || cfg.Years.End != 2024 {
		t.Errorf("years = %d..%d, want 1850..2024", cfg.Years.Start, cfg.Years.End)
	}
	if cfg.Libris.Endpoint != "https://libris.kb.se/sparql" {
		t.Errorf("libris endpoint = %q", cfg.Libris.Endpoint)
	}
	if cfg.Goodreads.Endpoint != "https://www.goodreads.com" {
		t.Errorf("goodreads endpoint = %q", cfg.Goodreads.Endpoint)
	}
	if cfg.HTTP.MaxAttempts != 5 {
		t.Errorf("max attempts = %d, want 5", cfg.HTTP.MaxAttempts)
	}
	if cfg.Pipeline.FetchConcurrency != 10 || cfg.Pipeline.EnrichConcurrency != 20 || cfg.Pipeline.WriteConcurrency != 20 {
		t.Errorf("pipeline concurrency = %+v", cfg.Pipeline)
	}
	if cfg.Output.JSONDir != "cache/json" {
		t.Errorf("json dir = %q", cfg.Output.JSONDir)
	}
	if got, want := cfg.HTTPTimeout(), 60*time.Second; got != want {
		t.Errorf("HTTPTimeout() = %v, want %v", got, want)
	}
	if got, want := cfg.BackoffBase(), 2*time.Second; got != want {
		t.Errorf("BackoffBase() = %v, want %v", got, want)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
years:
  start: 1900
  end: 1950
http:
  max_attempts: 2
  backoff_base_ms: 100
pipeline:
  fetch_concurrency: 3
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Years.Start != 1900 || cfg.Years.End != 1950 {
		t.Errorf("years = %d..%d, want 1900..1950", cfg.Years.Start, cfg.Years.End)
	}
	if cfg.HTTP.MaxAttempts != 2 {
		t.Errorf("max attempts = %d, want 2", cfg.HTTP.MaxAttempts)
	}
	if got, want := cfg.BackoffBase(), 100*time.Millisecond; got != want {
		t.Errorf("BackoffBase() = %v, want %v", got, want)
	}
	if cfg.Pipeline.FetchConcurrency != 3 {
		t.Errorf("fetch concurrency = %d, want 3", cfg.Pipeline.FetchConcurrency)
	}
	// Untouched keys keep their defaults.
	if cfg.Libris.Endpoint != "https://libris.kb.se/sparql" {
		t.Errorf("libris endpoint = %q", cfg.Libris.Endpoint)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	valid, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"years start zero", func(c *Config) { c.Years.Start = 0 }},
		{"years end before start", func(c *Config) { c.Years.End = c.Years.Start - 1 }},
		{"empty libris endpoint", func(c *Config) { c.Libris.Endpoint = "" }},
		{"empty goodreads endpoint", func(c *Config) { c.Goodreads.Endpoint = "" }},
		{"zero timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }},
		{"zero attempts", func(c *Config) { c.HTTP.MaxAttempts = 0 }},
		{"zero fetch concurrency", func(c *Config) { c.Pipeline.FetchConcurrency = 0 }},
		{"zero enrich concurrency", func(c *Config) { c.Pipeline.EnrichConcurrency = 0 }},
		{"zero write concurrency", func(c *Config) { c.Pipeline.WriteConcurrency = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}
