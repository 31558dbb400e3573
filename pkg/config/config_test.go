package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Analysis.Provider != ProviderGemini {
		t.Fatalf("expected gemini provider, got %q", cfg.Analysis.Provider)
	}
	if cfg.Analysis.MaxRetries != 0 {
		t.Fatalf("retries must be off by default, got %d", cfg.Analysis.MaxRetries)
	}
	if cfg.Analysis.MaxAudioBytes != 50<<20 {
		t.Fatalf("unexpected audio limit %d", cfg.Analysis.MaxAudioBytes)
	}
	if cfg.Gemini.Model != "gemini-3-flash-preview" {
		t.Fatalf("unexpected model %q", cfg.Gemini.Model)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Fatalf("unexpected session ttl %s", cfg.Session.TTL)
	}
	if cfg.Storage.Enabled {
		t.Fatal("storage should be disabled by default")
	}
	if cfg.Address() != "0.0.0.0:8080" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ANALYSIS_PROVIDER", " Groq ")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("ANALYSIS_MAX_RETRIES", "2")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Analysis.Provider != ProviderGroq || cfg.Groq.APIKey != "gsk-test" {
		t.Fatalf("groq settings not applied: %+v", cfg.Groq)
	}
	if cfg.Analysis.MaxRetries != 2 || cfg.Session.TTL != 30*time.Minute {
		t.Fatalf("overrides not applied: %+v %+v", cfg.Analysis, cfg.Session)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Analysis: AnalysisConfig{Provider: ProviderGemini, MaxAudioBytes: 1},
			Gemini:   GeminiConfig{APIKey: "k"},
			Session:  SessionConfig{TTL: time.Minute},
		}
	}

	cases := map[string]func(c *Config){
		"missing gemini key": func(c *Config) { c.Gemini.APIKey = "" },
		"missing groq key":   func(c *Config) { c.Analysis.Provider = ProviderGroq },
		"unknown provider":   func(c *Config) { c.Analysis.Provider = "openai" },
		"negative retries":   func(c *Config) { c.Analysis.MaxRetries = -1 },
		"storage bucket":     func(c *Config) { c.Storage.Enabled = true },
	}
	for name, mutate := range cases {
		c := base()
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	c := base()
	if err := c.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	c.Analysis.Provider = "gemini"
	c.Gemini.APIKey = ""
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("error should name the missing variable: %v", err)
	}
}
