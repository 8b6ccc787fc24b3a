package config

import "testing"

type mapEnv map[string]string

func (m mapEnv) Getenv(key string) string { return m[key] }

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv(mapEnv{"ADMIN_SECRET": "x"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != 3000 {
		t.Fatalf("expected default port 3000, got %d", cfg.Port)
	}
	if cfg.RateLimitAgent != 60 || cfg.RateLimitAnon != 30 {
		t.Fatalf("unexpected default rate limits: %d/%d", cfg.RateLimitAgent, cfg.RateLimitAnon)
	}
	if !cfg.ClaimVerifyFetch {
		t.Fatalf("expected claim fetch verification on by default")
	}
	if cfg.PublicBaseURL != "http://localhost:3000" {
		t.Fatalf("unexpected base url %q", cfg.PublicBaseURL)
	}
}

func TestLoadConfigFromEnv_MissingAdminSecret(t *testing.T) {
	_, err := LoadConfigFromEnv(mapEnv{})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	cfg, err := LoadConfigFromEnv(mapEnv{
		"ADMIN_SECRET":       "x",
		"PORT":               "1234",
		"RATE_LIMIT_AGENT":   "5",
		"RATE_LIMIT_ANON":    "2",
		"CLAIM_VERIFY_FETCH": "false",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != 1234 {
		t.Fatalf("expected port 1234, got %d", cfg.Port)
	}
	if cfg.RateLimitAgent != 5 || cfg.RateLimitAnon != 2 {
		t.Fatalf("unexpected rate limits: %d/%d", cfg.RateLimitAgent, cfg.RateLimitAnon)
	}
	if cfg.ClaimVerifyFetch {
		t.Fatalf("expected claim fetch verification off")
	}
}

func TestLoadConfigFromEnv_InvalidRateLimit(t *testing.T) {
	_, err := LoadConfigFromEnv(mapEnv{"ADMIN_SECRET": "x", "RATE_LIMIT_AGENT": "0"})
	if err == nil {
		t.Fatalf("expected error")
	}
}
