package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             int
	DBPath           string
	AdminSecret      string
	PublicBaseURL    string
	GinMode          string
	TLSCertFile      string
	TLSKeyFile       string
	RateLimitAgent   int
	RateLimitAnon    int
	RateLimitWindow  time.Duration
	ClaimVerifyFetch bool
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(osEnv{})
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := Config{
		Port:             3000,
		DBPath:           "./bazaar.db",
		GinMode:          "release",
		RateLimitAgent:   60,
		RateLimitAnon:    30,
		RateLimitWindow:  time.Minute,
		ClaimVerifyFetch: true,
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT")
		}
		cfg.Port = port
	}

	cfg.AdminSecret = env.Getenv("ADMIN_SECRET")
	if cfg.AdminSecret == "" {
		return Config{}, fmt.Errorf("ADMIN_SECRET is required")
	}

	if raw := env.Getenv("DB_PATH"); raw != "" {
		cfg.DBPath = raw
	}

	cfg.PublicBaseURL = env.Getenv("PUBLIC_BASE_URL")
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}

	cfg.TLSCertFile = env.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = env.Getenv("TLS_KEY_FILE")

	if raw := env.Getenv("RATE_LIMIT_AGENT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid RATE_LIMIT_AGENT")
		}
		cfg.RateLimitAgent = n
	}

	if raw := env.Getenv("RATE_LIMIT_ANON"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid RATE_LIMIT_ANON")
		}
		cfg.RateLimitAnon = n
	}

	if raw := env.Getenv("CLAIM_VERIFY_FETCH"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CLAIM_VERIFY_FETCH")
		}
		cfg.ClaimVerifyFetch = v
	}

	return cfg, nil
}
