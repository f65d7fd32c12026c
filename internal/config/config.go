package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreBolt     = "bolt"
)

type Config struct {
	BotToken     string
	APIURL       string
	AuthHeader   string
	SessionStore string // postgres|bolt
	DatabaseURL  string
	BoltPath     string
	HTTPAddr     string
	LogLevel     string
	Env          string // dev|prod
	SentryDSN    string

	ExportDir             string
	ExportTTL             time.Duration
	ExportCleanupSchedule string

	// APITimeout == 0 means the http.Client default (no timeout).
	APITimeout time.Duration
	// UpdateTimeout bounds the handling of one update; 0 means none.
	UpdateTimeout time.Duration
}

func Load() (*Config, error) {
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN: required env is empty")
	}

	exportTTL, err := getDuration("EXPORT_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	apiTimeout, err := getDuration("API_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}
	updateTimeout, err := getDuration("UPDATE_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BotToken:              botToken,
		APIURL:                strings.TrimRight(getenv("LUCT_API_URL", "https://luct-backend-2.onrender.com/api"), "/"),
		AuthHeader:            getenv("AUTH_HEADER", "x-auth-token"),
		SessionStore:          strings.ToLower(getenv("SESSION_STORE", StoreBolt)),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		BoltPath:              getenv("BOLT_PATH", "./data/sessions.db"),
		HTTPAddr:              getenv("HTTP_ADDR", ":8080"),
		LogLevel:              getenv("LOG_LEVEL", "info"),
		Env:                   getenv("ENV", "dev"),
		SentryDSN:             os.Getenv("SENTRY_DSN"),
		ExportDir:             getenv("EXPORT_DIR", os.TempDir()),
		ExportTTL:             exportTTL,
		ExportCleanupSchedule: getenv("EXPORT_CLEANUP_SCHEDULE", "@every 15m"),
		APITimeout:            apiTimeout,
		UpdateTimeout:         updateTimeout,
	}

	switch cfg.SessionStore {
	case StoreBolt:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL: required when SESSION_STORE=%s", StorePostgres)
		}
	default:
		return nil, fmt.Errorf("SESSION_STORE: unknown store %q", cfg.SessionStore)
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %s", k, d)
	}
	return d, nil
}
