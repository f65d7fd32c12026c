package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "123:abc")
		t.Setenv("LUCT_API_URL", "http://api.local/api/")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.APIURL != "http://api.local/api" {
			t.Fatalf("trailing slash not stripped: %q", cfg.APIURL)
		}
		if cfg.AuthHeader != "x-auth-token" {
			t.Fatalf("auth header = %q", cfg.AuthHeader)
		}
		if cfg.SessionStore != StoreBolt {
			t.Fatalf("store = %q", cfg.SessionStore)
		}
		if cfg.ExportTTL != time.Hour || cfg.APITimeout != 0 || cfg.UpdateTimeout != 2*time.Minute {
			t.Fatalf("durations = %s / %s / %s", cfg.ExportTTL, cfg.APITimeout, cfg.UpdateTimeout)
		}
	})

	t.Run("missing_token", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for empty BOT_TOKEN")
		}
	})

	t.Run("postgres_requires_dsn", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "123:abc")
		t.Setenv("SESSION_STORE", "postgres")
		t.Setenv("DATABASE_URL", "")
		if _, err := Load(); err == nil {
			t.Fatal("expected error without DATABASE_URL")
		}
	})

	t.Run("bad_duration", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "123:abc")
		t.Setenv("API_TIMEOUT", "soon")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for API_TIMEOUT")
		}
	})
}
