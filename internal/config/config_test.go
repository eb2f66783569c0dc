package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SESSION_SECRET", "AUTH_TOKEN_SECRET", "AUTH_TOKEN_TTL_SECONDS", "SESSION_BOARD_PATH_LIMIT", "APP_ENV", "AUTH_ENFORCE", "DATABASE_URL", "DB_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.TokenTTL != 72*time.Hour {
		t.Fatalf("expected 3 day token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.SessionBoardPathLimit != 10 {
		t.Fatalf("expected board path limit 10, got %d", cfg.SessionBoardPathLimit)
	}
	if !cfg.InsecureSessionSecret() {
		t.Fatal("expected fallback session secret to be flagged insecure")
	}
	if cfg.TokenSecret != DefaultSessionSecret {
		t.Fatalf("expected token secret to fall back to session secret, got %q", cfg.TokenSecret)
	}
	if !cfg.Development() {
		t.Fatal("expected development env by default")
	}
	if cfg.AuthEnforce {
		t.Fatal("expected auth enforcement off by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("AUTH_TOKEN_TTL_SECONDS", "60")
	t.Setenv("SESSION_BOARD_PATH_LIMIT", "3")
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_ENFORCE", "true")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "postgres://legacy")

	cfg := Load()
	if cfg.InsecureSessionSecret() {
		t.Fatal("expected configured session secret")
	}
	if cfg.TokenTTL != time.Minute {
		t.Fatalf("expected 1 minute ttl, got %s", cfg.TokenTTL)
	}
	if cfg.SessionBoardPathLimit != 3 {
		t.Fatalf("expected limit 3, got %d", cfg.SessionBoardPathLimit)
	}
	if cfg.Development() {
		t.Fatal("expected production env")
	}
	if !cfg.AuthEnforce {
		t.Fatal("expected auth enforcement")
	}
	if cfg.DatabaseURL != "postgres://legacy" {
		t.Fatalf("expected DB_URL fallback, got %q", cfg.DatabaseURL)
	}
}
