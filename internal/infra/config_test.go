package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("STAGE_TIMEOUT_SECONDS", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.StageTimeout != 15*time.Minute {
		t.Fatalf("StageTimeout = %v", cfg.StageTimeout)
	}
	if cfg.StreamPushInterval != 2*time.Second {
		t.Fatalf("StreamPushInterval = %v", cfg.StreamPushInterval)
	}
	if cfg.RateLimitPerMin != 30 {
		t.Fatalf("RateLimitPerMin = %d", cfg.RateLimitPerMin)
	}
	if cfg.MeshyBaseURL == "" || cfg.OpenAIBaseURL == "" {
		t.Fatal("vendor base URLs not defaulted")
	}
}

func TestLoadConfigRequiresDatabaseOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without DATABASE_URL in production")
	}

	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/assetforge")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DatabaseURL == "" {
		t.Fatal("DatabaseURL not loaded")
	}
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STAGE_TIMEOUT_SECONDS", "0")
	t.Setenv("STREAM_PUSH_INTERVAL_SECONDS", "5")
	t.Setenv("HTTP_WRITE_TIMEOUT_SECONDS", "45")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.StageTimeout != 0 {
		t.Fatalf("StageTimeout = %v, want disabled", cfg.StageTimeout)
	}
	if cfg.StreamPushInterval != 5*time.Second {
		t.Fatalf("StreamPushInterval = %v", cfg.StreamPushInterval)
	}
	if cfg.HTTPWriteTimeout != 45*time.Second {
		t.Fatalf("HTTPWriteTimeout = %v", cfg.HTTPWriteTimeout)
	}
}
