package config

import (
	"testing"
	"time"
)

func TestLoadAppConfig_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadAppConfig(); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestLoadAppConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("JWT_TTL", "2h")

	cfg, err := LoadAppConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":5000" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.JWTTTL != 2*time.Hour {
		t.Fatalf("JWTTTL = %v, want 2h", cfg.JWTTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadAppConfig_AdminPair(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_EMAIL", "root@example.com")
	t.Setenv("ADMIN_PASSWORD", "")
	if _, err := LoadAppConfig(); err == nil {
		t.Fatalf("expected error for half-configured admin")
	}
}

func TestLoadDBConfig_IntFallback(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	cfg, err := LoadDBConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 5432 {
		t.Fatalf("Port = %d, want 5432", cfg.Port)
	}
}
