package config

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigFrom_Defaults(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPPort != "8000" {
		t.Fatalf("expected port 8000, got %q", cfg.HTTPPort)
	}
	if cfg.Store != StoreMongo {
		t.Fatalf("expected mongo store by default, got %q", cfg.Store)
	}
	if cfg.AccessTTL != 24*time.Hour || cfg.RefreshTTL != 30*24*time.Hour || cfg.ResetTTL != time.Hour {
		t.Fatalf("unexpected default ttls: access=%v refresh=%v reset=%v", cfg.AccessTTL, cfg.RefreshTTL, cfg.ResetTTL)
	}
	if cfg.ExposeResetToken {
		t.Fatalf("expected reset token to stay hidden by default")
	}
	if cfg.GoogleConfigured() {
		t.Fatalf("expected google oauth to be unconfigured by default")
	}
	if !cfg.UsesDevSecret() {
		t.Fatalf("expected development jwt secret by default")
	}
	wantOrigins := []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	if !slices.Equal(cfg.AllowedOrigins, wantOrigins) {
		t.Fatalf("expected origins %v, got %v", wantOrigins, cfg.AllowedOrigins)
	}
}

func TestLoadConfigFrom_Overrides(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{
		"HEMOSCAN_STORE":                "Postgres",
		"HEMOSCAN_DATABASE_URL":         "postgres://localhost/hemoscan",
		"HEMOSCAN_JWT_SECRET":           "s3cret",
		"HEMOSCAN_ACCESS_TTL":           "15m",
		"HEMOSCAN_FRONTEND_URL":         "https://app.example.com/",
		"HEMOSCAN_GOOGLE_CLIENT_ID":     "id",
		"HEMOSCAN_GOOGLE_CLIENT_SECRET": "secret",
		"HEMOSCAN_EXPOSE_RESET_TOKEN":   "true",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Store != StorePostgres {
		t.Fatalf("expected postgres store, got %q", cfg.Store)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("expected access ttl 15m, got %v", cfg.AccessTTL)
	}
	if cfg.FrontendURL != "https://app.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.FrontendURL)
	}
	if !cfg.GoogleConfigured() {
		t.Fatalf("expected google oauth to be configured")
	}
	if !cfg.ExposeResetToken {
		t.Fatalf("expected reset token exposure to be enabled")
	}
	if cfg.UsesDevSecret() {
		t.Fatalf("expected custom jwt secret")
	}
}

func TestLoadConfigFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "postgres without url", env: map[string]string{"HEMOSCAN_STORE": "postgres"}},
		{name: "unknown store", env: map[string]string{"HEMOSCAN_STORE": "sqlite"}, want: "sqlite"},
		{name: "non-positive ttl", env: map[string]string{"HEMOSCAN_RESET_TTL": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFrom(tt.env)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to mention %q, got %v", tt.want, err)
			}
		})
	}
}
