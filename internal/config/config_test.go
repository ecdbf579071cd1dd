package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Fatalf("unexpected default address: %s", cfg.Server.Address())
	}
	if cfg.Postgres.SSLMode != "disable" {
		t.Fatalf("unexpected ssl mode: %s", cfg.Postgres.SSLMode)
	}
	if !cfg.Accounting.WatchEnabled {
		t.Fatalf("expected accounting watch enabled by default")
	}
	if cfg.Metrics.PrometheusPath != "/metrics" {
		t.Fatalf("unexpected metrics path: %s", cfg.Metrics.PrometheusPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LABVAULT_API_PORT", "9090")
	t.Setenv("LABVAULT_ACCOUNTING_WATCH", "false")
	t.Setenv("LABVAULT_ACCOUNTING_RECONNECT_DELAY", "2s")
	t.Setenv("MINIO_BUCKET", "studies")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Accounting.WatchEnabled {
		t.Fatalf("expected accounting watch disabled")
	}
	if cfg.Accounting.ReconnectDelay != 2*time.Second {
		t.Fatalf("unexpected reconnect delay: %s", cfg.Accounting.ReconnectDelay)
	}
	if cfg.MinIO.Bucket != "studies" {
		t.Fatalf("unexpected bucket: %s", cfg.MinIO.Bucket)
	}
}

func TestDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "require",
	}
	want := "postgres://u:p@db:5433/d?sslmode=require"
	if got := p.DSN(); got != want {
		t.Fatalf("DSN mismatch: got %s want %s", got, want)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("LABVAULT_API_PORT", "not-a-number")
	t.Setenv("LABVAULT_AUTH_BCRYPT_COST", "99")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected fallback port, got %d", cfg.Server.Port)
	}
	if cfg.Auth.BcryptCost != 12 {
		t.Fatalf("expected clamped bcrypt cost, got %d", cfg.Auth.BcryptCost)
	}
}
