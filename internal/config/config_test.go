package config

import (
	"os"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != DriverPostgres {
		t.Errorf("driver = %q", cfg.Storage.Driver)
	}
	if cfg.Redis.Enabled {
		t.Error("redis should be disabled by default")
	}
	if cfg.Cleanup.Enabled || cfg.Cleanup.Retention != 96*time.Hour {
		t.Errorf("cleanup = %+v", cfg.Cleanup)
	}
	if cfg.Address() != "0.0.0.0:8080" {
		t.Errorf("address = %q", cfg.Address())
	}
	if loc, _ := cfg.Location(); loc != time.Local {
		t.Errorf("location = %v, want Local", loc)
	}
}

func TestLoadOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.sqlite")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("SCORING_TIMEZONE", "UTC")
	t.Setenv("CLEANUP_ENABLED", "1")
	t.Setenv("CLEANUP_RETENTION", "48h")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.SQLitePath != "/tmp/x.sqlite" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if !cfg.Redis.Enabled || !cfg.Cleanup.Enabled || cfg.Cleanup.Retention != 48*time.Hour {
		t.Errorf("redis=%v cleanup=%+v", cfg.Redis.Enabled, cfg.Cleanup)
	}
	if cfg.Context.RequestTimeout != 7*time.Second {
		t.Errorf("request timeout = %v", cfg.Context.RequestTimeout)
	}
	if loc, _ := cfg.Location(); loc != time.UTC {
		t.Errorf("location = %v", loc)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"unknown driver", map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "mongo"}},
		{"bad timezone", map[string]string{"JWT_SECRET": "s", "SCORING_TIMEZONE": "Mars/Olympus"}},
		{"zero retention", map[string]string{"JWT_SECRET": "s", "CLEANUP_ENABLED": "true", "CLEANUP_RETENTION": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
