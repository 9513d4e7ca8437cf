package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allKeys = []string{
	"SCHEDULER_ENV_FILE",
	"SCHEDULER_HTTP_PORT",
	"SCHEDULER_DATABASE_PATH",
	"SCHEDULER_LOG_LEVEL",
	"SCHEDULER_LOG_FORMAT",
	"SCHEDULER_REQUEST_TIMEOUT",
	"SCHEDULER_REDIS_ADDR",
	"SCHEDULER_LOCK_TTL",
	"SCHEDULER_TOKEN_CACHE_TTL",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
	t.Chdir(t.TempDir())
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.DatabasePath != "scheduler.db" {
			t.Fatalf("unexpected default database path: %q", cfg.DatabasePath)
		}
		if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
			t.Fatalf("unexpected logging defaults: %q %q", cfg.LogLevel, cfg.LogFormat)
		}
		if cfg.RequestTimeout != 15*time.Second || cfg.LockTTL != 10*time.Second {
			t.Fatalf("unexpected duration defaults: %v %v", cfg.RequestTimeout, cfg.LockTTL)
		}
		if cfg.RedisAddr != "" {
			t.Fatalf("expected in-process locks by default, got %q", cfg.RedisAddr)
		}
	})

	t.Run("reads overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SCHEDULER_HTTP_PORT", "9090")
		t.Setenv("SCHEDULER_DATABASE_PATH", "/var/lib/scheduler/data.db")
		t.Setenv("SCHEDULER_LOG_LEVEL", "DEBUG")
		t.Setenv("SCHEDULER_LOG_FORMAT", "text")
		t.Setenv("SCHEDULER_REQUEST_TIMEOUT", "3s")
		t.Setenv("SCHEDULER_REDIS_ADDR", "localhost:6379")
		t.Setenv("SCHEDULER_LOCK_TTL", "2s")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.DatabasePath != "/var/lib/scheduler/data.db" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
			t.Fatalf("unexpected logging config: %+v", cfg)
		}
		if cfg.RequestTimeout != 3*time.Second || cfg.LockTTL != 2*time.Second || cfg.RedisAddr != "localhost:6379" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SCHEDULER_HTTP_PORT", "abc")
		t.Setenv("SCHEDULER_LOG_FORMAT", "xml")
		t.Setenv("SCHEDULER_LOCK_TTL", "-1s")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		expected := "環境変数の値が不正です: SCHEDULER_HTTP_PORT, SCHEDULER_LOG_FORMAT, SCHEDULER_LOCK_TTL"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("loads a dotenv file without overriding the environment", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "scheduler.env")
		content := "SCHEDULER_HTTP_PORT=7070\nSCHEDULER_DATABASE_PATH=from-file.db\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("SCHEDULER_ENV_FILE", path)
		t.Setenv("SCHEDULER_DATABASE_PATH", "from-env.db")
		t.Cleanup(func() { _ = os.Unsetenv("SCHEDULER_HTTP_PORT") })

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 7070 {
			t.Fatalf("expected port from file, got %d", cfg.HTTPPort)
		}
		if cfg.DatabasePath != "from-env.db" {
			t.Fatalf("expected environment to win, got %q", cfg.DatabasePath)
		}
	})

	t.Run("missing explicit dotenv file is an error", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SCHEDULER_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

		if _, err := Load(); err == nil {
			t.Fatalf("expected error for missing env file")
		}
	})
}
