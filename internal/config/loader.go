package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort       int
	DatabasePath   string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
	RedisAddr      string
	LockTTL        time.Duration
	TokenCacheTTL  time.Duration
}

const defaultEnvFile = ".env"

// Load parses configuration values from the current process environment.
//
// A dotenv file is read first when present: SCHEDULER_ENV_FILE names it, and
// ".env" in the working directory is used otherwise. Variables already set in
// the environment take precedence over the file. Every key is optional;
// malformed values are reported together.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPPort:       8080,
		DatabasePath:   "scheduler.db",
		LogLevel:       "info",
		LogFormat:      "json",
		RequestTimeout: 15 * time.Second,
		LockTTL:        10 * time.Second,
		TokenCacheTTL:  time.Minute,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SCHEDULER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := strings.TrimSpace(os.Getenv("SCHEDULER_DATABASE_PATH")); path != "" {
		cfg.DatabasePath = path
	}

	if level := strings.ToLower(strings.TrimSpace(os.Getenv("SCHEDULER_LOG_LEVEL"))); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "SCHEDULER_LOG_LEVEL")
		}
	}

	if format := strings.ToLower(strings.TrimSpace(os.Getenv("SCHEDULER_LOG_FORMAT"))); format != "" {
		switch format {
		case "json", "text":
			cfg.LogFormat = format
		default:
			invalid = append(invalid, "SCHEDULER_LOG_FORMAT")
		}
	}

	if value, ok := parseDuration("SCHEDULER_REQUEST_TIMEOUT", &invalid); ok {
		cfg.RequestTimeout = value
	}

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("SCHEDULER_REDIS_ADDR"))

	if value, ok := parseDuration("SCHEDULER_LOCK_TTL", &invalid); ok {
		cfg.LockTTL = value
	}

	if value, ok := parseDuration("SCHEDULER_TOKEN_CACHE_TTL", &invalid); ok {
		cfg.TokenCacheTTL = value
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func parseDuration(key string, invalid *[]string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		*invalid = append(*invalid, key)
		return 0, false
	}
	return value, true
}

func loadEnvFile() error {
	path := strings.TrimSpace(os.Getenv("SCHEDULER_ENV_FILE"))
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("環境ファイルを読み込めません: %s: %w", path, err)
	}
	return nil
}
