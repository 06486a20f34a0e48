package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/ksebe/streakd/internal/logger"
)

type Config struct {
	Addr            string
	DBPath          string
	LogLevel        string
	TZName          string
	SyncWorkerCount int
	SyncQueueSize   int
	SyncUploaders   int
	ReminderHour    int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:            envOr("ADDR", ":8080"),
		DBPath:          envOr("DB_PATH", "file:streakd.db"),
		LogLevel:        envOr("LOG_LEVEL", "INFO"),
		TZName:          envOr("TZ_NAME", "Local"),
		SyncWorkerCount: envIntOr("SYNC_WORKER_COUNT", 2),
		SyncQueueSize:   envIntOr("SYNC_QUEUE_SIZE", 64),
		SyncUploaders:   envIntOr("SYNC_UPLOADERS", 4),
		ReminderHour:    envIntOr("REMINDER_HOUR", 18),
	}
}

// Validate checks every field and reports all problems in one error.
func (c Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if c.DBPath == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if !logger.ValidLevel(c.LogLevel) {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q must be one of DEBUG, INFO, WARN, ERROR", c.LogLevel))
	}
	if _, err := time.LoadLocation(c.TZName); err != nil {
		problems = append(problems, fmt.Sprintf("TZ_NAME %q is not a known time zone: %v", c.TZName, err))
	}
	if c.SyncWorkerCount < 1 {
		problems = append(problems, fmt.Sprintf("SYNC_WORKER_COUNT must be at least 1, got %d", c.SyncWorkerCount))
	}
	if c.SyncQueueSize < 1 {
		problems = append(problems, fmt.Sprintf("SYNC_QUEUE_SIZE must be at least 1, got %d", c.SyncQueueSize))
	}
	if c.SyncUploaders < 1 {
		problems = append(problems, fmt.Sprintf("SYNC_UPLOADERS must be at least 1, got %d", c.SyncUploaders))
	}
	if c.ReminderHour < 0 || c.ReminderHour > 23 {
		problems = append(problems, fmt.Sprintf("REMINDER_HOUR must be between 0 and 23, got %d", c.ReminderHour))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the zone in which calendar days are read. An empty or
// unknown TZ_NAME falls back to the process zone; Validate reports it.
func (c Config) Location() *time.Location {
	if c.TZName == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TZName)
	if err != nil {
		return time.Local
	}
	return loc
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
