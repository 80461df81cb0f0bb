package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port           string
	JWTSecret      string
	InstanceSuffix string
	Database       DatabaseConfig
	Scan           ScanConfig
	Realtime       RealtimeConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// ScanConfig tunes the scan input controllers
type ScanConfig struct {
	Debounce  time.Duration // quiet period before auto-submit
	MinLength int           // auto-submit only once the code is this long
	Cooldown  time.Duration // ignore triggers this long after a submission resolves
}

// RealtimeConfig controls the LISTEN/NOTIFY change feed
type RealtimeConfig struct {
	Enabled bool
	Channel string
	Retry   time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "3210"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		InstanceSuffix: getEnv("INSTANCE_SUFFIX", "IB"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "eckscan"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		Scan: ScanConfig{
			Debounce:  getDuration("SCAN_DEBOUNCE_MS", 120*time.Millisecond),
			MinLength: getInt("SCAN_MIN_LENGTH", 12),
			Cooldown:  getDuration("SCAN_COOLDOWN_MS", 0),
		},
		Realtime: RealtimeConfig{
			Enabled: getEnv("REALTIME_ENABLED", "true") == "true",
			Channel: getEnv("REALTIME_CHANNEL", "inventory_changes"),
			Retry:   getDuration("REALTIME_RETRY_MS", 5*time.Second),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

// getDuration reads a millisecond count
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}
