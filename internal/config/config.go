package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the intake service and CLI.
type Config struct {
	DatabaseURL string
	RedisURL    string
	ListenAddr  string
	SchemaFile  string

	SubmitURL   string
	NotifyURL   string
	NotifyEmail string
	ThankYouURL string

	NotifyTimeout  time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	LogLevel       string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: getEnv("INTAKE_DATABASE_URL", "postgres://localhost:5432/intake?sslmode=disable"),
		RedisURL:    os.Getenv("INTAKE_REDIS_URL"),
		ListenAddr:  getEnv("INTAKE_LISTEN_ADDR", ":8080"),
		SchemaFile:  os.Getenv("INTAKE_SCHEMA_FILE"),
		SubmitURL:   os.Getenv("INTAKE_SUBMIT_URL"),
		NotifyURL:   getEnv("INTAKE_NOTIFY_URL", "https://formsubmit.co"),
		NotifyEmail: os.Getenv("INTAKE_NOTIFY_EMAIL"),
		ThankYouURL: getEnv("INTAKE_THANK_YOU_URL", "thank-you.html"),
		LogLevel:    getEnv("INTAKE_LOG_LEVEL", "info"),
	}

	var err error
	if cfg.NotifyTimeout, err = getDuration("INTAKE_NOTIFY_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("INTAKE_RATE_LIMIT_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("INTAKE_RATE_LIMIT_BURST", 10); err != nil {
		return nil, err
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger() *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo, fmt.Errorf("INTAKE_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
