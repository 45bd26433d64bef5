package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the privacy gateway.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	BackendMode    string
	BackendBaseURL string
	BackendTimeout time.Duration

	QuotaCapacity int
	QuotaWindow   time.Duration

	TemperatureCeiling float64
	MaskMaxDepth       int

	AuditDatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "veil"),
		AllowAnyOrigin:   false,
		BackendMode:      envOrDefault("BACKEND_MODE", "auto"),
		BackendBaseURL:   stringsTrimSpace("BACKEND_HTTP_URL"),
		AuditDatabaseURL: stringsTrimSpace("AUDIT_DATABASE_URL"),
		ShutdownTimeout:  15 * time.Second,
		BackendTimeout:   60 * time.Second,
		QuotaCapacity:    10,
		QuotaWindow:      time.Minute,
		// Conservative ceiling biases the backend toward deterministic output.
		TemperatureCeiling: 0.3,
		MaskMaxDepth:       64,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.BackendTimeout, err = durationFromEnv("BACKEND_TIMEOUT", cfg.BackendTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.QuotaWindow, err = durationFromEnv("QUOTA_WINDOW", cfg.QuotaWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.QuotaCapacity, err = intFromEnv("QUOTA_CAPACITY", cfg.QuotaCapacity)
	if err != nil {
		return Config{}, err
	}
	cfg.MaskMaxDepth, err = intFromEnv("MASK_MAX_DEPTH", cfg.MaskMaxDepth)
	if err != nil {
		return Config{}, err
	}
	cfg.TemperatureCeiling, err = floatFromEnv("POLICY_TEMPERATURE_CEILING", cfg.TemperatureCeiling)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.QuotaCapacity <= 0 {
		return Config{}, fmt.Errorf("QUOTA_CAPACITY must be positive")
	}
	if cfg.QuotaWindow < time.Second {
		return Config{}, fmt.Errorf("QUOTA_WINDOW must be at least 1s")
	}
	if cfg.MaskMaxDepth <= 0 {
		return Config{}, fmt.Errorf("MASK_MAX_DEPTH must be positive")
	}
	if cfg.TemperatureCeiling < 0 || cfg.TemperatureCeiling > 2 {
		return Config{}, fmt.Errorf("POLICY_TEMPERATURE_CEILING must be in [0, 2]")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.BackendMode)) {
	case "auto", "http", "mock":
	default:
		return Config{}, fmt.Errorf("invalid BACKEND_MODE: %q (expected auto|http|mock)", cfg.BackendMode)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
