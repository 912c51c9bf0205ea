package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Web Server
	Bind string

	// Demo sessions
	SessionTTL  time.Duration
	MaxSessions int

	// WebSocket
	WSMaxConnections           int
	WSMaxConnectionsPerSession int

	// Simulation pacing. Scripted step durations are expressed in units of
	// this value, so tests can shrink it without rewriting the scripts.
	SimStepUnit time.Duration

	// Logging
	DevLog bool
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Bind:                       getEnvDefault("SHOWCASE_BIND", "0.0.0.0:8080"),
		SessionTTL:                 getEnvDuration("SHOWCASE_SESSION_TTL", time.Hour),
		MaxSessions:                getEnvInt("SHOWCASE_MAX_SESSIONS", 100),
		WSMaxConnections:           getEnvInt("SHOWCASE_WS_MAX_CONNS", 200),
		WSMaxConnectionsPerSession: getEnvInt("SHOWCASE_WS_MAX_CONNS_PER_SESSION", 5),
		SimStepUnit:                getEnvDuration("SHOWCASE_SIM_STEP_UNIT", time.Second),
		DevLog:                     getEnvBool("SHOWCASE_DEV_LOG", false),
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SHOWCASE_SESSION_TTL must be positive")
	}
	if cfg.MaxSessions <= 0 {
		return nil, fmt.Errorf("SHOWCASE_MAX_SESSIONS must be positive")
	}
	if cfg.WSMaxConnections <= 0 || cfg.WSMaxConnectionsPerSession <= 0 {
		return nil, fmt.Errorf("WebSocket connection limits must be positive")
	}
	if cfg.SimStepUnit <= 0 {
		return nil, fmt.Errorf("SHOWCASE_SIM_STEP_UNIT must be positive")
	}

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept either a Go duration string ("90m") or plain seconds ("3600").
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
