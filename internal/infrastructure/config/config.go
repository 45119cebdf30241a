package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the agent's tunables. Session identity (project, device,
// bundle id) lives in domain.Configuration and is supplied by the host app;
// everything here has a working default and is only overridden via env.
type Config struct {
	LogLevel string

	// Discovery
	ServiceType    string
	HostnameFilter string
	DirectHost     string
	DirectPort     int
	// ForceDirect skips the emulator probe and always dials the direct
	// address. Useful on desktops and in tests.
	ForceDirect bool

	// Connection manager
	ConnectTimeout time.Duration
	RetryDelay     time.Duration
	MaxRetries     int

	// Outbound queue
	QueueCapacity int

	// Capture
	BodyMaxBytes int
	RedactBodies bool

	// Optional Prometheus endpoint ("" disables it)
	MetricsAddr string
}

func FromEnv() Config {
	cfg := Config{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ServiceType:    getEnv("SERVICE_TYPE", "_Proxyman._tcp"),
		HostnameFilter: getEnv("HOSTNAME_FILTER", ""),
		DirectHost:     getEnv("DIRECT_HOST", "10.0.2.2"),
		DirectPort:     getEnvInt("DIRECT_PORT", 10909),
		ConnectTimeout: getEnvDuration("CONNECT_TIMEOUT_MS", 10*time.Second),
		RetryDelay:     getEnvDuration("RETRY_DELAY_MS", 15*time.Second),
		MaxRetries:     getEnvInt("MAX_RETRIES", 5),
		QueueCapacity:  getEnvInt("QUEUE_CAPACITY", 50),
		BodyMaxBytes:   getEnvInt("BODY_MAX_BYTES", 50<<20),
		MetricsAddr:    getEnv("METRICS_ADDR", ""),
	}
	if os.Getenv("FORCE_DIRECT") == "1" || os.Getenv("FORCE_DIRECT") == "true" {
		cfg.ForceDirect = true
	}
	if os.Getenv("REDACT_BODIES") == "1" || os.Getenv("REDACT_BODIES") == "true" {
		cfg.RedactBodies = true
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}
