package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	APIPort   string
	LogLevel  string
	LogFormat string

	BackendURL            string
	BackendTimeoutSeconds int

	NATSURL              string
	NATSProcessedSubject string
	NATSReviewedSubject  string
	NATSQueueGroup       string

	StoragePath  string
	ReportPrefix string

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int

	RetryMaxAttempts int
	BreakerEnabled   bool

	ReviewProfilePath string

	WorkerAutoFixOptions        []string
	WorkerProcessTimeoutSeconds int
	WorkerMetricsPort           string
}

func Load() Config {
	return Config{
		APIPort:   mustEnv("API_PORT", "8080"),
		LogLevel:  mustEnv("LOG_LEVEL", "info"),
		LogFormat: mustEnv("LOG_FORMAT", "json"),

		BackendURL:            mustEnv("BACKEND_URL", "http://localhost:8000"),
		BackendTimeoutSeconds: mustEnvInt("BACKEND_TIMEOUT_SECONDS", 30),

		NATSURL:              mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSProcessedSubject: mustEnv("NATS_PROCESSED_SUBJECT", "documents.processed"),
		NATSReviewedSubject:  mustEnv("NATS_REVIEWED_SUBJECT", "documents.reviewed"),
		NATSQueueGroup:       mustEnv("NATS_QUEUE_GROUP", "reviewers"),

		StoragePath:  mustEnv("STORAGE_PATH", "./data/reports"),
		ReportPrefix: mustEnv("REPORT_PREFIX", "inova-docs"),

		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 64),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),

		RetryMaxAttempts: mustEnvInt("RETRY_MAX_ATTEMPTS", 3),
		BreakerEnabled:   mustEnvBool("BREAKER_ENABLED", true),

		ReviewProfilePath: mustEnv("REVIEW_PROFILE_PATH", ""),

		WorkerAutoFixOptions: mustEnvList(
			"WORKER_AUTOFIX_OPTIONS",
			"normalize_amounts,ensure_incoterm,flag_missing_fields,language_consistency",
		),
		WorkerProcessTimeoutSeconds: mustEnvInt("WORKER_PROCESS_TIMEOUT_SECONDS", 120),
		WorkerMetricsPort:           mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// mustEnvList splits a comma separated value, dropping empty items.
func mustEnvList(key, fallback string) []string {
	raw := mustEnv(key, fallback)
	out := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
