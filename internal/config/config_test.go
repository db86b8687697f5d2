package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/inovadocs/trade-doc-review/internal/core/review"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"API_PORT", "BACKEND_URL", "STORAGE_PATH", "REPORT_PREFIX",
		"API_RATE_LIMIT_RPS", "WORKER_AUTOFIX_OPTIONS", "RETRY_MAX_ATTEMPTS", "BREAKER_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("expected default api port 8080, got %q", cfg.APIPort)
	}
	if cfg.BackendURL != "http://localhost:8000" {
		t.Fatalf("expected default backend url, got %q", cfg.BackendURL)
	}
	if cfg.StoragePath != "./data/reports" || cfg.ReportPrefix != "inova-docs" {
		t.Fatalf("unexpected storage defaults %q %q", cfg.StoragePath, cfg.ReportPrefix)
	}
	if cfg.APIRateLimitRPS != 20 {
		t.Fatalf("expected default rate limit 20, got %v", cfg.APIRateLimitRPS)
	}
	want := []string{"normalize_amounts", "ensure_incoterm", "flag_missing_fields", "language_consistency"}
	if !slices.Equal(cfg.WorkerAutoFixOptions, want) {
		t.Fatalf("expected all auto-fix options by default, got %v", cfg.WorkerAutoFixOptions)
	}
	if cfg.RetryMaxAttempts != 3 || !cfg.BreakerEnabled {
		t.Fatalf("unexpected resilience defaults %d %v", cfg.RetryMaxAttempts, cfg.BreakerEnabled)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("API_MAX_IN_FLIGHT", "8")
	t.Setenv("WORKER_AUTOFIX_OPTIONS", " ensure_incoterm, ,flag_missing_fields ")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("RETRY_MAX_ATTEMPTS", "not-a-number")

	cfg := Load()
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.APIMaxInFlight != 8 {
		t.Fatalf("expected max in flight 8, got %d", cfg.APIMaxInFlight)
	}
	if !slices.Equal(cfg.WorkerAutoFixOptions, []string{"ensure_incoterm", "flag_missing_fields"}) {
		t.Fatalf("unexpected auto-fix options %v", cfg.WorkerAutoFixOptions)
	}
	if cfg.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Fatalf("expected invalid int to fall back to 3, got %d", cfg.RetryMaxAttempts)
	}
}

func TestLoadProfileEmptyPathReturnsDefaults(t *testing.T) {
	opts, err := LoadProfile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts != review.DefaultSummaryViewOptions() {
		t.Fatalf("expected defaults, got %+v", opts)
	}
}

func TestLoadProfileOverridesAndFallbacks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := "scoring:\n  keyword_multiplier: 2.5\n  length_normalizer: -4\nsummary:\n  max_sentences: 4\n  max_length: 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	opts, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defaults := review.DefaultSummaryViewOptions()
	if opts.Scoring.KeywordMultiplier != 2.5 {
		t.Fatalf("expected multiplier 2.5, got %v", opts.Scoring.KeywordMultiplier)
	}
	if opts.Scoring.LengthNormalizer != defaults.Scoring.LengthNormalizer {
		t.Fatalf("expected invalid normalizer to fall back, got %v", opts.Scoring.LengthNormalizer)
	}
	if opts.Scoring.DefaultKeywordWeight != defaults.Scoring.DefaultKeywordWeight {
		t.Fatalf("expected omitted weight to keep default, got %v", opts.Scoring.DefaultKeywordWeight)
	}
	if opts.MaxSentences != 4 || opts.MaxLength != defaults.MaxLength {
		t.Fatalf("unexpected caps %d %d", opts.MaxSentences, opts.MaxLength)
	}
}

func TestLoadProfileErrors(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing profile")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("scoring: [unclosed"), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	if _, err := LoadProfile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
