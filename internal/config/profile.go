package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inovadocs/trade-doc-review/internal/core/review"
)

// ReviewProfile tunes the text summarizer. Keys left out of the file keep
// their default values.
type ReviewProfile struct {
	Scoring review.Scoring `yaml:"scoring"`
	Summary struct {
		MaxSentences int `yaml:"max_sentences"`
		MaxLength    int `yaml:"max_length"`
	} `yaml:"summary"`
}

// LoadProfile reads a YAML review profile. An empty path yields the defaults.
func LoadProfile(path string) (review.SummaryOptions, error) {
	defaults := review.DefaultSummaryViewOptions()
	if strings.TrimSpace(path) == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("read review profile: %w", err)
	}

	var profile ReviewProfile
	profile.Scoring = defaults.Scoring
	profile.Summary.MaxSentences = defaults.MaxSentences
	profile.Summary.MaxLength = defaults.MaxLength
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return defaults, fmt.Errorf("parse review profile: %w", err)
	}

	opts := review.SummaryOptions{
		MaxSentences: profile.Summary.MaxSentences,
		MaxLength:    profile.Summary.MaxLength,
		Scoring:      profile.Scoring,
	}
	if opts.MaxSentences <= 0 {
		opts.MaxSentences = defaults.MaxSentences
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = defaults.MaxLength
	}
	if opts.Scoring.KeywordMultiplier <= 0 {
		opts.Scoring.KeywordMultiplier = defaults.Scoring.KeywordMultiplier
	}
	if opts.Scoring.LengthNormalizer <= 0 {
		opts.Scoring.LengthNormalizer = defaults.Scoring.LengthNormalizer
	}
	if opts.Scoring.DefaultKeywordWeight < 0 {
		opts.Scoring.DefaultKeywordWeight = defaults.Scoring.DefaultKeywordWeight
	}
	return opts, nil
}
