package review

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
)

const (
	DefaultMaxSentences = 3
	DefaultMaxLength    = 480

	DefaultKeywordMultiplier = 1.7
	DefaultLengthNormalizer  = 180.0
	DefaultKeywordWeight     = 0.5
	ellipsis                 = "…"
)

// Scoring tunes sentence salience:
// score = KeywordMultiplier*keywordScore + min(len/LengthNormalizer, 1) + 1/(index+1).
type Scoring struct {
	KeywordMultiplier    float64 `yaml:"keyword_multiplier"`
	LengthNormalizer     float64 `yaml:"length_normalizer"`
	DefaultKeywordWeight float64 `yaml:"default_keyword_weight"`
}

func DefaultScoring() Scoring {
	return Scoring{
		KeywordMultiplier:    DefaultKeywordMultiplier,
		LengthNormalizer:     DefaultLengthNormalizer,
		DefaultKeywordWeight: DefaultKeywordWeight,
	}
}

func (s Scoring) normalize() Scoring {
	def := DefaultScoring()
	if s == (Scoring{}) {
		return def
	}
	if s.KeywordMultiplier <= 0 || !isFinite(s.KeywordMultiplier) {
		s.KeywordMultiplier = def.KeywordMultiplier
	}
	if s.LengthNormalizer <= 0 || !isFinite(s.LengthNormalizer) {
		s.LengthNormalizer = def.LengthNormalizer
	}
	if s.DefaultKeywordWeight < 0 || !isFinite(s.DefaultKeywordWeight) {
		s.DefaultKeywordWeight = def.DefaultKeywordWeight
	}
	return s
}

type SummaryOptions struct {
	MaxSentences int
	MaxLength    int
	Scoring      Scoring
}

func (o SummaryOptions) normalize() SummaryOptions {
	if o.MaxSentences <= 0 {
		o.MaxSentences = DefaultMaxSentences
	}
	if o.MaxLength <= 0 {
		o.MaxLength = DefaultMaxLength
	}
	o.Scoring = o.Scoring.normalize()
	return o
}

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]?`)
)

type scoredSentence struct {
	text  string
	index int
	score float64
}

type weightedKeyword struct {
	value  string
	weight float64
}

// SummarizeText picks the most salient sentences of text and returns them in
// reading order, capped at opts.MaxLength code points.
func SummarizeText(text string, keywords []domain.Keyword, opts SummaryOptions) string {
	opts = opts.normalize()

	normalized := collapseWhitespace(text)
	if normalized == "" {
		return ""
	}

	sentences := splitSentences(normalized)
	if len(sentences) == 0 {
		return ""
	}
	if len(sentences) <= opts.MaxSentences {
		return truncate(strings.Join(sentences, " "), opts.MaxLength)
	}

	weighted := weightKeywords(keywords, opts.Scoring.DefaultKeywordWeight)
	scored := make([]scoredSentence, 0, len(sentences))
	for i, sentence := range sentences {
		scored = append(scored, scoredSentence{
			text:  sentence,
			index: i,
			score: scoreSentence(sentence, i, weighted, opts.Scoring),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	top := scored[:opts.MaxSentences]
	sort.Slice(top, func(i, j int) bool {
		return top[i].index < top[j].index
	})

	parts := make([]string, 0, len(top))
	for _, s := range top {
		parts = append(parts, s.text)
	}
	return truncate(strings.Join(parts, " "), opts.MaxLength)
}

func scoreSentence(sentence string, index int, keywords []weightedKeyword, scoring Scoring) float64 {
	lowered := strings.ToLower(sentence)
	keywordScore := 0.0
	for _, kw := range keywords {
		if strings.Contains(lowered, kw.value) {
			keywordScore += 1 + kw.weight
		}
	}
	lengthScore := math.Min(float64(utf8.RuneCountInString(sentence))/scoring.LengthNormalizer, 1)
	positionScore := 1 / float64(index+1)
	return scoring.KeywordMultiplier*keywordScore + lengthScore + positionScore
}

func weightKeywords(keywords []domain.Keyword, fallback float64) []weightedKeyword {
	out := make([]weightedKeyword, 0, len(keywords))
	for _, kw := range keywords {
		value := strings.ToLower(kw.Keyword)
		if value == "" {
			continue
		}
		weight := fallback
		if kw.Score != nil && isFinite(*kw.Score) {
			weight = *kw.Score
		}
		out = append(out, weightedKeyword{value: value, weight: weight})
	}
	return out
}

// splitSentences takes greedy runs of non-terminators, each optionally closed
// by one terminator. Text made only of terminators is kept as one sentence.
func splitSentences(text string) []string {
	matches := sentencePattern.FindAllString(text, -1)
	if matches == nil {
		matches = []string{text}
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if trimmed := strings.TrimSpace(m); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// truncate cuts text longer than maxLength code points to maxLength-1, trims
// trailing space and appends an ellipsis.
func truncate(text string, maxLength int) string {
	return truncateAt(text, maxLength, maxLength-1)
}

func truncateAt(text string, limit, keep int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	if keep < 0 {
		keep = 0
	}
	if keep > len(runes) {
		keep = len(runes)
	}
	return strings.TrimRight(string(runes[:keep]), " \t\n\r\f\v") + ellipsis
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
