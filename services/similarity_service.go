package services

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"fitmatch_server/models"
)

// Explanation is one scored comparator result, kept so the feed can show
// why a candidate ranked where it did.
type Explanation struct {
	Reason string  `json:"reason"`
	Points float64 `json:"points"`
}

// ScoreWeights holds the per-comparator weights of the compatibility score.
type ScoreWeights struct {
	// AgeBonus is the full bonus at an age difference of one year or less.
	// The bonus steps down in buckets and is zero past AgeCutoffYears.
	AgeBonus       float64
	AgeCutoffYears int
	// MajorBonus applies on a case-insensitive exact major match.
	MajorBonus float64
	// Per-shared-element bonuses. Expertise outweighs sports outweighs
	// availability: the more specific the category, the rarer an overlap.
	SportBonus        float64
	AvailabilityBonus float64
	ExpertiseBonus    float64
	// GoalKeywordBonus applies per shared keyword from goalVocabulary.
	GoalKeywordBonus float64
}

// DefaultScoreWeights are the production weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		AgeBonus:          20,
		AgeCutoffYears:    10,
		MajorBonus:        15,
		SportBonus:        10,
		AvailabilityBonus: 8,
		ExpertiseBonus:    12,
		GoalKeywordBonus:  5,
	}
}

// goalVocabulary is the controlled keyword set matched against free-text
// goals. Fixed on purpose: scoring must stay deterministic and testable,
// so no free-form text analysis.
var goalVocabulary = map[string]struct{}{
	"muscle":      {},
	"strength":    {},
	"endurance":   {},
	"cardio":      {},
	"weight":      {},
	"tone":        {},
	"toning":      {},
	"flexibility": {},
	"mobility":    {},
	"crossfit":    {},
	"running":     {},
	"cycling":     {},
	"bulk":        {},
	"speed":       {},
	"outdoor":     {},
}

// SimilarityService computes compatibility scores between two profiles.
type SimilarityService struct {
	Weights ScoreWeights
}

// NewSimilarityService creates a scorer with the default weights.
func NewSimilarityService() *SimilarityService {
	return &SimilarityService{Weights: DefaultScoreWeights()}
}

// Score compares two profiles and returns a compatibility score plus the
// list of contributing reasons. It is pure and total: missing fields just
// contribute zero, the function never fails.
func (s *SimilarityService) Score(self, other models.Profile) (float64, []Explanation) {
	var total float64
	var reasons []Explanation

	add := func(reason string, points float64) {
		if points <= 0 {
			return
		}
		total += points
		reasons = append(reasons, Explanation{Reason: reason, Points: points})
	}

	if self.Age >= models.MinAge && other.Age >= models.MinAge {
		diff := int(math.Abs(float64(self.Age - other.Age)))
		if bonus := s.ageBucketBonus(diff); bonus > 0 {
			add(fmt.Sprintf("ages within %d years", diff), bonus)
		}
	}

	if self.Major != "" && strings.EqualFold(self.Major, other.Major) {
		add(fmt.Sprintf("both study %s", other.Major), s.Weights.MajorBonus)
	}

	if n := countOverlap(self.Sports, other.Sports); n > 0 {
		add(fmt.Sprintf("%d shared sports", n), float64(n)*s.Weights.SportBonus)
	}
	if n := countOverlap(self.Availability, other.Availability); n > 0 {
		add(fmt.Sprintf("%d shared availability windows", n), float64(n)*s.Weights.AvailabilityBonus)
	}
	if n := countOverlap(self.LiftingExpertise, other.LiftingExpertise); n > 0 {
		add(fmt.Sprintf("%d shared expertise levels", n), float64(n)*s.Weights.ExpertiseBonus)
	}

	if n := countGoalKeywordOverlap(self.Goals, other.Goals); n > 0 {
		add(fmt.Sprintf("%d shared goal keywords", n), float64(n)*s.Weights.GoalKeywordBonus)
	}

	return total, reasons
}

// ageBucketBonus maps an absolute age difference to a stepped bonus.
// Buckets instead of a continuous curve: a 4-year gap should not score
// meaningfully better than a 5-year gap by coincidence of rounding.
func (s *SimilarityService) ageBucketBonus(diff int) float64 {
	switch {
	case diff <= 1:
		return s.Weights.AgeBonus
	case diff <= 3:
		return s.Weights.AgeBonus * 0.75
	case diff <= 5:
		return s.Weights.AgeBonus * 0.5
	case diff <= s.Weights.AgeCutoffYears:
		return s.Weights.AgeBonus * 0.25
	default:
		return 0
	}
}

// countOverlap counts distinct case-insensitive shared elements.
func countOverlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	seen := make(map[string]struct{})
	count := 0
	for _, v := range b {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := set[v]; ok {
			count++
		}
	}
	return count
}

// countGoalKeywordOverlap counts vocabulary keywords present in both
// free-text goal fields.
func countGoalKeywordOverlap(a, b string) int {
	aWords := goalKeywords(a)
	if len(aWords) == 0 {
		return 0
	}
	count := 0
	for w := range goalKeywords(b) {
		if _, ok := aWords[w]; ok {
			count++
		}
	}
	return count
}

func goalKeywords(text string) map[string]struct{} {
	if text == "" {
		return nil
	}
	out := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if _, ok := goalVocabulary[w]; ok {
			out[w] = struct{}{}
		}
	}
	return out
}
