package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitmatch_server/models"
)

func TestScoreSharedSportAndAgeBonus(t *testing.T) {
	svc := NewSimilarityService()

	a := models.Profile{UserID: "a", Age: 25, Sports: []string{"Running", "Yoga"}}
	b := models.Profile{UserID: "b", Age: 26, Sports: []string{"Running", "CrossFit"}}

	score, reasons := svc.Score(a, b)

	// One shared sport plus the full 1-year age bonus, no major bonus.
	assert.Equal(t, 30.0, score)
	require.Len(t, reasons, 2)

	var total float64
	for _, r := range reasons {
		total += r.Points
	}
	assert.Equal(t, score, total, "reasons should account for the full score")
}

func TestScoreIsDeterministic(t *testing.T) {
	svc := NewSimilarityService()

	a := models.Profile{
		UserID: "a", Age: 22, Major: "Kinesiology",
		Goals:  "build muscle and endurance",
		Sports: []string{"Running", "Swimming"},
	}
	b := models.Profile{
		UserID: "b", Age: 24, Major: "kinesiology",
		Goals:  "endurance training, some muscle",
		Sports: []string{"running"},
	}

	score1, reasons1 := svc.Score(a, b)
	score2, reasons2 := svc.Score(a, b)

	assert.Equal(t, score1, score2)
	assert.Equal(t, reasons1, reasons2)
}

func TestScoreTotalOverMissingFields(t *testing.T) {
	svc := NewSimilarityService()

	tests := []struct {
		name  string
		self  models.Profile
		other models.Profile
		want  float64
	}{
		{name: "both empty", self: models.Profile{UserID: "a"}, other: models.Profile{UserID: "b"}, want: 0},
		{
			name:  "one side empty",
			self:  models.Profile{UserID: "a", Age: 30, Major: "CS", Sports: []string{"Yoga"}},
			other: models.Profile{UserID: "b"},
			want:  0,
		},
		{
			name:  "age only on one side contributes zero",
			self:  models.Profile{UserID: "a", Age: 30},
			other: models.Profile{UserID: "b"},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reasons := svc.Score(tt.self, tt.other)
			assert.Equal(t, tt.want, score)
			assert.Empty(t, reasons)
		})
	}
}

func TestScoreAgeBuckets(t *testing.T) {
	svc := NewSimilarityService()

	tests := []struct {
		name     string
		otherAge int
		want     float64
	}{
		{name: "same age", otherAge: 25, want: 20},
		{name: "one year", otherAge: 26, want: 20},
		{name: "three years", otherAge: 28, want: 15},
		{name: "five years", otherAge: 30, want: 10},
		{name: "inside cutoff", otherAge: 34, want: 5},
		{name: "past cutoff", otherAge: 40, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _ := svc.Score(
				models.Profile{UserID: "a", Age: 25},
				models.Profile{UserID: "b", Age: tt.otherAge},
			)
			assert.Equal(t, tt.want, score)
		})
	}
}

func TestScoreMajorMatchIsCaseInsensitive(t *testing.T) {
	svc := NewSimilarityService()

	score, reasons := svc.Score(
		models.Profile{UserID: "a", Major: "Exercise Science"},
		models.Profile{UserID: "b", Major: "exercise science"},
	)

	assert.Equal(t, svc.Weights.MajorBonus, score)
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0].Reason, "exercise science")
}

func TestScoreSetOverlapIgnoresCaseAndDuplicates(t *testing.T) {
	svc := NewSimilarityService()

	// "running" shared once despite duplicate entries on both sides.
	score, _ := svc.Score(
		models.Profile{UserID: "a", Sports: []string{"Running", "running", " RUNNING "}},
		models.Profile{UserID: "b", Sports: []string{"running", "Running"}},
	)
	assert.Equal(t, svc.Weights.SportBonus, score)
}

func TestScoreGoalKeywordOverlap(t *testing.T) {
	svc := NewSimilarityService()

	score, reasons := svc.Score(
		models.Profile{UserID: "a", Goals: "Build muscle, improve endurance!"},
		models.Profile{UserID: "b", Goals: "endurance running and muscle tone"},
	)

	// muscle and endurance are in the vocabulary and shared; running and
	// tone appear on one side only.
	assert.Equal(t, 2*svc.Weights.GoalKeywordBonus, score)
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0].Reason, "2 shared goal keywords")
}

func TestScoreOutOfVocabularyWordsIgnored(t *testing.T) {
	svc := NewSimilarityService()

	score, _ := svc.Score(
		models.Profile{UserID: "a", Goals: "have fun meeting people"},
		models.Profile{UserID: "b", Goals: "have fun meeting people"},
	)
	assert.Equal(t, 0.0, score)
}

func TestScoreWeightsIndependentCategories(t *testing.T) {
	svc := NewSimilarityService()

	score, reasons := svc.Score(
		models.Profile{
			UserID: "a", Age: 20, Major: "Biology",
			Sports:           []string{"Climbing"},
			Availability:     []string{"Mon-AM", "Wed-PM"},
			LiftingExpertise: []string{"Intermediate"},
		},
		models.Profile{
			UserID: "b", Age: 21, Major: "Biology",
			Sports:           []string{"Climbing"},
			Availability:     []string{"Wed-PM"},
			LiftingExpertise: []string{"Intermediate"},
		},
	)

	w := svc.Weights
	assert.Equal(t, w.AgeBonus+w.MajorBonus+w.SportBonus+w.AvailabilityBonus+w.ExpertiseBonus, score)
	assert.Len(t, reasons, 5)
}
