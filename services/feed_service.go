package services

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"fitmatch_server/metrics"
	"fitmatch_server/models"
	"fitmatch_server/store"
)

// FeedMode selects the candidate ordering strategy.
type FeedMode string

const (
	// FeedModeSimilar orders candidates by descending similarity score with
	// the candidate id as the deterministic tiebreak.
	FeedModeSimilar FeedMode = "similar"
	// FeedModeRandom shuffles candidates with a fresh seed per invocation.
	// A user-selectable alternative, not a fallback.
	FeedModeRandom FeedMode = "random"
)

// Candidate is one feed entry: the profile plus why it ranked where it did.
type Candidate struct {
	Profile models.Profile `json:"profile"`
	Score   float64        `json:"score"`
	Reasons []Explanation  `json:"reasons,omitempty"`
}

// CandidateQueue is the ephemeral, session-local browsing queue. Pass leaves
// no persisted state; it is just a cursor advance here.
type CandidateQueue struct {
	candidates []Candidate
	cursor     int
}

// Current returns the candidate under the cursor. ok is false at end of
// queue, a terminal state rather than a failure.
func (q *CandidateQueue) Current() (Candidate, bool) {
	if q.cursor >= len(q.candidates) {
		return Candidate{}, false
	}
	return q.candidates[q.cursor], true
}

// Advance moves past the current candidate.
func (q *CandidateQueue) Advance() {
	if q.cursor < len(q.candidates) {
		q.cursor++
	}
}

// Remaining counts the candidates not yet browsed.
func (q *CandidateQueue) Remaining() int { return len(q.candidates) - q.cursor }

// Candidates exposes the full ordered queue.
func (q *CandidateQueue) Candidates() []Candidate { return q.candidates }

// FeedService builds the ordered browsing queue from profiles and scores.
type FeedService struct {
	Profiles   store.ProfileStore
	Similarity *SimilarityService

	// newRand is swappable for tests; reseeded per invocation in random mode.
	newRand func() *rand.Rand
}

// NewFeedService creates a feed controller.
func NewFeedService(profiles store.ProfileStore, similarity *SimilarityService) *FeedService {
	return &FeedService{
		Profiles:   profiles,
		Similarity: similarity,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// LoadFeed fetches the caller's profile, verifies it is complete enough to
// be a matching basis, and returns the ordered candidate queue. The
// completeness check runs before any candidate fetch. An empty queue is a
// valid result.
func (s *FeedService) LoadFeed(ctx context.Context, selfID string, mode FeedMode) (*CandidateQueue, error) {
	if selfID == "" {
		return nil, models.NewValidationError("userId is required")
	}
	switch mode {
	case FeedModeSimilar, FeedModeRandom:
	case "":
		mode = FeedModeSimilar
	default:
		return nil, models.NewValidationError("mode must be similar or random")
	}

	self, err := s.Profiles.GetProfile(ctx, selfID)
	if err != nil {
		return nil, err
	}
	if missing := self.MissingRequiredFields(); len(missing) > 0 {
		return nil, models.NewProfileIncompleteError(missing)
	}

	profiles, err := s.Profiles.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(profiles))
	for _, p := range profiles {
		if p.UserID == selfID {
			continue
		}
		score, reasons := s.Similarity.Score(self, p)
		candidates = append(candidates, Candidate{Profile: p, Score: score, Reasons: reasons})
	}

	switch mode {
	case FeedModeRandom:
		rng := s.newRand()
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	default:
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Score != candidates[j].Score {
				return candidates[i].Score > candidates[j].Score
			}
			return candidates[i].Profile.UserID < candidates[j].Profile.UserID
		})
	}

	metrics.FeedsLoaded.WithLabelValues(string(mode)).Inc()
	return &CandidateQueue{candidates: candidates}, nil
}
