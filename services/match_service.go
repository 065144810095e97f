package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"fitmatch_server/metrics"
	"fitmatch_server/models"
	"fitmatch_server/store"
)

const (
	// maxLikeAttempts bounds the retry budget for one like operation.
	maxLikeAttempts = 3
	// likeRetryBaseDelay is the first backoff delay; it doubles per attempt.
	likeRetryBaseDelay = 50 * time.Millisecond
)

// MatchService owns the match state machine. A like is applied as an atomic
// read-modify-write against the single record keyed by the sorted pair, so
// concurrent likes from both sides always converge on one record.
type MatchService struct {
	Matches store.MatchStore

	// inflight serializes likes per pair within this process, collapsing
	// duplicate concurrent invocations into the idempotent path. Entries
	// are refcounted and evicted once the last holder releases, so the map
	// only holds pairs with a like currently in flight.
	inflightMu sync.Mutex
	inflight   map[string]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

// NewMatchService creates a coordinator over the given match store.
func NewMatchService(matches store.MatchStore) *MatchService {
	return &MatchService{
		Matches:  matches,
		inflight: make(map[string]*pairLock),
	}
}

// Like records actorID's interest in targetID and returns the outcome:
//
//   - pendingCreated: first like from either side, record created
//   - likeAdded: record existed, actor's like recorded, still one-sided
//   - alreadyLiked: actor had already liked, nothing changed
//   - mutualMatch: actor's like completed the pair, status is now matched
//
// Transient store errors are retried with exponential backoff up to the
// attempt budget; exhaustion surfaces a coordination_failed error with no
// partial state change. Matched records never revert to pending.
func (s *MatchService) Like(ctx context.Context, actorID, targetID string) (models.MatchOutcome, models.MatchRecord, error) {
	if actorID == "" || targetID == "" {
		return "", models.MatchRecord{}, models.NewValidationError("actorId and targetId are required")
	}
	if actorID == targetID {
		return "", models.MatchRecord{}, models.NewSelfMatchError(actorID)
	}

	pairKey := models.PairKey(actorID, targetID)
	unlock := s.lockPair(pairKey)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < maxLikeAttempts; attempt++ {
		if attempt > 0 {
			delay := likeRetryBaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", models.MatchRecord{}, models.NewCoordinationFailedError(ctx.Err())
			}
		}

		outcome, record, err := s.applyLike(ctx, pairKey, actorID, targetID)
		if err == nil {
			metrics.LikesProcessed.WithLabelValues(string(outcome)).Inc()
			if outcome == models.OutcomeMutualMatch {
				metrics.MatchesConfirmed.Inc()
				log.Printf("🎉 Match confirmed: %s and %s", record.UserA, record.UserB)
			}
			return outcome, record, nil
		}
		if models.IsKind(err, models.ErrKindValidation) {
			return "", models.MatchRecord{}, err
		}
		lastErr = err
		log.Printf("⚠️ Like attempt %d/%d failed for pair %s: %v", attempt+1, maxLikeAttempts, pairKey, err)
	}
	metrics.LikesFailed.Inc()
	return "", models.MatchRecord{}, models.NewCoordinationFailedError(lastErr)
}

// applyLike runs one transactional attempt.
func (s *MatchService) applyLike(ctx context.Context, pairKey, actorID, targetID string) (models.MatchOutcome, models.MatchRecord, error) {
	var outcome models.MatchOutcome
	now := time.Now().UTC().Format(time.RFC3339)

	record, err := s.Matches.UpdateMatchRecord(ctx, pairKey, func(existing *models.MatchRecord) (models.MatchRecord, error) {
		if existing == nil {
			userA, userB := models.SortPair(actorID, targetID)
			outcome = models.OutcomePendingCreated
			return models.MatchRecord{
				PairKey:   pairKey,
				UserA:     userA,
				UserB:     userB,
				LikedBy:   []string{actorID},
				Status:    models.MatchStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}

		if existing.HasLiked(actorID) {
			outcome = models.OutcomeAlreadyLiked
			return *existing, nil
		}

		updated := *existing
		updated.LikedBy = append(append([]string(nil), existing.LikedBy...), actorID)
		updated.UpdatedAt = now
		if len(updated.LikedBy) == 2 {
			updated.Status = models.MatchStatusMatched
			outcome = models.OutcomeMutualMatch
		} else {
			outcome = models.OutcomeLikeAdded
		}
		return updated, nil
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return "", models.MatchRecord{}, models.NewTransientStoreError(err)
		}
		return "", models.MatchRecord{}, err
	}
	return outcome, record, nil
}

// Connection is a confirmed match enriched with the partner's profile.
type Connection struct {
	Record    models.MatchRecord `json:"record"`
	PartnerID string             `json:"partnerId"`
	Partner   *models.Profile    `json:"partner,omitempty"`
}

// ConnectionsFor returns the user's confirmed matches, each with the partner
// profile attached when available.
func (s *MatchService) ConnectionsFor(ctx context.Context, userID string, profiles store.ProfileStore) ([]Connection, error) {
	if userID == "" {
		return nil, models.NewValidationError("userId is required")
	}
	records, err := s.Matches.ListMatchesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	connections := []Connection{}
	for _, rec := range records {
		if rec.Status != models.MatchStatusMatched {
			continue
		}
		conn := Connection{Record: rec, PartnerID: rec.OtherUser(userID)}
		if profiles != nil {
			if partner, err := profiles.GetProfile(ctx, conn.PartnerID); err == nil {
				conn.Partner = &partner
			}
		}
		connections = append(connections, conn)
	}
	return connections, nil
}

// lockPair acquires the per-pair mutex, creating it on first use. The
// returned release drops the reference and removes the entry when no other
// like holds it.
func (s *MatchService) lockPair(pairKey string) func() {
	s.inflightMu.Lock()
	l, ok := s.inflight[pairKey]
	if !ok {
		l = &pairLock{}
		s.inflight[pairKey] = l
	}
	l.refs++
	s.inflightMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.inflightMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.inflight, pairKey)
		}
		s.inflightMu.Unlock()
	}
}
