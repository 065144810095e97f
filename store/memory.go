package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"fitmatch_server/models"

	"github.com/google/uuid"
)

// MemoryStore is a full in-process implementation of the storage boundary.
// It backs the STORAGE_BACKEND=memory mode and the test suite. All guarantees
// of the real backend hold: the match upsert is atomic, message ids are
// unique, and send timestamps are monotonically non-decreasing per
// conversation.
type MemoryStore struct {
	mu         sync.Mutex
	profiles   map[string]models.Profile
	matches    map[string]models.MatchRecord
	messages   []models.Message
	lastSentAt map[string]int64
	subs       map[*memorySub]struct{}

	// now is swappable for tests.
	now func() time.Time
}

type memorySub struct {
	senderID   string
	receiverID string
	sub        *Subscription
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:   make(map[string]models.Profile),
		matches:    make(map[string]models.MatchRecord),
		lastSentAt: make(map[string]int64),
		subs:       make(map[*memorySub]struct{}),
		now:        time.Now,
	}
}

// GetProfile retrieves a profile by user id.
func (s *MemoryStore) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return models.Profile{}, models.NewNotFoundError("profile", userID)
	}
	return p, nil
}

// ListProfiles returns a snapshot of all profiles, ordered by user id so
// repeated calls over the same data are identical.
func (s *MemoryStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// PutProfile stores a profile. Validation happens here, at the store
// boundary, not at read sites.
func (s *MemoryStore) PutProfile(ctx context.Context, profile models.Profile) error {
	if profile.UserID == "" {
		return models.NewValidationError("profile userId is required")
	}
	if profile.Age != 0 && (profile.Age < models.MinAge || profile.Age > models.MaxAge) {
		return models.NewValidationError("profile age must be between 13 and 120")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile
	return nil
}

// UpdateMatchRecord applies the update atomically under the store lock. The
// single lock gives the same effect as the real backend's conditional write:
// apply always sees the latest state and the write cannot be lost.
func (s *MemoryStore) UpdateMatchRecord(ctx context.Context, pairKey string, apply func(existing *models.MatchRecord) (models.MatchRecord, error)) (models.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *models.MatchRecord
	if rec, ok := s.matches[pairKey]; ok {
		cp := rec
		cp.LikedBy = append([]string(nil), rec.LikedBy...)
		existing = &cp
	}

	updated, err := apply(existing)
	if err != nil {
		return models.MatchRecord{}, err
	}
	updated.Version++
	s.matches[pairKey] = updated
	return updated, nil
}

// ListMatchesByUser returns every match record the user participates in,
// oldest first.
func (s *MemoryStore) ListMatchesByUser(ctx context.Context, userID string) ([]models.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MatchRecord
	for _, rec := range s.matches {
		if rec.UserA == userID || rec.UserB == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

// AppendMessage assigns the message id and a per-conversation monotonic
// timestamp, persists the message, and fans it out to live subscriptions.
func (s *MemoryStore) AppendMessage(ctx context.Context, m models.Message) (models.Message, error) {
	if m.SenderID == "" || m.ReceiverID == "" {
		return models.Message{}, models.NewValidationError("message senderId and receiverId are required")
	}
	if m.Content == "" {
		return models.Message{}, models.NewValidationError("message content is required")
	}

	s.mu.Lock()
	m.MessageID = uuid.New().String()
	m.Pending = false

	key := m.ConversationKey()
	ts := s.now().UnixMilli()
	if last := s.lastSentAt[key]; ts <= last {
		ts = last + 1
	}
	s.lastSentAt[key] = ts
	m.SentAt = ts

	s.messages = append(s.messages, m)

	var targets []*memorySub
	for ms := range s.subs {
		if ms.senderID == m.SenderID && ms.receiverID == m.ReceiverID {
			targets = append(targets, ms)
		}
	}
	s.mu.Unlock()

	for _, ms := range targets {
		ms.sub.Push(m)
	}
	return m, nil
}

// ListMessages returns a snapshot of one direction of a conversation.
func (s *MemoryStore) ListMessages(ctx context.Context, senderID, receiverID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt < out[j].SentAt })
	return out, nil
}

// SubscribeMessages replays matching history and then delivers live appends.
func (s *MemoryStore) SubscribeMessages(ctx context.Context, senderID, receiverID string) (*Subscription, error) {
	if senderID == "" || receiverID == "" {
		return nil, models.NewValidationError("subscription senderId and receiverId are required")
	}

	ms := &memorySub{senderID: senderID, receiverID: receiverID}
	ms.sub = NewSubscription(func() {
		s.mu.Lock()
		delete(s.subs, ms)
		s.mu.Unlock()
	})

	s.mu.Lock()
	for _, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID {
			ms.sub.Push(m)
		}
	}
	s.subs[ms] = struct{}{}
	s.mu.Unlock()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				ms.sub.Close()
			case <-ms.sub.closedCh:
			}
		}()
	}
	return ms.sub, nil
}
