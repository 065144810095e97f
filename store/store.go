// Package store defines the storage boundary the matching core depends on:
// document reads, a transactional single-key upsert, an append with
// server-assigned identity, and predicate-filtered live subscriptions. Any
// backend offering those primitives satisfies the contract.
package store

import (
	"context"
	"errors"
	"sync"

	"fitmatch_server/models"
)

// ErrConflict is returned by UpdateMatchRecord when the guarded write lost a
// race with a concurrent writer. Callers retry with the freshly-read state.
var ErrConflict = errors.New("store: conditional write conflict")

// ProfileStore is the read/write surface for user profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	// ListProfiles returns a point-in-time snapshot, not a live view.
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	PutProfile(ctx context.Context, profile models.Profile) error
}

// MatchStore owns the single match record per sorted pair.
type MatchStore interface {
	// UpdateMatchRecord runs apply against the current record (nil when the
	// record does not exist yet) and writes the result conditionally on the
	// observed state. Two racing writers cannot both succeed: the loser gets
	// ErrConflict and no partial state is written.
	UpdateMatchRecord(ctx context.Context, pairKey string, apply func(existing *models.MatchRecord) (models.MatchRecord, error)) (models.MatchRecord, error)
	ListMatchesByUser(ctx context.Context, userID string) ([]models.MatchRecord, error)
}

// MessageStore appends immutable messages and serves one-directional live
// queries. Subscriptions replay full history before delivering live updates.
type MessageStore interface {
	// AppendMessage assigns the message id and send timestamp and persists
	// the message. The returned copy carries the assigned fields.
	AppendMessage(ctx context.Context, m models.Message) (models.Message, error)
	// ListMessages returns a snapshot of messages matching the
	// one-directional predicate, ordered by send timestamp.
	ListMessages(ctx context.Context, senderID, receiverID string) ([]models.Message, error)
	// SubscribeMessages delivers every message where sender and receiver
	// match the given ids, history first, then live. Redelivery of an
	// already-seen message is allowed; consumers de-duplicate by id.
	SubscribeMessages(ctx context.Context, senderID, receiverID string) (*Subscription, error)
}

// Subscription is a live one-directional message feed. After Close (or a
// delivered error) no further updates arrive and Updates is closed.
type Subscription struct {
	updates chan models.Message

	mu       sync.Mutex
	queue    []models.Message
	failed   error
	closed   bool
	wake     chan struct{}
	closedCh chan struct{}
	once     sync.Once
	stop     func()
}

// NewSubscription builds a subscription whose delivery goroutine is already
// running. stop is invoked once when the subscription is closed.
func NewSubscription(stop func()) *Subscription {
	s := &Subscription{
		updates:  make(chan models.Message),
		wake:     make(chan struct{}, 1),
		closedCh: make(chan struct{}),
		stop:     stop,
	}
	go s.pump()
	return s
}

// Updates is the ordered stream of delivered messages. It is closed on
// teardown or stream failure.
func (s *Subscription) Updates() <-chan models.Message { return s.updates }

// Err reports the terminal stream error, if any, once Updates has closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// Close tears the subscription down. Everything delivered before Close
// remains valid; nothing is delivered after.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.closedCh)
		s.signal()
	})
}

// Push enqueues a message for delivery. No-op after Close or Fail. Backends
// call this for every matching message, history first, then live.
func (s *Subscription) Push(m models.Message) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, m)
	s.mu.Unlock()
	s.signal()
}

// Fail records a terminal error and tears the stream down.
func (s *Subscription) Fail(err error) {
	s.mu.Lock()
	if !s.closed && s.failed == nil {
		s.failed = err
	}
	s.mu.Unlock()
	s.Close()
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump moves queued messages onto the updates channel in order. Runs on its
// own goroutine, one per subscription.
func (s *Subscription) pump() {
	defer close(s.updates)
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		done := s.closed && len(batch) == 0
		s.mu.Unlock()

		if done {
			return
		}
		for _, m := range batch {
			select {
			case s.updates <- m:
			case <-s.closedCh:
				return
			}
		}
		if len(batch) > 0 {
			continue
		}
		select {
		case <-s.wake:
		case <-s.closedCh:
		}
	}
}
