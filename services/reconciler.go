package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"fitmatch_server/models"
	"fitmatch_server/store"

	"github.com/google/uuid"
)

// optimisticMatchWindow is how far apart the provisional and the confirmed
// timestamp may be for an optimistic echo to be resolved against an incoming
// confirmed message. The real id is not known before the store assigns it,
// so matching is by sender, receiver, content and approximate time.
const optimisticMatchWindow = 2 * time.Minute

// Conversation is the reconciled, ordered, de-duplicated view over the two
// one-directional live queries of a chat (sent-by-me and sent-to-me). The
// store's access model only allows predicates the author is inside, so a
// single bidirectional query is not available; the merge happens here,
// behind one lock.
type Conversation struct {
	selfID  string
	otherID string
	store   store.MessageStore

	mu      sync.Mutex
	known   map[string]struct{}
	entries []conversationEntry // confirmed messages
	pending []conversationEntry // optimistic echoes, not yet confirmed
	seq     int64               // arrival order, the stable tiebreak
	err     error
	closed  bool

	updates chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

type conversationEntry struct {
	msg     models.Message
	arrival int64
}

// newConversation wires both subscriptions and starts the merge loop.
func newConversation(ctx context.Context, messages store.MessageStore, selfID, otherID string) (*Conversation, error) {
	mergeCtx, cancel := context.WithCancel(ctx)

	sent, err := messages.SubscribeMessages(mergeCtx, selfID, otherID)
	if err != nil {
		cancel()
		return nil, err
	}
	received, err := messages.SubscribeMessages(mergeCtx, otherID, selfID)
	if err != nil {
		sent.Close()
		cancel()
		return nil, err
	}

	c := &Conversation{
		selfID:  selfID,
		otherID: otherID,
		store:   messages,
		known:   make(map[string]struct{}),
		updates: make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go c.merge(mergeCtx, sent, received)
	return c, nil
}

// merge is the single consumer of both subscription streams. A closed or
// failed stream is terminal: the counterpart is torn down too, so no
// half-open subscription lingers.
func (c *Conversation) merge(ctx context.Context, sent, received *store.Subscription) {
	defer func() {
		sent.Close()
		received.Close()
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.updates)
		close(c.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-sent.Updates():
			if !ok {
				c.recordStreamErr(sent.Err())
				return
			}
			c.ingest(m, true)
		case m, ok := <-received.Updates():
			if !ok {
				c.recordStreamErr(received.Err())
				return
			}
			c.ingest(m, false)
		}
	}
}

// ingest folds one confirmed message into the view. Re-delivery of a known
// id is a no-op. A confirmed copy of an optimistic echo replaces the echo in
// the same critical section, so the view never shows both.
func (c *Conversation) ingest(m models.Message, fromSelf bool) {
	c.mu.Lock()
	if _, dup := c.known[m.MessageID]; dup {
		c.mu.Unlock()
		return
	}
	c.known[m.MessageID] = struct{}{}

	if fromSelf {
		c.resolvePendingLocked(m)
	}

	c.seq++
	c.entries = append(c.entries, conversationEntry{msg: m, arrival: c.seq})
	c.mu.Unlock()
	c.notify()
}

// resolvePendingLocked removes the optimistic echo matching the confirmed
// message, if any. Caller holds c.mu.
func (c *Conversation) resolvePendingLocked(confirmed models.Message) {
	for i, p := range c.pending {
		if p.msg.Content != confirmed.Content {
			continue
		}
		delta := confirmed.SentAt - p.msg.SentAt
		if delta < 0 {
			delta = -delta
		}
		if time.Duration(delta)*time.Millisecond > optimisticMatchWindow {
			continue
		}
		c.pending = append(c.pending[:i], c.pending[i+1:]...)
		return
	}
}

// Send appends an optimistic echo immediately and persists the message. The
// echo stays visible, flagged pending, until the confirmed copy arrives on
// the sent-message stream. It is never dropped while confirmation is
// delayed, and never shown alongside its confirmed twin.
func (c *Conversation) Send(ctx context.Context, content string) (models.Message, error) {
	if content == "" {
		return models.Message{}, models.NewValidationError("message content is required")
	}

	echo := models.Message{
		MessageID:  "local-" + uuid.New().String(),
		SenderID:   c.selfID,
		ReceiverID: c.otherID,
		Content:    content,
		SentAt:     time.Now().UnixMilli(), // provisional, replaced on confirm
		Pending:    true,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.Message{}, models.NewStreamError(c.err)
	}
	c.seq++
	c.pending = append(c.pending, conversationEntry{msg: echo, arrival: c.seq})
	c.mu.Unlock()
	c.notify()

	confirmed, err := c.store.AppendMessage(ctx, models.Message{
		SenderID:   c.selfID,
		ReceiverID: c.otherID,
		Content:    content,
	})
	if err != nil {
		// The send never happened; retract the echo.
		c.mu.Lock()
		for i, p := range c.pending {
			if p.msg.MessageID == echo.MessageID {
				c.pending = append(c.pending[:i], c.pending[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
		c.notify()
		return models.Message{}, err
	}
	return confirmed, nil
}

// Messages returns the current reconciled view: confirmed messages and
// unresolved optimistic echoes, ordered by send timestamp with arrival order
// as the stable tiebreak.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	merged := make([]conversationEntry, 0, len(c.entries)+len(c.pending))
	merged = append(merged, c.entries...)
	merged = append(merged, c.pending...)
	c.mu.Unlock()

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].msg.SentAt != merged[j].msg.SentAt {
			return merged[i].msg.SentAt < merged[j].msg.SentAt
		}
		return merged[i].arrival < merged[j].arrival
	})

	out := make([]models.Message, len(merged))
	for i, e := range merged {
		out[i] = e.msg
	}
	return out
}

// Updates signals (coalesced) whenever the view changes. The channel closes
// on teardown.
func (c *Conversation) Updates() <-chan struct{} { return c.updates }

// Err reports the terminal stream error after Updates closes, nil when the
// conversation was closed deliberately. Resubscription policy belongs to the
// caller.
func (c *Conversation) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done is closed once both underlying listeners are torn down.
func (c *Conversation) Done() <-chan struct{} { return c.done }

// Close tears down both listeners and blocks until the merge loop has
// exited; no callback or update fires afterwards.
func (c *Conversation) Close() {
	c.once.Do(c.cancel)
	<-c.done
}

func (c *Conversation) recordStreamErr(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	if c.err == nil {
		c.err = models.NewStreamError(err)
	}
	c.mu.Unlock()
}

// notify coalesces a change signal. The send happens under the lock so it
// cannot race the channel close in merge's teardown.
func (c *Conversation) notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.updates <- struct{}{}:
	default:
	}
}
