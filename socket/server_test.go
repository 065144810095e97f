package socket

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitmatch_server/models"
	"fitmatch_server/services"
	"fitmatch_server/store"
)

// recordingEmitter captures emitted socket events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

type emittedEvent struct {
	name string
	args []interface{}
}

func (r *recordingEmitter) Emit(msg string, v ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emittedEvent{name: msg, args: v})
}

func (r *recordingEmitter) messages() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, e := range r.events {
		if e.name != "newMessage" || len(e.args) == 0 {
			continue
		}
		if m, ok := e.args[0].(models.Message); ok {
			out = append(out, m)
		}
	}
	return out
}

func (r *recordingEmitter) eventNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.name
	}
	return names
}

func TestFeedReplaysHistoryThenLive(t *testing.T) {
	mem := store.NewMemoryStore()
	chat := services.NewChatService(mem, nil)
	ctx := context.Background()

	_, err := chat.SendMessage(ctx, "alice", "bob", "earlier")
	require.NoError(t, err)

	conv, err := chat.OpenConversation(ctx, "bob", "alice")
	require.NoError(t, err)
	rec := &recordingEmitter{}
	done := make(chan struct{})
	go func() {
		feedConversation(conv, rec)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(rec.messages()) == 1 }, 2*time.Second, 5*time.Millisecond)

	_, err = chat.SendMessage(ctx, "bob", "alice", "just saw this")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(rec.messages()) == 2 }, 2*time.Second, 5*time.Millisecond)

	got := rec.messages()
	assert.Equal(t, "earlier", got[0].Content)
	assert.Equal(t, "just saw this", got[1].Content)

	conv.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feed loop must end when the conversation closes")
	}
	assert.NotContains(t, rec.eventNames(), "streamError")
}

func TestFeedEmitsEachMessageOnce(t *testing.T) {
	mem := store.NewMemoryStore()
	chat := services.NewChatService(mem, nil)
	ctx := context.Background()

	conv, err := chat.OpenConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	defer conv.Close()

	rec := &recordingEmitter{}
	go feedConversation(conv, rec)

	for i := 0; i < 3; i++ {
		_, err := chat.SendMessage(ctx, "alice", "bob", fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return len(rec.messages()) == 3 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	got := rec.messages()
	require.Len(t, got, 3)
	seen := make(map[string]struct{})
	for _, m := range got {
		_, dup := seen[m.MessageID]
		assert.False(t, dup, "message %s emitted twice", m.MessageID)
		seen[m.MessageID] = struct{}{}
		assert.False(t, m.Pending)
	}
}

func TestServerJoinOpensAndLeaveClosesFeed(t *testing.T) {
	mem := store.NewMemoryStore()
	chat := services.NewChatService(mem, nil)
	ctx := context.Background()

	s := NewServer()
	s.SetOpener(chat)

	rec := &recordingEmitter{}
	s.openFeed("conn-1", rec, "alice", "bob")

	_, err := chat.SendMessage(ctx, "bob", "alice", "hello")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(rec.messages()) == 1 }, 2*time.Second, 5*time.Millisecond)

	s.mu.Lock()
	conv := s.feeds["conn-1"]
	s.mu.Unlock()
	require.NotNil(t, conv)

	s.closeFeed("conn-1")
	select {
	case <-conv.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("closing the feed must tear the conversation down")
	}

	s.mu.Lock()
	_, stillOpen := s.feeds["conn-1"]
	s.mu.Unlock()
	assert.False(t, stillOpen)

	// Nothing is delivered after the feed is closed.
	_, err = chat.SendMessage(ctx, "bob", "alice", "too late")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, rec.messages(), 1)
}

func TestServerRejoinReplacesFeed(t *testing.T) {
	mem := store.NewMemoryStore()
	chat := services.NewChatService(mem, nil)

	s := NewServer()
	s.SetOpener(chat)

	first := &recordingEmitter{}
	s.openFeed("conn-1", first, "alice", "bob")
	s.mu.Lock()
	firstConv := s.feeds["conn-1"]
	s.mu.Unlock()
	require.NotNil(t, firstConv)

	second := &recordingEmitter{}
	s.openFeed("conn-1", second, "alice", "carol")

	select {
	case <-firstConv.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("rejoin must tear down the previous feed")
	}

	s.mu.Lock()
	current := s.feeds["conn-1"]
	s.mu.Unlock()
	assert.NotSame(t, firstConv, current)
	s.closeFeed("conn-1")
}

// failableSubStore hands out subscriptions the test can fail on demand.
type failableSubStore struct {
	mu   sync.Mutex
	subs []*store.Subscription
}

func (f *failableSubStore) AppendMessage(ctx context.Context, m models.Message) (models.Message, error) {
	return models.Message{}, models.NewTransientStoreError(fmt.Errorf("not supported"))
}

func (f *failableSubStore) ListMessages(ctx context.Context, senderID, receiverID string) ([]models.Message, error) {
	return nil, nil
}

func (f *failableSubStore) SubscribeMessages(ctx context.Context, senderID, receiverID string) (*store.Subscription, error) {
	sub := store.NewSubscription(nil)
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub, nil
}

func TestFeedSurfacesStreamError(t *testing.T) {
	failable := &failableSubStore{}
	chat := services.NewChatService(failable, nil)

	conv, err := chat.OpenConversation(context.Background(), "alice", "bob")
	require.NoError(t, err)

	rec := &recordingEmitter{}
	done := make(chan struct{})
	go func() {
		feedConversation(conv, rec)
		close(done)
	}()

	failable.mu.Lock()
	sub := failable.subs[0]
	failable.mu.Unlock()
	sub.Fail(models.NewStreamError(fmt.Errorf("listener lost")))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feed loop must end when the stream fails")
	}
	assert.Contains(t, rec.eventNames(), "streamError")
}

func TestFeedCancellationIsNotAStreamError(t *testing.T) {
	mem := store.NewMemoryStore()
	chat := services.NewChatService(mem, nil)
	ctx, cancel := context.WithCancel(context.Background())

	conv, err := chat.OpenConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	rec := &recordingEmitter{}
	done := make(chan struct{})
	go func() {
		feedConversation(conv, rec)
		close(done)
	}()

	// Deliberate cancellation reads as a plain close, not a stream error.
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feed loop must end on cancellation")
	}
	assert.NotContains(t, rec.eventNames(), "streamError")
}
