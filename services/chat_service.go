package services

import (
	"context"
	"log"
	"sort"

	"fitmatch_server/metrics"
	"fitmatch_server/models"
	"fitmatch_server/store"
)

// Broadcaster pushes a stored message to everyone in the conversation room.
// The socket server implements this; a nil broadcaster disables push.
type Broadcaster interface {
	BroadcastMessage(room string, m models.Message)
}

// ChatService sends messages and opens reconciled conversation views.
type ChatService struct {
	Messages  store.MessageStore
	Broadcast Broadcaster
}

// NewChatService creates a chat service over the given message store.
func NewChatService(messages store.MessageStore, broadcast Broadcaster) *ChatService {
	return &ChatService{Messages: messages, Broadcast: broadcast}
}

// SendMessage persists a message and pushes it to the conversation room.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID, content string) (models.Message, error) {
	if senderID == receiverID {
		return models.Message{}, models.NewValidationError("sender and receiver must differ")
	}
	m, err := s.Messages.AppendMessage(ctx, models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	})
	if err != nil {
		return models.Message{}, err
	}

	metrics.MessagesSent.Inc()
	if s.Broadcast != nil {
		s.Broadcast.BroadcastMessage(m.ConversationKey(), m)
	}
	log.Printf("📩 Message %s stored: %s -> %s", m.MessageID, senderID, receiverID)
	return m, nil
}

// OpenConversation subscribes to both directions of a chat and returns the
// continuously-reconciled view. Resubscribing after an error or Close
// replays full history again; the caller owns the retry policy.
func (s *ChatService) OpenConversation(ctx context.Context, selfID, otherID string) (*Conversation, error) {
	if selfID == "" || otherID == "" {
		return nil, models.NewValidationError("selfId and otherId are required")
	}
	if selfID == otherID {
		return nil, models.NewValidationError("selfId and otherId must differ")
	}
	conv, err := newConversation(ctx, s.Messages, selfID, otherID)
	if err != nil {
		return nil, err
	}
	metrics.ConversationsOpened.Inc()
	return conv, nil
}

// ConversationHistory returns a point-in-time merged view of both directions
// of a chat, newest last, de-duplicated by id. limit <= 0 means no limit;
// otherwise the newest limit messages are returned.
func (s *ChatService) ConversationHistory(ctx context.Context, selfID, otherID string, limit int) ([]models.Message, error) {
	if selfID == "" || otherID == "" {
		return nil, models.NewValidationError("selfId and otherId are required")
	}

	sent, err := s.Messages.ListMessages(ctx, selfID, otherID)
	if err != nil {
		return nil, err
	}
	received, err := s.Messages.ListMessages(ctx, otherID, selfID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(sent)+len(received))
	merged := make([]models.Message, 0, len(sent)+len(received))
	for _, m := range append(sent, received...) {
		if _, dup := seen[m.MessageID]; dup {
			continue
		}
		seen[m.MessageID] = struct{}{}
		merged = append(merged, m)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].SentAt != merged[j].SentAt {
			return merged[i].SentAt < merged[j].SentAt
		}
		return merged[i].MessageID < merged[j].MessageID
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[len(merged)-limit:]
	}
	return merged, nil
}
