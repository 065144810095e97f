package models

// Message is a single chat message between two users. MessageID and SentAt
// are assigned by the store on append; messages are immutable afterwards.
// Pending is a client-side flag for the optimistic echo and is never
// persisted.
type Message struct {
	MessageID  string `dynamodbav:"messageId" json:"messageId"`
	SenderID   string `dynamodbav:"senderId" json:"senderId"` // Partition Key
	ReceiverID string `dynamodbav:"receiverId" json:"receiverId"`
	Content    string `dynamodbav:"content" json:"content"`
	SentAt     int64  `dynamodbav:"sentAt" json:"sentAt"` // unix millis, Sort Key
	Pending    bool   `dynamodbav:"-" json:"pending"`
}

// MessagesTable is the DynamoDB table name for chat messages
const MessagesTable = "Messages"

// ConversationKey returns the room/conversation identity for two users.
// Same canonical form as the match record key.
func (m Message) ConversationKey() string {
	return PairKey(m.SenderID, m.ReceiverID)
}
