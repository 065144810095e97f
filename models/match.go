package models

import "strings"

// Match statuses. A record never moves from matched back to pending.
const (
	MatchStatusPending = "pending"
	MatchStatusMatched = "matched"
)

// MatchRecord represents the relationship between exactly two users. Its
// identity is the sorted-pair key, so likes from either side always target
// the same record regardless of who acted first.
type MatchRecord struct {
	PairKey   string   `dynamodbav:"pairKey" json:"pairKey"` // Partition Key
	UserA     string   `dynamodbav:"userA" json:"userA"`     // lower id of the pair
	UserB     string   `dynamodbav:"userB" json:"userB"`     // higher id of the pair
	LikedBy   []string `dynamodbav:"likedBy" json:"likedBy"`
	Status    string   `dynamodbav:"status" json:"status"`
	CreatedAt string   `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt string   `dynamodbav:"updatedAt" json:"updatedAt"`
	Version   int64    `dynamodbav:"version" json:"-"` // guards the conditional write
}

// MatchesTable is the DynamoDB table name for match records
const MatchesTable = "Matches"

// PairKey computes the canonical order-independent identity for two user ids.
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "#" + b
}

// SortPair returns the two ids in canonical order.
func SortPair(a, b string) (string, string) {
	if strings.Compare(a, b) > 0 {
		return b, a
	}
	return a, b
}

// HasLiked reports whether the given user already appears in LikedBy.
func (m MatchRecord) HasLiked(userID string) bool {
	for _, id := range m.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherUser returns the participant that is not the given user.
func (m MatchRecord) OtherUser(userID string) string {
	if m.UserA == userID {
		return m.UserB
	}
	return m.UserA
}

// MatchOutcome describes the result of applying a like to a match record.
type MatchOutcome string

const (
	OutcomePendingCreated MatchOutcome = "pendingCreated"
	OutcomeLikeAdded      MatchOutcome = "likeAdded"
	OutcomeAlreadyLiked   MatchOutcome = "alreadyLiked"
	OutcomeMutualMatch    MatchOutcome = "mutualMatch"
)
