package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"fitmatch_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DefaultPollInterval is how often a Dynamo-backed subscription polls for
// new messages when MESSAGE_POLL_INTERVAL_MS is not set.
const DefaultPollInterval = 2 * time.Second

// maxAppendAttempts bounds the sort-key collision retries in AppendMessage.
const maxAppendAttempts = 5

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// InitializeDynamoDBClient initializes the DynamoDB client
func InitializeDynamoDBClient() *dynamodb.Client {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	return dynamodb.NewFromConfig(cfg)
}

// DynamoStore implements the storage boundary on DynamoDB. The single-record
// per-pair key design means every match update fits inside one conditional
// PutItem; no multi-document transaction is ever needed.
type DynamoStore struct {
	Client       DynamoAPI
	PollInterval time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewDynamoStore wraps an initialized client.
func NewDynamoStore(client DynamoAPI, pollInterval time.Duration) *DynamoStore {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &DynamoStore{Client: client, PollInterval: pollInterval, now: time.Now}
}

// GetProfile retrieves a profile by user id.
func (s *DynamoStore) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(models.ProfilesTable),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return models.Profile{}, models.NewTransientStoreError(fmt.Errorf("failed to get profile: %w", err))
	}
	if out.Item == nil {
		return models.Profile{}, models.NewNotFoundError("profile", userID)
	}

	var profile models.Profile
	if err := attributevalue.UnmarshalMap(out.Item, &profile); err != nil {
		return models.Profile{}, models.NewTransientStoreError(fmt.Errorf("failed to unmarshal profile: %w", err))
	}
	return profile, nil
}

// ListProfiles scans the profiles table and returns a snapshot.
func (s *DynamoStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(models.ProfilesTable),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, models.NewTransientStoreError(fmt.Errorf("failed to scan profiles: %w", err))
		}
		var page []models.Profile
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, models.NewTransientStoreError(fmt.Errorf("failed to unmarshal profiles: %w", err))
		}
		profiles = append(profiles, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return profiles, nil
}

// PutProfile stores a profile after boundary validation.
func (s *DynamoStore) PutProfile(ctx context.Context, profile models.Profile) error {
	if profile.UserID == "" {
		return models.NewValidationError("profile userId is required")
	}
	if profile.Age != 0 && (profile.Age < models.MinAge || profile.Age > models.MaxAge) {
		return models.NewValidationError("profile age must be between 13 and 120")
	}
	item, err := attributevalue.MarshalMap(profile)
	if err != nil {
		return models.NewTransientStoreError(fmt.Errorf("failed to marshal profile: %w", err))
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(models.ProfilesTable),
		Item:      item,
	})
	if err != nil {
		return models.NewTransientStoreError(fmt.Errorf("failed to put profile: %w", err))
	}
	return nil
}

// UpdateMatchRecord performs the transactional read-modify-write on the
// single record keyed by the sorted pair. The write is guarded by
// attribute_not_exists on create and by the version counter on update, so a
// racing writer gets ErrConflict instead of silently losing the update.
func (s *DynamoStore) UpdateMatchRecord(ctx context.Context, pairKey string, apply func(existing *models.MatchRecord) (models.MatchRecord, error)) (models.MatchRecord, error) {
	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(models.MatchesTable),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"pairKey": &types.AttributeValueMemberS{Value: pairKey},
		},
	})
	if err != nil {
		return models.MatchRecord{}, models.NewTransientStoreError(fmt.Errorf("failed to read match record: %w", err))
	}

	var existing *models.MatchRecord
	if out.Item != nil {
		var rec models.MatchRecord
		if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
			return models.MatchRecord{}, models.NewTransientStoreError(fmt.Errorf("failed to unmarshal match record: %w", err))
		}
		existing = &rec
	}

	updated, err := apply(existing)
	if err != nil {
		return models.MatchRecord{}, err
	}

	var condition string
	exprValues := map[string]types.AttributeValue{}
	if existing == nil {
		updated.Version = 1
		condition = "attribute_not_exists(pairKey)"
		exprValues = nil
	} else {
		updated.Version = existing.Version + 1
		condition = "version = :expectedVersion"
		exprValues[":expectedVersion"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", existing.Version)}
	}

	item, err := attributevalue.MarshalMap(updated)
	if err != nil {
		return models.MatchRecord{}, models.NewTransientStoreError(fmt.Errorf("failed to marshal match record: %w", err))
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(models.MatchesTable),
		Item:                      item,
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeValues: exprValues,
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return models.MatchRecord{}, ErrConflict
		}
		return models.MatchRecord{}, models.NewTransientStoreError(fmt.Errorf("failed to write match record: %w", err))
	}
	return updated, nil
}

// ListMatchesByUser scans for records the user participates in.
func (s *DynamoStore) ListMatchesByUser(ctx context.Context, userID string) ([]models.MatchRecord, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(models.MatchesTable),
		FilterExpression: aws.String("userA = :u OR userB = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, models.NewTransientStoreError(fmt.Errorf("failed to scan matches: %w", err))
	}
	var records []models.MatchRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, models.NewTransientStoreError(fmt.Errorf("failed to unmarshal matches: %w", err))
	}
	return records, nil
}

// AppendMessage assigns identity and timestamp server-side and stores the
// message under the sender's partition. The put is conditional on the
// (senderId, sentAt) key being free: two appends landing in the same
// millisecond would otherwise share the primary key and the second would
// silently replace the first. On a collision the timestamp is bumped by one
// millisecond and the put retried, which also keeps timestamps strictly
// increasing per sender under rapid sends.
func (s *DynamoStore) AppendMessage(ctx context.Context, m models.Message) (models.Message, error) {
	if m.SenderID == "" || m.ReceiverID == "" {
		return models.Message{}, models.NewValidationError("message senderId and receiverId are required")
	}
	if m.Content == "" {
		return models.Message{}, models.NewValidationError("message content is required")
	}

	m.MessageID = uuid.New().String()
	m.Pending = false

	ts := s.now().UnixMilli()
	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		m.SentAt = ts

		item, err := attributevalue.MarshalMap(m)
		if err != nil {
			return models.Message{}, models.NewTransientStoreError(fmt.Errorf("failed to marshal message: %w", err))
		}
		_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(models.MessagesTable),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(senderId) AND attribute_not_exists(sentAt)"),
		})
		if err != nil {
			var conditionFailed *types.ConditionalCheckFailedException
			if errors.As(err, &conditionFailed) {
				ts++
				continue
			}
			return models.Message{}, models.NewTransientStoreError(fmt.Errorf("failed to put message: %w", err))
		}
		return m, nil
	}
	return models.Message{}, models.NewTransientStoreError(fmt.Errorf("message key collision persisted for sender %s", m.SenderID))
}

// ListMessages returns a snapshot of one direction of a conversation,
// ordered by the sort key.
func (s *DynamoStore) ListMessages(ctx context.Context, senderID, receiverID string) ([]models.Message, error) {
	var out []models.Message
	var startKey map[string]types.AttributeValue
	for {
		res, err := s.Client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(models.MessagesTable),
			KeyConditionExpression: aws.String("senderId = :sender"),
			FilterExpression:       aws.String("receiverId = :receiver"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":sender":   &types.AttributeValueMemberS{Value: senderID},
				":receiver": &types.AttributeValueMemberS{Value: receiverID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, models.NewTransientStoreError(fmt.Errorf("failed to query messages: %w", err))
		}
		var page []models.Message
		if err := attributevalue.UnmarshalListOfMaps(res.Items, &page); err != nil {
			return nil, models.NewTransientStoreError(fmt.Errorf("failed to unmarshal messages: %w", err))
		}
		out = append(out, page...)
		if res.LastEvaluatedKey == nil {
			return out, nil
		}
		startKey = res.LastEvaluatedKey
	}
}

// SubscribeMessages serves the one-directional predicate as a replay query
// followed by an interval poll. Redelivered documents are fine: the consumer
// de-duplicates by message id.
func (s *DynamoStore) SubscribeMessages(ctx context.Context, senderID, receiverID string) (*Subscription, error) {
	if senderID == "" || receiverID == "" {
		return nil, models.NewValidationError("subscription senderId and receiverId are required")
	}

	pollCtx, cancel := context.WithCancel(ctx)
	sub := NewSubscription(cancel)

	go func() {
		seen := make(map[string]struct{})
		ticker := time.NewTicker(s.PollInterval)
		defer ticker.Stop()

		for {
			if err := s.pollMessages(pollCtx, senderID, receiverID, seen, sub); err != nil {
				if pollCtx.Err() != nil {
					sub.Close()
					return
				}
				log.Printf("❌ Message poll failed for %s -> %s: %v", senderID, receiverID, err)
				sub.Fail(models.NewStreamError(err))
				return
			}
			select {
			case <-pollCtx.Done():
				sub.Close()
				return
			case <-sub.closedCh:
				return
			case <-ticker.C:
			}
		}
	}()
	return sub, nil
}

func (s *DynamoStore) pollMessages(ctx context.Context, senderID, receiverID string, seen map[string]struct{}, sub *Subscription) error {
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.Client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(models.MessagesTable),
			KeyConditionExpression: aws.String("senderId = :sender"),
			FilterExpression:       aws.String("receiverId = :receiver"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":sender":   &types.AttributeValueMemberS{Value: senderID},
				":receiver": &types.AttributeValueMemberS{Value: receiverID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return fmt.Errorf("failed to query messages: %w", err)
		}

		var page []models.Message
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return fmt.Errorf("failed to unmarshal messages: %w", err)
		}
		for _, m := range page {
			if _, ok := seen[m.MessageID]; ok {
				continue
			}
			seen[m.MessageID] = struct{}{}
			sub.Push(m)
		}

		if out.LastEvaluatedKey == nil {
			return nil
		}
		startKey = out.LastEvaluatedKey
	}
}
