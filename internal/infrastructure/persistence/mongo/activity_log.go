package mongo

import (
	"context"
	"fmt"

	"founder-connect/internal/domain/activity"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	chatCollection        = "chat_logs"
	interactionCollection = "interaction_logs"
)

// ActivityLog stores chat and interaction logs as documents. Reads return
// the newest entries first.
type ActivityLog struct {
	chats        *mongo.Collection
	interactions *mongo.Collection
}

func NewActivityLog(db *mongo.Database) *ActivityLog {
	return &ActivityLog{
		chats:        db.Collection(chatCollection),
		interactions: db.Collection(interactionCollection),
	}
}

// EnsureIndexes creates the (user_id, created_at) indexes used by reads.
func (l *ActivityLog) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}}
	if _, err := l.chats.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("index %s: %w", chatCollection, err)
	}
	if _, err := l.interactions.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("index %s: %w", interactionCollection, err)
	}
	return nil
}

func (l *ActivityLog) AppendChat(ctx context.Context, e activity.ChatEntry) error {
	_, err := l.chats.InsertOne(ctx, e)
	return err
}

func (l *ActivityLog) ChatHistory(ctx context.Context, userID string, limit int) ([]activity.ChatEntry, error) {
	cur, err := l.chats.Find(ctx, bson.M{"user_id": userID}, newestFirst(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]activity.ChatEntry, 0)
	for cur.Next(ctx) {
		var e activity.ChatEntry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, cur.Err()
}

func (l *ActivityLog) AppendInteraction(ctx context.Context, i activity.Interaction) error {
	_, err := l.interactions.InsertOne(ctx, i)
	return err
}

func (l *ActivityLog) Interactions(ctx context.Context, userID string, limit int) ([]activity.Interaction, error) {
	cur, err := l.interactions.Find(ctx, bson.M{"user_id": userID}, newestFirst(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]activity.Interaction, 0)
	for cur.Next(ctx) {
		var i activity.Interaction
		if err := cur.Decode(&i); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, cur.Err()
}

func newestFirst(limit int) *options.FindOptionsBuilder {
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(activity.ClampLimit(limit)))
}

var _ activity.Log = (*ActivityLog)(nil)
