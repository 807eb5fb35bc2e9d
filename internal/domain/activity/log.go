package activity

import (
	"context"
	"time"
)

// ChatEntry records one routed chat command and the result returned to the
// user.
type ChatEntry struct {
	UserID    string    `bson:"user_id" json:"userId"`
	Command   string    `bson:"command" json:"command"`
	Intent    string    `bson:"intent" json:"intent"`
	Action    string    `bson:"action" json:"action"`
	Message   string    `bson:"message" json:"message"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

const (
	InteractionMessage        = "message"
	InteractionConnectRequest = "connect_request"
	InteractionProfileView    = "profile_view"
	InteractionOutreach       = "outreach"
)

// Interaction records a user acting on another user.
type Interaction struct {
	UserID    string    `bson:"user_id" json:"userId"`
	TargetID  string    `bson:"target_id,omitempty" json:"targetId,omitempty"`
	Kind      string    `bson:"kind" json:"kind"`
	Detail    string    `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

type Log interface {
	AppendChat(ctx context.Context, e ChatEntry) error
	ChatHistory(ctx context.Context, userID string, limit int) ([]ChatEntry, error)
	AppendInteraction(ctx context.Context, i Interaction) error
	Interactions(ctx context.Context, userID string, limit int) ([]Interaction, error)
}

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
