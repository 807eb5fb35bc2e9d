package memory

import (
	"context"
	"sync"

	"founder-connect/internal/domain/activity"
)

// ActivityLog keeps logs in process memory. It backs the service when no
// document store is configured.
type ActivityLog struct {
	mu           sync.RWMutex
	chats        []activity.ChatEntry
	interactions []activity.Interaction
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{}
}

func (l *ActivityLog) AppendChat(_ context.Context, e activity.ChatEntry) error {
	l.mu.Lock()
	l.chats = append(l.chats, e)
	l.mu.Unlock()
	return nil
}

func (l *ActivityLog) ChatHistory(_ context.Context, userID string, limit int) ([]activity.ChatEntry, error) {
	limit = activity.ClampLimit(limit)

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]activity.ChatEntry, 0)
	for i := len(l.chats) - 1; i >= 0 && len(out) < limit; i-- {
		if l.chats[i].UserID == userID {
			out = append(out, l.chats[i])
		}
	}
	return out, nil
}

func (l *ActivityLog) AppendInteraction(_ context.Context, i activity.Interaction) error {
	l.mu.Lock()
	l.interactions = append(l.interactions, i)
	l.mu.Unlock()
	return nil
}

func (l *ActivityLog) Interactions(_ context.Context, userID string, limit int) ([]activity.Interaction, error) {
	limit = activity.ClampLimit(limit)

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]activity.Interaction, 0)
	for i := len(l.interactions) - 1; i >= 0 && len(out) < limit; i-- {
		if l.interactions[i].UserID == userID {
			out = append(out, l.interactions[i])
		}
	}
	return out, nil
}

var _ activity.Log = (*ActivityLog)(nil)
