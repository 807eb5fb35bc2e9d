package memory

import (
	"context"
	"testing"
	"time"

	"founder-connect/internal/domain/activity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityLog_ChatHistoryNewestFirstPerUser(t *testing.T) {
	ctx := context.Background()
	l := NewActivityLog()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.AppendChat(ctx, activity.ChatEntry{UserID: "a", Command: "@one", CreatedAt: base}))
	require.NoError(t, l.AppendChat(ctx, activity.ChatEntry{UserID: "b", Command: "@other", CreatedAt: base}))
	require.NoError(t, l.AppendChat(ctx, activity.ChatEntry{UserID: "a", Command: "@two", CreatedAt: base.Add(time.Minute)}))

	got, err := l.ChatHistory(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "@two", got[0].Command)
	assert.Equal(t, "@one", got[1].Command)

	got, err = l.ChatHistory(ctx, "a", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "@two", got[0].Command)
}

func TestActivityLog_Interactions(t *testing.T) {
	ctx := context.Background()
	l := NewActivityLog()

	require.NoError(t, l.AppendInteraction(ctx, activity.Interaction{UserID: "a", TargetID: "b", Kind: activity.InteractionMessage}))

	got, err := l.Interactions(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, activity.InteractionMessage, got[0].Kind)

	got, err = l.Interactions(ctx, "b", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, activity.DefaultHistoryLimit, activity.ClampLimit(0))
	assert.Equal(t, activity.MaxHistoryLimit, activity.ClampLimit(1000))
	assert.Equal(t, 7, activity.ClampLimit(7))
}
