package post

import (
	"context"
	"strings"
	"testing"

	"founder-connect/internal/domain/user"
	"founder-connect/internal/infrastructure/persistence/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndFeed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	author := user.User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada", Role: "founder"}
	require.NoError(t, store.Users().Create(ctx, author))
	svc := NewService(store.Posts())

	first, err := svc.Create(ctx, author.ID, "first post")
	require.NoError(t, err)
	assert.Equal(t, "Ada", first.AuthorName)

	_, err = svc.Create(ctx, author.ID, "second post")
	require.NoError(t, err)

	feed, err := svc.Feed(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "second post", feed[0].Content)

	older, err := svc.Feed(ctx, &feed[0].CreatedAt, 0)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, first.ID, older[0].ID)

	mine, err := svc.ByAuthor(ctx, author.ID, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestCreate_Invalid(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Posts())

	_, err := svc.Create(ctx, uuid.New(), "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, uuid.New(), strings.Repeat("a", MaxContentLength+1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, uuid.New(), "unknown author")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
