package connection

import (
	"context"
	"errors"
	"testing"

	"founder-connect/internal/domain/user"
	"founder-connect/internal/infrastructure/events"
	"founder-connect/internal/infrastructure/persistence/memory"
	"founder-connect/internal/repository"
	"founder-connect/internal/usecase/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *memory.Store
	svc   *Service
	rec   *events.Recorder
	log   *memory.ActivityLog
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	rec := &events.Recorder{}
	log := memory.NewActivityLog()
	notifier := notification.NewService(store.Notifications(), nil, nil, nil)
	svc := NewService(store.Users(), store.Connections(), notifier, rec, log, nil)
	return fixture{store: store, svc: svc, rec: rec, log: log}
}

func (f fixture) addUser(t *testing.T, name string) user.User {
	t.Helper()
	u := user.User{ID: uuid.New(), Email: name + "@example.com", Name: name}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f fixture) has(t *testing.T, a, b uuid.UUID, kind repository.EdgeKind) bool {
	t.Helper()
	ok, err := f.store.Connections().HasEdge(context.Background(), a, b, kind)
	require.NoError(t, err)
	return ok
}

func TestSendRequest_AcceptFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada, bob := f.addUser(t, "ada"), f.addUser(t, "bob")

	require.NoError(t, f.svc.SendRequest(ctx, ada.ID, bob.ID))
	assert.True(t, f.has(t, ada.ID, bob.ID, repository.EdgePending))
	assert.True(t, f.has(t, bob.ID, ada.ID, repository.EdgeRequest))

	notes, err := f.store.Notifications().ListByUser(ctx, bob.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, repository.NotificationConnectionRequest, notes[0].Type)

	// repeat is a no-op
	require.NoError(t, f.svc.SendRequest(ctx, ada.ID, bob.ID))
	notes, err = f.store.Notifications().ListByUser(ctx, bob.ID, false, 0)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	require.NoError(t, f.svc.Accept(ctx, bob.ID, ada.ID))
	assert.True(t, f.has(t, ada.ID, bob.ID, repository.EdgeConnected))
	assert.True(t, f.has(t, bob.ID, ada.ID, repository.EdgeConnected))
	assert.False(t, f.has(t, ada.ID, bob.ID, repository.EdgePending))
	assert.False(t, f.has(t, bob.ID, ada.ID, repository.EdgeRequest))

	lists, err := f.svc.Lists(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, lists.Connections, 1)
	assert.Equal(t, bob.ID, lists.Connections[0].ID)
	assert.Empty(t, lists.Pending)

	assert.ErrorIs(t, f.svc.SendRequest(ctx, ada.ID, bob.ID), ErrAlreadyConnected)

	keys := []string{}
	for _, e := range f.rec.Events() {
		keys = append(keys, e.RoutingKey)
	}
	assert.Equal(t, []string{events.KeyConnectionRequested, events.KeyConnectionAccepted}, keys)
}

func TestAccept_WithoutRequest(t *testing.T) {
	f := newFixture(t)
	ada, bob := f.addUser(t, "ada"), f.addUser(t, "bob")
	assert.ErrorIs(t, f.svc.Accept(context.Background(), bob.ID, ada.ID), ErrRequestNotFound)
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada, bob := f.addUser(t, "ada"), f.addUser(t, "bob")

	require.NoError(t, f.svc.SendRequest(ctx, ada.ID, bob.ID))
	require.NoError(t, f.svc.Reject(ctx, bob.ID, ada.ID))
	assert.False(t, f.has(t, ada.ID, bob.ID, repository.EdgePending))
	assert.False(t, f.has(t, bob.ID, ada.ID, repository.EdgeRequest))
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada, bob := f.addUser(t, "ada"), f.addUser(t, "bob")

	assert.ErrorIs(t, f.svc.Disconnect(ctx, ada.ID, bob.ID), ErrNotConnected)

	require.NoError(t, f.svc.SendRequest(ctx, ada.ID, bob.ID))
	require.NoError(t, f.svc.Accept(ctx, bob.ID, ada.ID))
	require.NoError(t, f.svc.Disconnect(ctx, ada.ID, bob.ID))
	assert.False(t, f.has(t, ada.ID, bob.ID, repository.EdgeConnected))
	assert.False(t, f.has(t, bob.ID, ada.ID, repository.EdgeConnected))
}

func TestAddRequest_RenotifiesWithoutDuplicateEdges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada, jane := f.addUser(t, "ada"), f.addUser(t, "jane")

	require.NoError(t, f.svc.AddRequest(ctx, ada, jane.ID))
	require.NoError(t, f.svc.AddRequest(ctx, ada, jane.ID))

	pending, err := f.store.Connections().ListEdges(ctx, ada.ID, repository.EdgePending)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{jane.ID}, pending)

	notes, err := f.store.Notifications().ListByUser(ctx, jane.ID, false, 0)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	logged, err := f.log.Interactions(ctx, ada.ID.String(), 0)
	require.NoError(t, err)
	assert.Len(t, logged, 2)
}

func TestSendRequest_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada := f.addUser(t, "ada")

	assert.ErrorIs(t, f.svc.SendRequest(ctx, ada.ID, ada.ID), ErrInvalidInput)
	assert.ErrorIs(t, f.svc.SendRequest(ctx, ada.ID, uuid.New()), ErrUserNotFound)

	f.store.FailWith(errors.New("down"))
	assert.ErrorIs(t, f.svc.SendRequest(ctx, ada.ID, uuid.New()), ErrInternal)
}
