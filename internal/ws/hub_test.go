package ws

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PushReachesOnlyAddressedUser(t *testing.T) {
	hub := NewHub(nil)
	var count atomic.Int32
	hub.OnClientCount(func(n int) { count.Store(int32(n)) })
	go hub.Run()
	defer hub.Stop()

	alice, bob := uuid.New(), uuid.New()
	a1 := NewClient(hub, alice, nil)
	a2 := NewClient(hub, alice, nil)
	b1 := NewClient(hub, bob, nil)
	hub.Register(a1)
	hub.Register(a2)
	hub.Register(b1)

	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, hub.UserConnected(alice))

	require.NoError(t, hub.Push(alice, "notification", map[string]string{"id": "n1"}))

	for _, c := range []*Client{a1, a2} {
		select {
		case msg := <-c.send:
			var evt Event
			require.NoError(t, json.Unmarshal(msg, &evt))
			assert.Equal(t, "notification", evt.Type)
		case <-time.After(time.Second):
			t.Fatal("expected message for alice")
		}
	}

	select {
	case <-b1.send:
		t.Fatal("bob must not receive alice's event")
	case <-time.After(20 * time.Millisecond):
	}

	hub.Unregister(a1)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return count.Load() == 2 }, time.Second, 5*time.Millisecond)

	_, open := <-a1.send
	assert.False(t, open)
}

func TestHub_NilSafe(t *testing.T) {
	var h *Hub
	assert.NoError(t, h.Push(uuid.New(), "x", nil))
	assert.Equal(t, 0, h.ClientCount())
	h.Stop()
}

func TestHub_RegisterAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	hub.Stop()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		c := NewClient(hub, uuid.New(), nil)
		for i := 0; i < 300; i++ {
			hub.Register(c)
			hub.Unregister(c)
		}
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Register/Unregister blocked on a stopped hub")
	}
}
