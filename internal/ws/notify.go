package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the frame pushed to clients.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Pusher delivers events to a user's live connections.
type Pusher interface {
	Push(userID uuid.UUID, eventType string, data any) error
}

func (h *Hub) Push(userID uuid.UUID, eventType string, data any) error {
	if h == nil {
		return nil
	}
	b, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}
	h.SendToUser(userID, b)
	return nil
}

// NopPusher discards events. The operator REPL uses it.
type NopPusher struct{}

func (NopPusher) Push(uuid.UUID, string, any) error { return nil }

var (
	_ Pusher = (*Hub)(nil)
	_ Pusher = NopPusher{}
)
