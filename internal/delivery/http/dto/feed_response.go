package dto

import (
	"time"

	"founder-connect/internal/domain/matching"
	"founder-connect/internal/repository"
	"founder-connect/internal/usecase/suggestion"

	"github.com/google/uuid"
)

type SuggestionResponse struct {
	User      PublicProfile      `json:"user"`
	Score     int                `json:"score"`
	Breakdown matching.Breakdown `json:"breakdown"`
}

func NewSuggestionResponses(in []suggestion.Suggestion) []SuggestionResponse {
	out := make([]SuggestionResponse, len(in))
	for i, s := range in {
		out[i] = SuggestionResponse{User: NewPublicProfile(s.User), Score: s.Score, Breakdown: s.Breakdown}
	}
	return out
}

type PostResponse struct {
	ID           uuid.UUID `json:"id"`
	AuthorID     uuid.UUID `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	AuthorRole   string    `json:"authorRole"`
	AuthorAvatar string    `json:"authorAvatar"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewPostResponse(p repository.Post) PostResponse {
	return PostResponse{
		ID:           p.ID,
		AuthorID:     p.AuthorID,
		AuthorName:   p.AuthorName,
		AuthorRole:   p.AuthorRole,
		AuthorAvatar: p.AuthorAvatar,
		Content:      p.Content,
		CreatedAt:    p.CreatedAt,
	}
}

func NewPostResponses(in []repository.Post) []PostResponse {
	out := make([]PostResponse, len(in))
	for i, p := range in {
		out[i] = NewPostResponse(p)
	}
	return out
}

type MessageResponse struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	SenderID       uuid.UUID `json:"senderId"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
}

func NewMessageResponse(m repository.Message) MessageResponse {
	return MessageResponse{ID: m.ID, ConversationID: m.ConversationID, SenderID: m.SenderID, Body: m.Body, CreatedAt: m.CreatedAt}
}

func NewMessageResponses(in []repository.Message) []MessageResponse {
	out := make([]MessageResponse, len(in))
	for i, m := range in {
		out[i] = NewMessageResponse(m)
	}
	return out
}

type ConversationResponse struct {
	ID            uuid.UUID  `json:"id"`
	OtherUserID   uuid.UUID  `json:"otherUserId"`
	OtherName     string     `json:"otherName"`
	OtherAvatar   string     `json:"otherAvatar"`
	LastMessage   string     `json:"lastMessage"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func NewConversationResponses(in []repository.ConversationSummary) []ConversationResponse {
	out := make([]ConversationResponse, len(in))
	for i, c := range in {
		out[i] = ConversationResponse{
			ID:            c.ID,
			OtherUserID:   c.OtherID,
			OtherName:     c.OtherName,
			OtherAvatar:   c.OtherAvatar,
			LastMessage:   c.LastMessage,
			LastMessageAt: c.LastMessageAt,
			UpdatedAt:     c.UpdatedAt,
		}
	}
	return out
}
