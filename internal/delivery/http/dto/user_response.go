package dto

import (
	"time"

	"founder-connect/internal/domain/user"

	"github.com/google/uuid"
)

type UserProfileResponse struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email,omitempty"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	Title         string     `json:"title"`
	Bio           string     `json:"bio"`
	Avatar        string     `json:"avatar"`
	Tags          []string   `json:"tags"`
	Skills        []string   `json:"skills"`
	EmailVerified bool       `json:"emailVerified,omitempty"`
	LastActiveAt  *time.Time `json:"lastActiveAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// PublicProfile hides the account fields of another user.
type PublicProfile struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
	Title  string    `json:"title"`
	Bio    string    `json:"bio"`
	Avatar string    `json:"avatar"`
	Tags   []string  `json:"tags"`
	Skills []string  `json:"skills"`
}

func NewUserProfileResponse(u user.User) UserProfileResponse {
	return UserProfileResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		Title:         u.Title,
		Bio:           u.Bio,
		Avatar:        u.Avatar,
		Tags:          nonNil(u.Tags),
		Skills:        nonNil(u.Skills),
		EmailVerified: u.EmailVerified,
		LastActiveAt:  u.LastActiveAt,
		CreatedAt:     u.CreatedAt,
	}
}

func NewPublicProfile(u user.User) PublicProfile {
	return PublicProfile{
		ID:     u.ID,
		Name:   u.Name,
		Role:   u.Role,
		Title:  u.Title,
		Bio:    u.Bio,
		Avatar: u.Avatar,
		Tags:   nonNil(u.Tags),
		Skills: nonNil(u.Skills),
	}
}

func NewPublicProfiles(users []user.User) []PublicProfile {
	out := make([]PublicProfile, len(users))
	for i, u := range users {
		out[i] = NewPublicProfile(u)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
