package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID
	Email         string
	PasswordHash  string
	Name          string
	Role          string
	Title         string
	Bio           string
	Avatar        string
	Tags          []string
	Skills        []string
	EmailVerified bool
	LastActiveAt  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name   *string
	Role   *string
	Title  *string
	Bio    *string
	Avatar *string
	Tags   []string
	Skills []string
}

func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
