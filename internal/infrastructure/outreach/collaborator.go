// Package outreach reaches the external contact-search and drafting
// collaborator, either as a local process or over HTTP.
package outreach

import (
	"context"
	"errors"
)

type DraftRequest struct {
	Topic    string `json:"topic"`
	Summary  string `json:"summary"`
	FromName string `json:"fromName"`
}

type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Collaborator finds contact emails for a topic and drafts the email body.
type Collaborator interface {
	SearchEmails(ctx context.Context, topic string, limit int) ([]string, error)
	DraftEmail(ctx context.Context, in DraftRequest) (Draft, error)
}

var ErrEmptyResult = errors.New("collaborator returned an empty result")

type searchResponse struct {
	Emails []string `json:"emails"`
}
