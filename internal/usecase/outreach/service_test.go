package outreach

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"founder-connect/internal/infrastructure/events"
	mailer "founder-connect/internal/infrastructure/mail"
	collab "founder-connect/internal/infrastructure/outreach"
	"founder-connect/internal/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollaborator struct {
	emails    []string
	searchErr error
	draft     collab.Draft
	draftErr  error
	gotLimit  int
}

func (f *fakeCollaborator) SearchEmails(_ context.Context, _ string, limit int) ([]string, error) {
	f.gotLimit = limit
	return f.emails, f.searchErr
}

func (f *fakeCollaborator) DraftEmail(context.Context, collab.DraftRequest) (collab.Draft, error) {
	return f.draft, f.draftErr
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []mailer.Message
	failTo string
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.To[0] == m.failTo {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestRun_UsesCollaborator(t *testing.T) {
	c := &fakeCollaborator{
		emails: []string{"a@vc.example", "A@vc.example", "not-an-email", "b@vc.example"},
		draft:  collab.Draft{Subject: "Intro", Body: "Hello"},
	}
	m := &fakeMailer{failTo: "b@vc.example"}
	rec := &events.Recorder{}
	log := memory.NewActivityLog()
	svc := NewService(c, m, rec, log, Options{Workers: 2}, nil)

	rep, err := svc.Run(context.Background(), Request{UserID: "u1", Topic: "fintech", FromName: "Ada", FromEmail: "ada@example.com"})
	require.NoError(t, err)

	assert.Equal(t, 10, c.gotLimit)
	assert.Equal(t, "Intro", rep.Subject)
	assert.False(t, rep.FallbackContacts)
	assert.False(t, rep.FallbackTemplate)
	assert.Equal(t, 2, rep.Recipients)
	assert.Equal(t, []string{"a@vc.example"}, rep.Sent)
	require.Len(t, rep.Failed, 1)
	assert.Equal(t, "b@vc.example", rep.Failed[0].Email)

	require.Len(t, m.sent, 1)
	assert.Equal(t, "ada@example.com", m.sent[0].ReplyTo)

	entries, err := log.Interactions(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Len(t, rec.Events(), 1)
}

func TestRun_FallsBackWhenCollaboratorFails(t *testing.T) {
	c := &fakeCollaborator{searchErr: errors.New("script missing"), draftErr: errors.New("script missing")}
	m := &fakeMailer{}
	svc := NewService(c, m, nil, nil, Options{}, nil)

	rep, err := svc.Run(context.Background(), Request{Topic: "testing", Summary: "hello", Max: 3, FromName: "Ada"})
	require.NoError(t, err)
	assert.True(t, rep.FallbackContacts)
	assert.True(t, rep.FallbackTemplate)
	assert.Len(t, rep.Sent, 3)
	assert.Empty(t, rep.Failed)
	assert.True(t, strings.Contains(m.sent[0].Body, "hello"))
	assert.Equal(t, "Ada: testing", rep.Subject)
}

func TestRun_NilCollaborator(t *testing.T) {
	svc := NewService(nil, &fakeMailer{}, nil, nil, Options{}, nil)
	rep, err := svc.Run(context.Background(), Request{Topic: "testing"})
	require.NoError(t, err)
	assert.Len(t, rep.Sent, 10)
	assert.True(t, rep.FallbackTemplate)
}

func TestRun_RequiresTopic(t *testing.T) {
	svc := NewService(nil, &fakeMailer{}, nil, nil, Options{}, nil)
	_, err := svc.Run(context.Background(), Request{Topic: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClampMax(t *testing.T) {
	assert.Equal(t, 10, clampMax(0))
	assert.Equal(t, 1, clampMax(-4))
	assert.Equal(t, 50, clampMax(500))
	assert.Equal(t, 7, clampMax(7))
}

func TestRun_DropsInvalidReplyAddress(t *testing.T) {
	c := &fakeCollaborator{emails: []string{"a@vc.example"}, draft: collab.Draft{Subject: "Intro", Body: "Hello"}}
	m := &fakeMailer{}
	svc := NewService(c, m, nil, nil, Options{Workers: 1}, nil)

	_, err := svc.Run(context.Background(), Request{
		Topic:     "fintech",
		FromName:  "Ada\r\nBcc: victim@evil.example",
		FromEmail: "me@x.io\nBcc: victim@evil.example",
	})
	require.NoError(t, err)

	require.Len(t, m.sent, 1)
	assert.Empty(t, m.sent[0].ReplyTo)
	assert.Empty(t, m.sent[0].FromEmail)
	assert.NotContains(t, m.sent[0].FromName, "\n")
}
