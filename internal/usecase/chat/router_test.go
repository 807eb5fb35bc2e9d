package chat

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"founder-connect/internal/domain/user"
	"founder-connect/internal/infrastructure/ai"
	"founder-connect/internal/infrastructure/persistence/memory"
	"founder-connect/internal/repository"
	"founder-connect/internal/usecase/connection"
	"founder-connect/internal/usecase/message"
	"founder-connect/internal/usecase/notification"
	"founder-connect/internal/usecase/outreach"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	out   string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(context.Context, string, string) (string, error) {
	g.calls++
	return g.out, g.err
}

type fakeOutreach struct {
	got *outreach.Request
}

func (f *fakeOutreach) Run(_ context.Context, req outreach.Request) (outreach.Report, error) {
	f.got = &req
	return outreach.Report{Topic: req.Topic, Recipients: 2, Sent: []string{"a@x.example", "b@x.example"}}, nil
}

type fixture struct {
	store    *memory.Store
	log      *memory.ActivityLog
	gen      *fakeGenerator
	outreach *fakeOutreach
	router   *Router
	me       user.User
	jane     user.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	log := memory.NewActivityLog()
	notifier := notification.NewService(store.Notifications(), nil, nil, nil)
	conns := connection.NewService(store.Users(), store.Connections(), notifier, nil, log, nil)
	msgs := message.NewService(store.Users(), store.Conversations(), store.Messages(), notifier, nil, log, nil)
	gen := &fakeGenerator{out: "generated text"}
	out := &fakeOutreach{}

	f := fixture{
		store:    store,
		log:      log,
		gen:      gen,
		outreach: out,
		router: NewRouter(Deps{
			Users:       store.Users(),
			Queries:     store.Users(),
			Connections: conns,
			Messages:    msgs,
			Outreach:    out,
			Generator:   gen,
			Log:         log,
		}),
	}
	f.me = f.addUser(t, "Ada Lovelace", "founder", "Original bio")
	f.jane = f.addUser(t, "Jane Doe", "investor", "")
	f.addUser(t, "Bob Stone", "developer", "")
	return f
}

func (f fixture) addUser(t *testing.T, name, role, bio string) user.User {
	t.Helper()
	u := user.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Name: name, Role: role, Bio: bio}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f fixture) bioOf(t *testing.T, id uuid.UUID) string {
	t.Helper()
	u, err := f.store.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return u.Bio
}

func TestRoute_ConnectRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res := f.router.Route(ctx, f.me.ID, "@connect me with Jane")
	require.Equal(t, ActionConnect, res.Action, res.Message)

	pending, err := f.store.Connections().ListEdges(ctx, f.me.ID, repository.EdgePending)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.jane.ID}, pending)

	requests, err := f.store.Connections().ListEdges(ctx, f.jane.ID, repository.EdgeRequest)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.me.ID}, requests)

	notes, err := f.store.Notifications().ListByUser(ctx, f.jane.ID, false, 0)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestRoute_ConnectRequestRepeatNotifiesAgain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.router.Route(ctx, f.me.ID, "@connect me with Jane")
	res := f.router.Route(ctx, f.me.ID, "@connect me with Jane")
	require.Equal(t, ActionConnect, res.Action)

	pending, err := f.store.Connections().ListEdges(ctx, f.me.ID, repository.EdgePending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	notes, err := f.store.Notifications().ListByUser(ctx, f.jane.ID, false, 0)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestRoute_ConnectNoCandidates(t *testing.T) {
	f := newFixture(t)
	res := f.router.Route(context.Background(), f.me.ID, "@connect me with astronauts")
	assert.Equal(t, ActionNone, res.Action)
}

func TestRoute_UnknownCommandMutatesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res := f.router.Route(ctx, f.me.ID, "@unknown gibberish")
	assert.Equal(t, ActionNone, res.Action)
	assert.Contains(t, res.Message, "@find")

	assert.Equal(t, "Original bio", f.bioOf(t, f.me.ID))
	assert.Zero(t, f.gen.calls)
	assert.Nil(t, f.outreach.got)

	pending, err := f.store.Connections().ListEdges(ctx, f.me.ID, repository.EdgePending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	history, err := f.router.History(ctx, f.me.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "none", history[0].Intent)
}

func TestRoute_PlainTextIsNone(t *testing.T) {
	f := newFixture(t)
	res := f.router.Route(context.Background(), f.me.ID, "hello there")
	assert.Equal(t, ActionNone, res.Action)
}

func TestRoute_OutreachDefaults(t *testing.T) {
	f := newFixture(t)

	res := f.router.Route(context.Background(), f.me.ID, "@outreach topic: testing summary: hello")
	require.Equal(t, "outreach", res.Action)
	require.NotNil(t, f.outreach.got)
	assert.Equal(t, 10, f.outreach.got.Max)
	assert.Equal(t, "testing", f.outreach.got.Topic)
	assert.Equal(t, "hello", f.outreach.got.Summary)
	assert.Equal(t, f.me.Name, f.outreach.got.FromName)
	assert.Equal(t, f.me.Email, f.outreach.got.FromEmail)
	assert.Equal(t, "Outreach sent to 2 of 2 contacts.", res.Message)
}

func TestRoute_OutreachSenderEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  func(f fixture) string
	}{
		{
			name:  "valid address kept",
			input: "@outreach topic: fintech fromEmail: me@x.io",
			want:  func(fixture) string { return "me@x.io" },
		},
		{
			name:  "header lines after the address dropped",
			input: "@outreach topic: fintech fromEmail: me@x.io\nBcc: victim@evil.example",
			want:  func(fixture) string { return "me@x.io" },
		},
		{
			name:  "invalid address falls back to own email",
			input: "@outreach topic: fintech fromEmail: not-an-address",
			want:  func(f fixture) string { return f.me.Email },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res := f.router.Route(context.Background(), f.me.ID, tt.input)
			require.Equal(t, "outreach", res.Action, res.Message)
			require.NotNil(t, f.outreach.got)
			assert.Equal(t, tt.want(f), f.outreach.got.FromEmail)
			assert.NotContains(t, f.outreach.got.FromEmail, "\n")
		})
	}
}

func TestRoute_OutreachWithoutTopic(t *testing.T) {
	f := newFixture(t)
	res := f.router.Route(context.Background(), f.me.ID, "@outreach summary: hello")
	assert.Equal(t, ActionNone, res.Action)
	assert.Nil(t, f.outreach.got)
}

func TestRoute_BioUpdateIsVerbatim(t *testing.T) {
	f := newFixture(t)

	res := f.router.Route(context.Background(), f.me.ID, "@update my bio with Building rockets, one bolt at a time.")
	require.Equal(t, "bio-update", res.Action)
	assert.Equal(t, "Building rockets, one bolt at a time.", f.bioOf(t, f.me.ID))
	assert.Zero(t, f.gen.calls)
}

func TestRoute_BioGenerationPersists(t *testing.T) {
	f := newFixture(t)
	f.gen.out = "  A fresh bio.  "

	res := f.router.Route(context.Background(), f.me.ID, "@generate bio about climate tech")
	require.Equal(t, "bio-generation", res.Action)
	assert.Equal(t, "A fresh bio.", f.bioOf(t, f.me.ID))
	assert.Equal(t, map[string]string{"bio": "A fresh bio."}, res.Data)
}

func TestRoute_BioAndPost(t *testing.T) {
	f := newFixture(t)

	res := f.router.Route(context.Background(), f.me.ID, "@generate bio about fintech and post about fundraising")
	require.Equal(t, "bio-and-post", res.Action)
	assert.Equal(t, 2, f.gen.calls)
	assert.Equal(t, "Original bio", f.bioOf(t, f.me.ID))
}

func TestRoute_GenerationFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "rate limit", err: &ai.StatusError{Provider: "gemini", StatusCode: http.StatusTooManyRequests}, want: "busy"},
		{name: "auth", err: &ai.StatusError{Provider: "gemini", StatusCode: http.StatusUnauthorized}, want: "credentials"},
		{name: "timeout", err: context.DeadlineExceeded, want: "too long"},
		{name: "disabled", err: ai.ErrDisabled, want: "not configured"},
		{name: "generic", err: errors.New("boom"), want: "could not generate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.gen.err = tt.err

			res := f.router.Route(context.Background(), f.me.ID, "@refresh my bio")
			assert.Equal(t, ActionError, res.Action)
			assert.Contains(t, res.Message, tt.want)
			assert.Equal(t, "Original bio", f.bioOf(t, f.me.ID))
		})
	}
}

func TestRoute_SendMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res := f.router.Route(ctx, f.me.ID, "@send a message to Jane saying hi there")
	require.Equal(t, "send-message", res.Action, res.Message)

	convs, err := f.store.Conversations().ListForUser(ctx, f.jane.ID, 0)
	require.NoError(t, err)
	require.Len(t, convs, 1)

	msgs, err := f.store.Messages().ListByConversation(ctx, convs[0].ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi there", msgs[0].Body)
}

func TestRoute_SendMessageUnknownRecipient(t *testing.T) {
	f := newFixture(t)
	res := f.router.Route(context.Background(), f.me.ID, "@send a message to Zed saying hi")
	assert.Equal(t, ActionNone, res.Action)
}

func TestRoute_SearchAndProfile(t *testing.T) {
	f := newFixture(t)

	res := f.router.Route(context.Background(), f.me.ID, "@find investor")
	require.Equal(t, "search-profiles", res.Action)
	data := res.Data.(map[string]any)
	profiles := data["profiles"].([]ProfileCard)
	require.Len(t, profiles, 1)
	assert.Equal(t, f.jane.ID, profiles[0].ID)

	res = f.router.Route(context.Background(), f.me.ID, "@profile of Jane")
	require.Equal(t, "profile-display", res.Action)
	card := res.Data.(map[string]any)["profile"].(ProfileCard)
	assert.Equal(t, "Jane Doe", card.Name)
}

func TestRoute_UnknownRequester(t *testing.T) {
	f := newFixture(t)
	res := f.router.Route(context.Background(), uuid.New(), "@find investor")
	assert.Equal(t, ActionError, res.Action)
}
