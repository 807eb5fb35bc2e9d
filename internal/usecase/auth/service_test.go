package auth

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"founder-connect/internal/config"
	"founder-connect/internal/infrastructure/cache"
	"founder-connect/internal/infrastructure/events"
	mailer "founder-connect/internal/infrastructure/mail"
	"founder-connect/internal/infrastructure/persistence/memory"
	"founder-connect/internal/pkg/jwt"
	"founder-connect/internal/usecase/otp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	code := codePattern.FindString(m.sent[len(m.sent)-1].Body)
	require.NotEmpty(t, code)
	return code
}

type fixture struct {
	svc    *Service
	mail   *captureMailer
	rec    *events.Recorder
	tokens *jwt.HMACService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	codes := otp.NewService(cache.NewMemory(time.Minute), config.OTPConfig{TTL: 10 * time.Minute, MaxAttempts: 5})
	m := &captureMailer{}
	rec := &events.Recorder{}
	tokens := jwt.NewHMACService("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	return fixture{
		svc:    NewService(store.Users(), codes, m, tokens, rec, nil),
		mail:   m,
		rec:    rec,
		tokens: tokens,
	}
}

func register(t *testing.T, f fixture) {
	t.Helper()
	_, err := f.svc.Register(context.Background(), RegisterInput{Email: " Ada@Example.com ", Password: "password123", Name: "Ada", Role: "founder"})
	require.NoError(t, err)
}

func TestRegisterVerifyLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u, err := f.svc.Register(ctx, RegisterInput{Email: "Ada@Example.com", Password: "password123", Name: "Ada", Role: "founder"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Empty(t, u.PasswordHash)
	assert.False(t, u.EmailVerified)
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, f.mail.sent[0].To)
	assert.Contains(t, f.mail.sent[0].Body, "10 minutes")

	_, err = f.svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	sess, res, err := f.svc.VerifyOTP(ctx, "ada@example.com", f.mail.lastCode(t))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, sess.User.EmailVerified)
	assert.NotEmpty(t, sess.Tokens.AccessToken)

	sess, err = f.svc.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.User.ID)

	keys := []string{}
	for _, e := range f.rec.Events() {
		keys = append(keys, e.RoutingKey)
	}
	assert.Equal(t, []string{events.KeyUserRegistered, events.KeyUserVerified}, keys)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "bad email", in: RegisterInput{Email: "nope", Password: "password123", Name: "Ada"}},
		{name: "short password", in: RegisterInput{Email: "a@example.com", Password: "short", Name: "Ada"}},
		{name: "missing name", in: RegisterInput{Email: "a@example.com", Password: "password123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	register(t, f)
	_, err := f.svc.Register(context.Background(), RegisterInput{Email: "ada@example.com", Password: "password123", Name: "Ada"})
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	f := newFixture(t)
	register(t, f)

	code := f.mail.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, res, err := f.svc.VerifyOTP(context.Background(), "ada@example.com", wrong)
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.Equal(t, otp.MessageMismatch, res.Message)
}

func TestResendOTP(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	register(t, f)

	require.NoError(t, f.svc.ResendOTP(ctx, "ada@example.com"))
	assert.Len(t, f.mail.sent, 2)

	_, _, err := f.svc.VerifyOTP(ctx, "ada@example.com", f.mail.lastCode(t))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.ResendOTP(ctx, "ada@example.com"), ErrAlreadyVerified)
	assert.ErrorIs(t, f.svc.ResendOTP(ctx, "ghost@example.com"), ErrUserNotFound)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	register(t, f)
	_, err := f.svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	register(t, f)
	sess, _, err := f.svc.VerifyOTP(ctx, "ada@example.com", f.mail.lastCode(t))
	require.NoError(t, err)

	pair, err := f.svc.Refresh(ctx, sess.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	_, err = f.svc.Refresh(ctx, sess.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = f.svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}
