package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"founder-connect/internal/domain/user"
	"founder-connect/internal/infrastructure/events"
	mailer "founder-connect/internal/infrastructure/mail"
	"founder-connect/internal/pkg/jwt"
	"founder-connect/internal/usecase/otp"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailNotVerified       = errors.New("email not verified")
	ErrAlreadyVerified        = errors.New("email already verified")
	ErrInvalidOTP             = errors.New("invalid verification code")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidRefreshToken    = errors.New("invalid refresh token")
	ErrRefreshTokenExpired    = errors.New("refresh token expired")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInternal               = errors.New("internal error")
)

const minPasswordLength = 8

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

type LoginInput struct {
	Email    string
	Password string
}

// Session is returned once a user has proven who they are.
type Session struct {
	User   user.User
	Tokens jwt.TokenPair
}

type Service struct {
	users     user.Repository
	otp       *otp.Service
	mailer    mailer.Mailer
	tokens    jwt.Service
	publisher events.Publisher
	logger    *zap.Logger
}

func NewService(users user.Repository, codes *otp.Service, m mailer.Mailer, tokens jwt.Service, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, otp: codes, mailer: m, tokens: tokens, publisher: publisher, logger: logger}
}

// Register creates an unverified account and emails a verification code. A
// failed email is logged only; the user can ask for a new code.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	email, ok := normalizeEmail(in.Email)
	if !ok || !isValidPassword(in.Password) {
		return user.User{}, ErrInvalidInput
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return user.User{}, ErrInvalidInput
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("check email failed", zap.Error(err))
		return user.User{}, ErrInternal
	}
	if exists {
		return user.User{}, ErrEmailAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, ErrInternal
	}

	u := user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         strings.TrimSpace(in.Role),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return user.User{}, ErrEmailAlreadyRegistered
		}
		s.logger.Error("create user failed", zap.Error(err))
		return user.User{}, ErrInternal
	}

	created, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		s.logger.Error("reload user failed", zap.Error(err))
		return user.User{}, ErrInternal
	}

	if err := s.sendCode(ctx, created); err != nil {
		s.logger.Warn("verification email failed", zap.String("user_id", created.ID.String()), zap.Error(err))
	}
	if err := s.publisher.Publish(ctx, events.KeyUserRegistered, map[string]string{"userId": created.ID.String(), "email": created.Email}); err != nil {
		s.logger.Warn("user registered event failed", zap.Error(err))
	}
	return created.Sanitized(), nil
}

// ResendOTP replaces any pending code for email with a new one.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	email, ok := normalizeEmail(email)
	if !ok {
		return ErrInvalidInput
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return ErrInternal
	}
	if u.EmailVerified {
		return ErrAlreadyVerified
	}
	if err := s.sendCode(ctx, u); err != nil {
		s.logger.Error("resend verification email failed", zap.Error(err))
		return ErrInternal
	}
	return nil
}

// VerifyOTP checks the code, marks the email verified and starts a session.
// The otp result is returned with ErrInvalidOTP so callers can show its
// message.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (Session, otp.Result, error) {
	email, ok := normalizeEmail(email)
	if !ok || strings.TrimSpace(code) == "" {
		return Session{}, otp.Result{}, ErrInvalidInput
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, otp.Result{}, ErrUserNotFound
		}
		return Session{}, otp.Result{}, ErrInternal
	}
	if u.EmailVerified {
		return Session{}, otp.Result{}, ErrAlreadyVerified
	}

	res, err := s.otp.Verify(ctx, email, code)
	if err != nil {
		s.logger.Error("verify otp failed", zap.Error(err))
		return Session{}, otp.Result{}, ErrInternal
	}
	if !res.Valid {
		return Session{}, res, ErrInvalidOTP
	}

	if err := s.users.MarkEmailVerified(ctx, email); err != nil {
		s.logger.Error("mark email verified failed", zap.Error(err))
		return Session{}, res, ErrInternal
	}
	u.EmailVerified = true

	if err := s.publisher.Publish(ctx, events.KeyUserVerified, map[string]string{"userId": u.ID.String()}); err != nil {
		s.logger.Warn("user verified event failed", zap.Error(err))
	}

	sess, err := s.session(u)
	return sess, res, err
}

func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	email, ok := normalizeEmail(in.Email)
	if !ok || in.Password == "" {
		return Session{}, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, ErrInternal
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if !u.EmailVerified {
		return Session{}, ErrEmailNotVerified
	}
	return s.session(u)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (jwt.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return jwt.TokenPair{}, ErrInvalidRefreshToken
	}
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return jwt.TokenPair{}, ErrRefreshTokenExpired
		}
		return jwt.TokenPair{}, ErrInvalidRefreshToken
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return jwt.TokenPair{}, ErrInvalidRefreshToken
		}
		return jwt.TokenPair{}, ErrInternal
	}

	pair, err := s.tokens.IssuePair(u.ID, u.Email)
	if err != nil {
		return jwt.TokenPair{}, ErrInternal
	}
	return pair, nil
}

func (s *Service) session(u user.User) (Session, error) {
	pair, err := s.tokens.IssuePair(u.ID, u.Email)
	if err != nil {
		s.logger.Error("issue tokens failed", zap.Error(err))
		return Session{}, ErrInternal
	}
	return Session{User: u.Sanitized(), Tokens: pair}, nil
}

func (s *Service) sendCode(ctx context.Context, u user.User) error {
	code, err := s.otp.Issue(ctx, u.Email)
	if err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}
	return s.mailer.Send(ctx, mailer.Message{
		To:       []string{u.Email},
		Subject:  "Your FounderConnect verification code",
		Body:     verificationBody(u.Name, code, s.otp.TTL()),
		FromName: "FounderConnect",
	})
}

func verificationBody(name, code string, ttl time.Duration) string {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	return fmt.Sprintf("%s,\n\nYour verification code is %s.\nIt expires in %d minutes.\n\nIf you did not sign up, ignore this email.\n",
		greeting, code, int(ttl.Minutes()))
}

func normalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}

func isValidPassword(pw string) bool {
	return len(strings.TrimSpace(pw)) >= minPasswordLength
}
