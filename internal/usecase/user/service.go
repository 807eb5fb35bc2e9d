package user

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"founder-connect/internal/domain/user"
	"founder-connect/internal/infrastructure/cache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("user not found")
	ErrInternal     = errors.New("internal error")
)

const (
	maxNameLength  = 100
	maxBioLength   = 2000
	maxTitleLength = 150
	maxListItems   = 20

	// activity touches are written at most once per window per user
	activityWindow = time.Minute
	activityPrefix = "active:"
)

type UpdateMeInput struct {
	Name   *string
	Role   *string
	Title  *string
	Bio    *string
	Avatar *string
	Tags   []string
	Skills []string
}

type Service struct {
	users  user.Repository
	cache  cache.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewService(users user.Repository, store cache.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, cache: store, logger: logger, now: time.Now}
}

func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (user.User, error) {
	return s.GetByID(ctx, userID)
}

func (s *Service) GetByID(ctx context.Context, userID uuid.UUID) (user.User, error) {
	usr, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrNotFound
		}
		return user.User{}, ErrInternal
	}
	return usr.Sanitized(), nil
}

func (s *Service) UpdateMe(ctx context.Context, userID uuid.UUID, in UpdateMeInput) (user.User, error) {
	upd, err := normalizeUpdate(in)
	if err != nil {
		return user.User{}, err
	}

	usr, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrNotFound
		}
		return user.User{}, ErrInternal
	}
	return usr.Sanitized(), nil
}

// TouchActive records activity for userID, throttled through the cache so a
// burst of requests costs one write.
func (s *Service) TouchActive(ctx context.Context, userID uuid.UUID) {
	if userID == uuid.Nil {
		return
	}
	if s.cache != nil {
		ok, err := s.cache.SetIfNotExists(ctx, activityPrefix+userID.String(), "1", activityWindow)
		if err == nil && !ok {
			return
		}
	}
	if err := s.users.TouchLastActive(ctx, userID, s.now()); err != nil && !errors.Is(err, user.ErrNotFound) {
		s.logger.Warn("touch last active failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func normalizeUpdate(in UpdateMeInput) (user.ProfileUpdate, error) {
	var out user.ProfileUpdate

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || utf8.RuneCountInString(name) > maxNameLength {
			return user.ProfileUpdate{}, ErrInvalidInput
		}
		out.Name = &name
	}
	if in.Role != nil {
		role := strings.TrimSpace(*in.Role)
		out.Role = &role
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if utf8.RuneCountInString(title) > maxTitleLength {
			return user.ProfileUpdate{}, ErrInvalidInput
		}
		out.Title = &title
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(bio) > maxBioLength {
			return user.ProfileUpdate{}, ErrInvalidInput
		}
		out.Bio = &bio
	}
	if in.Avatar != nil {
		avatar := strings.TrimSpace(*in.Avatar)
		out.Avatar = &avatar
	}
	if in.Tags != nil {
		tags, err := normalizeList(in.Tags)
		if err != nil {
			return user.ProfileUpdate{}, err
		}
		out.Tags = tags
	}
	if in.Skills != nil {
		skills, err := normalizeList(in.Skills)
		if err != nil {
			return user.ProfileUpdate{}, err
		}
		out.Skills = skills
	}

	if out.Name == nil && out.Role == nil && out.Title == nil && out.Bio == nil &&
		out.Avatar == nil && out.Tags == nil && out.Skills == nil {
		return user.ProfileUpdate{}, ErrInvalidInput
	}
	return out, nil
}

// normalizeList trims entries and drops blanks and case-insensitive
// duplicates, keeping first occurrence.
func normalizeList(items []string) ([]string, error) {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		k := strings.ToLower(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	if len(out) > maxListItems {
		return nil, ErrInvalidInput
	}
	return out, nil
}
