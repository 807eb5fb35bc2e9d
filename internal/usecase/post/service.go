package post

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"founder-connect/internal/domain/user"
	"founder-connect/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

const MaxContentLength = 3000

type Service struct {
	posts repository.PostRepository
}

func NewService(posts repository.PostRepository) *Service {
	return &Service{posts: posts}
}

func (s *Service) Create(ctx context.Context, authorID uuid.UUID, content string) (repository.Post, error) {
	content = strings.TrimSpace(content)
	if authorID == uuid.Nil || content == "" || utf8.RuneCountInString(content) > MaxContentLength {
		return repository.Post{}, ErrInvalidInput
	}

	p, err := s.posts.Create(ctx, repository.Post{AuthorID: authorID, Content: content})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return repository.Post{}, ErrInvalidInput
		}
		return repository.Post{}, ErrInternal
	}
	return p, nil
}

// Feed returns posts newest first. before pages backwards from a previous
// page's last created_at.
func (s *Service) Feed(ctx context.Context, before *time.Time, limit int) ([]repository.Post, error) {
	items, err := s.posts.ListFeed(ctx, before, limit)
	if err != nil {
		return nil, ErrInternal
	}
	return items, nil
}

func (s *Service) ByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]repository.Post, error) {
	items, err := s.posts.ListByAuthor(ctx, authorID, limit)
	if err != nil {
		return nil, ErrInternal
	}
	return items, nil
}
