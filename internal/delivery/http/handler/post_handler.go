package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"founder-connect/internal/delivery/http/dto"
	"founder-connect/internal/delivery/http/middleware"
	"founder-connect/internal/pkg/response"
	"founder-connect/internal/repository"
	"founder-connect/internal/usecase/post"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type PostUsecase interface {
	Create(ctx context.Context, authorID uuid.UUID, content string) (repository.Post, error)
	Feed(ctx context.Context, before *time.Time, limit int) ([]repository.Post, error)
	ByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]repository.Post, error)
}

type PostHandler struct {
	uc PostUsecase
}

type createPostRequest struct {
	Content string `json:"content"`
}

func NewPostHandler(uc PostUsecase) *PostHandler {
	return &PostHandler{uc: uc}
}

func (h *PostHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.Feed)
	r.Post("/", h.Create)
	r.Get("/by/:id", h.ByAuthor)
}

func (h *PostHandler) Create(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req createPostRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	p, err := h.uc.Create(c.Context(), me, req.Content)
	if err != nil {
		return mapPostError(err)
	}
	return response.Created(c, "Post created", dto.NewPostResponse(p))
}

// Feed pages backwards from the optional RFC3339 before cursor.
func (h *PostHandler) Feed(c fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	var before *time.Time
	if raw := strings.TrimSpace(c.Query("before")); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid before", nil, err)
		}
		before = &t
	}

	posts, err := h.uc.Feed(c.Context(), before, limit)
	if err != nil {
		return mapPostError(err)
	}
	return response.OK(c, dto.NewPostResponses(posts))
}

func (h *PostHandler) ByAuthor(c fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	posts, err := h.uc.ByAuthor(c.Context(), id, limit)
	if err != nil {
		return mapPostError(err)
	}
	return response.OK(c, dto.NewPostResponses(posts))
}

func mapPostError(err error) error {
	if errors.Is(err, post.ErrInvalidInput) {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	return internalError(err)
}
