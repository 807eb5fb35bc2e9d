package handler

import (
	"context"
	"errors"

	"founder-connect/internal/delivery/http/dto"
	"founder-connect/internal/delivery/http/middleware"
	"founder-connect/internal/domain/user"
	"founder-connect/internal/pkg/response"
	useruc "founder-connect/internal/usecase/user"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ProfileUsecase interface {
	GetMe(ctx context.Context, userID uuid.UUID) (user.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (user.User, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, in useruc.UpdateMeInput) (user.User, error)
}

type ProfileHandler struct {
	uc ProfileUsecase
}

type updateProfileRequest struct {
	Name   *string  `json:"name"`
	Role   *string  `json:"role"`
	Title  *string  `json:"title"`
	Bio    *string  `json:"bio"`
	Avatar *string  `json:"avatar"`
	Tags   []string `json:"tags"`
	Skills []string `json:"skills"`
}

func (r updateProfileRequest) empty() bool {
	return r.Name == nil && r.Role == nil && r.Title == nil && r.Bio == nil && r.Avatar == nil &&
		r.Tags == nil && r.Skills == nil
}

func NewProfileHandler(uc ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

func (h *ProfileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/me", h.GetMe)
	r.Put("/me", h.UpdateMe)
	r.Get("/:id", h.GetByID)
}

func (h *ProfileHandler) GetMe(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	u, err := h.uc.GetMe(c.Context(), userID)
	if err != nil {
		return mapProfileError(err)
	}
	return response.OK(c, dto.NewUserProfileResponse(u))
}

func (h *ProfileHandler) GetByID(c fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	u, err := h.uc.GetByID(c.Context(), id)
	if err != nil {
		return mapProfileError(err)
	}
	return response.OK(c, dto.NewPublicProfile(u))
}

func (h *ProfileHandler) UpdateMe(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	if req.empty() {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, nil)
	}

	u, err := h.uc.UpdateMe(c.Context(), userID, useruc.UpdateMeInput{
		Name:   req.Name,
		Role:   req.Role,
		Title:  req.Title,
		Bio:    req.Bio,
		Avatar: req.Avatar,
		Tags:   req.Tags,
		Skills: req.Skills,
	})
	if err != nil {
		return mapProfileError(err)
	}
	return response.OK(c, dto.NewUserProfileResponse(u))
}

func mapProfileError(err error) error {
	switch {
	case errors.Is(err, useruc.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	case errors.Is(err, useruc.ErrNotFound), errors.Is(err, user.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "User not found", nil, err)
	default:
		return internalError(err)
	}
}
