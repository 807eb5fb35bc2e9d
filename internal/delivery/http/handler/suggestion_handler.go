package handler

import (
	"context"

	"founder-connect/internal/delivery/http/dto"
	"founder-connect/internal/delivery/http/middleware"
	"founder-connect/internal/pkg/response"
	"founder-connect/internal/usecase/suggestion"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type SuggestionUsecase interface {
	Suggest(ctx context.Context, userID uuid.UUID, limit int) []suggestion.Suggestion
	NotifySuggestions(ctx context.Context, userID uuid.UUID) (bool, error)
}

type SuggestionHandler struct {
	uc SuggestionUsecase
}

func NewSuggestionHandler(uc SuggestionUsecase) *SuggestionHandler {
	return &SuggestionHandler{uc: uc}
}

func (h *SuggestionHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.List)
	r.Post("/notify", h.Notify)
}

func (h *SuggestionHandler) List(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	out := h.uc.Suggest(c.Context(), me, limit)
	return response.OK(c, dto.NewSuggestionResponses(out))
}

// Notify stores a suggestions notification unless one was sent in the last
// day.
func (h *SuggestionHandler) Notify(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	sent, err := h.uc.NotifySuggestions(c.Context(), me)
	if err != nil {
		return internalError(err)
	}
	return response.OK(c, map[string]bool{"sent": sent})
}
