package handler

import (
	"context"
	"strings"

	"founder-connect/internal/delivery/http/middleware"
	"founder-connect/internal/domain/activity"
	"founder-connect/internal/pkg/response"
	"founder-connect/internal/usecase/chat"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ChatUsecase interface {
	Route(ctx context.Context, userID uuid.UUID, raw string) chat.Result
	History(ctx context.Context, userID uuid.UUID, limit int) ([]activity.ChatEntry, error)
}

type ChatHandler struct {
	uc ChatUsecase
}

type chatCommandRequest struct {
	Command string `json:"command"`
}

func NewChatHandler(uc ChatUsecase) *ChatHandler {
	return &ChatHandler{uc: uc}
}

func (h *ChatHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/command", h.Command)
	r.Get("/history", h.History)
}

// Command always answers 200; the result action tells the client what
// happened.
func (h *ChatHandler) Command(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req chatCommandRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if strings.TrimSpace(req.Command) == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "Command is required", nil, nil)
	}

	res := h.uc.Route(c.Context(), me, req.Command)
	return response.Success(c, fiber.StatusOK, res.Message, res)
}

func (h *ChatHandler) History(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	entries, err := h.uc.History(c.Context(), me, limit)
	if err != nil {
		return internalError(err)
	}
	return response.OK(c, entries)
}
