package handler

import (
	"context"
	"errors"

	"founder-connect/internal/delivery/http/dto"
	"founder-connect/internal/delivery/http/middleware"
	"founder-connect/internal/pkg/response"
	"founder-connect/internal/repository"
	"founder-connect/internal/usecase/message"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type MessageUsecase interface {
	Send(ctx context.Context, from, to uuid.UUID, body string) (repository.Message, error)
	ListConversations(ctx context.Context, me uuid.UUID, limit int) ([]repository.ConversationSummary, error)
	ListMessages(ctx context.Context, me, conversationID uuid.UUID, limit int) ([]repository.Message, error)
}

type MessageHandler struct {
	uc MessageUsecase
}

type sendMessageRequest struct {
	To   uuid.UUID `json:"to"`
	Body string    `json:"body"`
}

func NewMessageHandler(uc MessageUsecase) *MessageHandler {
	return &MessageHandler{uc: uc}
}

func (h *MessageHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/conversations", h.ListConversations)
	r.Get("/conversations/:id/messages", h.ListMessages)
	r.Post("/messages", h.Send)
}

func (h *MessageHandler) ListConversations(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	convs, err := h.uc.ListConversations(c.Context(), me, limit)
	if err != nil {
		return mapMessageError(err)
	}
	return response.OK(c, dto.NewConversationResponses(convs))
}

func (h *MessageHandler) ListMessages(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	convID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	msgs, err := h.uc.ListMessages(c.Context(), me, convID, limit)
	if err != nil {
		return mapMessageError(err)
	}
	return response.OK(c, dto.NewMessageResponses(msgs))
}

func (h *MessageHandler) Send(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	msg, err := h.uc.Send(c.Context(), me, req.To, req.Body)
	if err != nil {
		return mapMessageError(err)
	}
	return response.Created(c, "Message sent", dto.NewMessageResponse(msg))
}

func mapMessageError(err error) error {
	switch {
	case errors.Is(err, message.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, message.ErrUserNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Recipient not found", nil, err)
	case errors.Is(err, message.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Conversation not found", nil, err)
	case errors.Is(err, message.ErrForbidden):
		return middleware.NewAppError(fiber.StatusForbidden, "Forbidden", nil, err)
	default:
		return internalError(err)
	}
}
