package handler

import (
	"context"
	"errors"

	"founder-connect/internal/delivery/http/middleware"
	"founder-connect/internal/pkg/response"
	"founder-connect/internal/repository"
	"founder-connect/internal/usecase/notification"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type NotificationUsecase interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]repository.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type NotificationHandler struct {
	uc NotificationUsecase
}

func NewNotificationHandler(uc NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

func (h *NotificationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.List)
	r.Patch("/read-all", h.MarkAllRead)
	r.Patch("/:id/read", h.MarkRead)
}

func (h *NotificationHandler) List(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	items, err := h.uc.List(c.Context(), me, queryBool(c, "unread"), limit)
	if err != nil {
		return mapNotificationError(err)
	}
	return response.OK(c, items)
}

func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.MarkRead(c.Context(), me, id); err != nil {
		return mapNotificationError(err)
	}
	return response.OK(c, nil)
}

func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	n, err := h.uc.MarkAllRead(c.Context(), me)
	if err != nil {
		return mapNotificationError(err)
	}
	return response.OK(c, map[string]int64{"updated": n})
}

func mapNotificationError(err error) error {
	switch {
	case errors.Is(err, notification.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, notification.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Notification not found", nil, err)
	default:
		return internalError(err)
	}
}
