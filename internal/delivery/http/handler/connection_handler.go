package handler

import (
	"context"
	"errors"

	"founder-connect/internal/delivery/http/dto"
	"founder-connect/internal/delivery/http/middleware"
	"founder-connect/internal/pkg/response"
	"founder-connect/internal/usecase/connection"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ConnectionUsecase interface {
	SendRequest(ctx context.Context, from, to uuid.UUID) error
	Accept(ctx context.Context, me, from uuid.UUID) error
	Reject(ctx context.Context, me, from uuid.UUID) error
	Disconnect(ctx context.Context, me, other uuid.UUID) error
	Lists(ctx context.Context, me uuid.UUID) (connection.Lists, error)
}

type ConnectionHandler struct {
	uc ConnectionUsecase
}

type connectionRequest struct {
	UserID uuid.UUID `json:"userId"`
}

func NewConnectionHandler(uc ConnectionUsecase) *ConnectionHandler {
	return &ConnectionHandler{uc: uc}
}

func (h *ConnectionHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.List)
	r.Post("/requests", h.SendRequest)
	r.Post("/requests/:id/accept", h.Accept)
	r.Post("/requests/:id/reject", h.Reject)
	r.Delete("/:id", h.Disconnect)
}

func (h *ConnectionHandler) List(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	lists, err := h.uc.Lists(c.Context(), me)
	if err != nil {
		return mapConnectionError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, map[string]any{
		"connections":        dto.NewPublicProfiles(lists.Connections),
		"pendingConnections": dto.NewPublicProfiles(lists.Pending),
		"connectionRequests": dto.NewPublicProfiles(lists.Requests),
	})
}

func (h *ConnectionHandler) SendRequest(c fiber.Ctx) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req connectionRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	if err := h.uc.SendRequest(c.Context(), me, req.UserID); err != nil {
		return mapConnectionError(err)
	}
	return response.Success(c, fiber.StatusOK, "Connection request sent", nil)
}

func (h *ConnectionHandler) Accept(c fiber.Ctx) error {
	return h.withOther(c, h.uc.Accept, "Connection accepted")
}

func (h *ConnectionHandler) Reject(c fiber.Ctx) error {
	return h.withOther(c, h.uc.Reject, "Connection request rejected")
}

func (h *ConnectionHandler) Disconnect(c fiber.Ctx) error {
	return h.withOther(c, h.uc.Disconnect, "Connection removed")
}

func (h *ConnectionHandler) withOther(c fiber.Ctx, op func(ctx context.Context, me, other uuid.UUID) error, msg string) error {
	me, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	other, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := op(c.Context(), me, other); err != nil {
		return mapConnectionError(err)
	}
	return response.Success(c, fiber.StatusOK, msg, nil)
}

func mapConnectionError(err error) error {
	switch {
	case errors.Is(err, connection.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, connection.ErrUserNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "User not found", nil, err)
	case errors.Is(err, connection.ErrRequestNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Connection request not found", nil, err)
	case errors.Is(err, connection.ErrNotConnected):
		return middleware.NewAppError(fiber.StatusNotFound, "Not connected", nil, err)
	case errors.Is(err, connection.ErrAlreadyConnected):
		return middleware.NewAppError(fiber.StatusConflict, "Already connected", nil, err)
	default:
		return internalError(err)
	}
}
