package v1

import (
	"founder-connect/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Profile      *handler.ProfileHandler
	Connection   *handler.ConnectionHandler
	Suggestion   *handler.SuggestionHandler
	Notification *handler.NotificationHandler
	Message      *handler.MessageHandler
	Post         *handler.PostHandler
	Chat         *handler.ChatHandler
}

// Register mounts the v1 API. Everything except /auth sits behind auth.
func Register(r fiber.Router, h Handlers, auth fiber.Handler) {
	if r == nil {
		return
	}

	if h.Auth != nil {
		h.Auth.RegisterRoutes(r.Group("/auth"))
	}

	protected := r.Group("", auth)

	if h.Profile != nil {
		h.Profile.RegisterRoutes(protected.Group("/users"))
	}
	if h.Connection != nil {
		h.Connection.RegisterRoutes(protected.Group("/connections"))
	}
	if h.Suggestion != nil {
		h.Suggestion.RegisterRoutes(protected.Group("/suggestions"))
	}
	if h.Notification != nil {
		h.Notification.RegisterRoutes(protected.Group("/notifications"))
	}
	if h.Message != nil {
		h.Message.RegisterRoutes(protected)
	}
	if h.Post != nil {
		h.Post.RegisterRoutes(protected.Group("/posts"))
	}
	if h.Chat != nil {
		h.Chat.RegisterRoutes(protected.Group("/chat"))
	}
}
