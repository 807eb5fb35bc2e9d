package app

import (
	"context"
	"fmt"
	"strings"

	"founder-connect/internal/config"
	"founder-connect/internal/delivery/http/handler"
	"founder-connect/internal/delivery/http/middleware"
	"founder-connect/internal/delivery/http/routes"
	v1 "founder-connect/internal/delivery/http/routes/v1"
	"founder-connect/internal/metrics"
	"founder-connect/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap connects every backend and builds the HTTP app. The returned
// cleanup closes the container.
func Bootstrap(c *Container) (*App, func() error, error) {
	if c == nil {
		return nil, nil, fmt.Errorf("nil container")
	}
	app := New(c)
	return app, c.Close, nil
}

// StartBackground runs the periodic suggestion notifier until ctx is done.
func (a *App) StartBackground(ctx context.Context) {
	go a.Container.Services.Suggestions.RunNotifier(ctx, config.SuggestionNotifyInterval)
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(c.Logger.Named("http")).Middleware())
	app.Use(metrics.Middleware())

	errMw := middleware.NewErrorMiddleware(c.Logger.Named("http"))
	app.Use(errMw.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	svc := c.Services
	authMw := middleware.NewAuthMiddleware(c.JWT, svc.Profiles)

	registry := routes.NewRegistry(
		handler.NewHealthHandler(healthChecks(c)),
		ws.NewHandler(c.Hub, c.JWT, c.Logger.Named("ws")),
		v1.Handlers{
			Auth:         handler.NewAuthHandler(svc.Auth),
			Profile:      handler.NewProfileHandler(svc.Profiles),
			Connection:   handler.NewConnectionHandler(svc.Connections),
			Suggestion:   handler.NewSuggestionHandler(svc.Suggestions),
			Notification: handler.NewNotificationHandler(svc.Notifications),
			Message:      handler.NewMessageHandler(svc.Messages),
			Post:         handler.NewPostHandler(svc.Posts),
			Chat:         handler.NewChatHandler(svc.Chat),
		},
		authMw.Middleware(),
	)
	registry.Register(app)
}

func healthChecks(c *Container) map[string]handler.Check {
	checks := map[string]handler.Check{}
	if c.DB != nil {
		checks["postgres"] = c.DB.Ping
	}
	if c.Cache != nil {
		checks["cache"] = c.Cache.Ping
	}
	if c.Mongo != nil {
		checks["mongo"] = c.Mongo.Ping
	}
	return checks
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
