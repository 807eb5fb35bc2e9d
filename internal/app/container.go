package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"founder-connect/internal/config"
	"founder-connect/internal/database"
	"founder-connect/internal/database/migration"
	mongodb "founder-connect/internal/database/mongo"
	dbpostgres "founder-connect/internal/database/postgres"
	"founder-connect/internal/domain/activity"
	"founder-connect/internal/domain/command"
	"founder-connect/internal/domain/user"
	"founder-connect/internal/infrastructure/ai"
	"founder-connect/internal/infrastructure/ai/gemini"
	"founder-connect/internal/infrastructure/ai/openai"
	"founder-connect/internal/infrastructure/cache"
	"founder-connect/internal/infrastructure/events"
	"founder-connect/internal/infrastructure/mail"
	collab "founder-connect/internal/infrastructure/outreach"
	"founder-connect/internal/infrastructure/persistence/memory"
	mongolog "founder-connect/internal/infrastructure/persistence/mongo"
	pgpersist "founder-connect/internal/infrastructure/persistence/postgres"
	"founder-connect/internal/metrics"
	"founder-connect/internal/pkg/jwt"
	"founder-connect/internal/repository"
	"founder-connect/internal/usecase/auth"
	"founder-connect/internal/usecase/chat"
	"founder-connect/internal/usecase/connection"
	"founder-connect/internal/usecase/message"
	"founder-connect/internal/usecase/notification"
	"founder-connect/internal/usecase/otp"
	"founder-connect/internal/usecase/outreach"
	"founder-connect/internal/usecase/post"
	"founder-connect/internal/usecase/suggestion"
	useruc "founder-connect/internal/usecase/user"
	"founder-connect/internal/ws"
	"founder-connect/migrations"

	"go.uber.org/zap"
)

type Services struct {
	Auth          *auth.Service
	Profiles      *useruc.Service
	Connections   *connection.Service
	Suggestions   *suggestion.Service
	Notifications *notification.Service
	Messages      *message.Service
	Posts         *post.Service
	Outreach      *outreach.Service
	Chat          *chat.Router
}

type repositories struct {
	users         user.Repository
	queries       repository.UserQueryRepository
	edges         repository.ConnectionRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	posts         repository.PostRepository
}

// Container owns every long lived dependency. Optional backends fall back
// to in-process implementations when they are not configured.
type Container struct {
	Config    config.Config
	Logger    *zap.Logger
	DB        database.DB
	Mongo     *mongodb.Client
	Cache     cache.Store
	Publisher events.Publisher
	Hub       *ws.Hub
	JWT       jwt.Service
	Services  Services

	// Memory is set when the container runs without Postgres.
	Memory *memory.Store

	closers []func() error
}

func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(connectCtx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Logger: logger, DB: db}
	c.onClose(db.Close)

	if cfg.App.AutoMigrate {
		if err := c.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	repos := repositories{
		users:         pgpersist.NewUserRepository(db),
		queries:       repository.NewPostgresUserQueryRepository(db),
		edges:         repository.NewPostgresConnectionRepository(db),
		conversations: repository.NewPostgresConversationRepository(db),
		messages:      repository.NewPostgresMessageRepository(db),
		notifications: repository.NewPostgresNotificationRepository(db),
		posts:         repository.NewPostgresPostRepository(db),
	}

	c.Cache = c.connectCache(connectCtx)
	activityLog := c.connectActivityLog(connectCtx)
	c.Publisher = c.connectPublisher()

	if err := c.wire(ctx, repos, activityLog); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// NewInMemoryContainer wires the services over process memory. The operator
// REPL and end to end tests use it.
func NewInMemoryContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := memory.NewStore()
	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Memory:    store,
		Cache:     cache.NewMemory(cfg.Redis.TTL),
		Publisher: &events.Recorder{},
	}

	repos := repositories{
		users:         store.Users(),
		queries:       store.Users(),
		edges:         store.Connections(),
		conversations: store.Conversations(),
		messages:      store.Messages(),
		notifications: store.Notifications(),
		posts:         store.Posts(),
	}
	if err := c.wire(ctx, repos, memory.NewActivityLog()); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) wire(ctx context.Context, repos repositories, activityLog activity.Log) error {
	cfg := c.Config

	c.JWT = jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessExpiresIn, cfg.JWT.RefreshExpiresIn)

	c.Hub = ws.NewHub(c.Logger.Named("ws"))
	c.Hub.OnClientCount(metrics.SetWSClients)
	go c.Hub.Run()
	c.onClose(func() error {
		c.Hub.Stop()
		return nil
	})

	generator, err := newGenerator(ctx, cfg.AI, c.Logger)
	if err != nil {
		return err
	}

	mailer := mail.New(cfg.SMTP, c.Logger.Named("mail"))
	codes := otp.NewService(c.Cache, cfg.OTP)

	notifications := notification.NewService(repos.notifications, c.Hub, c.Publisher, c.Logger.Named("notifications"))
	connections := connection.NewService(repos.users, repos.edges, notifications, c.Publisher, activityLog, c.Logger.Named("connections"))
	messages := message.NewService(repos.users, repos.conversations, repos.messages, notifications, c.Publisher, activityLog, c.Logger.Named("messages"))
	outreachSvc := outreach.NewService(
		newCollaborator(cfg.Outreach, c.Logger),
		mailer,
		c.Publisher,
		activityLog,
		outreach.Options{Workers: cfg.Outreach.Workers, RatePerSec: cfg.Outreach.RatePerSec},
		c.Logger.Named("outreach"),
	)

	c.Services = Services{
		Auth:          auth.NewService(repos.users, codes, mailer, c.JWT, c.Publisher, c.Logger.Named("auth")),
		Profiles:      useruc.NewService(repos.users, c.Cache, c.Logger.Named("profiles")),
		Connections:   connections,
		Suggestions:   suggestion.NewService(repos.users, repos.queries, repos.edges, repos.notifications, notifications, c.Cache, c.Logger.Named("suggestions")),
		Notifications: notifications,
		Messages:      messages,
		Posts:         post.NewService(repos.posts),
		Outreach:      outreachSvc,
		Chat: chat.NewRouter(chat.Deps{
			Parser:      command.DefaultParser(),
			Users:       repos.users,
			Queries:     repos.queries,
			Connections: connections,
			Messages:    messages,
			Outreach:    outreachSvc,
			Generator:   generator,
			Log:         activityLog,
			AITimeout:   cfg.AI.Timeout,
			Logger:      c.Logger.Named("chat"),
		}),
	}
	return nil
}

// Migrate applies the embedded schema.
func (c *Container) Migrate(ctx context.Context) error {
	if c.DB == nil {
		return errors.New("migrations need a postgres connection")
	}
	r := migration.Runner{FS: migrations.FS, Logger: c.Logger.Named("migrate")}
	if dir := strings.TrimSpace(c.Config.App.MigrationsDir); dir != "" && dir != "migrations" {
		r = migration.Runner{Dir: dir, Logger: c.Logger.Named("migrate")}
	}
	if err := r.Run(ctx, c.DB.SQLDB()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// connectCache prefers Redis and falls back to process memory when the
// server cannot be reached.
func (c *Container) connectCache(ctx context.Context) cache.Store {
	r := cache.NewRedis(ctx, c.Config.Redis, c.Logger.Named("redis"))
	if r.Available() {
		c.onClose(r.Close)
		return r
	}
	c.Logger.Warn("using in-memory cache")
	return cache.NewMemory(c.Config.Redis.TTL)
}

func (c *Container) connectActivityLog(ctx context.Context) activity.Log {
	client, err := mongodb.Connect(ctx, c.Config.Mongo, c.Logger.Named("mongo"))
	if err != nil {
		if !errors.Is(err, mongodb.ErrNotConfigured) {
			c.Logger.Warn("mongo unavailable, using in-memory activity log", zap.Error(err))
		}
		return memory.NewActivityLog()
	}
	c.Mongo = client
	c.onClose(client.Close)

	log := mongolog.NewActivityLog(client.Database())
	if err := log.EnsureIndexes(ctx); err != nil {
		c.Logger.Warn("mongo index creation failed", zap.Error(err))
	}
	return log
}

func (c *Container) connectPublisher() events.Publisher {
	uri := strings.TrimSpace(c.Config.RabbitMQ.URI)
	if uri == "" {
		return events.NopPublisher{}
	}
	p, err := events.NewAMQPPublisher(uri, c.Config.RabbitMQ.Exchange, c.Logger.Named("rabbitmq"))
	if err != nil {
		c.Logger.Warn("rabbitmq unavailable, events disabled", zap.Error(err))
		return events.NopPublisher{}
	}
	c.onClose(p.Close)
	return p
}

func newGenerator(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (ai.Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Warn("no ai api key configured, text generation disabled")
		return ai.Disabled{}, nil
	}

	switch cfg.Provider {
	case "", "gemini":
		g, err := gemini.NewGenerator(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		g, err := openai.New(openai.Options{
			Provider: cfg.Provider,
			BaseURL:  cfg.BaseURL,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("ai provider %s: %w", cfg.Provider, err)
		}
		return g, nil
	}
}

// newCollaborator picks the HTTP collaborator when a base URL is set, then
// the local script. A nil result makes outreach use its fallbacks.
func newCollaborator(cfg config.OutreachConfig, logger *zap.Logger) collab.Collaborator {
	if h := collab.NewHTTPCollaborator(cfg.BaseURL, cfg.Timeout, logger.Named("outreach")); h != nil {
		return h
	}
	if strings.TrimSpace(cfg.Script) == "" {
		return nil
	}
	p, err := collab.NewProcessCollaborator(cfg.Interpreter, cfg.Script, cfg.Timeout, logger.Named("outreach"))
	if err != nil {
		logger.Warn("outreach script unavailable", zap.Error(err))
		return nil
	}
	return p
}

func (c *Container) onClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
