package notification

import (
	"context"
	"encoding/json"
	"errors"

	"founder-connect/internal/infrastructure/events"
	"founder-connect/internal/repository"
	"founder-connect/internal/ws"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("notification not found")
	ErrInternal     = errors.New("internal error")
)

// EventNotification is the websocket frame type for new notifications.
const EventNotification = "notification"

type Service struct {
	repo      repository.NotificationRepository
	pusher    ws.Pusher
	publisher events.Publisher
	logger    *zap.Logger
}

func NewService(repo repository.NotificationRepository, pusher ws.Pusher, publisher events.Publisher, logger *zap.Logger) *Service {
	if pusher == nil {
		pusher = ws.NopPusher{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, pusher: pusher, publisher: publisher, logger: logger}
}

// Notify stores a notification for userID and pushes it to the user's live
// connections. Push and publish failures are logged, not returned.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind string, payload any) (repository.Notification, error) {
	if userID == uuid.Nil || kind == "" {
		return repository.Notification{}, ErrInvalidInput
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return repository.Notification{}, ErrInvalidInput
	}
	if payload == nil {
		raw = nil
	}

	n, err := s.repo.Create(ctx, repository.Notification{UserID: userID, Type: kind, Payload: raw})
	if err != nil {
		s.logger.Error("notification create failed", zap.String("user_id", userID.String()), zap.String("type", kind), zap.Error(err))
		return repository.Notification{}, ErrInternal
	}

	if err := s.pusher.Push(userID, EventNotification, n); err != nil {
		s.logger.Warn("notification push failed", zap.String("notification_id", n.ID.String()), zap.Error(err))
	}
	if err := s.publisher.Publish(ctx, events.KeyNotificationCreated, n); err != nil {
		s.logger.Warn("notification publish failed", zap.String("notification_id", n.ID.String()), zap.Error(err))
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]repository.Notification, error) {
	items, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, ErrInternal
	}
	return items, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return ErrNotFound
		}
		return ErrInternal
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, ErrInternal
	}
	return n, nil
}
