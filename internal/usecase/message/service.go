package message

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"founder-connect/internal/domain/activity"
	"founder-connect/internal/domain/user"
	"founder-connect/internal/infrastructure/events"
	"founder-connect/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUserNotFound = errors.New("recipient not found")
	ErrNotFound     = errors.New("conversation not found")
	ErrForbidden    = errors.New("not a participant")
	ErrInternal     = errors.New("internal error")
)

const (
	MaxBodyLength = 5000
	previewLength = 80
)

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, payload any) (repository.Notification, error)
}

// Payload is stored with message notifications.
type Payload struct {
	ConversationID uuid.UUID `json:"conversationId"`
	MessageID      uuid.UUID `json:"messageId"`
	FromUserID     uuid.UUID `json:"fromUserId"`
	FromName       string    `json:"fromName"`
	Preview        string    `json:"preview"`
}

type Service struct {
	users         user.Repository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	notifier      Notifier
	publisher     events.Publisher
	log           activity.Log
	logger        *zap.Logger
	now           func() time.Time
}

func NewService(
	users user.Repository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	notifier Notifier,
	publisher events.Publisher,
	log activity.Log,
	logger *zap.Logger,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:         users,
		conversations: conversations,
		messages:      messages,
		notifier:      notifier,
		publisher:     publisher,
		log:           log,
		logger:        logger,
		now:           time.Now,
	}
}

// Send stores body in the conversation between from and to, creating it on
// first use, then notifies the recipient.
func (s *Service) Send(ctx context.Context, from, to uuid.UUID, body string) (repository.Message, error) {
	body = strings.TrimSpace(body)
	if from == uuid.Nil || to == uuid.Nil || from == to || body == "" || utf8.RuneCountInString(body) > MaxBodyLength {
		return repository.Message{}, ErrInvalidInput
	}

	sender, err := s.users.GetByID(ctx, from)
	if err != nil {
		return repository.Message{}, ErrInternal
	}
	if _, err := s.users.GetByID(ctx, to); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return repository.Message{}, ErrUserNotFound
		}
		return repository.Message{}, ErrInternal
	}

	conv, err := s.conversations.GetOrCreate(ctx, from, to)
	if err != nil {
		s.logger.Error("conversation get or create failed", zap.Error(err))
		return repository.Message{}, ErrInternal
	}

	msg, err := s.messages.Create(ctx, repository.Message{ConversationID: conv.ID, SenderID: from, Body: body})
	if err != nil {
		s.logger.Error("message create failed", zap.String("conversation_id", conv.ID.String()), zap.Error(err))
		return repository.Message{}, ErrInternal
	}

	s.afterSend(ctx, sender, to, msg)
	return msg, nil
}

func (s *Service) afterSend(ctx context.Context, sender user.User, to uuid.UUID, msg repository.Message) {
	if s.log != nil {
		err := s.log.AppendInteraction(ctx, activity.Interaction{
			UserID:    sender.ID.String(),
			TargetID:  to.String(),
			Kind:      activity.InteractionMessage,
			Detail:    preview(msg.Body),
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			s.logger.Warn("interaction log failed", zap.Error(err))
		}
	}

	payload := Payload{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		FromUserID:     sender.ID,
		FromName:       sender.Name,
		Preview:        preview(msg.Body),
	}
	if s.notifier != nil {
		if _, err := s.notifier.Notify(ctx, to, repository.NotificationMessage, payload); err != nil {
			s.logger.Warn("message notification failed", zap.Error(err))
		}
	}
	if err := s.publisher.Publish(ctx, events.KeyMessageSent, payload); err != nil {
		s.logger.Warn("message event publish failed", zap.Error(err))
	}
}

func (s *Service) ListConversations(ctx context.Context, me uuid.UUID, limit int) ([]repository.ConversationSummary, error) {
	items, err := s.conversations.ListForUser(ctx, me, limit)
	if err != nil {
		return nil, ErrInternal
	}
	return items, nil
}

func (s *Service) ListMessages(ctx context.Context, me, conversationID uuid.UUID, limit int) ([]repository.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal
	}
	if conv.ParticipantA != me && conv.ParticipantB != me {
		return nil, ErrForbidden
	}

	items, err := s.messages.ListByConversation(ctx, conversationID, limit)
	if err != nil {
		return nil, ErrInternal
	}
	return items, nil
}

func preview(body string) string {
	if utf8.RuneCountInString(body) <= previewLength {
		return body
	}
	r := []rune(body)
	return string(r[:previewLength]) + "..."
}
