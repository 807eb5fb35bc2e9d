package connection

import (
	"context"
	"errors"
	"time"

	"founder-connect/internal/domain/activity"
	"founder-connect/internal/domain/user"
	"founder-connect/internal/infrastructure/events"
	"founder-connect/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUserNotFound     = errors.New("user not found")
	ErrAlreadyConnected = errors.New("already connected")
	ErrRequestNotFound  = errors.New("connection request not found")
	ErrNotConnected     = errors.New("not connected")
	ErrInternal         = errors.New("internal error")
)

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, payload any) (repository.Notification, error)
}

// RequestPayload is stored with connection_request and connection_accepted
// notifications.
type RequestPayload struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
	Role   string    `json:"role,omitempty"`
	Avatar string    `json:"avatar,omitempty"`
}

type Lists struct {
	Connections []user.User `json:"connections"`
	Pending     []user.User `json:"pendingConnections"`
	Requests    []user.User `json:"connectionRequests"`
}

type Service struct {
	users     user.Repository
	edges     repository.ConnectionRepository
	notifier  Notifier
	publisher events.Publisher
	log       activity.Log
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(users user.Repository, edges repository.ConnectionRepository, notifier Notifier, publisher events.Publisher, log activity.Log, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:     users,
		edges:     edges,
		notifier:  notifier,
		publisher: publisher,
		log:       log,
		logger:    logger,
		now:       time.Now,
	}
}

// SendRequest asks to connect from -> to. Repeating a pending request is a
// no-op that does not notify again.
func (s *Service) SendRequest(ctx context.Context, from, to uuid.UUID) error {
	if from == uuid.Nil || to == uuid.Nil || from == to {
		return ErrInvalidInput
	}
	sender, err := s.lookup(ctx, from)
	if err != nil {
		return err
	}
	if _, err := s.lookup(ctx, to); err != nil {
		return err
	}

	connected, err := s.edges.HasEdge(ctx, from, to, repository.EdgeConnected)
	if err != nil {
		return ErrInternal
	}
	if connected {
		return ErrAlreadyConnected
	}
	pending, err := s.edges.HasEdge(ctx, from, to, repository.EdgePending)
	if err != nil {
		return ErrInternal
	}
	if pending {
		return nil
	}

	return s.request(ctx, sender, to)
}

// AddRequest records the request edges and notifies the target without
// checking the current relationship. The chat connect command uses it, so a
// repeated command notifies again.
func (s *Service) AddRequest(ctx context.Context, sender user.User, to uuid.UUID) error {
	if sender.ID == uuid.Nil || to == uuid.Nil || sender.ID == to {
		return ErrInvalidInput
	}
	return s.request(ctx, sender, to)
}

func (s *Service) request(ctx context.Context, sender user.User, to uuid.UUID) error {
	if err := s.edges.AddEdge(ctx, sender.ID, to, repository.EdgePending); err != nil {
		s.logger.Error("add pending edge failed", zap.Error(err))
		return ErrInternal
	}
	if err := s.edges.AddEdge(ctx, to, sender.ID, repository.EdgeRequest); err != nil {
		s.logger.Error("add request edge failed", zap.Error(err))
		return ErrInternal
	}

	s.notify(ctx, to, repository.NotificationConnectionRequest, payloadFor(sender))
	s.publish(ctx, events.KeyConnectionRequested, sender.ID, to)
	s.record(ctx, sender.ID, to, activity.InteractionConnectRequest)
	return nil
}

// Accept turns a received request into a connection. The two sides are
// written one after the other, not atomically.
func (s *Service) Accept(ctx context.Context, me, from uuid.UUID) error {
	if me == uuid.Nil || from == uuid.Nil || me == from {
		return ErrInvalidInput
	}
	has, err := s.edges.HasEdge(ctx, me, from, repository.EdgeRequest)
	if err != nil {
		return ErrInternal
	}
	if !has {
		return ErrRequestNotFound
	}

	if err := s.edges.ApplySide(ctx, repository.SideUpdate{
		UserID: me, OtherID: from,
		Remove: []repository.EdgeKind{repository.EdgeRequest, repository.EdgePending},
		Add:    repository.EdgeConnected,
	}); err != nil {
		s.logger.Error("accept: update acceptor failed", zap.Error(err))
		return ErrInternal
	}
	if err := s.edges.ApplySide(ctx, repository.SideUpdate{
		UserID: from, OtherID: me,
		Remove: []repository.EdgeKind{repository.EdgePending, repository.EdgeRequest},
		Add:    repository.EdgeConnected,
	}); err != nil {
		s.logger.Error("accept: update requester failed, relationship is asymmetric",
			zap.String("acceptor", me.String()), zap.String("requester", from.String()), zap.Error(err))
		return ErrInternal
	}

	if acceptor, err := s.lookup(ctx, me); err == nil {
		s.notify(ctx, from, repository.NotificationConnectionAccepted, payloadFor(acceptor))
	}
	s.publish(ctx, events.KeyConnectionAccepted, me, from)
	return nil
}

func (s *Service) Reject(ctx context.Context, me, from uuid.UUID) error {
	if me == uuid.Nil || from == uuid.Nil || me == from {
		return ErrInvalidInput
	}
	has, err := s.edges.HasEdge(ctx, me, from, repository.EdgeRequest)
	if err != nil {
		return ErrInternal
	}
	if !has {
		return ErrRequestNotFound
	}

	if err := s.edges.RemoveEdge(ctx, me, from, repository.EdgeRequest); err != nil {
		return ErrInternal
	}
	if err := s.edges.RemoveEdge(ctx, from, me, repository.EdgePending); err != nil {
		return ErrInternal
	}
	return nil
}

// Disconnect removes an existing connection from both sides, sequentially.
func (s *Service) Disconnect(ctx context.Context, me, other uuid.UUID) error {
	if me == uuid.Nil || other == uuid.Nil || me == other {
		return ErrInvalidInput
	}
	has, err := s.edges.HasEdge(ctx, me, other, repository.EdgeConnected)
	if err != nil {
		return ErrInternal
	}
	if !has {
		return ErrNotConnected
	}

	if err := s.edges.RemoveEdge(ctx, me, other, repository.EdgeConnected); err != nil {
		return ErrInternal
	}
	if err := s.edges.RemoveEdge(ctx, other, me, repository.EdgeConnected); err != nil {
		s.logger.Error("disconnect: update other side failed", zap.Error(err))
		return ErrInternal
	}
	return nil
}

func (s *Service) Lists(ctx context.Context, me uuid.UUID) (Lists, error) {
	var out Lists
	for _, l := range []struct {
		kind repository.EdgeKind
		dst  *[]user.User
	}{
		{repository.EdgeConnected, &out.Connections},
		{repository.EdgePending, &out.Pending},
		{repository.EdgeRequest, &out.Requests},
	} {
		profiles, err := s.edges.ListProfiles(ctx, me, l.kind)
		if err != nil {
			return Lists{}, ErrInternal
		}
		for i := range profiles {
			profiles[i] = profiles[i].Sanitized()
		}
		*l.dst = profiles
	}
	return out, nil
}

func (s *Service) lookup(ctx context.Context, id uuid.UUID) (user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrUserNotFound
		}
		return user.User{}, ErrInternal
	}
	return u, nil
}

func (s *Service) notify(ctx context.Context, to uuid.UUID, kind string, payload RequestPayload) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, to, kind, payload); err != nil {
		s.logger.Warn("connection notification failed", zap.String("type", kind), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, key string, from, to uuid.UUID) {
	data := map[string]string{"from": from.String(), "to": to.String()}
	if err := s.publisher.Publish(ctx, key, data); err != nil {
		s.logger.Warn("connection event publish failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, from, to uuid.UUID, kind string) {
	if s.log == nil {
		return
	}
	err := s.log.AppendInteraction(ctx, activity.Interaction{
		UserID:    from.String(),
		TargetID:  to.String(),
		Kind:      kind,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("interaction log failed", zap.Error(err))
	}
}

func payloadFor(u user.User) RequestPayload {
	return RequestPayload{UserID: u.ID, Name: u.Name, Role: u.Role, Avatar: u.Avatar}
}
