package suggestion

import (
	"context"
	"time"

	"founder-connect/internal/config"
	"founder-connect/internal/domain/matching"
	"founder-connect/internal/domain/user"
	"founder-connect/internal/infrastructure/cache"
	"founder-connect/internal/metrics"
	"founder-connect/internal/repository"
	"founder-connect/internal/worker"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	notifyLockPrefix = "suggestions:notify:"
	notifyBatchSize  = 200
	notifyWorkers    = 4
)

type Suggestion struct {
	User      user.User          `json:"user"`
	Score     int                `json:"score"`
	Breakdown matching.Breakdown `json:"breakdown"`
}

// NotificationItem is one entry of the connection_suggestions payload.
type NotificationItem struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
	Avatar string    `json:"avatar"`
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, payload any) (repository.Notification, error)
}

type Service struct {
	users         user.Repository
	queries       repository.UserQueryRepository
	edges         repository.ConnectionRepository
	notifications repository.NotificationRepository
	notifier      Notifier
	locks         cache.Store
	weights       matching.Weights
	logger        *zap.Logger
	now           func() time.Time
}

func NewService(
	users user.Repository,
	queries repository.UserQueryRepository,
	edges repository.ConnectionRepository,
	notifications repository.NotificationRepository,
	notifier Notifier,
	locks cache.Store,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:         users,
		queries:       queries,
		edges:         edges,
		notifications: notifications,
		notifier:      notifier,
		locks:         locks,
		weights:       matching.DefaultWeights,
		logger:        logger,
		now:           time.Now,
	}
}

// Suggest returns the top limit candidates for userID. Failures are logged
// and produce an empty list.
func (s *Service) Suggest(ctx context.Context, userID uuid.UUID, limit int) []Suggestion {
	if limit <= 0 {
		limit = config.DefaultSuggestionLimit
	}
	out := s.suggest(ctx, userID, limit)
	metrics.ObserveSuggestions(len(out))
	return out
}

func (s *Service) suggest(ctx context.Context, userID uuid.UUID, limit int) []Suggestion {
	log := s.logger.With(zap.String("user_id", userID.String()))

	me, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Warn("suggestions: load requester failed", zap.Error(err))
		return []Suggestion{}
	}

	excluded, err := s.edges.ExcludedIDs(ctx, userID)
	if err != nil {
		log.Warn("suggestions: load exclusions failed", zap.Error(err))
		return []Suggestion{}
	}

	now := s.now()
	requester := profileOf(me)
	q := s.weights.BuildPoolQuery(requester, excluded, config.DefaultSuggestionPoolLimit, now)
	if q.Empty() {
		return []Suggestion{}
	}

	pool, err := s.queries.FindCandidates(ctx, q)
	if err != nil {
		log.Warn("suggestions: load candidates failed", zap.Error(err))
		return []Suggestion{}
	}

	byID := make(map[uuid.UUID]user.User, len(pool))
	profiles := make([]matching.Profile, 0, len(pool))
	for _, u := range pool {
		byID[u.ID] = u
		profiles = append(profiles, profileOf(u))
	}

	ranked := s.weights.Rank(requester, profiles, limit, now)
	out := make([]Suggestion, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, Suggestion{
			User:      byID[r.Candidate.ID].Sanitized(),
			Score:     r.Score,
			Breakdown: r.Breakdown,
		})
	}
	return out
}

// NotifySuggestions stores a connection_suggestions notification for userID
// unless one was created within the notify interval. It reports whether a
// notification was sent.
func (s *Service) NotifySuggestions(ctx context.Context, userID uuid.UUID) (bool, error) {
	lockKey := notifyLockPrefix + userID.String()
	if s.locks != nil {
		acquired, err := s.locks.SetIfNotExists(ctx, lockKey, "1", config.SuggestionNotifyInterval)
		if err == nil && !acquired {
			return false, nil
		}
	}
	release := func() {
		if s.locks != nil {
			_ = s.locks.Delete(ctx, lockKey)
		}
	}

	since := s.now().Add(-config.SuggestionNotifyInterval)
	recent, err := s.notifications.ExistsSince(ctx, userID, repository.NotificationSuggestions, since)
	if err != nil {
		release()
		return false, err
	}
	if recent {
		return false, nil
	}

	items := s.Suggest(ctx, userID, config.DefaultSuggestionLimit)
	if len(items) == 0 {
		release()
		return false, nil
	}

	payload := make([]NotificationItem, 0, len(items))
	for _, it := range items {
		payload = append(payload, NotificationItem{
			UserID: it.User.ID,
			Name:   it.User.Name,
			Role:   it.User.Role,
			Avatar: it.User.Avatar,
		})
	}
	if _, err := s.notifier.Notify(ctx, userID, repository.NotificationSuggestions, payload); err != nil {
		release()
		return false, err
	}
	return true, nil
}

// NotifyAll walks every user in batches and sends due suggestion
// notifications through a small worker pool. It returns how many were sent.
func (s *Service) NotifyAll(ctx context.Context) int {
	sent := 0
	for offset := 0; ; offset += notifyBatchSize {
		ids, err := s.queries.ListUserIDs(ctx, notifyBatchSize, offset)
		if err != nil {
			s.logger.Warn("suggestions: list users failed", zap.Error(err))
			return sent
		}
		if len(ids) == 0 {
			return sent
		}

		notified := make([]bool, len(ids))
		tasks := make([]worker.Task, len(ids))
		for i, id := range ids {
			i, id := i, id
			tasks[i] = func(ctx context.Context) error {
				ok, err := s.NotifySuggestions(ctx, id)
				notified[i] = ok
				return err
			}
		}
		for i, r := range worker.RunAll(ctx, notifyWorkers, 0, tasks) {
			if r.Err != nil {
				s.logger.Warn("suggestions: notify failed", zap.String("user_id", ids[i].String()), zap.Error(r.Err))
			}
		}
		for _, ok := range notified {
			if ok {
				sent++
			}
		}

		if len(ids) < notifyBatchSize || ctx.Err() != nil {
			return sent
		}
	}
}

// RunNotifier calls NotifyAll every interval until ctx is done.
func (s *Service) RunNotifier(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := s.NotifyAll(ctx)
			s.logger.Info("suggestion notifications sent", zap.Int("count", n))
		}
	}
}

func profileOf(u user.User) matching.Profile {
	return matching.Profile{
		ID:           u.ID,
		Role:         u.Role,
		Tags:         u.Tags,
		Skills:       u.Skills,
		Bio:          u.Bio,
		LastActiveAt: u.LastActiveAt,
	}
}
