package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"founder-connect/internal/domain/matching"
	"founder-connect/internal/domain/user"
	"founder-connect/internal/repository"

	"github.com/google/uuid"
)

// Store is an in-process relational backend. It serves the operator REPL
// when no database is configured and the usecase tests. Each accessor
// returns a view implementing one repository interface over shared state.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time
	seq int64
	err error

	users         map[uuid.UUID]user.User
	userOrder     []uuid.UUID
	edges         map[edgeKey]int64
	conversations map[uuid.UUID]repository.Conversation
	messages      []repository.Message
	notifications []repository.Notification
	posts         []repository.Post
}

type edgeKey struct {
	userID  uuid.UUID
	otherID uuid.UUID
	kind    repository.EdgeKind
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		now:           now,
		users:         make(map[uuid.UUID]user.User),
		edges:         make(map[edgeKey]int64),
		conversations: make(map[uuid.UUID]repository.Conversation),
	}
}

// FailWith makes every subsequent operation return err. Nil restores normal
// behavior.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Store) Users() *Users                 { return &Users{s: s} }
func (s *Store) Connections() *Connections     { return &Connections{s: s} }
func (s *Store) Conversations() *Conversations { return &Conversations{s: s} }
func (s *Store) Messages() *Messages           { return &Messages{s: s} }
func (s *Store) Notifications() *Notifications { return &Notifications{s: s} }
func (s *Store) Posts() *Posts                 { return &Posts{s: s} }

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

// stamp returns a strictly increasing timestamp so ordering by time is stable.
func (s *Store) stamp() time.Time {
	return s.now().UTC().Add(time.Duration(s.next()) * time.Microsecond)
}

func cloneUser(u user.User) user.User {
	u.Tags = append([]string{}, u.Tags...)
	u.Skills = append([]string{}, u.Skills...)
	if u.LastActiveAt != nil {
		t := *u.LastActiveAt
		u.LastActiveAt = &t
	}
	return u
}

func limitOr(limit, def, maxV int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxV {
		return maxV
	}
	return limit
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Users implements user.Repository and repository.UserQueryRepository.
type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, u user.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.ErrEmailTaken
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := s.stamp()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.users[u.ID] = cloneUser(u)
	s.userOrder = append(s.userOrder, u.ID)
	return nil
}

func (r *Users) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return user.User{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (user.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return user.User{}, s.err
	}
	for _, id := range s.userOrder {
		if strings.EqualFold(s.users[id].Email, email) {
			return cloneUser(s.users[id]), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *Users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Users) UpdateProfile(_ context.Context, id uuid.UUID, in user.ProfileUpdate) (user.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return user.User{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.Title != nil {
		u.Title = *in.Title
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.Avatar != nil {
		u.Avatar = *in.Avatar
	}
	if in.Tags != nil {
		u.Tags = append([]string{}, in.Tags...)
	}
	if in.Skills != nil {
		u.Skills = append([]string{}, in.Skills...)
	}
	u.UpdatedAt = s.stamp()
	s.users[id] = u
	return cloneUser(u), nil
}

func (r *Users) UpdateBio(ctx context.Context, id uuid.UUID, bio string) error {
	_, err := r.UpdateProfile(ctx, id, user.ProfileUpdate{Bio: &bio})
	return err
}

func (r *Users) MarkEmailVerified(_ context.Context, email string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for id, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u.EmailVerified = true
			s.users[id] = u
			return nil
		}
	}
	return user.ErrNotFound
}

func (r *Users) TouchLastActive(_ context.Context, id uuid.UUID, at time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	u, ok := s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	t := at.UTC()
	u.LastActiveAt = &t
	s.users[id] = u
	return nil
}

func (r *Users) SearchProfiles(_ context.Context, q repository.ProfileSearch) ([]user.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	limit := limitOr(q.Limit, 10, 100)
	out := make([]user.User, 0)
	for _, id := range s.userOrder {
		if len(out) >= limit {
			break
		}
		if id == q.ExcludeID {
			continue
		}
		u := s.users[id]
		if matchesAny(u, q.Terms, q.Fields) {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func matchesAny(u user.User, terms []string, fields []repository.ProfileField) bool {
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		for _, f := range fields {
			var v string
			switch f {
			case repository.FieldName:
				v = u.Name
			case repository.FieldRole:
				v = u.Role
			case repository.FieldTitle:
				v = u.Title
			case repository.FieldBio:
				v = u.Bio
			}
			if v != "" && containsFold(v, term) {
				return true
			}
		}
	}
	return false
}

func (r *Users) FindFirstByName(_ context.Context, phrase string, excludeID uuid.UUID) (user.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return user.User{}, s.err
	}
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return user.User{}, user.ErrNotFound
	}
	for _, id := range s.userOrder {
		if id == excludeID {
			continue
		}
		if containsFold(s.users[id].Name, phrase) {
			return cloneUser(s.users[id]), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *Users) FindCandidates(_ context.Context, q matching.PoolQuery) ([]user.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	if q.Empty() {
		return []user.User{}, nil
	}

	excluded := make(map[uuid.UUID]struct{}, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		excluded[id] = struct{}{}
	}
	roles := make(map[string]struct{}, len(q.Roles))
	for _, role := range q.Roles {
		roles[strings.ToLower(role)] = struct{}{}
	}
	interests := make(map[string]struct{}, len(q.Interests))
	for _, i := range q.Interests {
		interests[strings.ToLower(i)] = struct{}{}
	}

	limit := limitOr(q.Limit, 50, 500)
	out := make([]user.User, 0)
	for _, id := range s.userOrder {
		if len(out) >= limit {
			break
		}
		if _, skip := excluded[id]; skip {
			continue
		}
		u := s.users[id]
		if q.ActiveSince != nil {
			if u.LastActiveAt != nil && !u.LastActiveAt.Before(*q.ActiveSince) {
				out = append(out, cloneUser(u))
			}
			continue
		}
		if _, ok := roles[strings.ToLower(u.Role)]; ok {
			out = append(out, cloneUser(u))
			continue
		}
		if sharesAny(u, interests) {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func sharesAny(u user.User, interests map[string]struct{}) bool {
	for _, list := range [][]string{u.Tags, u.Skills} {
		for _, v := range list {
			if _, ok := interests[strings.ToLower(v)]; ok {
				return true
			}
		}
	}
	return false
}

func (r *Users) ListUserIDs(_ context.Context, limit, offset int) ([]uuid.UUID, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	if offset < 0 {
		offset = 0
	}
	limit = limitOr(limit, 100, 1000)
	if offset >= len(s.userOrder) {
		return []uuid.UUID{}, nil
	}
	end := offset + limit
	if end > len(s.userOrder) {
		end = len(s.userOrder)
	}
	return append([]uuid.UUID{}, s.userOrder[offset:end]...), nil
}

// Connections implements repository.ConnectionRepository.
type Connections struct{ s *Store }

func (r *Connections) AddEdge(_ context.Context, userID, otherID uuid.UUID, kind repository.EdgeKind) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	k := edgeKey{userID, otherID, kind}
	if _, ok := s.edges[k]; !ok {
		s.edges[k] = s.next()
	}
	return nil
}

func (r *Connections) RemoveEdge(_ context.Context, userID, otherID uuid.UUID, kind repository.EdgeKind) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.edges, edgeKey{userID, otherID, kind})
	return nil
}

func (r *Connections) HasEdge(_ context.Context, userID, otherID uuid.UUID, kind repository.EdgeKind) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.edges[edgeKey{userID, otherID, kind}]
	return ok, nil
}

type orderedID struct {
	id  uuid.UUID
	seq int64
}

func (r *Connections) edgesOf(userID uuid.UUID, kind repository.EdgeKind) []orderedID {
	var ids []orderedID
	for k, seq := range r.s.edges {
		if k.userID == userID && (kind == "" || k.kind == kind) {
			ids = append(ids, orderedID{k.otherID, seq})
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].seq < ids[j].seq })
	return ids
}

func (r *Connections) ListEdges(_ context.Context, userID uuid.UUID, kind repository.EdgeKind) ([]uuid.UUID, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]uuid.UUID, 0)
	for _, e := range r.edgesOf(userID, kind) {
		out = append(out, e.id)
	}
	return out, nil
}

func (r *Connections) ListProfiles(_ context.Context, userID uuid.UUID, kind repository.EdgeKind) ([]user.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	edges := r.edgesOf(userID, kind)
	out := make([]user.User, 0, len(edges))
	for i := len(edges) - 1; i >= 0; i-- {
		if u, ok := s.users[edges[i].id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *Connections) ExcludedIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []uuid.UUID{userID}
	seen := map[uuid.UUID]struct{}{userID: {}}
	for _, e := range r.edgesOf(userID, "") {
		if _, ok := seen[e.id]; ok {
			continue
		}
		seen[e.id] = struct{}{}
		out = append(out, e.id)
	}
	return out, nil
}

func (r *Connections) ApplySide(_ context.Context, u repository.SideUpdate) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, k := range u.Remove {
		if k == u.Add {
			continue
		}
		delete(s.edges, edgeKey{u.UserID, u.OtherID, k})
	}
	if u.Add != "" {
		k := edgeKey{u.UserID, u.OtherID, u.Add}
		if _, ok := s.edges[k]; !ok {
			s.edges[k] = s.next()
		}
	}
	return nil
}

// Conversations implements repository.ConversationRepository.
type Conversations struct{ s *Store }

func (r *Conversations) GetOrCreate(_ context.Context, a, b uuid.UUID) (repository.Conversation, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return repository.Conversation{}, s.err
	}
	lo, hi := repository.OrderedPair(a, b)
	now := s.stamp()
	for id, c := range s.conversations {
		if c.ParticipantA == lo && c.ParticipantB == hi {
			c.UpdatedAt = now
			s.conversations[id] = c
			return c, nil
		}
	}
	c := repository.Conversation{ID: uuid.New(), ParticipantA: lo, ParticipantB: hi, CreatedAt: now, UpdatedAt: now}
	s.conversations[c.ID] = c
	return c, nil
}

func (r *Conversations) GetByID(_ context.Context, id uuid.UUID) (repository.Conversation, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return repository.Conversation{}, s.err
	}
	c, ok := s.conversations[id]
	if !ok {
		return repository.Conversation{}, repository.ErrConversationNotFound
	}
	return c, nil
}

func (r *Conversations) ListForUser(_ context.Context, userID uuid.UUID, limit int) ([]repository.ConversationSummary, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	out := make([]repository.ConversationSummary, 0)
	for _, c := range s.conversations {
		if c.ParticipantA != userID && c.ParticipantB != userID {
			continue
		}
		sum := repository.ConversationSummary{Conversation: c, OtherID: c.Other(userID)}
		if other, ok := s.users[sum.OtherID]; ok {
			sum.OtherName = other.Name
			sum.OtherAvatar = other.Avatar
		}
		for i := len(s.messages) - 1; i >= 0; i-- {
			if s.messages[i].ConversationID == c.ID {
				at := s.messages[i].CreatedAt
				sum.LastMessage = s.messages[i].Body
				sum.LastMessageAt = &at
				break
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if n := limitOr(limit, 50, 200); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Messages implements repository.MessageRepository.
type Messages struct{ s *Store }

func (r *Messages) Create(_ context.Context, m repository.Message) (repository.Message, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return repository.Message{}, s.err
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = s.stamp()
	if c, ok := s.conversations[m.ConversationID]; ok {
		c.UpdatedAt = m.CreatedAt
		s.conversations[c.ID] = c
	}
	s.messages = append(s.messages, m)
	return m, nil
}

func (r *Messages) ListByConversation(_ context.Context, conversationID uuid.UUID, limit int) ([]repository.Message, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	var all []repository.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			all = append(all, m)
		}
	}
	if n := limitOr(limit, 50, 500); len(all) > n {
		all = all[len(all)-n:]
	}
	return append([]repository.Message{}, all...), nil
}

// Notifications implements repository.NotificationRepository.
type Notifications struct{ s *Store }

func (r *Notifications) Create(_ context.Context, n repository.Notification) (repository.Notification, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return repository.Notification{}, s.err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if len(n.Payload) == 0 {
		n.Payload = json.RawMessage(`{}`)
	}
	n.Read = false
	n.CreatedAt = s.stamp()
	s.notifications = append(s.notifications, n)
	return n, nil
}

func (r *Notifications) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]repository.Notification, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	limit = limitOr(limit, 50, 200)
	out := make([]repository.Notification, 0)
	for i := len(s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		n := s.notifications[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *Notifications) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].UserID == userID {
			s.notifications[i].Read = true
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}

func (r *Notifications) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].Read {
			s.notifications[i].Read = true
			n++
		}
	}
	return n, nil
}

func (r *Notifications) ExistsSince(_ context.Context, userID uuid.UUID, kind string, since time.Time) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return false, s.err
	}
	for _, n := range s.notifications {
		if n.UserID == userID && n.Type == kind && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// Posts implements repository.PostRepository.
type Posts struct{ s *Store }

func (r *Posts) Create(_ context.Context, p repository.Post) (repository.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return repository.Post{}, s.err
	}
	author, ok := s.users[p.AuthorID]
	if !ok {
		return repository.Post{}, user.ErrNotFound
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.AuthorName = author.Name
	p.AuthorRole = author.Role
	p.AuthorAvatar = author.Avatar
	p.CreatedAt = s.stamp()
	s.posts = append(s.posts, p)
	return p, nil
}

func (r *Posts) ListFeed(_ context.Context, before *time.Time, limit int) ([]repository.Post, error) {
	return r.list(func(p repository.Post) bool {
		return before == nil || p.CreatedAt.Before(*before)
	}, limit)
}

func (r *Posts) ListByAuthor(_ context.Context, authorID uuid.UUID, limit int) ([]repository.Post, error) {
	return r.list(func(p repository.Post) bool { return p.AuthorID == authorID }, limit)
}

func (r *Posts) list(keep func(repository.Post) bool, limit int) ([]repository.Post, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	limit = limitOr(limit, 20, 100)
	out := make([]repository.Post, 0)
	for i := len(s.posts) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(s.posts[i]) {
			out = append(out, s.posts[i])
		}
	}
	return out, nil
}

var (
	_ user.Repository                   = (*Users)(nil)
	_ repository.UserQueryRepository    = (*Users)(nil)
	_ repository.ConnectionRepository   = (*Connections)(nil)
	_ repository.ConversationRepository = (*Conversations)(nil)
	_ repository.MessageRepository      = (*Messages)(nil)
	_ repository.NotificationRepository = (*Notifications)(nil)
	_ repository.PostRepository         = (*Posts)(nil)
)
