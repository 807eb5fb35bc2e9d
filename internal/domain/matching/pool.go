package matching

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PoolQuery describes which users are eligible as suggestions. A candidate
// qualifies when its role is in Roles or it shares any of Interests. When
// ActiveSince is set it replaces both clauses.
type PoolQuery struct {
	ExcludeIDs  []uuid.UUID
	Roles       []string
	Interests   []string
	ActiveSince *time.Time
	Limit       int
}

// Empty reports whether no candidate can qualify, which happens for an
// unknown role with no tags or skills.
func (q PoolQuery) Empty() bool {
	return q.ActiveSince == nil && len(q.Roles) == 0 && len(q.Interests) == 0
}

// BuildPoolQuery derives the candidate pool query for requester. excluded
// must already contain self, connections and pending or received requests.
func BuildPoolQuery(requester Profile, excluded []uuid.UUID, limit int, now time.Time) PoolQuery {
	return DefaultWeights.BuildPoolQuery(requester, excluded, limit, now)
}

func (w Weights) BuildPoolQuery(requester Profile, excluded []uuid.UUID, limit int, now time.Time) PoolQuery {
	q := PoolQuery{
		ExcludeIDs: excluded,
		Roles:      ComplementaryRoles(requester.Role),
		Limit:      limit,
	}

	interests := interestSet(requester)
	for k := range interests {
		q.Interests = append(q.Interests, k)
	}
	sort.Strings(q.Interests)

	if strings.TrimSpace(requester.Role) == "" && len(q.Interests) == 0 {
		since := now.Add(-w.FallbackWindow)
		q.ActiveSince = &since
	}
	return q
}
