package matching

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func TestScore_RoleComplementarityIsExactlyForty(t *testing.T) {
	for requesterRole, roles := range complementaryRoles {
		for _, candidateRole := range roles {
			t.Run(requesterRole+"->"+candidateRole, func(t *testing.T) {
				requester := Profile{ID: uuid.New(), Role: requesterRole}
				candidate := Profile{ID: uuid.New(), Role: candidateRole}
				assert.Equal(t, 40, Score(requester, candidate, now))

				candidate.Role = "UNRELATED"
				assert.Equal(t, 0, Score(requester, candidate, now))
			})
		}
	}
}

func TestScore_RoleMatchIsCaseInsensitiveAndExact(t *testing.T) {
	requester := Profile{Role: "Founder"}
	assert.Equal(t, 40, Score(requester, Profile{Role: " INVESTOR "}, now))
	assert.Equal(t, 0, Score(requester, Profile{Role: "investors"}, now))
	assert.Equal(t, 0, Score(Profile{Role: "astronaut"}, Profile{Role: "investor"}, now))
}

func TestScore_SharedInterestsCapped(t *testing.T) {
	pool := []string{"ai", "fintech", "saas", "b2b", "climate"}
	for k := 0; k <= len(pool); k++ {
		t.Run(fmt.Sprintf("shared=%d", k), func(t *testing.T) {
			requester := Profile{Tags: pool[:3], Skills: pool[3:]}
			candidate := Profile{Skills: append([]string{"unrelated"}, pool[:k]...)}
			b := DefaultWeights.Breakdown(requester, candidate, now)
			assert.Equal(t, minInt(10*k, 30), b.Interest)
		})
	}
}

func TestScore_SharedInterestsDedupedAcrossTagsAndSkills(t *testing.T) {
	requester := Profile{Tags: []string{"AI"}, Skills: []string{"ai"}}
	candidate := Profile{Tags: []string{"Ai"}}
	assert.Equal(t, 10, DefaultWeights.Breakdown(requester, candidate, now).Interest)
}

func TestScore_BioOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"empty requester bio", "", "building climate software", 0},
		{"empty candidate bio", "building climate software", "", 0},
		{"short words ignored", "we are the best", "we are the best", 0},
		{"punctuation split", "Building, climate-software!", "building CLIMATE software", 15},
		{"capped", "alpha1 bravo2 charlie delta4 echo55 foxtrot", "alpha1 bravo2 charlie delta4 echo55 foxtrot", 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := DefaultWeights.Breakdown(Profile{Bio: tt.a}, Profile{Bio: tt.b}, now)
			assert.Equal(t, tt.want, b.Bio)
		})
	}
}

func TestScore_Recency(t *testing.T) {
	tests := []struct {
		name string
		last *time.Time
		want int
	}{
		{"never active", nil, 0},
		{"today", ago(time.Hour), 10},
		{"seven days", ago(7 * 24 * time.Hour), 10},
		{"two weeks", ago(14 * 24 * time.Hour), 5},
		{"two months", ago(60 * 24 * time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := DefaultWeights.Breakdown(Profile{}, Profile{LastActiveAt: tt.last}, now)
			assert.Equal(t, tt.want, b.Recency)
		})
	}
}

func TestScore_AllComponentsMaxedIsExactlyHundred(t *testing.T) {
	bio := "alpha1 bravo2 charlie delta4 echo55"
	requester := Profile{Role: "founder", Tags: []string{"a", "b", "c", "d"}, Bio: bio}
	candidate := Profile{Role: "investor", Tags: []string{"a", "b", "c", "d"}, Bio: bio, LastActiveAt: ago(time.Minute)}

	b := DefaultWeights.Breakdown(requester, candidate, now)
	assert.Equal(t, Breakdown{Role: 40, Interest: 30, Bio: 20, Recency: 10, Total: 100}, b)
}

func TestScore_ClampsWhenWeightsExceedMax(t *testing.T) {
	w := DefaultWeights
	w.RoleMatch = 500
	b := w.Breakdown(Profile{Role: "founder"}, Profile{Role: "investor"}, now)
	assert.Equal(t, 100, b.Total)
}

func TestRank_TruncatesAndSortsNonIncreasing(t *testing.T) {
	requester := Profile{Role: "founder", Tags: []string{"ai"}}
	pool := []Profile{
		{ID: uuid.New(), Role: "marketer"},
		{ID: uuid.New(), Role: "chef"},
		{ID: uuid.New(), Role: "investor", Tags: []string{"ai"}, LastActiveAt: ago(time.Hour)},
		{ID: uuid.New(), Tags: []string{"ai"}},
		{ID: uuid.New(), Role: "developer", LastActiveAt: ago(20 * 24 * time.Hour)},
		{ID: uuid.New()},
	}

	out := Rank(requester, pool, 4, now)
	require.Len(t, out, 4)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
	assert.Equal(t, pool[2].ID, out[0].Candidate.ID)
	assert.Equal(t, 60, out[0].Score)
}

func TestRank_TiesKeepPoolOrder(t *testing.T) {
	pool := make([]Profile, 6)
	for i := range pool {
		pool[i] = Profile{ID: uuid.New(), Role: "investor"}
	}

	out := Rank(Profile{Role: "founder"}, pool, 3, now)
	require.Len(t, out, 3)
	for i := range out {
		assert.Equal(t, pool[i].ID, out[i].Candidate.ID)
	}
}

func TestRank_DefaultLimit(t *testing.T) {
	pool := make([]Profile, 9)
	for i := range pool {
		pool[i] = Profile{ID: uuid.New()}
	}
	assert.Len(t, Rank(Profile{}, pool, 0, now), 5)
	assert.Len(t, Rank(Profile{}, pool[:2], 0, now), 2)
	assert.Empty(t, Rank(Profile{}, nil, 3, now))
}

func TestBuildPoolQuery(t *testing.T) {
	excluded := []uuid.UUID{uuid.New()}

	t.Run("known role with interests", func(t *testing.T) {
		q := BuildPoolQuery(Profile{Role: "Founder", Tags: []string{"SaaS"}, Skills: []string{"go"}}, excluded, 50, now)
		assert.Equal(t, []string{"investor", "developer", "designer", "marketer", "mentor"}, q.Roles)
		assert.Equal(t, []string{"go", "saas"}, q.Interests)
		assert.Nil(t, q.ActiveSince)
		assert.Equal(t, excluded, q.ExcludeIDs)
		assert.False(t, q.Empty())
	})

	t.Run("unknown role skips role clause", func(t *testing.T) {
		q := BuildPoolQuery(Profile{Role: "astronaut", Tags: []string{"space"}}, excluded, 50, now)
		assert.Empty(t, q.Roles)
		assert.Equal(t, []string{"space"}, q.Interests)
		assert.Nil(t, q.ActiveSince)
	})

	t.Run("unknown role without interests is empty", func(t *testing.T) {
		q := BuildPoolQuery(Profile{Role: "astronaut"}, excluded, 50, now)
		assert.True(t, q.Empty())
	})

	t.Run("no role and no interests falls back to recent activity", func(t *testing.T) {
		q := BuildPoolQuery(Profile{}, excluded, 50, now)
		require.NotNil(t, q.ActiveSince)
		assert.Equal(t, now.Add(-30*24*time.Hour), *q.ActiveSince)
		assert.False(t, q.Empty())
	})
}

func TestComplementaryRolesReturnsCopy(t *testing.T) {
	roles := ComplementaryRoles("founder")
	require.NotEmpty(t, roles)
	roles[0] = "mutated"
	assert.Equal(t, "investor", ComplementaryRoles("founder")[0])
	assert.Nil(t, ComplementaryRoles("unknown"))
}
