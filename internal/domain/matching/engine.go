package matching

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Weights holds every scoring constant in one place.
type Weights struct {
	RoleMatch int

	InterestPerShared int
	InterestCap       int

	BioPerSharedWord int
	BioCap           int
	BioMinWordLen    int

	RecentWindow   time.Duration
	RecentBonus    int
	ActiveWindow   time.Duration
	ActiveBonus    int
	FallbackWindow time.Duration
	DefaultLimit   int
	MaxScore       int
}

var DefaultWeights = Weights{
	RoleMatch: 40,

	InterestPerShared: 10,
	InterestCap:       30,

	BioPerSharedWord: 5,
	BioCap:           20,
	BioMinWordLen:    5,

	RecentWindow:   7 * 24 * time.Hour,
	RecentBonus:    10,
	ActiveWindow:   30 * 24 * time.Hour,
	ActiveBonus:    5,
	FallbackWindow: 30 * 24 * time.Hour,
	DefaultLimit:   5,
	MaxScore:       100,
}

// Profile is the subset of a user the scorer reads.
type Profile struct {
	ID           uuid.UUID
	Role         string
	Tags         []string
	Skills       []string
	Bio          string
	LastActiveAt *time.Time
}

type Breakdown struct {
	Role     int `json:"role"`
	Interest int `json:"interest"`
	Bio      int `json:"bio"`
	Recency  int `json:"recency"`
	Total    int `json:"total"`
}

type CandidateScore struct {
	Candidate Profile
	Score     int
	Breakdown Breakdown
}

// Score computes the 0..100 relevance of candidate for requester.
func Score(requester, candidate Profile, now time.Time) int {
	return DefaultWeights.Breakdown(requester, candidate, now).Total
}

func (w Weights) Breakdown(requester, candidate Profile, now time.Time) Breakdown {
	var b Breakdown

	if isComplementary(requester.Role, candidate.Role) {
		b.Role = w.RoleMatch
	}

	shared := countShared(interestSet(requester), interestSet(candidate))
	b.Interest = minInt(w.InterestPerShared*shared, w.InterestCap)

	sharedWords := countShared(bioWords(requester.Bio, w.BioMinWordLen), bioWords(candidate.Bio, w.BioMinWordLen))
	b.Bio = minInt(w.BioPerSharedWord*sharedWords, w.BioCap)

	b.Recency = w.recency(candidate.LastActiveAt, now)

	b.Total = clampInt(b.Role+b.Interest+b.Bio+b.Recency, 0, w.MaxScore)
	return b
}

func (w Weights) recency(lastActive *time.Time, now time.Time) int {
	if lastActive == nil || lastActive.IsZero() {
		return 0
	}
	age := now.Sub(*lastActive)
	switch {
	case age <= w.RecentWindow:
		return w.RecentBonus
	case age <= w.ActiveWindow:
		return w.ActiveBonus
	default:
		return 0
	}
}

// Rank scores the pool and returns the top n by descending score. Ties keep
// pool order. n <= 0 uses the default limit.
func Rank(requester Profile, pool []Profile, n int, now time.Time) []CandidateScore {
	return DefaultWeights.Rank(requester, pool, n, now)
}

func (w Weights) Rank(requester Profile, pool []Profile, n int, now time.Time) []CandidateScore {
	if n <= 0 {
		n = w.DefaultLimit
	}

	scored := make([]CandidateScore, 0, len(pool))
	for _, c := range pool {
		b := w.Breakdown(requester, c, now)
		scored = append(scored, CandidateScore{Candidate: c, Score: b.Total, Breakdown: b})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

func interestSet(p Profile) map[string]struct{} {
	out := make(map[string]struct{}, len(p.Tags)+len(p.Skills))
	for _, group := range [][]string{p.Tags, p.Skills} {
		for _, v := range group {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				continue
			}
			out[v] = struct{}{}
		}
	}
	return out
}

func bioWords(bio string, minLen int) map[string]struct{} {
	out := map[string]struct{}{}
	fields := strings.FieldsFunc(strings.ToLower(bio), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, f := range fields {
		if len([]rune(f)) < minLen {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}

func countShared(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
