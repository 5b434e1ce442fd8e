package leaderboard

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BattlePointsUnit scales battle placements into score points.
const BattlePointsUnit = 100

var (
	tokenUnit       = decimal.New(1, 18)
	yieldMultiplier = decimal.NewFromInt(100)
)

// Entry is the score record of one user.
type Entry struct {
	User            string          `json:"user"`
	Username        string          `json:"username"`
	YieldScore      decimal.Decimal `json:"yieldScore"`
	BattleScore     decimal.Decimal `json:"battleScore"`
	ReputationScore decimal.Decimal `json:"reputationScore"`
	TotalScore      decimal.Decimal `json:"totalScore"`
	LastUpdateTime  int64           `json:"lastUpdateTime"`
	RegisteredAt    int64           `json:"registeredAt"`
	// Rank is filled on reads, 1 is best.
	Rank int `json:"rank"`
}

func newEntry(user string, now int64) *Entry {
	return &Entry{
		User:            user,
		YieldScore:      decimal.Zero,
		BattleScore:     decimal.Zero,
		ReputationScore: decimal.Zero,
		TotalScore:      decimal.Zero,
		LastUpdateTime:  now,
		RegisteredAt:    now,
	}
}

func (e *Entry) clone() *Entry {
	c := *e
	return &c
}

// YieldScore turns cumulative yield and current principal, both in base units, into points:
// 100 per whole token of yield plus 1 per whole token deposited.
func YieldScore(totalYield, deposit decimal.Decimal) decimal.Decimal {
	y := totalYield.Mul(yieldMultiplier).Div(tokenUnit).Floor()
	d := deposit.Div(tokenUnit).Floor()
	return y.Add(d)
}

// total recomputes TotalScore with equal weights.
func (e *Entry) total() {
	e.TotalScore = e.YieldScore.Add(e.BattleScore).Add(e.ReputationScore)
}

// less orders by total score desc, then earlier update, then address.
func less(a, b *Entry) bool {
	if c := a.TotalScore.Cmp(b.TotalScore); c != 0 {
		return c > 0
	}
	if a.LastUpdateTime != b.LastUpdateTime {
		return a.LastUpdateTime < b.LastUpdateTime
	}
	return a.User < b.User
}

type index struct {
	sorted []*Entry
	rank   map[string]int
}

func buildIndex(all []*Entry) *index {
	sort.Slice(all, func(i, j int) bool { return less(all[i], all[j]) })
	idx := &index{sorted: all, rank: make(map[string]int, len(all))}
	for i, e := range all {
		e.Rank = i + 1
		idx.rank[e.User] = i + 1
	}
	return idx
}
