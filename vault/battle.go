package vault

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// BattleStatus is derived from a battle and the current time, never stored.
type BattleStatus string

// BattleStatus enums.
const (
	BattleActive  BattleStatus = "active"
	BattleFull    BattleStatus = "full"
	BattleExpired BattleStatus = "expired"
	BattleClosed  BattleStatus = "closed"
)

// DefaultPrizeShares pays the top three 50%, 30% and 20% of the pool.
var DefaultPrizeShares = []int64{50, 30, 20}

// Status derives the state of b at now.
func Status(b *Battle, now int64) BattleStatus {
	switch {
	case b.Closed:
		return BattleClosed
	case now >= b.EndTime:
		return BattleExpired
	case b.CurrentParticipants >= b.MaxParticipants:
		return BattleFull
	default:
		return BattleActive
	}
}

// IsActive reports whether b still accepts activity, full battles included.
func IsActive(b *Battle, now int64) bool {
	s := Status(b, now)
	return s == BattleActive || s == BattleFull
}

// MaxBattleDuration bounds BattleParams.Duration so the end time stays far from overflow.
const MaxBattleDuration int64 = 10 * 365 * 24 * 60 * 60

// BattleParams are the inputs of CreateBattle.
type BattleParams struct {
	Name            string
	EntryFee        decimal.Decimal
	MaxParticipants uint32
	// Duration in seconds.
	Duration int64
}

// Validate checks p without touching state.
func (p BattleParams) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return ErrInvalidName
	case !p.EntryFee.IsPositive():
		return ErrZeroAmount
	case !p.EntryFee.Equal(p.EntryFee.Truncate(0)):
		return ErrInvalidAmount
	case p.MaxParticipants < 2:
		return ErrInvalidCapacity
	case p.Duration <= 0 || p.Duration > MaxBattleDuration:
		return ErrInvalidDuration
	}
	return nil
}

func newBattle(id uint64, p BattleParams, now int64) *Battle {
	return &Battle{
		ID:              id,
		Name:            strings.TrimSpace(p.Name),
		StartTime:       now,
		EndTime:         now + p.Duration,
		EntryFee:        p.EntryFee,
		MaxParticipants: p.MaxParticipants,
		TotalPrizePool:  decimal.Zero,
	}
}

// checkJoin returns why user cannot join b at now with amount, or nil.
func checkJoin(b *Battle, now int64, amount decimal.Decimal, alreadyJoined bool) error {
	switch Status(b, now) {
	case BattleClosed, BattleExpired:
		return ErrBattleInactive
	case BattleFull:
		return ErrBattleFull
	}
	if !amount.Equal(b.EntryFee) {
		return ErrAmountMismatch
	}
	if alreadyJoined {
		return ErrAlreadyJoined
	}
	return nil
}

// Standing is a participant with its battle score.
type Standing struct {
	Participant *Participant
	Score       decimal.Decimal
}

// RankParticipants scores every participant by the yield its principal plus stake would
// earn from joining until the battle end. principals maps users to deposited principal at
// close. Ties go to the earlier joiner, then to the lower address.
func RankParticipants(b *Battle, participants []*Participant, principals map[string]decimal.Decimal,
	apyBps int64) []Standing {
	standings := make([]Standing, 0, len(participants))
	for _, p := range participants {
		principal := principals[p.User].Add(p.AmountStaked)
		standings = append(standings, Standing{
			Participant: p,
			Score:       YieldBetween(principal, p.JoinTime, b.EndTime, apyBps),
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		a, c := standings[i], standings[j]
		if cmp := a.Score.Cmp(c.Score); cmp != 0 {
			return cmp > 0
		}
		if a.Participant.JoinTime != c.Participant.JoinTime {
			return a.Participant.JoinTime < c.Participant.JoinTime
		}
		return a.Participant.User < c.Participant.User
	})
	return standings
}

// SplitPrizes divides pool among the first len(shares) standings in proportion to shares.
// With fewer standings the used shares are renormalised. Rounding dust goes to the first
// place so the whole pool is always paid.
func SplitPrizes(b *Battle, standings []Standing, shares []int64) []*Winner {
	k := len(shares)
	if len(standings) < k {
		k = len(standings)
	}
	if k == 0 {
		return nil
	}
	var total int64
	for _, s := range shares[:k] {
		total += s
	}
	if total <= 0 {
		shares, total = []int64{1}, 1
		k = 1
	}

	winners := make([]*Winner, k)
	paid := decimal.Zero
	for i := 0; i < k; i++ {
		prize, _ := b.TotalPrizePool.Mul(decimal.NewFromInt(shares[i])).QuoRem(decimal.NewFromInt(total), 0)
		paid = paid.Add(prize)
		winners[i] = &Winner{
			BattleID: b.ID,
			Rank:     i + 1,
			User:     standings[i].Participant.User,
			Score:    standings[i].Score,
			Prize:    prize,
		}
	}
	winners[0].Prize = winners[0].Prize.Add(b.TotalPrizePool.Sub(paid))
	return winners
}

// BattlePoints is the leaderboard contribution of finishing at rank out of n.
func BattlePoints(rank, n int) decimal.Decimal {
	if rank < 1 || rank > n {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n-rank+1) * 100)
}
