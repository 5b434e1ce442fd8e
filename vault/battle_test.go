package vault

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBattleStatus(t *testing.T) {
	b := &Battle{EndTime: 100, MaxParticipants: 2}
	assert.Equal(t, BattleActive, Status(b, 50))
	b.CurrentParticipants = 2
	assert.Equal(t, BattleFull, Status(b, 50))
	assert.True(t, IsActive(b, 50))
	assert.Equal(t, BattleExpired, Status(b, 100))
	assert.False(t, IsActive(b, 100))
	b.Closed = true
	assert.Equal(t, BattleClosed, Status(b, 50))
}

func TestCheckJoin(t *testing.T) {
	fee := decimal.NewFromInt(10)
	b := &Battle{EndTime: 100, MaxParticipants: 2, EntryFee: fee}
	assert.NoError(t, checkJoin(b, 10, fee, false))
	assert.ErrorIs(t, checkJoin(b, 10, fee.Add(decimal.NewFromInt(1)), false), ErrAmountMismatch)
	assert.ErrorIs(t, checkJoin(b, 10, fee, true), ErrAlreadyJoined)
	assert.ErrorIs(t, checkJoin(b, 100, fee, false), ErrBattleInactive)
	b.CurrentParticipants = 2
	assert.ErrorIs(t, checkJoin(b, 10, fee, false), ErrBattleFull)
}

func TestBattleParamsBounds(t *testing.T) {
	p := BattleParams{Name: "weekly", EntryFee: decimal.NewFromInt(10), MaxParticipants: 2, Duration: MaxBattleDuration}
	assert.NoError(t, p.Validate())

	p.Duration = MaxBattleDuration + 1
	assert.ErrorIs(t, p.Validate(), ErrInvalidDuration)
	p.Duration = -1
	assert.ErrorIs(t, p.Validate(), ErrInvalidDuration)

	p.Duration = 60
	p.EntryFee = decimal.RequireFromString("10.5")
	assert.ErrorIs(t, p.Validate(), ErrInvalidAmount)
}

func TestCheckAmount(t *testing.T) {
	assert.NoError(t, checkAmount(decimal.NewFromInt(1)))
	assert.NoError(t, checkAmount(decimal.RequireFromString("1e18")))
	assert.ErrorIs(t, checkAmount(decimal.Zero), ErrZeroAmount)
	assert.ErrorIs(t, checkAmount(decimal.NewFromInt(-3)), ErrZeroAmount)
	assert.ErrorIs(t, checkAmount(decimal.RequireFromString("0.5")), ErrInvalidAmount)
}

func TestReleaseYieldPartial(t *testing.T) {
	p := &Position{PendingYield: decimal.NewFromInt(5)}
	st := &Stats{RewardReserve: decimal.NewFromInt(2), OutstandingYield: decimal.NewFromInt(5), TotalYieldDistributed: decimal.Zero}

	_, err := releaseYield(p, st, false)
	assert.ErrorIs(t, err, ErrInsufficientReserve)
	assert.True(t, p.PendingYield.Equal(decimal.NewFromInt(5)))

	paid, err := releaseYield(p, st, true)
	require.NoError(t, err)
	assert.True(t, paid.Equal(decimal.NewFromInt(2)))
	assert.True(t, p.PendingYield.Equal(decimal.NewFromInt(3)))
	assert.True(t, st.RewardReserve.IsZero())
	assert.True(t, st.OutstandingYield.Equal(decimal.NewFromInt(3)))
	assert.True(t, st.TotalYieldDistributed.Equal(decimal.NewFromInt(2)))

	paid, err = releaseYield(p, st, true)
	require.NoError(t, err)
	assert.True(t, paid.IsZero())
}

func participant(user string, join int64) *Participant {
	return &Participant{User: user, JoinTime: join, AmountStaked: decimal.NewFromInt(1_000_000)}
}

func TestRankParticipants(t *testing.T) {
	b := &Battle{StartTime: 0, EndTime: 10_000}
	ps := []*Participant{
		participant("0xC", 10),
		participant("0xB", 10),
		participant("0xA", 20),
		participant("0xD", 0),
	}
	principals := map[string]decimal.Decimal{"0xA": decimal.New(1, 30)}
	standings := RankParticipants(b, ps, principals, DefaultAPYBps)
	require.Len(t, standings, 4)
	users := make([]string, len(standings))
	for i, s := range standings {
		users[i] = s.Participant.User
	}
	// 0xA has the largest principal, 0xB and 0xC tie on score and join time
	assert.Equal(t, []string{"0xA", "0xD", "0xB", "0xC"}, users)
}

func TestSplitPrizes(t *testing.T) {
	pool := decimal.NewFromInt(1001)
	b := &Battle{ID: 3, TotalPrizePool: pool}
	standings := make([]Standing, 5)
	for i := range standings {
		standings[i] = Standing{Participant: participant(string(rune('a'+i)), int64(i)), Score: decimal.Zero}
	}

	winners := SplitPrizes(b, standings, DefaultPrizeShares)
	require.Len(t, winners, 3)
	sum := decimal.Zero
	for i, w := range winners {
		assert.Equal(t, i+1, w.Rank)
		assert.Equal(t, uint64(3), w.BattleID)
		sum = sum.Add(w.Prize)
	}
	assert.True(t, sum.Equal(pool))
	assert.Equal(t, "501", winners[0].Prize.String())
	assert.Equal(t, "300", winners[1].Prize.String())
	assert.Equal(t, "200", winners[2].Prize.String())

	two := SplitPrizes(b, standings[:2], DefaultPrizeShares)
	require.Len(t, two, 2)
	assert.True(t, two[0].Prize.Add(two[1].Prize).Equal(pool))
	assert.Equal(t, "375", two[1].Prize.String())

	assert.Empty(t, SplitPrizes(b, nil, DefaultPrizeShares))
	single := SplitPrizes(b, standings[:1], []int64{0, 0})
	require.Len(t, single, 1)
	assert.True(t, single[0].Prize.Equal(pool))
}

func TestBattlePoints(t *testing.T) {
	assert.Equal(t, "300", BattlePoints(1, 3).String())
	assert.Equal(t, "100", BattlePoints(3, 3).String())
	assert.True(t, BattlePoints(4, 3).IsZero())
	assert.True(t, BattlePoints(0, 3).IsZero())
}
