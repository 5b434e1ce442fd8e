package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	userA = "0x0000000000000000000000000000000000000001"
	userB = "0x0000000000000000000000000000000000000002"
	userC = "0x0000000000000000000000000000000000000003"
)

func tokens(n int64) decimal.Decimal {
	return decimal.NewFromInt(n).Mul(tokenUnit)
}

type BoardSuite struct {
	suite.Suite
	ctx   context.Context
	clock *clockwork.FakeClock
	repo  Repository
	board *Board
}

func (s *BoardSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	s.repo = NewMemoryRepository()
	s.board = New(s.repo, s.clock)
}

func (s *BoardSuite) rank(user string) int {
	r, err := s.board.GetUserRank(s.ctx, user)
	s.Require().NoError(err)
	return r
}

func (s *BoardSuite) TestYieldScoreFormula() {
	s.Equal("0", YieldScore(decimal.Zero, decimal.Zero).String())
	// 5 tokens of yield and 100 deposited
	s.Equal("600", YieldScore(tokens(5), tokens(100)).String())
	// fractions are floored separately
	half := tokens(1).Div(decimal.NewFromInt(2))
	s.Equal("50", YieldScore(half, half).String())
}

func (s *BoardSuite) TestEmptyBoard() {
	top, err := s.board.GetTopUsers(s.ctx, 10)
	s.Require().NoError(err)
	s.NotNil(top)
	s.Empty(top)
	s.Equal(0, s.rank(userA))

	_, err = s.board.GetUserScoreDetails(s.ctx, userA)
	s.ErrorIs(err, ErrUnknownUser)

	st, err := s.board.GetTotalStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, st.TotalUsers)
}

func (s *BoardSuite) TestTieBrokenByEarlierUpdate() {
	s.Require().NoError(s.board.UpdateBattleScore(s.ctx, userB, 1, decimal.NewFromInt(100)))
	s.clock.Advance(time.Minute)
	s.Require().NoError(s.board.UpdateBattleScore(s.ctx, userA, 1, decimal.NewFromInt(100)))

	s.Equal(1, s.rank(userB))
	s.Equal(2, s.rank(userA))

	top, err := s.board.GetTopUsers(s.ctx, 5)
	s.Require().NoError(err)
	s.Require().Len(top, 2)
	s.Equal(userB, top[0].User)
	s.Equal(1, top[0].Rank)
	s.True(top[0].TotalScore.Equal(top[1].TotalScore))
}

func (s *BoardSuite) TestTieOnTimeBrokenByAddress() {
	s.Require().NoError(s.board.UpdateReputation(s.ctx, userB, 100))
	s.Require().NoError(s.board.UpdateReputation(s.ctx, userA, 100))
	s.Equal(1, s.rank(userA))
	s.Equal(2, s.rank(userB))
}

func (s *BoardSuite) TestBattleScoresSumAndReplace() {
	s.Require().NoError(s.board.UpdateBattleScore(s.ctx, userA, 1, decimal.NewFromInt(300)))
	s.Require().NoError(s.board.UpdateBattleScore(s.ctx, userA, 2, decimal.NewFromInt(100)))
	s.Require().NoError(s.board.UpdateBattleScore(s.ctx, userA, 1, decimal.NewFromInt(300)))

	e, err := s.board.GetUserScoreDetails(s.ctx, userA)
	s.Require().NoError(err)
	s.Equal("400", e.BattleScore.String())
	s.Equal("400", e.TotalScore.String())
}

func (s *BoardSuite) TestReplayKeepsUpdateTime() {
	s.Require().NoError(s.board.UpdateYieldScore(s.ctx, userA, tokens(1), tokens(10)))
	first, err := s.board.GetUserScoreDetails(s.ctx, userA)
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	s.Require().NoError(s.board.UpdateYieldScore(s.ctx, userA, tokens(1), tokens(10)))
	again, err := s.board.GetUserScoreDetails(s.ctx, userA)
	s.Require().NoError(err)
	s.Equal(first.LastUpdateTime, again.LastUpdateTime)
	s.Equal("110", again.TotalScore.String())
}

func (s *BoardSuite) TestTotalIsSumOfParts() {
	s.Require().NoError(s.board.UpdateYieldScore(s.ctx, userC, tokens(2), tokens(50)))
	s.Require().NoError(s.board.UpdateBattleScore(s.ctx, userC, 7, decimal.NewFromInt(200)))
	s.Require().NoError(s.board.UpdateReputation(s.ctx, userC, 110))
	s.Require().NoError(s.board.RegisterUser(s.ctx, userC, "carol"))

	e, err := s.board.GetUserScoreDetails(s.ctx, userC)
	s.Require().NoError(err)
	s.Equal("250", e.YieldScore.String())
	s.Equal("560", e.TotalScore.String())
	s.Equal("carol", e.Username)
}

func (s *BoardSuite) TestRankMatchesTopOrder() {
	s.Require().NoError(s.board.UpdateReputation(s.ctx, userA, 10))
	s.clock.Advance(time.Second)
	s.Require().NoError(s.board.UpdateReputation(s.ctx, userB, 30))
	s.clock.Advance(time.Second)
	s.Require().NoError(s.board.UpdateReputation(s.ctx, userC, 20))
	s.Require().NoError(s.board.RegisterUser(s.ctx, "0x0000000000000000000000000000000000000004", "idle"))

	top, err := s.board.GetTopUsers(s.ctx, 100)
	s.Require().NoError(err)
	s.Require().Len(top, 4)
	for i, e := range top {
		s.Equal(i+1, s.rank(e.User))
		if i > 0 {
			s.False(less(e, top[i-1]))
		}
	}
	s.Equal(userB, top[0].User)

	st, err := s.board.GetTotalStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(4, st.TotalUsers)
	s.Equal(3, st.ActiveUsers)

	top, err = s.board.GetTopUsers(s.ctx, -1)
	s.Require().NoError(err)
	s.Empty(top)
}

func (s *BoardSuite) TestIndexRebuiltOnlyAfterWrites() {
	s.Require().NoError(s.board.UpdateReputation(s.ctx, userA, 1))
	s.rank(userA)
	s.rank(userB)
	builds := s.board.index.Builds()
	s.Require().NoError(s.board.UpdateReputation(s.ctx, userA, 1))
	s.rank(userA)
	s.Equal(builds, s.board.index.Builds())

	s.Require().NoError(s.board.UpdateReputation(s.ctx, userA, 2))
	s.rank(userA)
	s.Equal(builds+1, s.board.index.Builds())
}

func (s *BoardSuite) TestRejectsBadAddress() {
	s.Error(s.board.UpdateReputation(s.ctx, "bob", 1))
}

func TestBoard(t *testing.T) {
	suite.Run(t, new(BoardSuite))
}
