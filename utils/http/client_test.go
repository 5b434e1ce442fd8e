package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/api"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/mcdexio/yield-battle-vault/leaderboard"
	"github.com/mcdexio/yield-battle-vault/ledger"
	"github.com/mcdexio/yield-battle-vault/profile"
	"github.com/mcdexio/yield-battle-vault/store/memory"
	vhttp "github.com/mcdexio/yield-battle-vault/utils/http"
	"github.com/mcdexio/yield-battle-vault/vault"
	"github.com/stretchr/testify/suite"
)

const (
	vaultAddr = "0x0000000000000000000000000000000000000100"
	admin     = "0x0000000000000000000000000000000000000200"
	alice     = "0x0000000000000000000000000000000000000001"
)

type ClientSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *clockwork.FakeClock
	ledger *ledger.Memory
	server *httptest.Server
	admin  *vhttp.Client
	alice  *vhttp.Client
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	s.ledger = ledger.NewMemory(s.clock)
	board := leaderboard.New(leaderboard.NewMemoryRepository(), s.clock)
	registry := profile.New(profile.NewMemoryRepository(), s.clock, board)
	v, err := vault.New(memory.New(), s.ledger, vault.Config{Address: vaultAddr, Admin: admin},
		vault.WithClock(s.clock), vault.WithScorer(board), vault.WithActivityRecorder(registry))
	s.Require().NoError(err)

	srv := api.NewServer(s.ctx, logging.NewLoggerTag("api-test"),
		api.Services{Vault: v, Board: board, Profiles: registry, Ledger: s.ledger}, "")
	s.server = httptest.NewServer(srv.Handler())
	logger := logging.NewLoggerTag("client-test")
	s.admin = vhttp.NewHttpClient(nil, logger, s.server.URL+"/", admin)
	s.alice = vhttp.NewHttpClient(nil, logger, s.server.URL, alice)

	s.Require().NoError(s.ledger.Mint(s.ctx, alice, ledger.One.Mul(ledger.One)))
	s.Require().NoError(s.ledger.Approve(s.ctx, alice, vaultAddr, ledger.One.Mul(ledger.One)))
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) TestBattleRoundTrip() {
	id, err := s.admin.CreateBattle(s.ctx, vault.BattleParams{
		Name: "daily", EntryFee: ledger.One, MaxParticipants: 2, Duration: 60,
	})
	s.Require().NoError(err)
	s.Require().EqualValues(1, id)

	s.Require().NoError(s.alice.Deposit(s.ctx, ledger.One))
	s.Require().NoError(s.alice.JoinBattle(s.ctx, id, ledger.One))

	b, err := s.alice.Battle(s.ctx, id)
	s.Require().NoError(err)
	s.Require().EqualValues(1, b.CurrentParticipants)
	ps, err := s.alice.Participants(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(ps, 1)

	s.clock.Advance(2 * time.Minute)
	winners, err := s.admin.CloseBattle(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(winners, 1)
	s.Require().Equal(alice, winners[0].User)
	stored, err := s.alice.Winners(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)

	st, err := s.alice.Stats(s.ctx)
	s.Require().NoError(err)
	s.Require().True(st.TotalVaultValue.Equal(ledger.One))
	pos, err := s.alice.Position(s.ctx, alice)
	s.Require().NoError(err)
	s.Require().True(pos.IsActive)

	top, err := s.alice.Top(s.ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(top, 1)
	s.Require().Equal(alice, top[0].User)
}

func (s *ClientSuite) TestAPIErrors() {
	_, err := s.alice.CreateBattle(s.ctx, vault.BattleParams{
		Name: "daily", EntryFee: ledger.One, MaxParticipants: 2, Duration: 60,
	})
	var apiErr *vhttp.Error
	s.Require().True(errors.As(err, &apiErr))
	s.Require().Equal(http.StatusForbidden, apiErr.Status)
	s.Require().Equal(vault.ErrUnauthorized.Code, apiErr.Code)

	_, err = s.alice.Battle(s.ctx, 42)
	s.Require().True(errors.As(err, &apiErr))
	s.Require().Equal(http.StatusNotFound, apiErr.Status)

	err = s.alice.Get(s.ctx, "/no/such/route", nil, nil)
	s.Require().True(errors.As(err, &apiErr))
	s.Require().Equal(http.StatusNotFound, apiErr.Status)
	s.Require().Empty(apiErr.Code)
}

func TestClient(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}
