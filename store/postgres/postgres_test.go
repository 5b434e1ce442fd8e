package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/database/dbtest"
	"github.com/mcdexio/yield-battle-vault/ledger"
	"github.com/mcdexio/yield-battle-vault/store/postgres"
	"github.com/mcdexio/yield-battle-vault/vault"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	vaultAddr = "0x0000000000000000000000000000000000000100"
	admin     = "0x0000000000000000000000000000000000000200"
	alice     = "0x0000000000000000000000000000000000000001"
	bob       = "0x0000000000000000000000000000000000000002"
)

func tokens(n int64) decimal.Decimal {
	return decimal.NewFromInt(n).Mul(ledger.One)
}

type PostgresVaultSuite struct {
	suite.Suite
	pg     *dbtest.Container
	ctx    context.Context
	clock  *clockwork.FakeClock
	ledger *ledger.Postgres
	vault  *vault.Vault
}

func (s *PostgresVaultSuite) SetupSuite() {
	s.pg = dbtest.Start(s.T())
	s.ctx = context.Background()
}

func (s *PostgresVaultSuite) SetupTest() {
	s.pg.Truncate(s.T())
	s.clock = clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	s.ledger = ledger.NewPostgres(s.pg.DB)
	v, err := vault.New(postgres.New(s.pg.DB), s.ledger, vault.Config{Address: vaultAddr, Admin: admin},
		vault.WithClock(s.clock))
	s.Require().NoError(err)
	s.vault = v
	for _, u := range []string{alice, bob, admin} {
		s.Require().NoError(s.ledger.Mint(s.ctx, u, tokens(100)))
		s.Require().NoError(s.ledger.Approve(s.ctx, u, vaultAddr, tokens(1000)))
	}
}

func (s *PostgresVaultSuite) requireConserved() {
	st, err := s.vault.GetVaultStats(s.ctx)
	s.Require().NoError(err)
	held, err := s.ledger.BalanceOf(s.ctx, vaultAddr)
	s.Require().NoError(err)
	s.Require().True(held.Equal(st.TotalVaultValue.Add(st.OpenPrizePools).Add(st.RewardReserve)))
}

func (s *PostgresVaultSuite) TestDepositYieldAndExit() {
	s.Require().NoError(s.vault.FundRewards(s.ctx, admin, tokens(10)))
	s.Require().NoError(s.vault.Deposit(s.ctx, alice, tokens(100)))
	s.clock.Advance(365 * 24 * time.Hour)

	p, err := s.vault.GetUserPosition(s.ctx, alice)
	s.Require().NoError(err)
	s.True(p.YieldEarned.Equal(tokens(5)))

	principal, yield, err := s.vault.WithdrawAll(s.ctx, alice)
	s.Require().NoError(err)
	s.True(principal.Add(yield).Equal(tokens(105)))
	s.requireConserved()
}

func (s *PostgresVaultSuite) TestFailedTransferRollsBackRecords() {
	err := s.vault.Deposit(s.ctx, alice, tokens(101))
	s.ErrorIs(err, vault.ErrTransferFailed)
	s.ErrorIs(err, ledger.ErrInsufficientFunds)

	s.Require().NoError(s.vault.Audit(s.ctx, func(_ context.Context, _ *vault.StatsView, positions []*vault.Position) error {
		s.Empty(positions)
		return nil
	}))
	allowance, err := s.ledger.Allowance(s.ctx, alice, vaultAddr)
	s.Require().NoError(err)
	s.True(allowance.Equal(tokens(1000)), "allowance spend rolled back with the records")
}

func (s *PostgresVaultSuite) TestBattleRoundTrip() {
	id, err := s.vault.CreateBattle(s.ctx, admin, vault.BattleParams{
		Name: "pg", EntryFee: tokens(2), MaxParticipants: 3, Duration: 3600,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.vault.JoinBattle(s.ctx, alice, id, tokens(2)))
	s.clock.Advance(time.Minute)
	s.Require().NoError(s.vault.JoinBattle(s.ctx, bob, id, tokens(2)))
	s.ErrorIs(s.vault.JoinBattle(s.ctx, bob, id, tokens(2)), vault.ErrAlreadyJoined)

	participants, err := s.vault.GetBattleParticipants(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(participants, 2)
	s.Equal(alice, participants[0].User)

	s.clock.Advance(time.Hour)
	winners, err := s.vault.CloseBattle(s.ctx, bob, id)
	s.Require().NoError(err)
	s.Require().Len(winners, 2)

	stored, err := s.vault.GetBattleWinners(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(stored, 2)
	s.Equal(winners[0].User, stored[0].User)
	s.True(stored[0].Prize.Add(stored[1].Prize).Equal(tokens(4)))

	b, err := s.vault.GetBattleDetails(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(vault.BattleClosed, b.Status)
	s.requireConserved()
}

func TestPostgresVault(t *testing.T) {
	suite.Run(t, new(PostgresVaultSuite))
}
