package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/mcdexio/yield-battle-vault/database/db"
	"github.com/mcdexio/yield-battle-vault/database/dbtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type PostgresLedgerSuite struct {
	suite.Suite
	pg     *dbtest.Container
	ctx    context.Context
	ledger *Postgres
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.pg = dbtest.Start(s.T())
	s.ledger = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.pg.Truncate(s.T())
	s.Require().NoError(s.ledger.Mint(s.ctx, alice, tokens(100)))
}

func (s *PostgresLedgerSuite) balance(owner string) decimal.Decimal {
	b, err := s.ledger.BalanceOf(s.ctx, owner)
	s.Require().NoError(err)
	return b
}

func (s *PostgresLedgerSuite) TestTransferFrom() {
	s.ErrorIs(s.ledger.TransferFrom(s.ctx, vault, alice, vault, tokens(1)), ErrInsufficientAllowance)
	s.Require().NoError(s.ledger.Approve(s.ctx, alice, vault, tokens(200)))
	s.ErrorIs(s.ledger.TransferFrom(s.ctx, vault, alice, vault, tokens(101)), ErrInsufficientFunds)

	allowance, err := s.ledger.Allowance(s.ctx, alice, vault)
	s.Require().NoError(err)
	s.True(allowance.Equal(tokens(200)), "failed transfer keeps the allowance")

	s.Require().NoError(s.ledger.TransferFrom(s.ctx, vault, alice, vault, tokens(60)))
	s.True(s.balance(alice).Equal(tokens(40)))
	s.True(s.balance(vault).Equal(tokens(60)))

	log, err := s.ledger.Transfers(s.ctx, vault, 10)
	s.Require().NoError(err)
	s.Require().Len(log, 1)
	s.Equal(vault, log[0].Spender)
}

func (s *PostgresLedgerSuite) TestJoinsOuterTransaction() {
	boom := errors.New("boom")
	err := db.TransactionContext(s.ctx, s.pg.DB, func(ctx context.Context, _ *gorm.DB) error {
		if err := s.ledger.Transfer(ctx, alice, bob, tokens(30)); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)
	s.True(s.balance(alice).Equal(tokens(100)))
	s.True(s.balance(bob).IsZero())
}

func TestPostgresLedger(t *testing.T) {
	suite.Run(t, new(PostgresLedgerSuite))
}
