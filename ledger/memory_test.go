package ledger

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/common/txhook"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	alice = "0x00000000000000000000000000000000000000a1"
	bob   = "0x00000000000000000000000000000000000000b0"
	vault = "0x00000000000000000000000000000000000000ff"
)

func tokens(n int64) decimal.Decimal {
	return decimal.NewFromInt(n).Mul(One)
}

type MemoryLedgerSuite struct {
	suite.Suite
	ctx    context.Context
	ledger *Memory
}

func (s *MemoryLedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = NewMemory(clockwork.NewFakeClock())
	s.Require().NoError(s.ledger.Mint(s.ctx, alice, tokens(100)))
}

func (s *MemoryLedgerSuite) balance(owner string) decimal.Decimal {
	b, err := s.ledger.BalanceOf(s.ctx, owner)
	s.Require().NoError(err)
	return b
}

func (s *MemoryLedgerSuite) TestTransfer() {
	s.Require().NoError(s.ledger.Transfer(s.ctx, alice, bob, tokens(40)))
	s.True(s.balance(alice).Equal(tokens(60)))
	s.True(s.balance(bob).Equal(tokens(40)))

	s.ErrorIs(s.ledger.Transfer(s.ctx, bob, alice, tokens(41)), ErrInsufficientFunds)
	s.True(s.balance(bob).Equal(tokens(40)))
}

func (s *MemoryLedgerSuite) TestRejectsBadAmounts() {
	s.ErrorIs(s.ledger.Transfer(s.ctx, alice, bob, decimal.Zero), ErrInvalidAmount)
	s.ErrorIs(s.ledger.Transfer(s.ctx, alice, bob, decimal.NewFromInt(-1)), ErrInvalidAmount)
	s.ErrorIs(s.ledger.Transfer(s.ctx, alice, bob, decimal.RequireFromString("0.5")), ErrInvalidAmount)
	s.ErrorIs(s.ledger.Mint(s.ctx, "", tokens(1)), ErrInvalidAccount)
}

func (s *MemoryLedgerSuite) TestTransferFromSpendsAllowance() {
	s.ErrorIs(s.ledger.TransferFrom(s.ctx, vault, alice, vault, tokens(1)), ErrInsufficientAllowance)

	s.Require().NoError(s.ledger.Approve(s.ctx, alice, vault, tokens(30)))
	s.Require().NoError(s.ledger.TransferFrom(s.ctx, vault, alice, vault, tokens(10)))
	left, err := s.ledger.Allowance(s.ctx, alice, vault)
	s.Require().NoError(err)
	s.True(left.Equal(tokens(20)))
	s.True(s.balance(vault).Equal(tokens(10)))

	s.Require().NoError(s.ledger.Approve(s.ctx, alice, vault, tokens(1000)))
	s.ErrorIs(s.ledger.TransferFrom(s.ctx, vault, alice, vault, tokens(91)), ErrInsufficientFunds)
	left, err = s.ledger.Allowance(s.ctx, alice, vault)
	s.Require().NoError(err)
	s.True(left.Equal(tokens(1000)))
}

func (s *MemoryLedgerSuite) TestRollbackRevertsMovements() {
	s.Require().NoError(s.ledger.Approve(s.ctx, alice, vault, tokens(50)))
	ctx, hooks := txhook.Begin(s.ctx)
	s.Require().NoError(s.ledger.TransferFrom(ctx, vault, alice, vault, tokens(50)))
	s.Require().NoError(s.ledger.Transfer(ctx, vault, bob, tokens(20)))
	s.Require().NoError(s.ledger.Approve(ctx, bob, vault, tokens(5)))
	hooks.Rollback()

	s.True(s.balance(alice).Equal(tokens(100)))
	s.True(s.balance(vault).IsZero())
	s.True(s.balance(bob).IsZero())
	left, err := s.ledger.Allowance(s.ctx, alice, vault)
	s.Require().NoError(err)
	s.True(left.Equal(tokens(50)))
	left, err = s.ledger.Allowance(s.ctx, bob, vault)
	s.Require().NoError(err)
	s.True(left.IsZero())

	log, err := s.ledger.Transfers(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Len(log, 1, "only the mint survives")
}

func (s *MemoryLedgerSuite) TestCommitKeepsMovements() {
	ctx, hooks := txhook.Begin(s.ctx)
	s.Require().NoError(s.ledger.Transfer(ctx, alice, bob, tokens(1)))
	hooks.Commit()
	hooks.Rollback()
	s.True(s.balance(bob).Equal(tokens(1)))
}

func (s *MemoryLedgerSuite) TestTransfersNewestFirst() {
	s.Require().NoError(s.ledger.Transfer(s.ctx, alice, bob, tokens(1)))
	s.Require().NoError(s.ledger.Transfer(s.ctx, alice, vault, tokens(2)))

	log, err := s.ledger.Transfers(s.ctx, bob, 10)
	s.Require().NoError(err)
	s.Require().Len(log, 1)
	s.Equal(alice, log[0].From)

	log, err = s.ledger.Transfers(s.ctx, alice, 2)
	s.Require().NoError(err)
	s.Require().Len(log, 2)
	s.Equal(vault, log[0].To)
}

func TestMemoryLedger(t *testing.T) {
	suite.Run(t, new(MemoryLedgerSuite))
}
