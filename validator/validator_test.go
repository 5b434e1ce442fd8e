package validator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/mcdexio/yield-battle-vault/ledger"
	"github.com/mcdexio/yield-battle-vault/store/memory"
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

var errDown = errors.New("store down")

type brokenBooks struct {
	*vault.Vault
}

func (brokenBooks) Audit(context.Context, func(context.Context, *vault.StatsView, []*vault.Position) error) error {
	return errDown
}

// racingBalances starts a deposit the first time the vault balance is read.
type racingBalances struct {
	*ledger.Memory
	deposit func() error
	done    chan error
}

func (r *racingBalances) BalanceOf(ctx context.Context, owner string) (decimal.Decimal, error) {
	if r.done == nil {
		r.done = make(chan error, 1)
		go func() { r.done <- r.deposit() }()
		select {
		case err := <-r.done:
			r.done <- err
		case <-time.After(20 * time.Millisecond):
		}
	}
	return r.Memory.BalanceOf(ctx, owner)
}

type ValidatorSuite struct {
	suite.Suite
	ctx       context.Context
	clock     *clockwork.FakeClock
	ledger    *ledger.Memory
	vault     *vault.Vault
	validator *Validator
	conflicts []*Report
	oks       int
}

func (s *ValidatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	s.ledger = ledger.NewMemory(s.clock)
	v, err := vault.New(memory.New(), s.ledger, vault.Config{Address: vaultAddr, Admin: admin},
		vault.WithClock(s.clock))
	s.Require().NoError(err)
	s.vault = v

	s.conflicts, s.oks = nil, 0
	s.validator = s.newValidator(v)

	amount := decimal.NewFromInt(100).Mul(ledger.One)
	s.Require().NoError(s.ledger.Mint(s.ctx, alice, amount))
	s.Require().NoError(s.ledger.Approve(s.ctx, alice, vaultAddr, amount))
	s.Require().NoError(s.vault.Deposit(s.ctx, alice, amount))
}

func (s *ValidatorSuite) newValidator(books Books) *Validator {
	v := NewValidator(&Config{RoundInterval: time.Minute, Confirmations: 2},
		logging.NewLoggerTag("validator-test"), books, s.ledger, s.clock)
	v.OnOK = func(context.Context, *Report) error {
		s.oks++
		return nil
	}
	v.OnConflict = func(_ context.Context, r *Report) error {
		s.conflicts = append(s.conflicts, r)
		return nil
	}
	return v
}

func (s *ValidatorSuite) TestReconciled() {
	reserve := decimal.NewFromInt(10).Mul(ledger.One)
	s.Require().NoError(s.ledger.Mint(s.ctx, admin, reserve))
	s.Require().NoError(s.ledger.Approve(s.ctx, admin, vaultAddr, reserve))
	s.Require().NoError(s.vault.FundRewards(s.ctx, admin, reserve))
	s.clock.Advance(30 * 24 * time.Hour)
	_, err := s.vault.ClaimYield(s.ctx, alice)
	s.Require().NoError(err)
	s.Require().NoError(s.vault.Withdraw(s.ctx, alice, ledger.One))

	report, err := s.validator.Check(s.ctx)
	s.Require().NoError(err)
	s.Require().True(report.OK(), report.String())
	s.Require().True(report.Drift().IsZero())

	s.validator.round(s.ctx)
	s.Require().Equal(1, s.oks)
	s.Require().Equal(s.clock.Now().Unix(), s.validator.LastChecked())
}

func (s *ValidatorSuite) TestDriftNeedsConfirmation() {
	// value sent to the vault outside of any vault operation.
	s.Require().NoError(s.ledger.Mint(s.ctx, vaultAddr, decimal.NewFromInt(7)))

	s.validator.round(s.ctx)
	s.Require().Empty(s.conflicts)
	s.validator.round(s.ctx)
	s.Require().Len(s.conflicts, 1)
	s.Require().Equal("7", s.conflicts[0].Drift().String())
	s.Require().Zero(s.validator.LastChecked())
	s.Require().Zero(s.oks)
}

func (s *ValidatorSuite) TestDriftResetByCleanRound() {
	s.Require().NoError(s.ledger.Mint(s.ctx, vaultAddr, decimal.NewFromInt(7)))
	s.validator.round(s.ctx)
	s.Require().Equal(1, s.validator.drifting)

	s.Require().NoError(s.ledger.Transfer(s.ctx, vaultAddr, alice, decimal.NewFromInt(7)))
	s.validator.round(s.ctx)
	s.Require().Zero(s.validator.drifting)
	s.Require().Equal(1, s.oks)
	s.validator.round(s.ctx)
	s.Require().Empty(s.conflicts)
}

func (s *ValidatorSuite) TestReadFailure() {
	v := s.newValidator(brokenBooks{s.vault})
	_, err := v.Check(s.ctx)
	s.Require().ErrorIs(err, errDown)
	v.round(s.ctx)
	s.Require().Zero(s.oks)
	s.Require().Empty(s.conflicts)
}

func (s *ValidatorSuite) TestCheckHoldsOperations() {
	s.Require().NoError(s.ledger.Mint(s.ctx, bob, ledger.One))
	s.Require().NoError(s.ledger.Approve(s.ctx, bob, vaultAddr, ledger.One))
	balances := &racingBalances{Memory: s.ledger, deposit: func() error {
		return s.vault.Deposit(s.ctx, bob, ledger.One)
	}}
	v := NewValidator(&Config{RoundInterval: time.Minute, Confirmations: 1},
		logging.NewLoggerTag("validator-test"), s.vault, balances, s.clock)

	report, err := v.Check(s.ctx)
	s.Require().NoError(err)
	s.Require().True(report.OK(), report.String())
	s.Require().True(report.Held.Equal(decimal.NewFromInt(100).Mul(ledger.One)))

	s.Require().NoError(<-balances.done)
	report, err = v.Check(s.ctx)
	s.Require().NoError(err)
	s.Require().True(report.OK(), report.String())
	s.Require().True(report.Held.Equal(decimal.NewFromInt(101).Mul(ledger.One)))
}

func (s *ValidatorSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	s.Require().NoError(s.validator.Run(ctx))
	s.Require().Equal(1, s.oks)
}

func TestValidator(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}
