package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/chain"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/mcdexio/yield-battle-vault/metrics"
	"github.com/shopspring/decimal"
)

// errSettleFirst aborts a write which touched an expired, unsettled battle.
var errSettleFirst = errors.New("battle expired and needs settlement")

// Vault coordinates positions, battles, the ledger and the score consumers. Writes are
// serialized; reads go to committed store snapshots.
type Vault struct {
	mu       sync.Mutex
	store    Store
	asset    Asset
	clock    Clock
	scorer   Scorer
	activity ActivityRecorder
	config   Config
	logger   logging.Logger
}

// Option configures a Vault.
type Option func(*Vault)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(v *Vault) { v.clock = c }
}

// WithScorer sets the leaderboard fed after commits.
func WithScorer(s Scorer) Option {
	return func(v *Vault) { v.scorer = s }
}

// WithActivityRecorder sets the profile registry fed after commits.
func WithActivityRecorder(r ActivityRecorder) Option {
	return func(v *Vault) { v.activity = r }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(v *Vault) { v.logger = l }
}

// New returns a Vault over store and asset.
func New(store Store, asset Asset, cfg Config, opts ...Option) (*Vault, error) {
	if store == nil || asset == nil {
		return nil, fmt.Errorf("vault needs a store and an asset")
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	v := &Vault{
		store:    store,
		asset:    asset,
		config:   cfg,
		clock:    clockwork.NewRealClock(),
		scorer:   nopScorer{},
		activity: nopRecorder{},
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = logging.NewLoggerTag("vault")
	}
	return v, nil
}

// Address returns the ledger account of the vault.
func (v *Vault) Address() string {
	return v.config.Address
}

// Admin returns the administrative account.
func (v *Vault) Admin() string {
	return v.config.Admin
}

// APYBps returns the configured annual rate.
func (v *Vault) APYBps() int64 {
	return v.config.APYBps
}

func (v *Vault) now() int64 {
	return v.clock.Now().Unix()
}

func normalize(addr string) (string, error) {
	a, err := chain.NormalizeAddress(addr)
	if err != nil {
		return "", ErrInvalidAddress
	}
	return a, nil
}

// checkAmount rejects amounts that cannot move as whole base units.
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrZeroAmount
	}
	if !amount.Equal(amount.Truncate(0)) {
		return ErrInvalidAmount
	}
	return nil
}

func (v *Vault) requireAdmin(caller string) (string, error) {
	caller, err := normalize(caller)
	if err != nil {
		return "", err
	}
	if caller != v.config.Admin {
		return "", ErrUnauthorized
	}
	return caller, nil
}

// update runs fn in one store transaction and records the outcome. Callers hold v.mu.
func (v *Vault) update(ctx context.Context, op string, fn func(ctx context.Context, tx Tx) error) error {
	var stats *Stats
	err := v.store.Update(ctx, func(ctx context.Context, tx Tx) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		st, err := tx.GetStats()
		stats = st
		return err
	})
	code := "ok"
	if err != nil {
		code = "INTERNAL"
		if e, ok := AsError(err); ok {
			code = e.Code
		} else if errors.Is(err, errSettleFirst) {
			code = ErrBattleInactive.Code
		}
	} else if stats != nil {
		metrics.SetVaultValue("principal", stats.TotalVaultValue)
		metrics.SetVaultValue("prize_pools", stats.OpenPrizePools)
		metrics.SetVaultValue("reward_reserve", stats.RewardReserve)
		metrics.SetVaultValue("outstanding_yield", stats.OutstandingYield)
	}
	metrics.ObserveOperation(op, code)
	return err
}

// settle moves yield accrued since the last settlement into PendingYield.
func (v *Vault) settle(p *Position, st *Stats, now int64) decimal.Decimal {
	accrued := CalculateYield(p, now, v.config.APYBps)
	if accrued.IsPositive() {
		p.PendingYield = p.PendingYield.Add(accrued)
		p.TotalYieldEarned = p.TotalYieldEarned.Add(accrued)
		st.OutstandingYield = st.OutstandingYield.Add(accrued)
	}
	if now > p.LastUpdateTime {
		p.LastUpdateTime = now
	}
	return accrued
}

// releaseYield books the pending yield of p as paid out of the reward reserve. With partial
// set it pays what the reserve covers and leaves the rest pending, otherwise a short reserve
// fails. The caller transfers the returned amount.
func releaseYield(p *Position, st *Stats, partial bool) (decimal.Decimal, error) {
	amount := p.PendingYield
	if st.RewardReserve.LessThan(amount) {
		if !partial {
			return decimal.Zero, ErrInsufficientReserve
		}
		amount = st.RewardReserve
	}
	if !amount.IsPositive() {
		return decimal.Zero, nil
	}
	st.RewardReserve = st.RewardReserve.Sub(amount)
	st.OutstandingYield = st.OutstandingYield.Sub(amount)
	st.TotalYieldDistributed = st.TotalYieldDistributed.Add(amount)
	p.PendingYield = p.PendingYield.Sub(amount)
	return amount, nil
}

func newPosition(user string) *Position {
	return &Position{
		User:             user,
		DepositedAmount:  decimal.Zero,
		PendingYield:     decimal.Zero,
		TotalYieldEarned: decimal.Zero,
	}
}

func getOrNewPosition(tx Tx, user string) (*Position, error) {
	p, err := tx.GetPosition(user)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = newPosition(user)
	}
	return p, nil
}

// Deposit stakes amount for user. Yield accrued on an existing position is settled first.
func (v *Vault) Deposit(ctx context.Context, user string, amount decimal.Decimal) error {
	user, err := normalize(user)
	if err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()

	var pos *Position
	err = v.update(ctx, "deposit", func(ctx context.Context, tx Tx) error {
		st, err := tx.GetStats()
		if err != nil {
			return err
		}
		p, err := getOrNewPosition(tx, user)
		if err != nil {
			return err
		}
		if p.IsActive {
			v.settle(p, st, now)
		} else {
			p.DepositTime = now
			p.LastUpdateTime = now
		}
		if err := v.asset.TransferFrom(ctx, v.config.Address, user, v.config.Address, amount); err != nil {
			return wrapTransfer("deposit", err)
		}
		p.DepositedAmount = p.DepositedAmount.Add(amount)
		p.IsActive = true
		st.TotalVaultValue = st.TotalVaultValue.Add(amount)
		if err := tx.SavePosition(p); err != nil {
			return err
		}
		pos = p
		return tx.SaveStats(st)
	})
	if err != nil {
		return err
	}
	v.logger.Info("deposit user=%s amount=%s principal=%s", user, amount, pos.DepositedAmount)
	v.pushYieldScore(ctx, pos)
	v.notify("profile", v.activity.RecordDeposit(ctx, user, amount))
	return nil
}

// Withdraw returns amount of principal to user. Accrued yield is settled and stays
// claimable.
func (v *Vault) Withdraw(ctx context.Context, user string, amount decimal.Decimal) error {
	user, err := normalize(user)
	if err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()

	var pos *Position
	err = v.update(ctx, "withdraw", func(ctx context.Context, tx Tx) error {
		st, err := tx.GetStats()
		if err != nil {
			return err
		}
		p, err := tx.GetPosition(user)
		if err != nil {
			return err
		}
		if p == nil || !p.IsActive {
			return ErrNoPosition
		}
		if amount.GreaterThan(p.DepositedAmount) {
			return ErrInsufficientBalance
		}
		v.settle(p, st, now)
		p.DepositedAmount = p.DepositedAmount.Sub(amount)
		p.IsActive = p.DepositedAmount.IsPositive()
		st.TotalVaultValue = st.TotalVaultValue.Sub(amount)
		if err := v.asset.Transfer(ctx, v.config.Address, user, amount); err != nil {
			return wrapTransfer("withdraw", err)
		}
		if err := tx.SavePosition(p); err != nil {
			return err
		}
		pos = p
		return tx.SaveStats(st)
	})
	if err != nil {
		return err
	}
	v.logger.Info("withdraw user=%s amount=%s principal=%s", user, amount, pos.DepositedAmount)
	v.pushYieldScore(ctx, pos)
	v.notify("profile", v.activity.RecordWithdrawal(ctx, user, amount))
	return nil
}

// WithdrawAll closes the position of user and pays principal plus the unpaid yield the reward
// reserve covers. Yield the reserve cannot cover stays pending and claimable.
func (v *Vault) WithdrawAll(ctx context.Context, user string) (principal, yield decimal.Decimal, err error) {
	user, err = normalize(user)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()

	var pos *Position
	err = v.update(ctx, "withdraw_all", func(ctx context.Context, tx Tx) error {
		st, err := tx.GetStats()
		if err != nil {
			return err
		}
		p, err := tx.GetPosition(user)
		if err != nil {
			return err
		}
		if p == nil || !p.IsActive {
			return ErrNoPosition
		}
		v.settle(p, st, now)
		if yield, err = releaseYield(p, st, true); err != nil {
			return err
		}
		principal = p.DepositedAmount
		p.DepositedAmount = decimal.Zero
		p.IsActive = false
		st.TotalVaultValue = st.TotalVaultValue.Sub(principal)
		if err := v.asset.Transfer(ctx, v.config.Address, user, principal.Add(yield)); err != nil {
			return wrapTransfer("withdraw all", err)
		}
		if err := tx.SavePosition(p); err != nil {
			return err
		}
		pos = p
		return tx.SaveStats(st)
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	v.logger.Info("withdraw all user=%s principal=%s yield=%s", user, principal, yield)
	v.pushYieldScore(ctx, pos)
	v.notify("profile", v.activity.RecordWithdrawal(ctx, user, principal.Add(yield)))
	return principal, yield, nil
}

// ClaimYield pays all unpaid yield of user without touching principal.
func (v *Vault) ClaimYield(ctx context.Context, user string) (decimal.Decimal, error) {
	user, err := normalize(user)
	if err != nil {
		return decimal.Zero, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()

	var (
		pos     *Position
		claimed decimal.Decimal
	)
	err = v.update(ctx, "claim", func(ctx context.Context, tx Tx) error {
		st, err := tx.GetStats()
		if err != nil {
			return err
		}
		p, err := tx.GetPosition(user)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrNothingToClaim
		}
		v.settle(p, st, now)
		if !p.PendingYield.IsPositive() {
			return ErrNothingToClaim
		}
		if claimed, err = releaseYield(p, st, false); err != nil {
			return err
		}
		if err := v.asset.Transfer(ctx, v.config.Address, user, claimed); err != nil {
			return wrapTransfer("claim", err)
		}
		if err := tx.SavePosition(p); err != nil {
			return err
		}
		pos = p
		return tx.SaveStats(st)
	})
	if err != nil {
		return decimal.Zero, err
	}
	v.logger.Info("claim user=%s amount=%s", user, claimed)
	v.pushYieldScore(ctx, pos)
	return claimed, nil
}

// FundRewards moves amount from the admin into the reserve which pays yield.
func (v *Vault) FundRewards(ctx context.Context, caller string, amount decimal.Decimal) error {
	caller, err := v.requireAdmin(caller)
	if err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	return v.update(ctx, "fund_rewards", func(ctx context.Context, tx Tx) error {
		st, err := tx.GetStats()
		if err != nil {
			return err
		}
		if err := v.asset.TransferFrom(ctx, v.config.Address, caller, v.config.Address, amount); err != nil {
			return wrapTransfer("fund rewards", err)
		}
		st.RewardReserve = st.RewardReserve.Add(amount)
		return tx.SaveStats(st)
	})
}

func (v *Vault) pushYieldScore(ctx context.Context, p *Position) {
	v.notify("leaderboard", v.scorer.UpdateYieldScore(ctx, p.User, p.TotalYieldEarned, p.DepositedAmount))
}

// notify logs a failed post-commit update. The committed operation still succeeds.
func (v *Vault) notify(target string, err error) {
	if err == nil {
		return
	}
	metrics.NotifyFailuresTotal.WithLabelValues(target).Inc()
	v.logger.Warn("fail to update %s after commit: %s", target, err)
}
