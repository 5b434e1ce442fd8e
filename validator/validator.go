// Package validator audits that the vault books match the funds it actually holds.
package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/mcdexio/yield-battle-vault/metrics"
	"github.com/mcdexio/yield-battle-vault/vault"
	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
)

// Books is the vault surface read by an audit.
type Books interface {
	Address() string
	Audit(ctx context.Context, fn func(ctx context.Context, st *vault.StatsView, positions []*vault.Position) error) error
}

// BalanceReader reads ledger balances.
type BalanceReader interface {
	BalanceOf(ctx context.Context, owner string) (decimal.Decimal, error)
}

// Report is the outcome of one audit.
type Report struct {
	Timestamp int64 `json:"timestamp"`
	// Held is the ledger balance of the vault account.
	Held decimal.Decimal `json:"held"`
	// Booked is principal plus open prize pools plus the reward reserve.
	Booked           decimal.Decimal `json:"booked"`
	OutstandingYield decimal.Decimal `json:"outstandingYield"`
	PendingSum       decimal.Decimal `json:"pendingSum"`
}

// Drift is Held minus Booked.
func (r *Report) Drift() decimal.Decimal {
	return r.Held.Sub(r.Booked)
}

// OK reports whether funds and yield both reconcile.
func (r *Report) OK() bool {
	return r.Held.Equal(r.Booked) && r.PendingSum.Equal(r.OutstandingYield)
}

func (r *Report) String() string {
	return fmt.Sprintf("timestamp=%v held=%s booked=%s drift=%s outstanding=%s pending=%s",
		formatTime(r.Timestamp), r.Held, r.Booked, r.Drift(), r.OutstandingYield, r.PendingSum)
}

type Validator struct {
	OnOK       func(context.Context, *Report) error
	OnConflict func(context.Context, *Report) error

	config      *Config
	books       Books
	balances    BalanceReader
	clock       clockwork.Clock
	lastChecked atomic.Int64
	drifting    int
	logger      logging.Logger
}

func NewValidator(config *Config, logger logging.Logger, books Books, balances BalanceReader,
	clock clockwork.Clock) *Validator {
	if config.RoundInterval <= 0 {
		config.RoundInterval = time.Minute
	}
	if config.Confirmations <= 0 {
		config.Confirmations = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Validator{
		config:   config,
		books:    books,
		balances: balances,
		clock:    clock,
		logger:   logger,
	}
}

// LastChecked is the unix time of the last audit that reconciled, 0 before any.
func (v *Validator) LastChecked() int64 {
	return v.lastChecked.Load()
}

// Run audits every RoundInterval until ctx is cancelled.
func (v *Validator) Run(ctx context.Context) error {
	ticker := v.clock.NewTicker(v.config.RoundInterval)
	defer ticker.Stop()
	for {
		v.round(ctx)
		select {
		case <-ctx.Done():
			v.logger.Info("Validator receives shutdown signal.")
			return nil
		case <-ticker.Chan():
		}
	}
}

func (v *Validator) round(ctx context.Context) {
	report, err := v.Check(ctx)
	if err != nil {
		metrics.AuditRunsTotal.WithLabelValues("error").Inc()
		v.logger.Warn("error occurs while auditing vault: %v", err)
		return
	}
	if report.OK() {
		metrics.AuditRunsTotal.WithLabelValues("ok").Inc()
		v.drifting = 0
		v.onOK(ctx, report)
		v.lastChecked.Store(report.Timestamp)
		return
	}
	metrics.AuditRunsTotal.WithLabelValues("drift").Inc()
	v.drifting++
	if v.drifting < v.config.Confirmations {
		v.logger.Info("drift seen, waiting for confirmation %d/%d. %s", v.drifting, v.config.Confirmations, report)
		return
	}
	v.onConflict(ctx, report)
}

// Check runs one audit. The ledger balance is read while the vault holds still.
func (v *Validator) Check(ctx context.Context) (*Report, error) {
	report := &Report{Timestamp: v.clock.Now().Unix(), PendingSum: decimal.Zero}
	err := v.books.Audit(ctx, func(ctx context.Context, st *vault.StatsView, positions []*vault.Position) error {
		held, err := v.balances.BalanceOf(ctx, v.books.Address())
		if err != nil {
			return fmt.Errorf("fail to read vault balance: %w", err)
		}
		for _, p := range positions {
			report.PendingSum = report.PendingSum.Add(p.PendingYield)
		}
		report.Held = held
		report.Booked = st.TotalVaultValue.Add(st.OpenPrizePools).Add(st.RewardReserve)
		report.OutstandingYield = st.OutstandingYield
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fail to audit vault books: %w", err)
	}
	return report, nil
}

func (v *Validator) onOK(ctx context.Context, report *Report) {
	if v.OnOK != nil {
		if err := v.OnOK(ctx, report); err != nil {
			v.logger.Warn("OnOK hook failed: %v", err)
		}
	}
	v.logger.Info("vault books verified. %s", report)
}

func (v *Validator) onConflict(ctx context.Context, report *Report) {
	if v.OnConflict != nil {
		if err := v.OnConflict(ctx, report); err != nil {
			v.logger.Warn("OnConflict hook failed: %v", err)
		}
	}
	v.logger.Error("vault books do not reconcile. %s", report)
}

func formatTime(timestamp int64) string {
	return fmt.Sprintf("%v (%v)", timestamp, time.Unix(timestamp, 0).UTC().Format("2006-01-02 15:04:05"))
}
