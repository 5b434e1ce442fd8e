package vault

import (
	"context"

	"github.com/shopspring/decimal"
)

// Asset is the fungible ledger the vault moves value through. Calls made with a
// transaction context must be undone when the transaction rolls back.
type Asset interface {
	BalanceOf(ctx context.Context, owner string) (decimal.Decimal, error)
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error
	TransferFrom(ctx context.Context, spender, from, to string, amount decimal.Decimal) error
}

// Scorer receives score relevant outcomes after they are committed. Both calls carry
// absolute values so that replaying them is harmless.
type Scorer interface {
	UpdateYieldScore(ctx context.Context, user string, totalYield, deposit decimal.Decimal) error
	UpdateBattleScore(ctx context.Context, user string, battleID uint64, score decimal.Decimal) error
}

// ActivityRecorder keeps per user activity counters, the profile registry in production.
type ActivityRecorder interface {
	RecordDeposit(ctx context.Context, user string, amount decimal.Decimal) error
	RecordWithdrawal(ctx context.Context, user string, amount decimal.Decimal) error
	RecordBattleJoined(ctx context.Context, user string, battleID uint64) error
	RecordBattleWon(ctx context.Context, user string, battleID uint64, rank int) error
}

type nopScorer struct{}

func (nopScorer) UpdateYieldScore(context.Context, string, decimal.Decimal, decimal.Decimal) error {
	return nil
}

func (nopScorer) UpdateBattleScore(context.Context, string, uint64, decimal.Decimal) error {
	return nil
}

type nopRecorder struct{}

func (nopRecorder) RecordDeposit(context.Context, string, decimal.Decimal) error    { return nil }
func (nopRecorder) RecordWithdrawal(context.Context, string, decimal.Decimal) error { return nil }
func (nopRecorder) RecordBattleJoined(context.Context, string, uint64) error        { return nil }
func (nopRecorder) RecordBattleWon(context.Context, string, uint64, int) error      { return nil }
