// Package ledger holds the fungible asset staked in the vault: balances, allowances and a
// transfer log.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Token metadata.
const (
	Name     = "RealFi Token"
	Symbol   = "RFT"
	Decimals = 18
)

// One is a whole token in base units.
var One = decimal.New(1, Decimals)

var (
	ErrInsufficientFunds     = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("amount must be a positive integer")
	ErrInvalidAccount        = errors.New("invalid account")
)

// Transfer is one balance movement. Mints have an empty From.
type Transfer struct {
	ID      uuid.UUID       `json:"id"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Spender string          `json:"spender,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	Time    time.Time       `json:"time"`
}

// Ledger is the full asset surface. vault.Asset is the part the vault needs.
type Ledger interface {
	BalanceOf(ctx context.Context, owner string) (decimal.Decimal, error)
	Allowance(ctx context.Context, owner, spender string) (decimal.Decimal, error)
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error
	TransferFrom(ctx context.Context, spender, from, to string, amount decimal.Decimal) error
	Approve(ctx context.Context, owner, spender string, amount decimal.Decimal) error
	Mint(ctx context.Context, to string, amount decimal.Decimal) error
	Transfers(ctx context.Context, owner string, limit int) ([]*Transfer, error)
}

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(0)) {
		return ErrInvalidAmount
	}
	return nil
}

func checkAccounts(accounts ...string) error {
	for _, a := range accounts {
		if a == "" {
			return ErrInvalidAccount
		}
	}
	return nil
}
