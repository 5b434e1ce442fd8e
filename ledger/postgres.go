package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mcdexio/yield-battle-vault/database/db"
	"github.com/mcdexio/yield-battle-vault/database/models/vaultdata"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Postgres keeps the ledger in the token tables. Called with a store transaction context it
// joins that transaction; otherwise every call runs in its own.
type Postgres struct {
	db  *gorm.DB
	dao db.LedgerDAO
}

// assertLedgerInterface
func _() {
	var _ Ledger = (*Postgres)(nil)
}

// NewPostgres returns a ledger over an initialized database.
func NewPostgres(gdb *gorm.DB) *Postgres {
	return &Postgres{db: gdb}
}

func (p *Postgres) run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if tx, ok := db.TxFromContext(ctx); ok {
		return fn(tx)
	}
	return db.Transaction(p.db.WithContext(ctx), fn)
}

func (p *Postgres) BalanceOf(ctx context.Context, owner string) (decimal.Decimal, error) {
	return p.dao.GetBalance(db.FromContext(ctx, p.db), owner)
}

func (p *Postgres) Allowance(ctx context.Context, owner, spender string) (decimal.Decimal, error) {
	return p.dao.GetAllowance(db.FromContext(ctx, p.db), owner, spender)
}

func (p *Postgres) Approve(ctx context.Context, owner, spender string, amount decimal.Decimal) error {
	if err := checkAccounts(owner, spender); err != nil {
		return err
	}
	if amount.IsNegative() || !amount.Equal(amount.Truncate(0)) {
		return ErrInvalidAmount
	}
	return p.dao.SetAllowance(db.FromContext(ctx, p.db), owner, spender, amount)
}

func (p *Postgres) Mint(ctx context.Context, to string, amount decimal.Decimal) error {
	if err := checkAccounts(to); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	return p.run(ctx, func(tx *gorm.DB) error {
		if err := p.dao.Credit(tx, to, amount); err != nil {
			return err
		}
		return p.record(tx, "", to, "", amount)
	})
}

func (p *Postgres) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	if err := checkAccounts(from, to); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	return p.run(ctx, func(tx *gorm.DB) error {
		return p.move(tx, from, to, "", amount)
	})
}

func (p *Postgres) TransferFrom(ctx context.Context, spender, from, to string, amount decimal.Decimal) error {
	if err := checkAccounts(spender, from, to); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	return p.run(ctx, func(tx *gorm.DB) error {
		if err := p.dao.SpendAllowance(tx, from, spender, amount); err != nil {
			if errors.Is(err, db.ErrNotEnough) {
				return ErrInsufficientAllowance
			}
			return err
		}
		return p.move(tx, from, to, spender, amount)
	})
}

func (p *Postgres) Transfers(ctx context.Context, owner string, limit int) ([]*Transfer, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.dao.ListTransfers(db.FromContext(ctx, p.db), owner, limit)
	if err != nil {
		return nil, err
	}
	res := make([]*Transfer, len(rows))
	for i, r := range rows {
		res[i] = &Transfer{
			ID:      r.ID,
			From:    r.From,
			To:      r.To,
			Spender: r.Spender,
			Amount:  r.Amount,
			Time:    r.CreatedAt,
		}
	}
	return res, nil
}

func (p *Postgres) move(tx *gorm.DB, from, to, spender string, amount decimal.Decimal) error {
	if err := p.dao.Debit(tx, from, amount); err != nil {
		if errors.Is(err, db.ErrNotEnough) {
			return ErrInsufficientFunds
		}
		return err
	}
	if err := p.dao.Credit(tx, to, amount); err != nil {
		return err
	}
	return p.record(tx, from, to, spender, amount)
}

func (p *Postgres) record(tx *gorm.DB, from, to, spender string, amount decimal.Decimal) error {
	return p.dao.InsertTransfer(tx, &vaultdata.TokenTransfer{
		ID:      uuid.New(),
		From:    from,
		To:      to,
		Spender: spender,
		Amount:  amount,
	})
}
