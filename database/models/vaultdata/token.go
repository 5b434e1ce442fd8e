package vaultdata

import (
	"github.com/google/uuid"
	"github.com/mcdexio/yield-battle-vault/database/models"
	"github.com/shopspring/decimal"
)

// TokenBalance defines struct to contain the ledger balance of an account
type TokenBalance struct {
	Owner   string          `gorm:"column:owner;type:varchar(42);primary_key;not null" json:"owner"`
	Balance decimal.Decimal `gorm:"column:balance;type:decimal(78,0);not null;check:balance >= 0" json:"balance"`

	models.Base
}

// TokenAllowance defines struct to contain what spender may move for owner
type TokenAllowance struct {
	Owner   string          `gorm:"column:owner;type:varchar(42);primary_key;not null" json:"owner"`
	Spender string          `gorm:"column:spender;type:varchar(42);primary_key;not null" json:"spender"`
	Amount  decimal.Decimal `gorm:"column:amount;type:decimal(78,0);not null;check:amount >= 0" json:"amount"`

	models.Base
}

// TokenTransfer defines struct to contain one ledger movement. Mints have an empty From.
type TokenTransfer struct {
	ID      uuid.UUID       `gorm:"column:id;type:uuid;primary_key" json:"id"`
	From    string          `gorm:"column:from;type:varchar(42);not null" json:"from"`
	To      string          `gorm:"column:to;type:varchar(42);not null" json:"to"`
	Spender string          `gorm:"column:spender;type:varchar(42);not null;default:''" json:"spender"`
	Amount  decimal.Decimal `gorm:"column:amount;type:decimal(78,0);not null" json:"amount"`

	models.Base
}

// Indexes returns information to create index.
func (*TokenTransfer) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{Name: "from_time", Fields: []string{"\"from\"", "created_at"}},
		{Name: "to_time", Fields: []string{"\"to\"", "created_at"}},
	}
}
