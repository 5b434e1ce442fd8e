package vaultdata

import (
	"github.com/mcdexio/yield-battle-vault/database/models"
	"github.com/shopspring/decimal"
)

// Position defines struct to contain the deposit record of a user
type Position struct {
	User             string          `gorm:"column:user;type:varchar(42);primary_key;not null" json:"user"`
	DepositedAmount  decimal.Decimal `gorm:"column:deposited_amount;type:decimal(78,0);not null" json:"deposited_amount"`
	DepositTime      int64           `gorm:"column:deposit_time;type:bigint;not null" json:"deposit_time"`
	LastUpdateTime   int64           `gorm:"column:last_update_time;type:bigint;not null" json:"last_update_time"`
	BattleID         uint64          `gorm:"column:battle_id;type:bigint;not null;default:0" json:"battle_id"`
	IsActive         bool            `gorm:"column:is_active;not null" json:"is_active"`
	PendingYield     decimal.Decimal `gorm:"column:pending_yield;type:decimal(78,0);not null" json:"pending_yield"`
	TotalYieldEarned decimal.Decimal `gorm:"column:total_yield_earned;type:decimal(78,0);not null" json:"total_yield_earned"`

	models.Base
}

// TableName overrides the singular default which collides with the sql keyword.
func (Position) TableName() string {
	return "vault_position"
}

// ForeignKeyConstraints create foreign key constraints.
func (*Position) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*Position) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{Name: "active", Fields: []string{"is_active"}, Condition: "WHERE is_active"},
	}
}
