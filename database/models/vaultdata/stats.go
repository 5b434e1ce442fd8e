package vaultdata

import (
	"github.com/mcdexio/yield-battle-vault/database/models"
	"github.com/shopspring/decimal"
)

// StatsRowID is the id of the single stats row.
const StatsRowID = 1

// Stats defines struct to contain the vault wide counters
type Stats struct {
	ID                    int64           `gorm:"column:id;primary_key;autoIncrement:false;not null" json:"id"`
	TotalVaultValue       decimal.Decimal `gorm:"column:total_vault_value;type:decimal(78,0);not null" json:"total_vault_value"`
	TotalYieldDistributed decimal.Decimal `gorm:"column:total_yield_distributed;type:decimal(78,0);not null" json:"total_yield_distributed"`
	NextBattleID          uint64          `gorm:"column:next_battle_id;type:bigint;not null" json:"next_battle_id"`
	RewardReserve         decimal.Decimal `gorm:"column:reward_reserve;type:decimal(78,0);not null" json:"reward_reserve"`
	OpenPrizePools        decimal.Decimal `gorm:"column:open_prize_pools;type:decimal(78,0);not null" json:"open_prize_pools"`
	OutstandingYield      decimal.Decimal `gorm:"column:outstanding_yield;type:decimal(78,0);not null" json:"outstanding_yield"`

	models.Base
}

// TableName of Stats.
func (Stats) TableName() string {
	return "vault_stats"
}
