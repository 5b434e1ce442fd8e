package vaultdata

import (
	"github.com/mcdexio/yield-battle-vault/database/models"
	"github.com/shopspring/decimal"
)

// LeaderboardEntry defines struct to contain the scores of a user
type LeaderboardEntry struct {
	User            string          `gorm:"column:user;type:varchar(42);primary_key;not null" json:"user"`
	Username        string          `gorm:"column:username;type:varchar(32);not null;default:''" json:"username"`
	YieldScore      decimal.Decimal `gorm:"column:yield_score;type:decimal(78,0);not null" json:"yield_score"`
	BattleScore     decimal.Decimal `gorm:"column:battle_score;type:decimal(78,0);not null" json:"battle_score"`
	ReputationScore decimal.Decimal `gorm:"column:reputation_score;type:decimal(78,0);not null" json:"reputation_score"`
	TotalScore      decimal.Decimal `gorm:"column:total_score;type:decimal(78,0);not null" json:"total_score"`
	LastUpdateTime  int64           `gorm:"column:last_update_time;type:bigint;not null" json:"last_update_time"`
	RegisteredAt    int64           `gorm:"column:registered_at;type:bigint;not null;default:0" json:"registered_at"`

	models.Base
}

// TableName of LeaderboardEntry.
func (LeaderboardEntry) TableName() string {
	return "leaderboard_entry"
}

// Indexes returns information to create index.
func (*LeaderboardEntry) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{Name: "ranking", Fields: []string{"total_score DESC", "last_update_time ASC", "\"user\" ASC"}},
	}
}

// LeaderboardBattleScore defines struct to contain the contribution of one battle
type LeaderboardBattleScore struct {
	User     string          `gorm:"column:user;type:varchar(42);primary_key;not null" json:"user"`
	BattleID uint64          `gorm:"column:battle_id;primary_key;autoIncrement:false;not null" json:"battle_id"`
	Score    decimal.Decimal `gorm:"column:score;type:decimal(78,0);not null" json:"score"`

	models.Base
}

// TableName of LeaderboardBattleScore.
func (LeaderboardBattleScore) TableName() string {
	return "leaderboard_battle_score"
}

// ForeignKeyConstraints create foreign key constraints.
func (*LeaderboardBattleScore) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return []models.ForeignKeyConstraint{
		{
			Field:    "\"user\"",
			Dest:     "\"leaderboard_entry\"(\"user\")",
			OnDelete: "CASCADE",
			OnUpdate: "RESTRICT",
		},
	}
}
