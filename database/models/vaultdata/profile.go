package vaultdata

import (
	"github.com/mcdexio/yield-battle-vault/database/models"
	"github.com/shopspring/decimal"
)

// Profile defines struct to contain the registered profile of a user
type Profile struct {
	User             string          `gorm:"column:user;type:varchar(42);primary_key;not null" json:"user"`
	Username         string          `gorm:"column:username;type:varchar(32);not null" json:"username"`
	RegistrationTime int64           `gorm:"column:registration_time;type:bigint;not null" json:"registration_time"`
	TotalDeposits    decimal.Decimal `gorm:"column:total_deposits;type:decimal(78,0);not null" json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `gorm:"column:total_withdrawals;type:decimal(78,0);not null" json:"total_withdrawals"`
	BattlesJoined    int64           `gorm:"column:battles_joined;type:bigint;not null" json:"battles_joined"`
	BattlesWon       int64           `gorm:"column:battles_won;type:bigint;not null" json:"battles_won"`
	ReputationScore  int64           `gorm:"column:reputation_score;type:bigint;not null" json:"reputation_score"`
	IsActive         bool            `gorm:"column:is_active;not null" json:"is_active"`

	models.Base
}

// TableName of Profile.
func (Profile) TableName() string {
	return "user_profile"
}

// Indexes returns information to create index.
func (*Profile) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{Name: "username", Unique: true, Fields: []string{"lower(username)"}},
	}
}
