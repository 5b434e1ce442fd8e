package vaultdata

import (
	"github.com/mcdexio/yield-battle-vault/database/models"
	"github.com/shopspring/decimal"
)

// Battle defines struct to contain a battle
type Battle struct {
	ID                  uint64          `gorm:"column:id;primary_key;autoIncrement:false;not null" json:"id"`
	Name                string          `gorm:"column:name;type:varchar(128);not null" json:"name"`
	StartTime           int64           `gorm:"column:start_time;type:bigint;not null" json:"start_time"`
	EndTime             int64           `gorm:"column:end_time;type:bigint;not null" json:"end_time"`
	EntryFee            decimal.Decimal `gorm:"column:entry_fee;type:decimal(78,0);not null" json:"entry_fee"`
	MaxParticipants     uint32          `gorm:"column:max_participants;type:integer;not null" json:"max_participants"`
	CurrentParticipants uint32          `gorm:"column:current_participants;type:integer;not null" json:"current_participants"`
	TotalPrizePool      decimal.Decimal `gorm:"column:total_prize_pool;type:decimal(78,0);not null" json:"total_prize_pool"`
	Closed              bool            `gorm:"column:closed;not null" json:"closed"`
	ClosedAt            int64           `gorm:"column:closed_at;type:bigint;not null;default:0" json:"closed_at"`

	models.Base
}

// ForeignKeyConstraints create foreign key constraints.
func (*Battle) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*Battle) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{Name: "open_end_time", Fields: []string{"end_time"}, Condition: "WHERE NOT closed"},
	}
}

// Participant defines struct to contain a battle membership
type Participant struct {
	BattleID     uint64          `gorm:"column:battle_id;primary_key;autoIncrement:false;not null" json:"battle_id"`
	User         string          `gorm:"column:user;type:varchar(42);primary_key;not null" json:"user"`
	AmountStaked decimal.Decimal `gorm:"column:amount_staked;type:decimal(78,0);not null" json:"amount_staked"`
	JoinTime     int64           `gorm:"column:join_time;type:bigint;not null" json:"join_time"`

	models.Base
}

// TableName of Participant.
func (Participant) TableName() string {
	return "battle_participant"
}

// ForeignKeyConstraints create foreign key constraints.
func (*Participant) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return []models.ForeignKeyConstraint{
		{
			Field:    "battle_id",
			Dest:     "\"battle\"(id)",
			OnDelete: "RESTRICT",
			OnUpdate: "RESTRICT",
		},
	}
}

// Indexes returns information to create index.
func (*Participant) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{Name: "join_order", Fields: []string{"battle_id", "join_time"}},
	}
}

// Winner defines struct to contain a paid rank of a closed battle
type Winner struct {
	BattleID uint64          `gorm:"column:battle_id;primary_key;autoIncrement:false;not null" json:"battle_id"`
	Rank     int             `gorm:"column:rank;primary_key;autoIncrement:false;not null" json:"rank"`
	User     string          `gorm:"column:user;type:varchar(42);not null" json:"user"`
	Score    decimal.Decimal `gorm:"column:score;type:decimal(78,0);not null" json:"score"`
	Prize    decimal.Decimal `gorm:"column:prize;type:decimal(78,0);not null" json:"prize"`

	models.Base
}

// TableName of Winner.
func (Winner) TableName() string {
	return "battle_winner"
}

// ForeignKeyConstraints create foreign key constraints.
func (*Winner) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return []models.ForeignKeyConstraint{
		{
			Field:    "battle_id",
			Dest:     "\"battle\"(id)",
			OnDelete: "RESTRICT",
			OnUpdate: "RESTRICT",
		},
	}
}

// Indexes returns information to create index.
func (*Winner) Indexes() []models.CustomIndex {
	return nil
}
