package vault

import (
	"time"

	"github.com/shopspring/decimal"
)

// Clock supplies the current time. clockwork.Clock satisfies it, as does chain.BlockClock.
type Clock interface {
	Now() time.Time
}

// Position is the deposit record of one address.
type Position struct {
	User            string
	DepositedAmount decimal.Decimal
	DepositTime     int64
	LastUpdateTime  int64
	// BattleID is the latest battle the user joined, 0 for none.
	BattleID uint64
	IsActive bool
	// PendingYield is settled yield owed to the user and not paid out yet.
	PendingYield decimal.Decimal
	// TotalYieldEarned only grows.
	TotalYieldEarned decimal.Decimal
}

func (p *Position) clone() *Position {
	c := *p
	return &c
}

// Battle is a time boxed competition with an exact entry fee.
type Battle struct {
	ID                  uint64
	Name                string
	StartTime           int64
	EndTime             int64
	EntryFee            decimal.Decimal
	MaxParticipants     uint32
	CurrentParticipants uint32
	TotalPrizePool      decimal.Decimal
	Closed              bool
	ClosedAt            int64
}

// Participant is a battle membership.
type Participant struct {
	BattleID     uint64
	User         string
	AmountStaked decimal.Decimal
	JoinTime     int64
}

// Winner is a ranked, paid participant of a closed battle.
type Winner struct {
	BattleID uint64
	Rank     int
	User     string
	Score    decimal.Decimal
	Prize    decimal.Decimal
}

// Stats holds vault wide counters. The vault ledger balance equals
// TotalVaultValue + OpenPrizePools + RewardReserve unless value is sent to the vault
// outside of these operations.
type Stats struct {
	TotalVaultValue       decimal.Decimal
	TotalYieldDistributed decimal.Decimal
	NextBattleID          uint64
	RewardReserve         decimal.Decimal
	OpenPrizePools        decimal.Decimal
	// OutstandingYield is the sum of PendingYield over all positions.
	OutstandingYield decimal.Decimal
}

// NewStats returns the counters of an empty vault.
func NewStats() *Stats {
	return &Stats{NextBattleID: 1}
}

// PositionView is the read model of a position.
type PositionView struct {
	User           string          `json:"user"`
	Amount         decimal.Decimal `json:"amount"`
	DepositTime    int64           `json:"depositTime"`
	LastUpdateTime int64           `json:"lastUpdateTime"`
	YieldEarned    decimal.Decimal `json:"yieldEarned"`
	IsActive       bool            `json:"isActive"`
	BattleID       uint64          `json:"battleId"`
}

// BattleView is the read model of a battle.
type BattleView struct {
	ID                  uint64          `json:"id"`
	Name                string          `json:"name"`
	StartTime           int64           `json:"startTime"`
	EndTime             int64           `json:"endTime"`
	PrizePool           decimal.Decimal `json:"prizePool"`
	EntryFee            decimal.Decimal `json:"entryFee"`
	MaxParticipants     uint32          `json:"maxParticipants"`
	CurrentParticipants uint32          `json:"currentParticipants"`
	IsActive            bool            `json:"isActive"`
	Status              BattleStatus    `json:"status"`
}

// StatsView is the read model of the vault counters.
type StatsView struct {
	TotalVaultValue       decimal.Decimal `json:"totalVaultValue"`
	TotalYieldDistributed decimal.Decimal `json:"totalYieldDistributed"`
	NextBattleID          uint64          `json:"nextBattleId"`
	RewardReserve         decimal.Decimal `json:"rewardReserve"`
	OpenPrizePools        decimal.Decimal `json:"openPrizePools"`
	OutstandingYield      decimal.Decimal `json:"outstandingYield"`
}
