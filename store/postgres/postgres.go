// Package postgres keeps vault records in postgres through the gorm models of
// database/models/vaultdata.
package postgres

import (
	"context"
	"database/sql"

	"github.com/mcdexio/yield-battle-vault/database/db"
	"github.com/mcdexio/yield-battle-vault/database/models/vaultdata"
	"github.com/mcdexio/yield-battle-vault/vault"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is a postgres backed vault.Store.
type Store struct {
	db  *gorm.DB
	dao db.DAO
}

// assertStoreInterface
func _() {
	var _ vault.Store = (*Store)(nil)
}

// New returns a store over an initialized database.
func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// Update implements vault.Store. The context handed to fn carries the transaction, so a
// postgres ledger called with it commits together with the records.
func (s *Store) Update(ctx context.Context, fn func(ctx context.Context, tx vault.Tx) error) error {
	return db.TransactionContext(ctx, s.db, func(ctx context.Context, gtx *gorm.DB) error {
		return fn(ctx, &tx{db: gtx, dao: &s.dao})
	})
}

// View implements vault.Store with a read only repeatable read transaction.
func (s *Store) View(ctx context.Context, fn func(tx vault.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&tx{db: gtx, dao: &s.dao, readOnly: true})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}

type tx struct {
	db       *gorm.DB
	dao      *db.DAO
	readOnly bool
}

func (t *tx) GetPosition(user string) (*vault.Position, error) {
	m, err := t.dao.GetPosition(t.db, user)
	if err != nil || m == nil {
		return nil, err
	}
	return toPosition(m), nil
}

func (t *tx) SavePosition(p *vault.Position) error {
	return t.dao.SavePosition(t.db, fromPosition(p))
}

func (t *tx) ListPositions() ([]*vault.Position, error) {
	all, err := t.dao.ListPositions(t.db)
	if err != nil {
		return nil, err
	}
	res := make([]*vault.Position, len(all))
	for i, m := range all {
		res[i] = toPosition(m)
	}
	return res, nil
}

func (t *tx) GetBattle(id uint64) (*vault.Battle, error) {
	m, err := t.dao.GetBattle(t.db, id)
	if err != nil || m == nil {
		return nil, err
	}
	return toBattle(m), nil
}

func (t *tx) SaveBattle(b *vault.Battle) error {
	return t.dao.SaveBattle(t.db, fromBattle(b))
}

func (t *tx) GetParticipant(battleID uint64, user string) (*vault.Participant, error) {
	m, err := t.dao.GetParticipant(t.db, battleID, user)
	if err != nil || m == nil {
		return nil, err
	}
	return toParticipant(m), nil
}

func (t *tx) ListParticipants(battleID uint64) ([]*vault.Participant, error) {
	all, err := t.dao.ListParticipants(t.db, battleID)
	if err != nil {
		return nil, err
	}
	res := make([]*vault.Participant, len(all))
	for i, m := range all {
		res[i] = toParticipant(m)
	}
	return res, nil
}

func (t *tx) SaveParticipant(p *vault.Participant) error {
	return t.dao.SaveParticipant(t.db, &vaultdata.Participant{
		BattleID:     p.BattleID,
		User:         p.User,
		AmountStaked: p.AmountStaked,
		JoinTime:     p.JoinTime,
	})
}

func (t *tx) ListWinners(battleID uint64) ([]*vault.Winner, error) {
	all, err := t.dao.ListWinners(t.db, battleID)
	if err != nil {
		return nil, err
	}
	res := make([]*vault.Winner, len(all))
	for i, m := range all {
		res[i] = &vault.Winner{
			BattleID: m.BattleID,
			Rank:     m.Rank,
			User:     m.User,
			Score:    m.Score,
			Prize:    m.Prize,
		}
	}
	return res, nil
}

func (t *tx) SaveWinners(battleID uint64, winners []*vault.Winner) error {
	rows := make([]*vaultdata.Winner, len(winners))
	for i, w := range winners {
		rows[i] = &vaultdata.Winner{
			BattleID: battleID,
			Rank:     w.Rank,
			User:     w.User,
			Score:    w.Score,
			Prize:    w.Prize,
		}
	}
	return t.dao.ReplaceWinners(t.db, battleID, rows)
}

// GetStats locks the stats row inside write transactions. Every write touches it, so
// concurrent writers queue up here.
func (t *tx) GetStats() (*vault.Stats, error) {
	q := t.db
	if !t.readOnly {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	m, err := t.dao.GetStats(q)
	if err != nil {
		return nil, err
	}
	return &vault.Stats{
		TotalVaultValue:       m.TotalVaultValue,
		TotalYieldDistributed: m.TotalYieldDistributed,
		NextBattleID:          m.NextBattleID,
		RewardReserve:         m.RewardReserve,
		OpenPrizePools:        m.OpenPrizePools,
		OutstandingYield:      m.OutstandingYield,
	}, nil
}

func (t *tx) SaveStats(st *vault.Stats) error {
	return t.dao.SaveStats(t.db, &vaultdata.Stats{
		TotalVaultValue:       st.TotalVaultValue,
		TotalYieldDistributed: st.TotalYieldDistributed,
		NextBattleID:          st.NextBattleID,
		RewardReserve:         st.RewardReserve,
		OpenPrizePools:        st.OpenPrizePools,
		OutstandingYield:      st.OutstandingYield,
	})
}

func toPosition(m *vaultdata.Position) *vault.Position {
	return &vault.Position{
		User:             m.User,
		DepositedAmount:  m.DepositedAmount,
		DepositTime:      m.DepositTime,
		LastUpdateTime:   m.LastUpdateTime,
		BattleID:         m.BattleID,
		IsActive:         m.IsActive,
		PendingYield:     m.PendingYield,
		TotalYieldEarned: m.TotalYieldEarned,
	}
}

func fromPosition(p *vault.Position) *vaultdata.Position {
	return &vaultdata.Position{
		User:             p.User,
		DepositedAmount:  p.DepositedAmount,
		DepositTime:      p.DepositTime,
		LastUpdateTime:   p.LastUpdateTime,
		BattleID:         p.BattleID,
		IsActive:         p.IsActive,
		PendingYield:     p.PendingYield,
		TotalYieldEarned: p.TotalYieldEarned,
	}
}

func toBattle(m *vaultdata.Battle) *vault.Battle {
	return &vault.Battle{
		ID:                  m.ID,
		Name:                m.Name,
		StartTime:           m.StartTime,
		EndTime:             m.EndTime,
		EntryFee:            m.EntryFee,
		MaxParticipants:     m.MaxParticipants,
		CurrentParticipants: m.CurrentParticipants,
		TotalPrizePool:      m.TotalPrizePool,
		Closed:              m.Closed,
		ClosedAt:            m.ClosedAt,
	}
}

func fromBattle(b *vault.Battle) *vaultdata.Battle {
	return &vaultdata.Battle{
		ID:                  b.ID,
		Name:                b.Name,
		StartTime:           b.StartTime,
		EndTime:             b.EndTime,
		EntryFee:            b.EntryFee,
		MaxParticipants:     b.MaxParticipants,
		CurrentParticipants: b.CurrentParticipants,
		TotalPrizePool:      b.TotalPrizePool,
		Closed:              b.Closed,
		ClosedAt:            b.ClosedAt,
	}
}

func toParticipant(m *vaultdata.Participant) *vault.Participant {
	return &vault.Participant{
		BattleID:     m.BattleID,
		User:         m.User,
		AmountStaked: m.AmountStaked,
		JoinTime:     m.JoinTime,
	}
}
