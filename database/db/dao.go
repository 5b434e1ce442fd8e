package db

import (
	"errors"
	"fmt"

	"github.com/mcdexio/yield-battle-vault/database/models/vaultdata"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotEnough is returned when a conditional debit finds less than requested.
var ErrNotEnough = errors.New("not enough funds")

// DAO groups the data access of the vault tables. The handle passed to each method decides
// whether the call joins a transaction.
type DAO struct {
	PositionDAO
	BattleDAO
	StatsDAO
	LeaderboardDAO
	ProfileDAO
	LedgerDAO
}

// "user" is a reserved word, raw conditions must go through the quoting clauses.
func userIs(user string) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: "user"}, Value: user}
}

var orderByUser = clause.OrderByColumn{Column: clause.Column{Name: "user"}}

func first(db *gorm.DB, dest interface{}, conds ...clause.Expression) (bool, error) {
	err := db.Clauses(conds...).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

type PositionDAO struct {
}

func (pd *PositionDAO) GetPosition(db *gorm.DB, user string) (*vaultdata.Position, error) {
	var p vaultdata.Position
	ok, err := first(db, &p, userIs(user))
	if err != nil {
		return nil, fmt.Errorf("fail to get position: user=%s %w", user, err)
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (pd *PositionDAO) SavePosition(db *gorm.DB, p *vaultdata.Position) error {
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error; err != nil {
		return fmt.Errorf("fail to save position: user=%s %w", p.User, err)
	}
	return nil
}

func (pd *PositionDAO) ListPositions(db *gorm.DB) ([]*vaultdata.Position, error) {
	var all []*vaultdata.Position
	if err := db.Order(orderByUser).Find(&all).Error; err != nil {
		return nil, fmt.Errorf("fail to list positions %w", err)
	}
	return all, nil
}

type BattleDAO struct {
}

func (bd *BattleDAO) GetBattle(db *gorm.DB, id uint64) (*vaultdata.Battle, error) {
	var b vaultdata.Battle
	ok, err := first(db, &b, clause.Eq{Column: clause.Column{Name: "id"}, Value: id})
	if err != nil {
		return nil, fmt.Errorf("fail to get battle: id=%d %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (bd *BattleDAO) SaveBattle(db *gorm.DB, b *vaultdata.Battle) error {
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(b).Error; err != nil {
		return fmt.Errorf("fail to save battle: id=%d %w", b.ID, err)
	}
	return nil
}

func (bd *BattleDAO) GetParticipant(db *gorm.DB, battleID uint64, user string) (*vaultdata.Participant, error) {
	var p vaultdata.Participant
	ok, err := first(db, &p, clause.Eq{Column: clause.Column{Name: "battle_id"}, Value: battleID}, userIs(user))
	if err != nil {
		return nil, fmt.Errorf("fail to get participant: battle=%d user=%s %w", battleID, user, err)
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListParticipants returns the members of a battle in join order.
func (bd *BattleDAO) ListParticipants(db *gorm.DB, battleID uint64) ([]*vaultdata.Participant, error) {
	var all []*vaultdata.Participant
	if err := db.Where("battle_id = ?", battleID).
		Order("join_time").Order("created_at").Order(orderByUser).
		Find(&all).Error; err != nil {
		return nil, fmt.Errorf("fail to list participants: battle=%d %w", battleID, err)
	}
	return all, nil
}

func (bd *BattleDAO) SaveParticipant(db *gorm.DB, p *vaultdata.Participant) error {
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error; err != nil {
		return fmt.Errorf("fail to save participant: battle=%d user=%s %w", p.BattleID, p.User, err)
	}
	return nil
}

func (bd *BattleDAO) ListWinners(db *gorm.DB, battleID uint64) ([]*vaultdata.Winner, error) {
	var all []*vaultdata.Winner
	if err := db.Where("battle_id = ?", battleID).Order("rank").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("fail to list winners: battle=%d %w", battleID, err)
	}
	return all, nil
}

// ReplaceWinners stores winners as the complete result of a battle.
func (bd *BattleDAO) ReplaceWinners(db *gorm.DB, battleID uint64, winners []*vaultdata.Winner) error {
	if err := db.Where("battle_id = ?", battleID).Delete(&vaultdata.Winner{}).Error; err != nil {
		return fmt.Errorf("fail to delete winners: battle=%d %w", battleID, err)
	}
	if len(winners) == 0 {
		return nil
	}
	if err := db.Create(&winners).Error; err != nil {
		return fmt.Errorf("fail to create winners: battle=%d size=%v %w", battleID, len(winners), err)
	}
	return nil
}

type StatsDAO struct {
}

func (sd *StatsDAO) GetStats(db *gorm.DB) (*vaultdata.Stats, error) {
	var s vaultdata.Stats
	ok, err := first(db, &s, clause.Eq{Column: clause.Column{Name: "id"}, Value: vaultdata.StatsRowID})
	if err != nil {
		return nil, fmt.Errorf("fail to get vault stats %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("vault stats row missing, reset the database")
	}
	return &s, nil
}

func (sd *StatsDAO) SaveStats(db *gorm.DB, s *vaultdata.Stats) error {
	s.ID = vaultdata.StatsRowID
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(s).Error; err != nil {
		return fmt.Errorf("fail to save vault stats %w", err)
	}
	return nil
}

type LeaderboardDAO struct {
}

func (ld *LeaderboardDAO) GetEntry(db *gorm.DB, user string) (*vaultdata.LeaderboardEntry, error) {
	var e vaultdata.LeaderboardEntry
	ok, err := first(db, &e, userIs(user))
	if err != nil {
		return nil, fmt.Errorf("fail to get leaderboard entry: user=%s %w", user, err)
	}
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (ld *LeaderboardDAO) SaveEntry(db *gorm.DB, e *vaultdata.LeaderboardEntry) error {
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(e).Error; err != nil {
		return fmt.Errorf("fail to save leaderboard entry: user=%s %w", e.User, err)
	}
	return nil
}

// ListEntries returns all entries in ranking order.
func (ld *LeaderboardDAO) ListEntries(db *gorm.DB) ([]*vaultdata.LeaderboardEntry, error) {
	var all []*vaultdata.LeaderboardEntry
	if err := db.Order("total_score desc").Order("last_update_time").Order(orderByUser).
		Find(&all).Error; err != nil {
		return nil, fmt.Errorf("fail to list leaderboard %w", err)
	}
	return all, nil
}

// SetBattleScore upserts the score of one battle and returns the sum over all battles of user.
func (ld *LeaderboardDAO) SetBattleScore(db *gorm.DB, user string, battleID uint64, score decimal.Decimal) (decimal.Decimal, error) {
	row := &vaultdata.LeaderboardBattleScore{User: user, BattleID: battleID, Score: score}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user"}, {Name: "battle_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
	}).Create(row).Error; err != nil {
		return decimal.Zero, fmt.Errorf("fail to set battle score: user=%s battle=%d %w", user, battleID, err)
	}
	var sum decimal.Decimal
	if err := db.Model(&vaultdata.LeaderboardBattleScore{}).Clauses(userIs(user)).
		Select("COALESCE(SUM(score), 0)").Row().Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("fail to sum battle scores: user=%s %w", user, err)
	}
	return sum, nil
}

type ProfileDAO struct {
}

func (pd *ProfileDAO) GetProfile(db *gorm.DB, user string) (*vaultdata.Profile, error) {
	var p vaultdata.Profile
	ok, err := first(db, &p, userIs(user))
	if err != nil {
		return nil, fmt.Errorf("fail to get profile: user=%s %w", user, err)
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// UsernameTaken matches case insensitively.
func (pd *ProfileDAO) UsernameTaken(db *gorm.DB, username string) (bool, error) {
	var n int64
	if err := db.Model(&vaultdata.Profile{}).Where("lower(username) = lower(?)", username).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("fail to look up username %w", err)
	}
	return n > 0, nil
}

func (pd *ProfileDAO) SaveProfile(db *gorm.DB, p *vaultdata.Profile) error {
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error; err != nil {
		return fmt.Errorf("fail to save profile: user=%s %w", p.User, err)
	}
	return nil
}

type LedgerDAO struct {
}

func (ld *LedgerDAO) GetBalance(db *gorm.DB, owner string) (decimal.Decimal, error) {
	var b vaultdata.TokenBalance
	ok, err := first(db, &b, clause.Eq{Column: clause.Column{Name: "owner"}, Value: owner})
	if err != nil {
		return decimal.Zero, fmt.Errorf("fail to get balance: owner=%s %w", owner, err)
	}
	if !ok {
		return decimal.Zero, nil
	}
	return b.Balance, nil
}

// Credit adds amount to the balance of owner, creating the account.
func (ld *LedgerDAO) Credit(db *gorm.DB, owner string, amount decimal.Decimal) error {
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("token_balance.balance + EXCLUDED.balance"),
			"updated_at": gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(&vaultdata.TokenBalance{Owner: owner, Balance: amount}).Error; err != nil {
		return fmt.Errorf("fail to credit: owner=%s %w", owner, err)
	}
	return nil
}

// Debit subtracts amount only when the balance covers it, ErrNotEnough otherwise.
func (ld *LedgerDAO) Debit(db *gorm.DB, owner string, amount decimal.Decimal) error {
	res := db.Model(&vaultdata.TokenBalance{}).
		Where("owner = ? AND balance >= ?", owner, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("fail to debit: owner=%s %w", owner, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotEnough
	}
	return nil
}

func (ld *LedgerDAO) GetAllowance(db *gorm.DB, owner, spender string) (decimal.Decimal, error) {
	var a vaultdata.TokenAllowance
	ok, err := first(db, &a,
		clause.Eq{Column: clause.Column{Name: "owner"}, Value: owner},
		clause.Eq{Column: clause.Column{Name: "spender"}, Value: spender})
	if err != nil {
		return decimal.Zero, fmt.Errorf("fail to get allowance: owner=%s spender=%s %w", owner, spender, err)
	}
	if !ok {
		return decimal.Zero, nil
	}
	return a.Amount, nil
}

func (ld *LedgerDAO) SetAllowance(db *gorm.DB, owner, spender string, amount decimal.Decimal) error {
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}, {Name: "spender"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&vaultdata.TokenAllowance{Owner: owner, Spender: spender, Amount: amount}).Error; err != nil {
		return fmt.Errorf("fail to set allowance: owner=%s spender=%s %w", owner, spender, err)
	}
	return nil
}

// SpendAllowance lowers the allowance only when it covers amount, ErrNotEnough otherwise.
func (ld *LedgerDAO) SpendAllowance(db *gorm.DB, owner, spender string, amount decimal.Decimal) error {
	res := db.Model(&vaultdata.TokenAllowance{}).
		Where("owner = ? AND spender = ? AND amount >= ?", owner, spender, amount).
		UpdateColumn("amount", gorm.Expr("amount - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("fail to spend allowance: owner=%s spender=%s %w", owner, spender, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotEnough
	}
	return nil
}

func (ld *LedgerDAO) InsertTransfer(db *gorm.DB, t *vaultdata.TokenTransfer) error {
	if err := db.Create(t).Error; err != nil {
		return fmt.Errorf("fail to record transfer: from=%s to=%s %w", t.From, t.To, err)
	}
	return nil
}

// ListTransfers returns the newest transfers touching owner, all when owner is empty.
func (ld *LedgerDAO) ListTransfers(db *gorm.DB, owner string, limit int) ([]*vaultdata.TokenTransfer, error) {
	q := db.Order("created_at desc").Limit(limit)
	if owner != "" {
		q = q.Where(clause.Or(
			clause.Eq{Column: clause.Column{Name: "from"}, Value: owner},
			clause.Eq{Column: clause.Column{Name: "to"}, Value: owner}))
	}
	var all []*vaultdata.TokenTransfer
	if err := q.Find(&all).Error; err != nil {
		return nil, fmt.Errorf("fail to list transfers %w", err)
	}
	return all, nil
}
