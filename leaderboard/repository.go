package leaderboard

import (
	"context"
	"sync"

	"github.com/mcdexio/yield-battle-vault/database/db"
	"github.com/mcdexio/yield-battle-vault/database/models/vaultdata"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository persists entries and per battle scores. Get returns nil for unknown users.
type Repository interface {
	Get(ctx context.Context, user string) (*Entry, error)
	Save(ctx context.Context, e *Entry) error
	// SetBattleScore replaces the score user got in one battle and returns the sum over all
	// battles of user. The entry of user must exist.
	SetBattleScore(ctx context.Context, user string, battleID uint64, score decimal.Decimal) (decimal.Decimal, error)
	List(ctx context.Context) ([]*Entry, error)
}

type memoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	battles map[string]map[uint64]decimal.Decimal
}

// NewMemoryRepository returns a process local repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		entries: make(map[string]*Entry),
		battles: make(map[string]map[uint64]decimal.Decimal),
	}
}

func (r *memoryRepository) Get(_ context.Context, user string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[user]
	if !ok {
		return nil, nil
	}
	return e.clone(), nil
}

func (r *memoryRepository) Save(_ context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.User] = e.clone()
	return nil
}

func (r *memoryRepository) SetBattleScore(_ context.Context, user string, battleID uint64, score decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	scores, ok := r.battles[user]
	if !ok {
		scores = make(map[uint64]decimal.Decimal)
		r.battles[user] = scores
	}
	scores[battleID] = score
	sum := decimal.Zero
	for _, s := range scores {
		sum = sum.Add(s)
	}
	return sum, nil
}

func (r *memoryRepository) List(_ context.Context) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		all = append(all, e.clone())
	}
	return all, nil
}

type gormRepository struct {
	db  *gorm.DB
	dao db.LeaderboardDAO
}

// NewGormRepository returns a repository over the leaderboard tables.
func NewGormRepository(gdb *gorm.DB) Repository {
	return &gormRepository{db: gdb}
}

func (r *gormRepository) Get(ctx context.Context, user string) (*Entry, error) {
	m, err := r.dao.GetEntry(db.FromContext(ctx, r.db), user)
	if err != nil || m == nil {
		return nil, err
	}
	return fromModel(m), nil
}

func (r *gormRepository) Save(ctx context.Context, e *Entry) error {
	return r.dao.SaveEntry(db.FromContext(ctx, r.db), &vaultdata.LeaderboardEntry{
		User:            e.User,
		Username:        e.Username,
		YieldScore:      e.YieldScore,
		BattleScore:     e.BattleScore,
		ReputationScore: e.ReputationScore,
		TotalScore:      e.TotalScore,
		LastUpdateTime:  e.LastUpdateTime,
		RegisteredAt:    e.RegisteredAt,
	})
}

func (r *gormRepository) SetBattleScore(ctx context.Context, user string, battleID uint64, score decimal.Decimal) (decimal.Decimal, error) {
	return r.dao.SetBattleScore(db.FromContext(ctx, r.db), user, battleID, score)
}

func (r *gormRepository) List(ctx context.Context) ([]*Entry, error) {
	all, err := r.dao.ListEntries(db.FromContext(ctx, r.db))
	if err != nil {
		return nil, err
	}
	res := make([]*Entry, len(all))
	for i, m := range all {
		res[i] = fromModel(m)
	}
	return res, nil
}

func fromModel(m *vaultdata.LeaderboardEntry) *Entry {
	return &Entry{
		User:            m.User,
		Username:        m.Username,
		YieldScore:      m.YieldScore,
		BattleScore:     m.BattleScore,
		ReputationScore: m.ReputationScore,
		TotalScore:      m.TotalScore,
		LastUpdateTime:  m.LastUpdateTime,
		RegisteredAt:    m.RegisteredAt,
	}
}
