package profile

import (
	"context"
	"strings"
	"sync"

	"github.com/mcdexio/yield-battle-vault/database/db"
	"github.com/mcdexio/yield-battle-vault/database/models/vaultdata"
	"gorm.io/gorm"
)

// Repository stores profiles. Get returns nil for unknown users. Usernames compare case
// insensitively.
type Repository interface {
	Get(ctx context.Context, user string) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

type memoryRepository struct {
	mu        sync.RWMutex
	profiles  map[string]*Profile
	usernames map[string]string
}

// NewMemoryRepository returns a process local repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		profiles:  make(map[string]*Profile),
		usernames: make(map[string]string),
	}
}

func (r *memoryRepository) Get(_ context.Context, user string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[user]
	if !ok {
		return nil, nil
	}
	return p.clone(), nil
}

func (r *memoryRepository) Save(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.profiles[p.User]; ok {
		delete(r.usernames, strings.ToLower(old.Username))
	}
	r.profiles[p.User] = p.clone()
	r.usernames[strings.ToLower(p.Username)] = p.User
	return nil
}

func (r *memoryRepository) UsernameTaken(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.usernames[strings.ToLower(username)]
	return ok, nil
}

type gormRepository struct {
	db  *gorm.DB
	dao db.ProfileDAO
}

// NewGormRepository returns a repository over the user_profile table.
func NewGormRepository(gdb *gorm.DB) Repository {
	return &gormRepository{db: gdb}
}

func (r *gormRepository) Get(ctx context.Context, user string) (*Profile, error) {
	m, err := r.dao.GetProfile(db.FromContext(ctx, r.db), user)
	if err != nil || m == nil {
		return nil, err
	}
	return &Profile{
		User:             m.User,
		Username:         m.Username,
		RegistrationTime: m.RegistrationTime,
		TotalDeposits:    m.TotalDeposits,
		TotalWithdrawals: m.TotalWithdrawals,
		BattlesJoined:    m.BattlesJoined,
		BattlesWon:       m.BattlesWon,
		ReputationScore:  m.ReputationScore,
		IsActive:         m.IsActive,
	}, nil
}

func (r *gormRepository) Save(ctx context.Context, p *Profile) error {
	return r.dao.SaveProfile(db.FromContext(ctx, r.db), &vaultdata.Profile{
		User:             p.User,
		Username:         p.Username,
		RegistrationTime: p.RegistrationTime,
		TotalDeposits:    p.TotalDeposits,
		TotalWithdrawals: p.TotalWithdrawals,
		BattlesJoined:    p.BattlesJoined,
		BattlesWon:       p.BattlesWon,
		ReputationScore:  p.ReputationScore,
		IsActive:         p.IsActive,
	})
}

func (r *gormRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.dao.UsernameTaken(db.FromContext(ctx, r.db), username)
}
