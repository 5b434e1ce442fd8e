// Package leaderboard ranks users by a composite of yield, battle and reputation points.
package leaderboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/cache/cacher"
	"github.com/mcdexio/yield-battle-vault/chain"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/shopspring/decimal"
)

// ErrUnknownUser is returned for users without an entry.
var ErrUnknownUser = errors.New("user not on leaderboard")

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Board keeps the entries and a lazily rebuilt rank index. Updates carry absolute values,
// so replaying one leaves the board unchanged.
type Board struct {
	mu     sync.Mutex
	repo   Repository
	clock  Clock
	index  *cacher.Derived
	logger logging.Logger
}

// New returns a board over repo. A nil clock means wall time.
func New(repo Repository, clock Clock) *Board {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	b := &Board{
		repo:   repo,
		clock:  clock,
		logger: logging.NewLoggerTag("leaderboard"),
	}
	b.index = cacher.NewDerived(func() (interface{}, error) {
		all, err := b.repo.List(context.Background())
		if err != nil {
			return nil, err
		}
		return buildIndex(all), nil
	})
	return b
}

func (b *Board) now() int64 {
	return b.clock.Now().Unix()
}

func (b *Board) getOrNew(ctx context.Context, user string) (*Entry, bool, error) {
	e, err := b.repo.Get(ctx, user)
	if err != nil {
		return nil, false, err
	}
	if e == nil {
		return newEntry(user, b.now()), true, nil
	}
	return e, false, nil
}

// apply runs change on the entry of user and saves it when something changed.
func (b *Board) apply(ctx context.Context, user string, change func(e *Entry) error) error {
	user, err := chain.NormalizeAddress(user)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	e, created, err := b.getOrNew(ctx, user)
	if err != nil {
		return err
	}
	if created {
		if err := b.repo.Save(ctx, e); err != nil {
			return err
		}
		b.index.Invalidate()
	}
	before := e.clone()
	if err := change(e); err != nil {
		return err
	}
	scored := !e.YieldScore.Equal(before.YieldScore) || !e.BattleScore.Equal(before.BattleScore) ||
		!e.ReputationScore.Equal(before.ReputationScore)
	e.total()
	if scored {
		e.LastUpdateTime = b.now()
	} else if e.Username == before.Username {
		return nil
	}
	if err := b.repo.Save(ctx, e); err != nil {
		return err
	}
	b.index.Invalidate()
	return nil
}

// RegisterUser creates the entry of user if needed and sets its display name.
func (b *Board) RegisterUser(ctx context.Context, user, username string) error {
	return b.apply(ctx, user, func(e *Entry) error {
		e.Username = username
		return nil
	})
}

// UpdateYieldScore recomputes the yield points of user from cumulative yield and current
// principal.
func (b *Board) UpdateYieldScore(ctx context.Context, user string, totalYield, deposit decimal.Decimal) error {
	return b.apply(ctx, user, func(e *Entry) error {
		e.YieldScore = YieldScore(totalYield, deposit)
		return nil
	})
}

// UpdateBattleScore sets the points user got in one battle.
func (b *Board) UpdateBattleScore(ctx context.Context, user string, battleID uint64, score decimal.Decimal) error {
	return b.apply(ctx, user, func(e *Entry) error {
		sum, err := b.repo.SetBattleScore(ctx, e.User, battleID, score)
		if err != nil {
			return err
		}
		e.BattleScore = sum
		return nil
	})
}

// UpdateReputation sets the reputation points of user.
func (b *Board) UpdateReputation(ctx context.Context, user string, score int64) error {
	return b.apply(ctx, user, func(e *Entry) error {
		e.ReputationScore = decimal.NewFromInt(score)
		return nil
	})
}

func (b *Board) ranking() (*index, error) {
	v, err := b.index.Get()
	if err != nil {
		return nil, err
	}
	return v.(*index), nil
}

// GetUserRank returns the 1 based rank of user, 0 when unknown.
func (b *Board) GetUserRank(_ context.Context, user string) (int, error) {
	user, err := chain.NormalizeAddress(user)
	if err != nil {
		return 0, err
	}
	idx, err := b.ranking()
	if err != nil {
		return 0, err
	}
	return idx.rank[user], nil
}

// GetTopUsers returns up to count entries, best first.
func (b *Board) GetTopUsers(_ context.Context, count int) ([]*Entry, error) {
	idx, err := b.ranking()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		count = 0
	}
	if count > len(idx.sorted) {
		count = len(idx.sorted)
	}
	res := make([]*Entry, count)
	for i := 0; i < count; i++ {
		res[i] = idx.sorted[i].clone()
	}
	return res, nil
}

// GetUserScoreDetails returns the entry of user with its rank.
func (b *Board) GetUserScoreDetails(_ context.Context, user string) (*Entry, error) {
	user, err := chain.NormalizeAddress(user)
	if err != nil {
		return nil, err
	}
	idx, err := b.ranking()
	if err != nil {
		return nil, err
	}
	r, ok := idx.rank[user]
	if !ok {
		return nil, ErrUnknownUser
	}
	return idx.sorted[r-1].clone(), nil
}

// Stats counts the users on the board. Active users have a positive total score.
type Stats struct {
	TotalUsers  int `json:"totalUsers"`
	ActiveUsers int `json:"activeUsers"`
}

// GetTotalStats returns the user counts.
func (b *Board) GetTotalStats(_ context.Context) (*Stats, error) {
	idx, err := b.ranking()
	if err != nil {
		return nil, err
	}
	st := &Stats{TotalUsers: len(idx.sorted)}
	for _, e := range idx.sorted {
		if e.TotalScore.IsPositive() {
			st.ActiveUsers++
		}
	}
	return st, nil
}
