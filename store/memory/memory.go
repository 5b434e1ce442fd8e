// Package memory keeps vault records in process memory. Every write transaction works on a
// copy of the committed state which replaces it atomically on success.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/mcdexio/yield-battle-vault/common/txhook"
	"github.com/mcdexio/yield-battle-vault/vault"
)

// ErrReadOnly is returned by writes inside View.
var ErrReadOnly = errors.New("read only transaction")

type state struct {
	positions    map[string]*vault.Position
	battles      map[uint64]*vault.Battle
	participants map[uint64][]*vault.Participant
	winners      map[uint64][]*vault.Winner
	stats        *vault.Stats
}

func newState() *state {
	return &state{
		positions:    make(map[string]*vault.Position),
		battles:      make(map[uint64]*vault.Battle),
		participants: make(map[uint64][]*vault.Participant),
		winners:      make(map[uint64][]*vault.Winner),
		stats:        vault.NewStats(),
	}
}

// clone copies the maps. Records are never mutated once stored, so they are shared.
func (s *state) clone() *state {
	c := &state{
		positions:    make(map[string]*vault.Position, len(s.positions)),
		battles:      make(map[uint64]*vault.Battle, len(s.battles)),
		participants: make(map[uint64][]*vault.Participant, len(s.participants)),
		winners:      make(map[uint64][]*vault.Winner, len(s.winners)),
		stats:        s.stats,
	}
	for k, v := range s.positions {
		c.positions[k] = v
	}
	for k, v := range s.battles {
		c.battles[k] = v
	}
	for k, v := range s.participants {
		c.participants[k] = v
	}
	for k, v := range s.winners {
		c.winners[k] = v
	}
	return c
}

// Store is an in-memory vault.Store.
type Store struct {
	writeMu   sync.Mutex
	mu        sync.RWMutex
	committed *state
}

// assertStoreInterface
func _() {
	var _ vault.Store = (*Store)(nil)
}

// New returns an empty store.
func New() *Store {
	return &Store{committed: newState()}
}

// Update implements vault.Store.
func (s *Store) Update(ctx context.Context, fn func(ctx context.Context, tx vault.Tx) error) (err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	ctx, hooks := txhook.Begin(ctx)
	defer func() {
		if recovered := recover(); recovered != nil {
			hooks.Rollback()
			panic(recovered)
		}
	}()

	if err = fn(ctx, &tx{state: work}); err != nil {
		hooks.Rollback()
		return err
	}

	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	hooks.Commit()
	return nil
}

// View implements vault.Store.
func (s *Store) View(_ context.Context, fn func(tx vault.Tx) error) error {
	s.mu.RLock()
	snapshot := s.committed
	s.mu.RUnlock()
	return fn(&tx{state: snapshot, readOnly: true})
}

type tx struct {
	state    *state
	readOnly bool
}

func (t *tx) GetPosition(user string) (*vault.Position, error) {
	p, ok := t.state.positions[user]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (t *tx) SavePosition(p *vault.Position) error {
	if t.readOnly {
		return ErrReadOnly
	}
	c := *p
	t.state.positions[p.User] = &c
	return nil
}

func (t *tx) ListPositions() ([]*vault.Position, error) {
	res := make([]*vault.Position, 0, len(t.state.positions))
	for _, p := range t.state.positions {
		c := *p
		res = append(res, &c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].User < res[j].User })
	return res, nil
}

func (t *tx) GetBattle(id uint64) (*vault.Battle, error) {
	b, ok := t.state.battles[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (t *tx) SaveBattle(b *vault.Battle) error {
	if t.readOnly {
		return ErrReadOnly
	}
	c := *b
	t.state.battles[b.ID] = &c
	return nil
}

func (t *tx) GetParticipant(battleID uint64, user string) (*vault.Participant, error) {
	for _, p := range t.state.participants[battleID] {
		if p.User == user {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (t *tx) ListParticipants(battleID uint64) ([]*vault.Participant, error) {
	list := t.state.participants[battleID]
	res := make([]*vault.Participant, len(list))
	for i, p := range list {
		c := *p
		res[i] = &c
	}
	return res, nil
}

func (t *tx) SaveParticipant(p *vault.Participant) error {
	if t.readOnly {
		return ErrReadOnly
	}
	c := *p
	old := t.state.participants[p.BattleID]
	list := make([]*vault.Participant, 0, len(old)+1)
	replaced := false
	for _, existing := range old {
		if existing.User == p.User {
			list = append(list, &c)
			replaced = true
			continue
		}
		list = append(list, existing)
	}
	if !replaced {
		list = append(list, &c)
	}
	t.state.participants[p.BattleID] = list
	return nil
}

func (t *tx) ListWinners(battleID uint64) ([]*vault.Winner, error) {
	list := t.state.winners[battleID]
	res := make([]*vault.Winner, len(list))
	for i, w := range list {
		c := *w
		res[i] = &c
	}
	return res, nil
}

func (t *tx) SaveWinners(battleID uint64, winners []*vault.Winner) error {
	if t.readOnly {
		return ErrReadOnly
	}
	list := make([]*vault.Winner, len(winners))
	for i, w := range winners {
		c := *w
		list[i] = &c
	}
	t.state.winners[battleID] = list
	return nil
}

func (t *tx) GetStats() (*vault.Stats, error) {
	c := *t.state.stats
	return &c, nil
}

func (t *tx) SaveStats(st *vault.Stats) error {
	if t.readOnly {
		return ErrReadOnly
	}
	c := *st
	t.state.stats = &c
	return nil
}
