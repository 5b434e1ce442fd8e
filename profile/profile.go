// Package profile registers usernames and keeps per user activity counters and reputation.
package profile

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/chain"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/shopspring/decimal"
)

// Username bounds, in bytes.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
)

// Reputation points.
const (
	InitialReputation = 100
	JoinReputation    = 1
	WinReputation     = 10
)

var (
	ErrUsernameTooShort  = errors.New("username too short")
	ErrUsernameTooLong   = errors.New("username too long")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrAlreadyRegistered = errors.New("user already registered")
	ErrNotRegistered     = errors.New("user not registered")
)

// Profile is the registered data of one user.
type Profile struct {
	User             string          `json:"user"`
	Username         string          `json:"username"`
	RegistrationTime int64           `json:"registrationTime"`
	TotalDeposits    decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
	BattlesJoined    int64           `json:"battlesJoined"`
	BattlesWon       int64           `json:"battlesWon"`
	ReputationScore  int64           `json:"reputationScore"`
	IsActive         bool            `json:"isActive"`
}

func (p *Profile) clone() *Profile {
	c := *p
	return &c
}

// Listener receives registrations and reputation changes, the leaderboard in production.
type Listener interface {
	RegisterUser(ctx context.Context, user, username string) error
	UpdateReputation(ctx context.Context, user string, score int64) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Registry validates and stores profiles. It implements vault.ActivityRecorder; activity of
// unregistered users is not tracked.
type Registry struct {
	mu       sync.Mutex
	repo     Repository
	clock    Clock
	listener Listener
	logger   logging.Logger
}

// New returns a registry. listener may be nil.
func New(repo Repository, clock Clock, listener Listener) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		repo:     repo,
		clock:    clock,
		listener: listener,
		logger:   logging.NewLoggerTag("profile"),
	}
}

func validUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	switch {
	case len(username) < MinUsernameLength:
		return "", ErrUsernameTooShort
	case len(username) > MaxUsernameLength:
		return "", ErrUsernameTooLong
	}
	return username, nil
}

// RegisterUser creates the profile of user.
func (r *Registry) RegisterUser(ctx context.Context, user, username string) (*Profile, error) {
	user, err := chain.NormalizeAddress(user)
	if err != nil {
		return nil, err
	}
	if username, err = validUsername(username); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	existing, err := r.repo.Get(ctx, user)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}
	taken, err := r.repo.UsernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	p := &Profile{
		User:             user,
		Username:         username,
		RegistrationTime: r.clock.Now().Unix(),
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		ReputationScore:  InitialReputation,
		IsActive:         true,
	}
	if err := r.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	r.logger.Info("registered user=%s username=%s", user, username)
	if r.listener != nil {
		r.forward(r.listener.RegisterUser(ctx, user, username))
		r.forward(r.listener.UpdateReputation(ctx, user, p.ReputationScore))
	}
	return p.clone(), nil
}

// UpdateProfile renames a registered user.
func (r *Registry) UpdateProfile(ctx context.Context, user, username string) (*Profile, error) {
	user, err := chain.NormalizeAddress(user)
	if err != nil {
		return nil, err
	}
	if username, err = validUsername(username); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.repo.Get(ctx, user)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotRegistered
	}
	if !strings.EqualFold(p.Username, username) {
		taken, err := r.repo.UsernameTaken(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
	}
	p.Username = username
	if err := r.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	if r.listener != nil {
		r.forward(r.listener.RegisterUser(ctx, user, username))
	}
	return p.clone(), nil
}

// IsUsernameAvailable reports whether username is valid and unused.
func (r *Registry) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	username, err := validUsername(username)
	if err != nil {
		return false, nil
	}
	taken, err := r.repo.UsernameTaken(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// GetUserData returns the profile of user.
func (r *Registry) GetUserData(ctx context.Context, user string) (*Profile, error) {
	user, err := chain.NormalizeAddress(user)
	if err != nil {
		return nil, err
	}
	p, err := r.repo.Get(ctx, user)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotRegistered
	}
	return p, nil
}

// record applies change to a registered profile and forwards a changed reputation.
func (r *Registry) record(ctx context.Context, user string, change func(p *Profile)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.repo.Get(ctx, user)
	if err != nil {
		return err
	}
	if p == nil {
		r.logger.Debug("skip activity of unregistered user=%s", user)
		return nil
	}
	reputation := p.ReputationScore
	change(p)
	if err := r.repo.Save(ctx, p); err != nil {
		return err
	}
	if r.listener != nil && p.ReputationScore != reputation {
		return r.listener.UpdateReputation(ctx, user, p.ReputationScore)
	}
	return nil
}

func (r *Registry) RecordDeposit(ctx context.Context, user string, amount decimal.Decimal) error {
	return r.record(ctx, user, func(p *Profile) {
		p.TotalDeposits = p.TotalDeposits.Add(amount)
	})
}

func (r *Registry) RecordWithdrawal(ctx context.Context, user string, amount decimal.Decimal) error {
	return r.record(ctx, user, func(p *Profile) {
		p.TotalWithdrawals = p.TotalWithdrawals.Add(amount)
	})
}

func (r *Registry) RecordBattleJoined(ctx context.Context, user string, _ uint64) error {
	return r.record(ctx, user, func(p *Profile) {
		p.BattlesJoined++
		p.ReputationScore += JoinReputation
	})
}

func (r *Registry) RecordBattleWon(ctx context.Context, user string, _ uint64, _ int) error {
	return r.record(ctx, user, func(p *Profile) {
		p.BattlesWon++
		p.ReputationScore += WinReputation
	})
}

func (r *Registry) forward(err error) {
	if err != nil {
		r.logger.Warn("fail to forward profile change: %s", err)
	}
}
