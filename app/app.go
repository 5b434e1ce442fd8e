// Package app wires the vault with its ledger, leaderboard and profile registry on the
// configured storage backend.
package app

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/chain"
	"github.com/mcdexio/yield-battle-vault/common/config"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	database "github.com/mcdexio/yield-battle-vault/database/db"
	"github.com/mcdexio/yield-battle-vault/database/db/vaultdb"
	"github.com/mcdexio/yield-battle-vault/env"
	"github.com/mcdexio/yield-battle-vault/leaderboard"
	"github.com/mcdexio/yield-battle-vault/ledger"
	"github.com/mcdexio/yield-battle-vault/profile"
	"github.com/mcdexio/yield-battle-vault/store/memory"
	"github.com/mcdexio/yield-battle-vault/store/postgres"
	"github.com/mcdexio/yield-battle-vault/types"
	"github.com/mcdexio/yield-battle-vault/vault"
	"gorm.io/gorm"
)

// Clock is the time source shared by the components.
type Clock interface {
	Now() time.Time
}

// App holds the wired components.
type App struct {
	Vault    *vault.Vault
	Board    *leaderboard.Board
	Profiles *profile.Registry
	Ledger   ledger.Ledger
	Clock    Clock
	// DB is nil on the memory backend.
	DB *gorm.DB
}

// Options override the environment.
type Options struct {
	Config vault.Config
	// Clock defaults to chain time when CHAIN_RPC_URL or ETH_RPC_URL is set, else the
	// local clock.
	Clock Clock
	// Postgres selects the database backend. Nil follows STORAGE.
	Postgres *bool
}

// FromEnv builds the app from environment configuration.
func FromEnv(logger logging.Logger) (*App, error) {
	return New(logger, Options{Config: vault.ConfigFromEnv()})
}

// New builds the app.
func New(logger logging.Logger, opts Options) (*App, error) {
	local := clockwork.NewRealClock()
	clock := opts.Clock
	if clock == nil {
		var err error
		if clock, err = chainClock(logger, local); err != nil {
			return nil, err
		}
	}
	usePostgres := env.UsePostgres()
	if opts.Postgres != nil {
		usePostgres = *opts.Postgres
	}

	a := &App{Clock: clock}
	var store vault.Store
	var boardRepo leaderboard.Repository
	var profileRepo profile.Repository
	if usePostgres {
		gdb := database.GetDB()
		if err := database.Prepare(gdb, types.Vault, env.ResetDatabase()); err != nil {
			return nil, fmt.Errorf("fail to prepare database: %w", err)
		}
		addr, err := chain.NormalizeAddress(opts.Config.Address)
		if err != nil {
			return nil, fmt.Errorf("vault address %q: %w", opts.Config.Address, err)
		}
		if err := vaultdb.BindVaultAddress(gdb, addr); err != nil {
			return nil, err
		}
		a.DB = gdb
		store = postgres.New(gdb)
		a.Ledger = ledger.NewPostgres(gdb)
		boardRepo = leaderboard.NewGormRepository(gdb)
		profileRepo = profile.NewGormRepository(gdb)
		logger.Info("using postgres storage")
	} else {
		store = memory.New()
		a.Ledger = ledger.NewMemory(local)
		boardRepo = leaderboard.NewMemoryRepository()
		profileRepo = profile.NewMemoryRepository()
		logger.Info("using in-memory storage")
	}

	a.Board = leaderboard.New(boardRepo, clock)
	a.Profiles = profile.New(profileRepo, clock, a.Board)
	v, err := vault.New(store, a.Ledger, opts.Config,
		vault.WithClock(clock),
		vault.WithScorer(a.Board),
		vault.WithActivityRecorder(a.Profiles),
		vault.WithLogger(logger.With("component", "vault")))
	if err != nil {
		return nil, err
	}
	a.Vault = v
	return a, nil
}

func chainClock(logger logging.Logger, local clockwork.Clock) (Clock, error) {
	urls := config.Optional("CHAIN_RPC_URL", "ETH_RPC_URL")
	if len(urls) == 0 {
		return local, nil
	}
	client, err := chain.NewClient(logger, urls[0])
	if err != nil {
		return nil, fmt.Errorf("fail to dial chain: %w", err)
	}
	refresh := config.GetDuration("CHAIN_CLOCK_REFRESH", 15*time.Second)
	logger.Info("following chain time, refresh=%v", refresh)
	return chain.NewBlockClock(client, local, refresh, logger), nil
}
