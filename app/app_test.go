package app

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/mcdexio/yield-battle-vault/ledger"
	"github.com/mcdexio/yield-battle-vault/vault"
	"github.com/stretchr/testify/require"
)

func TestMemoryWiring(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	memoryBackend := false
	a, err := New(logging.NewLoggerTag("app-test"), Options{
		Config: vault.Config{
			Address: "0x0000000000000000000000000000000000000100",
			Admin:   "0x0000000000000000000000000000000000000200",
		},
		Clock:    clock,
		Postgres: &memoryBackend,
	})
	require.NoError(t, err)
	require.Nil(t, a.DB)

	user := "0x0000000000000000000000000000000000000001"
	_, err = a.Profiles.RegisterUser(ctx, user, "alice")
	require.NoError(t, err)
	require.NoError(t, a.Ledger.Mint(ctx, user, ledger.One))
	require.NoError(t, a.Ledger.Approve(ctx, user, a.Vault.Address(), ledger.One))
	require.NoError(t, a.Vault.Deposit(ctx, user, ledger.One))

	p, err := a.Profiles.GetUserData(ctx, user)
	require.NoError(t, err)
	require.True(t, p.TotalDeposits.Equal(ledger.One))

	e, err := a.Board.GetUserScoreDetails(ctx, user)
	require.NoError(t, err)
	require.Equal(t, "alice", e.Username)
	require.Equal(t, int64(1), e.YieldScore.IntPart())
}

func TestBadConfig(t *testing.T) {
	memoryBackend := false
	_, err := New(logging.NewLoggerTag("app-test"), Options{
		Config:   vault.Config{Address: "nowhere"},
		Postgres: &memoryBackend,
	})
	require.Error(t, err)
}
