// Package dbtest starts a throwaway postgres for package tests.
package dbtest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mcdexio/yield-battle-vault/database/db"
	"github.com/mcdexio/yield-battle-vault/types"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

const image = "postgres:16-alpine"

// Container is a running postgres with the vault schema.
type Container struct {
	container *tcpostgres.PostgresContainer
	connStr   string
	DB        *gorm.DB
}

// Start runs a container and resets the vault schema in it. The test is skipped when no
// docker provider is reachable.
func Start(t *testing.T) *Container {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	var (
		container *tcpostgres.PostgresContainer
		err       error
	)
	for attempt := 1; attempt <= 3; attempt++ {
		container, err = tcpostgres.Run(ctx, image,
			tcpostgres.WithDatabase("vault"),
			tcpostgres.WithUsername("test"),
			tcpostgres.WithPassword("test"),
			tcpostgres.BasicWaitStrategies(),
		)
		if err == nil || !retryable(err) {
			break
		}
		time.Sleep(time.Duration(attempt) * 750 * time.Millisecond)
	}
	require.NoError(t, err, "start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	gdb, err := db.NewDB(connStr)
	require.NoError(t, err)
	require.NoError(t, db.Reset(gdb, types.Vault, true))

	c := &Container{container: container, connStr: connStr, DB: gdb}
	t.Cleanup(c.close)
	return c
}

// Truncate empties every vault table and restores the default records.
func (c *Container) Truncate(t *testing.T) {
	t.Helper()
	require.NoError(t, db.DeleteAllData(c.DB, types.Vault))
}

func (c *Container) close() {
	if sqlDB, err := c.DB.DB(); err == nil {
		sqlDB.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.container.Terminate(ctx)
}

func retryable(err error) bool {
	s := err.Error()
	return strings.Contains(s, "wait until ready") ||
		strings.Contains(s, "mapped port") ||
		strings.Contains(s, "context deadline exceeded")
}
