package repository_test

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	auth "github.com/goliatone/go-login"
	"github.com/goliatone/go-login/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func openMigrationDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:migrations_test?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrationsFS(t *testing.T) {
	names, err := fs.Glob(repository.MigrationsFS(), "*.sql")
	require.NoError(t, err)
	assert.Contains(t, names, "20250101000000_create_users.up.sql")
	assert.Contains(t, names, "20250101000000_create_users.down.sql")
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db := openMigrationDB(t)

	applied, err := repository.Migrate(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"20250101000000"}, applied)

	applied, err = repository.Migrate(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied, "second run is a no-op")

	hasher, err := auth.NewHasher("sha256", hashKey)
	require.NoError(t, err)

	d := repository.NewDriver(db, hasher)
	_, err = d.Create(ctx, auth.Principal{Username: "carol"}, "pw")
	require.NoError(t, err)

	p, ok, err := d.Verify(ctx, "carol", "pw")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "carol", p.Username)
}
