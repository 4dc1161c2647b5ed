package repository

import (
	"context"
	"embed"
	"io/fs"

	auth "github.com/goliatone/go-login"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsFS returns the SQL migrations for the users table
func MigrationsFS() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		// the embedded directory is fixed at build time
		panic(err)
	}
	return sub
}

// NewMigrator returns a bun migrator over the embedded migrations
func NewMigrator(db *bun.DB) (*migrate.Migrator, error) {
	migrations := migrate.NewMigrations()
	if err := migrations.Discover(MigrationsFS()); err != nil {
		return nil, auth.WrapStoreError(err, "discover migrations")
	}
	return migrate.NewMigrator(db, migrations), nil
}

// Migrate applies pending migrations and returns the names applied
func Migrate(ctx context.Context, db *bun.DB) ([]string, error) {
	migrator, err := NewMigrator(db)
	if err != nil {
		return nil, err
	}

	if err := migrator.Init(ctx); err != nil {
		return nil, auth.WrapStoreError(err, "init migrations")
	}

	if err := migrator.Lock(ctx); err != nil {
		return nil, auth.WrapStoreError(err, "lock migrations")
	}
	defer migrator.Unlock(ctx) //nolint:errcheck

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, auth.WrapStoreError(err, "apply migrations")
	}

	applied := []string{}
	if group == nil || group.IsZero() {
		return applied, nil
	}
	for _, m := range group.Migrations {
		applied = append(applied, m.Name)
	}
	return applied, nil
}
