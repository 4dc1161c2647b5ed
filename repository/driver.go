package repository

import (
	"context"
	"crypto/hmac"
	"strings"

	auth "github.com/goliatone/go-login"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DriverName is the registry name of the database driver
const DriverName = "database"

// Driver verifies credentials stored in the users table
type Driver struct {
	db          *bun.DB
	users       repository.Repository[*User]
	hasher      *auth.Hasher
	roles       auth.RoleHierarchy
	placeholder string
}

var (
	_ auth.Driver      = (*Driver)(nil)
	_ auth.RoleChecker = (*Driver)(nil)
)

// NewUsersRepository returns the generic repository keyed by username
func NewUsersRepository(db *bun.DB) repository.Repository[*User] {
	return repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User {
			return &User{}
		},
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})
}

func NewDriver(db *bun.DB, hasher *auth.Hasher) *Driver {
	size := 64
	if hasher != nil {
		size = hasher.Size()
	}
	return &Driver{
		db:          db,
		users:       NewUsersRepository(db),
		hasher:      hasher,
		placeholder: strings.Repeat("0", size),
	}
}

// WithRoleHierarchy lets higher ranked roles satisfy HasRole checks for
// lower ones. Without it roles must match exactly.
func (d *Driver) WithRoleHierarchy(h auth.RoleHierarchy) *Driver {
	d.roles = h
	return d
}

// Factory adapts NewDriver to the auth driver registry
func Factory(db *bun.DB) auth.DriverFactory {
	return func(_ auth.Config, hasher *auth.Hasher) (auth.Driver, error) {
		return NewDriver(db, hasher), nil
	}
}

// Register makes the driver available as "database"
func Register(db *bun.DB) {
	auth.RegisterDriver(DriverName, Factory(db))
}

// CreateSchema creates the users table when missing
func CreateSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return auth.WrapStoreError(err, "create users table")
	}
	return nil
}

// Create stores p with the digest of password
func (d *Driver) Create(ctx context.Context, p auth.Principal, password string) (auth.Principal, error) {
	digest, err := d.hasher.Hash(password)
	if err != nil {
		return auth.Principal{}, err
	}

	record := FromPrincipal(p)
	record.PasswordHash = digest
	if record.ID == uuid.Nil {
		record.ID = principalID(record.Username)
	}

	created, err := d.users.Create(ctx, record)
	if err != nil {
		return auth.Principal{}, auth.WrapStoreError(err, "create user")
	}
	return created.Principal(), nil
}

func (d *Driver) lookup(ctx context.Context, username string) (*User, bool, error) {
	record, err := d.users.GetByIdentifier(ctx, username)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, false, nil
		}
		return nil, false, auth.WrapStoreError(err, "user lookup")
	}
	// exact match, the backend collation may fold case
	if record == nil || record.Username != username {
		return nil, false, nil
	}
	return record, true, nil
}

// Verify hashes and compares for unknown usernames too
func (d *Driver) Verify(ctx context.Context, username, password string) (auth.Principal, bool, error) {
	digest, err := d.hasher.Hash(password)
	if err != nil {
		return auth.Principal{}, false, err
	}

	record, found, err := d.lookup(ctx, username)
	if err != nil {
		return auth.Principal{}, false, err
	}

	stored := d.placeholder
	if found && record.PasswordHash != "" {
		stored = record.PasswordHash
	}

	match := equalDigest(digest, stored)
	if !found || !match {
		return auth.Principal{}, false, nil
	}

	return record.Principal(), true, nil
}

func (d *Driver) Credential(ctx context.Context, username string) (string, error) {
	record, found, err := d.lookup(ctx, username)
	if err != nil {
		return "", err
	}
	if !found {
		return "", notFound(username)
	}
	return record.PasswordHash, nil
}

func (d *Driver) ForceLogin(ctx context.Context, username string) (auth.Principal, error) {
	record, found, err := d.lookup(ctx, username)
	if err != nil {
		return auth.Principal{}, err
	}
	if !found {
		return auth.Principal{}, notFound(username)
	}
	return record.Principal(), nil
}

// HasRole reads the current roles from the table, not from the session copy
func (d *Driver) HasRole(ctx context.Context, principal auth.Principal, role string) (bool, error) {
	record, found, err := d.lookup(ctx, principal.Username)
	if err != nil || !found {
		return false, err
	}
	return d.roles.Satisfies(record.Roles, role), nil
}

// Link stores the provider user id for username
func (d *Driver) Link(ctx context.Context, username, provider, providerID string) error {
	record, found, err := d.lookup(ctx, username)
	if err != nil {
		return err
	}
	if !found {
		return notFound(username)
	}

	if record.Links == nil {
		record.Links = map[string]string{}
	}
	record.Links[provider] = providerID

	_, err = d.db.NewUpdate().
		Model(record).
		Column("links").
		WherePK().
		Exec(ctx)
	if err != nil {
		return auth.WrapStoreError(err, "link provider")
	}
	return nil
}

// FindByLink resolves the user linked to a provider id. Links are stored
// as JSON so matching happens after the scan.
func (d *Driver) FindByLink(ctx context.Context, link auth.Linkage, providerID string) (auth.Principal, error) {
	var records []*User
	if err := d.db.NewSelect().Model(&records).Scan(ctx); err != nil {
		return auth.Principal{}, auth.WrapStoreError(err, "link lookup")
	}

	for _, r := range records {
		if id, ok := r.Principal().Link(link.Provider); ok && id == providerID {
			return r.Principal(), nil
		}
	}
	return auth.Principal{}, notFound(link.Field + "=" + providerID)
}

// principalID derives a stable id from the username
func principalID(username string) uuid.UUID {
	if id, err := hashid.NewUUID(username); err == nil {
		return id
	}
	return uuid.New()
}

func notFound(username string) error {
	return auth.ErrCredentialNotFound.Clone().WithMetadata(map[string]any{"username": username})
}

func equalDigest(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
