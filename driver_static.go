package auth

import (
	"context"
	"strings"
)

// StaticDriver verifies credentials against an immutable username to
// digest table. It does not support roles.
type StaticDriver struct {
	users       map[string]string
	hasher      *Hasher
	placeholder string
}

var _ Driver = (*StaticDriver)(nil)

// NewStaticDriver copies users; later changes to the map are not observed.
// Usernames are matched exactly, callers own any normalization.
func NewStaticDriver(users map[string]string, hasher *Hasher) *StaticDriver {
	table := make(map[string]string, len(users))
	for username, digest := range users {
		table[username] = digest
	}

	size := 64
	if hasher != nil {
		size = hasher.Size()
	}

	return &StaticDriver{
		users:       table,
		hasher:      hasher,
		placeholder: strings.Repeat("0", size),
	}
}

func staticDriverFactory(cfg Config, hasher *Hasher) (Driver, error) {
	return NewStaticDriver(cfg.Users, hasher), nil
}

// Verify always hashes and compares, even for unknown usernames, so both
// failure causes take the same path.
func (d *StaticDriver) Verify(_ context.Context, username, password string) (Principal, bool, error) {
	digest, err := d.hasher.Hash(password)
	if err != nil {
		return Principal{}, false, err
	}

	stored, found := d.users[username]
	if !found || stored == "" {
		stored = d.placeholder
	}

	match := constantTimeEqual(digest, stored)
	if !found || !match {
		return Principal{}, false, nil
	}

	return staticPrincipal(username), true, nil
}

func (d *StaticDriver) Credential(_ context.Context, username string) (string, error) {
	digest, ok := d.users[username]
	if !ok {
		return "", annotate(ErrCredentialNotFound, map[string]any{"username": username})
	}
	return digest, nil
}

// ForceLogin trusts the caller completely, the username does not need to
// exist in the table.
func (d *StaticDriver) ForceLogin(_ context.Context, username string) (Principal, error) {
	return staticPrincipal(username), nil
}

func staticPrincipal(username string) Principal {
	return Principal{
		ID:       username,
		Username: username,
	}
}
