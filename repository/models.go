package repository

import (
	"time"

	auth "github.com/goliatone/go-login"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun model backing the database driver
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Username     string            `bun:"username,notnull,unique" json:"username"`
	Email        string            `bun:"email" json:"email,omitempty"`
	PasswordHash string            `bun:"password_hash" json:"-"`
	FirstName    string            `bun:"first_name" json:"first_name,omitempty"`
	LastName     string            `bun:"last_name" json:"last_name,omitempty"`
	Roles        []string          `bun:"roles" json:"roles,omitempty"`
	Links        map[string]string `bun:"links" json:"links,omitempty"`
	CreatedAt    time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Principal projects the record into the session value
func (u *User) Principal() auth.Principal {
	if u == nil {
		return auth.Principal{}
	}

	p := auth.Principal{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
	}

	if len(u.Roles) > 0 {
		p.Roles = append([]string(nil), u.Roles...)
	}

	if len(u.Links) > 0 {
		p.Links = make(map[string]string, len(u.Links))
		for k, v := range u.Links {
			p.Links[k] = v
		}
	}

	if u.FirstName != "" || u.LastName != "" {
		p.Profile = &auth.Profile{FirstName: u.FirstName, LastName: u.LastName}
	}

	return p
}

// FromPrincipal builds a record for p; the password hash is set by the caller
func FromPrincipal(p auth.Principal) *User {
	u := &User{
		Username: p.Username,
		Email:    p.Email,
		Roles:    p.Roles,
		Links:    p.Links,
	}
	if id, err := uuid.Parse(p.ID); err == nil {
		u.ID = id
	}
	if p.Profile != nil {
		u.FirstName = p.Profile.FirstName
		u.LastName = p.Profile.LastName
	}
	return u
}
