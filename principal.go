package auth

import (
	"strings"

	"github.com/go-ozzo/ozzo-validation/is"
)

// Principal is the authenticated identity placed into the session.
// It is treated as an immutable value once a driver returns it.
type Principal struct {
	ID       string            `json:"id"`
	Username string            `json:"username"`
	Email    string            `json:"email,omitempty"`
	Roles    []string          `json:"roles,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
	Profile  *Profile          `json:"profile,omitempty"`
}

// Profile holds optional personal names
type Profile struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// IsZero reports whether p carries no identity
func (p Principal) IsZero() bool {
	return p.ID == "" && p.Username == ""
}

// Link returns the provider user id linked to p
func (p Principal) Link(provider string) (string, bool) {
	if p.Links == nil {
		return "", false
	}
	id, ok := p.Links[provider]
	return id, ok && id != ""
}

// HasRole reports whether role is listed on the principal
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// NameKind selects which profile names are rendered by Name
type NameKind string

const (
	NameFull      NameKind = "full"
	NameFirst     NameKind = "first"
	NameLast      NameKind = "last"
	NameFirstLast NameKind = "first last"
	NameLastFirst NameKind = "last first"
)

// Name renders the profile names. Unknown kinds render the full name.
func (p Principal) Name(kind NameKind, divider string) string {
	if p.Profile == nil {
		return ""
	}

	first := p.Profile.FirstName
	last := p.Profile.LastName

	switch kind {
	case NameFirst:
		return stripSlashes(first)
	case NameLast:
		return stripSlashes(last)
	case NameLastFirst:
		return stripSlashes(last + divider + first)
	default:
		return stripSlashes(first + divider + last)
	}
}

// stripSlashes removes backslash escapes, keeping escaped backslashes
func stripSlashes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// Identity fields UniqueKey can resolve to
const (
	UniqueKeyEmail = "email"
	UniqueKeyName  = "name"
)

// UniqueKey selects the identity field value should be matched against:
// "<provider>_id" when a provider is given, "email" for addresses and
// "name" otherwise.
func UniqueKey(value, provider string) string {
	if provider != "" {
		return LinkField(provider)
	}

	if value != "" && is.Email.Validate(value) == nil {
		return UniqueKeyEmail
	}
	return UniqueKeyName
}

// LinkField is the identity field holding a provider user id
func LinkField(provider string) string {
	return provider + "_id"
}
