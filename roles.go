package auth

import "strings"

// Built-in role names used by DefaultRoleHierarchy
const (
	RoleGuest  = "guest"
	RoleMember = "member"
	RoleAdmin  = "admin"
	RoleOwner  = "owner"
)

// RoleHierarchy orders role names from least to most privileged. Drivers
// use it to let a higher role satisfy checks for lower ones.
type RoleHierarchy []string

// DefaultRoleHierarchy returns guest < member < admin < owner
func DefaultRoleHierarchy() RoleHierarchy {
	return RoleHierarchy{RoleGuest, RoleMember, RoleAdmin, RoleOwner}
}

// Level returns the position of role, comparison ignores case
func (h RoleHierarchy) Level(role string) (int, bool) {
	role = strings.TrimSpace(role)
	for i, r := range h {
		if strings.EqualFold(r, role) {
			return i, true
		}
	}
	return -1, false
}

// IsAtLeast checks if role meets the minimum required level. Unknown roles
// never qualify.
func (h RoleHierarchy) IsAtLeast(role, minRole string) bool {
	current, ok := h.Level(role)
	if !ok {
		return false
	}
	floor, ok := h.Level(minRole)
	if !ok {
		return false
	}
	return current >= floor
}

// Satisfies reports whether any granted role equals required or, when
// required is ranked, outranks it.
func (h RoleHierarchy) Satisfies(granted []string, required string) bool {
	for _, g := range granted {
		if g == required || h.IsAtLeast(g, required) {
			return true
		}
	}
	return false
}
