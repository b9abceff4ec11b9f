// Package security provides actor roles and movement authorization rules.
package security

import "strings"

// Role is a named actor capability carried in the access token.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
)

// RoleSet is the set of roles held by the current actor.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from raw role names (case-insensitive).
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		set[Role(r)] = struct{}{}
	}
	return set
}

// Has reports whether the set contains role.
func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// IsElevated reports whether the actor may submit any movement combination.
func (s RoleSet) IsElevated() bool {
	return s.Has(RoleAdmin) || s.Has(RoleManager)
}

// IsRestricted reports a staff-only actor.
func (s RoleSet) IsRestricted() bool {
	return !s.IsElevated() && s.Has(RoleStaff)
}

// Names returns role names for logging and rule evaluation.
func (s RoleSet) Names() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	return out
}
