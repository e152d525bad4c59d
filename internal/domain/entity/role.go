// Package entity contains the core business objects of the project.
package entity

import "slices"

// Role represents the type of role an identity can hold in the system.
type Role string

const (
	// RoleUser indicates a regular user role. Every identity holds at least this role.
	RoleUser Role = "user"
	// RoleAdmin indicates an administrator role.
	RoleAdmin Role = "admin"
	// RoleRoot indicates the superuser role.
	RoleRoot Role = "root"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleRoot:
		return true
	default:
		return false
	}
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

// Allows reports whether a principal holding these roles satisfies the given
// requirement. An empty requirement is unrestricted; otherwise any single
// matching role suffices (OR semantics, not AND).
func (rs Roles) Allows(required Roles) bool {
	if len(required) == 0 {
		return true
	}
	for _, role := range required {
		if rs.Contains(role) {
			return true
		}
	}

	return false
}

// ToStrings converts Roles to []string for JWT compatibility.
func (rs Roles) ToStrings() []string {
	result := make([]string, len(rs))
	for i, r := range rs {
		result[i] = r.String()
	}

	return result
}

// RolesFromStrings converts []string to Roles, filtering out invalid role strings.
func RolesFromStrings(ss []string) Roles {
	result := make(Roles, 0, len(ss))
	for _, s := range ss {
		role := Role(s)
		if role.IsValid() {
			result = append(result, role)
		}
	}

	return result
}

// DefaultRoles returns the role set assigned to a newly created identity.
func DefaultRoles() Roles {
	return Roles{RoleUser}
}
