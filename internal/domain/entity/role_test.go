package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolesAllows(t *testing.T) {
	cases := []struct {
		name     string
		held     Roles
		required Roles
		want     bool
	}{
		{"empty requirement allows anyone", Roles{RoleUser}, nil, true},
		{"empty requirement allows roleless principal", nil, nil, true},
		{"exact match", Roles{RoleUser}, Roles{RoleUser}, true},
		{"one of several suffices", Roles{RoleAdmin}, Roles{RoleAdmin, RoleRoot}, true},
		{"missing role", Roles{RoleUser}, Roles{RoleAdmin}, false},
		{"roleless principal against requirement", nil, Roles{RoleUser}, false},
		{"root does not imply admin", Roles{RoleRoot}, Roles{RoleAdmin}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.held.Allows(tc.required))
		})
	}
}

func TestRolesFromStrings(t *testing.T) {
	assert.Equal(t, Roles{RoleUser, RoleAdmin}, RolesFromStrings([]string{"user", "admin"}))

	// Unknown role strings are dropped, not preserved.
	assert.Equal(t, Roles{RoleUser}, RolesFromStrings([]string{"user", "superhero"}))
	assert.Empty(t, RolesFromStrings([]string{"Admin", ""}))
}

func TestRolesToStrings(t *testing.T) {
	assert.Equal(t, []string{"user", "root"}, Roles{RoleUser, RoleRoot}.ToStrings())
	assert.Empty(t, Roles{}.ToStrings())
}

func TestDefaultRoles(t *testing.T) {
	assert.Equal(t, Roles{RoleUser}, DefaultRoles())
}
