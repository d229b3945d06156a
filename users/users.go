package users

import (
	"fmt"
	"strings"
)

// RoleType represents the role a console employee holds
type RoleType string

const (
	RoleAdmin    RoleType = "admin"    // Full access, including employee management
	RoleEmployee RoleType = "employee" // Sales, purchases and catalogue work
	RoleUser     RoleType = "user"     // Read-mostly access

	// RoleNone is the absent role. It never matches a role check.
	RoleNone RoleType = ""
)

// User is the authenticated employee as returned by the backend.
// Field names on the wire follow the backend (usuario, nombre).
type User struct {
	ID          int      `json:"id"`             // Backend identifier
	Identifier  string   `json:"usuario"`        // Login name
	DisplayName string   `json:"nombre"`         // Name shown in the navigation UI
	Role        RoleType `json:"role,omitempty"` // Optional, no default
}

// ParseRole converts a string into a known RoleType
func ParseRole(role string) (RoleType, error) {
	switch r := RoleType(strings.ToLower(strings.TrimSpace(role))); r {
	case RoleAdmin, RoleEmployee, RoleUser:
		return r, nil
	}
	return RoleNone, fmt.Errorf("unknown role %q", role)
}

// HasRole reports whether the user holds exactly the given role.
// A nil user or an absent role never matches.
func (u *User) HasRole(role RoleType) bool {
	if u == nil || u.Role == RoleNone {
		return false
	}
	return u.Role == role
}

// Copy returns a copy of the user so callers can't mutate session state
func (u *User) Copy() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
