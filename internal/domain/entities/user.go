package entities

import (
	"encoding/json"
	"time"
)

// Role is the account role issued by the identity provider
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// RoleSet is an unordered set of roles
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether r is in the set
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// SessionUser is the signed-in identity. It is never mutated after it is
// fetched; login and logout replace it wholesale.
type SessionUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"fullName"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON accepts both "fullName" and the older "name" key.
func (u *SessionUser) UnmarshalJSON(data []byte) error {
	type alias SessionUser
	var raw struct {
		alias
		LegacyName string `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = SessionUser(raw.alias)
	if u.Name == "" {
		u.Name = raw.LegacyName
	}
	return nil
}

// Credentials is the login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up request body
type Registration struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}
