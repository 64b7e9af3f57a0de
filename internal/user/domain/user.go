package domain

import (
	"errors"
	"time"

	roledomain "identity-service/internal/role/domain"
)

// User is the core principal entity. PasswordHash is the stored bcrypt hash;
// it must never appear in API responses or logs.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	Roles        []roledomain.Role
}

// RoleNames returns the names of the user's assigned roles, in assignment order.
func (u *User) RoleNames() []string {
	if u == nil || len(u.Roles) == 0 {
		return nil
	}
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Validate validates the user for persistence. Returns an error describing the
// first validation failure.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
