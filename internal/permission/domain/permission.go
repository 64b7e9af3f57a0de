package domain

import "errors"

// Permission is an atomic named capability (e.g. "manage:access_control").
// Names are unique token-like strings; authorization decisions compare names,
// never ids.
type Permission struct {
	ID       int64
	Name     string
	IsActive bool
}

// Validate validates the permission for persistence.
func (p *Permission) Validate() error {
	if p.Name == "" {
		return errors.New("permission name is required")
	}
	return nil
}
