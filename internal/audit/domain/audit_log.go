package domain

import "time"

// Actions recorded for authentication events. Failure reasons stay in
// Metadata so responses never leak them.
const (
	ActionLoginSuccess = "login_success"
	ActionLoginFailure = "login_failure"
	ActionRefresh      = "token_refresh"
	ActionLogout       = "logout"
	ActionLogoutAll    = "logout_all"
)

// AuditLog represents one authentication audit event.
type AuditLog struct {
	ID        string
	UserID    string
	Action    string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
