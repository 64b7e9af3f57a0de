package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"identity-service/internal/accesscontrol"
	"identity-service/internal/audit"
	auditdomain "identity-service/internal/audit/domain"
	"identity-service/internal/security"
	"identity-service/internal/session"
	userdomain "identity-service/internal/user/domain"
)

// Sentinel errors for the auth service; the handler maps them to HTTP codes.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrTokenMismatch      = errors.New("refresh token mismatch")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is inactive")
)

// AuthResult holds the outcome of Login or Refresh.
type AuthResult struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	User             *userdomain.User
}

// UserRepo is the minimal user repository needed by the auth service.
// Lookups load roles and permissions eagerly and return (nil, nil) on miss.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// AuthService implements login, refresh-token rotation, and logout on top
// of a per-device session store.
type AuthService struct {
	userRepo UserRepo
	sessions session.Store
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	auditLog audit.AuditLogger
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLog may be nil to disable audit events.
func NewAuthService(userRepo UserRepo, sessions session.Store, hasher *security.Hasher, tokens *security.TokenProvider, auditLog audit.AuditLogger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		auditLog: auditLog,
	}
}

// audit records an event when an audit logger is configured.
func (s *AuthService) audit(ctx context.Context, userID, action, metadata string) {
	if s.auditLog != nil {
		s.auditLog.LogEvent(ctx, userID, action, metadata)
	}
}

// Login authenticates with email/password, opens (or replaces) the session
// for the device, and returns an access/refresh token pair.
//
// Unknown email, inactive user, and wrong password are indistinguishable
// to the caller; a dummy bcrypt compare keeps the timing flat when no
// hash is available.
func (s *AuthService) Login(ctx context.Context, email, password, deviceID string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		s.hasher.CompareDummy([]byte(password))
		s.audit(ctx, "", auditdomain.ActionLoginFailure, "unknown or inactive principal")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.audit(ctx, user.ID, auditdomain.ActionLoginFailure, "password mismatch")
		return nil, ErrInvalidCredentials
	}

	result, err := s.issuePair(user, deviceID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Upsert(ctx, user.ID, deviceID, result.RefreshToken); err != nil {
		return nil, err
	}
	s.audit(ctx, user.ID, auditdomain.ActionLoginSuccess, "")
	return result, nil
}

// Refresh rotates the stored refresh token for the device and returns a
// new pair. The presented token's signature and expiry must already have
// been verified by the caller; here only store state and principal state
// are checked. The principal is reloaded so deactivated or deleted users
// fail closed, and permissions are re-resolved from current role state
// rather than the old token's claims.
//
// Rotation is conditional on the stored token still matching the
// presented one; a replayed token surfaces ErrTokenMismatch without
// touching the session.
func (s *AuthService) Refresh(ctx context.Context, userID, deviceID, presented string) (*AuthResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	result, err := s.issuePair(user, deviceID)
	if err != nil {
		return nil, err
	}
	err = s.sessions.Rotate(ctx, user.ID, deviceID, presented, result.RefreshToken)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return nil, ErrSessionNotFound
	case errors.Is(err, session.ErrTokenMismatch):
		return nil, ErrTokenMismatch
	case err != nil:
		return nil, err
	}
	s.audit(ctx, user.ID, auditdomain.ActionRefresh, "")
	return result, nil
}

// Logout removes the session for one device. Removing an absent session
// is a no-op, so repeated logout succeeds.
func (s *AuthService) Logout(ctx context.Context, userID, deviceID string) error {
	if err := s.sessions.Delete(ctx, userID, deviceID); err != nil {
		return err
	}
	s.audit(ctx, userID, auditdomain.ActionLogout, "")
	return nil
}

// LogoutAll removes every device session for the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteAll(ctx, userID); err != nil {
		return err
	}
	s.audit(ctx, userID, auditdomain.ActionLogoutAll, "")
	return nil
}

// GetProfile returns the user for an authenticated subject.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*userdomain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

func (s *AuthService) issuePair(user *userdomain.User, deviceID string) (*AuthResult, error) {
	permissions := accesscontrol.ResolvePermissions(user.Roles)
	accessToken, accessExp, err := s.tokens.IssueAccess(user.ID, user.Email, user.RoleNames(), permissions)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.tokens.IssueRefresh(user.ID, deviceID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		User:             user,
	}, nil
}
