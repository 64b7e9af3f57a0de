package service

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/google/uuid"

	permissiondomain "identity-service/internal/permission/domain"
	roledomain "identity-service/internal/role/domain"
	"identity-service/internal/security"
	"identity-service/internal/session"
	userdomain "identity-service/internal/user/domain"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*userdomain.User
	byEmail map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    make(map[string]*userdomain.User),
		byEmail: make(map[string]*userdomain.User),
	}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) put(u *userdomain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
}

func (r *memUserRepo) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		delete(r.byEmail, u.Email)
		delete(r.byID, id)
	}
}

func newTestAuthService(t *testing.T) (*AuthService, *memUserRepo, *session.MemoryStore) {
	t.Helper()
	userRepo := newMemUserRepo()
	sessions := session.NewMemoryStore()
	hasher := security.NewHasher(4)
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	return NewAuthService(userRepo, sessions, hasher, tokens, nil), userRepo, sessions
}

func seedUser(t *testing.T, repo *memUserRepo, email, password string, roles ...roledomain.Role) *userdomain.User {
	t.Helper()
	hasher := security.NewHasher(4)
	hash, err := hasher.Hash([]byte(password))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	u := &userdomain.User{
		ID:           uuid.NewString(),
		Username:     email,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		Roles:        roles,
	}
	repo.put(u)
	return u
}

func adminRole() roledomain.Role {
	return roledomain.Role{
		ID:       1,
		Name:     "admin",
		IsActive: true,
		Permissions: []permissiondomain.Permission{
			{ID: 1, Name: "manage:access_control", IsActive: true},
		},
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, repo, sessions := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "user@example.com", "Password123!", adminRole())

	res, err := svc.Login(ctx, "user@example.com", "Password123!", "device-a")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("expected non-empty token pair")
	}
	if res.AccessToken == res.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	stored, err := sessions.Get(ctx, user.ID, "device-a")
	if err != nil {
		t.Fatalf("Get session: %v", err)
	}
	if stored != res.RefreshToken {
		t.Fatal("stored refresh token does not match issued token")
	}
}

func TestAuthService_LoginReplacesDeviceSession(t *testing.T) {
	svc, repo, sessions := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "user@example.com", "Password123!")

	first, err := svc.Login(ctx, "user@example.com", "Password123!", "device-a")
	if err != nil {
		t.Fatalf("first Login: %v", err)
	}
	second, err := svc.Login(ctx, "user@example.com", "Password123!", "device-a")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}

	stored, err := sessions.Get(ctx, user.ID, "device-a")
	if err != nil {
		t.Fatalf("Get session: %v", err)
	}
	if stored != second.RefreshToken {
		t.Fatal("second login must overwrite the device session")
	}
	// The first token is now permanently unusable for this device.
	if _, err := svc.Refresh(ctx, user.ID, "device-a", first.RefreshToken); err != ErrTokenMismatch {
		t.Fatalf("superseded token err = %v, want ErrTokenMismatch", err)
	}
}

func TestAuthService_LoginClaims(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()
	role := roledomain.Role{
		ID: 2, Name: "auditor", IsActive: true,
		Permissions: []permissiondomain.Permission{
			{ID: 3, Name: "users.list", IsActive: true},
			{ID: 4, Name: "roles.list", IsActive: true},
		},
	}
	seedUser(t, repo, "auditor@example.com", "Password123!", role, adminRole())

	res, err := svc.Login(ctx, "auditor@example.com", "Password123!", "device-a")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	claims, err := tokens.ParseAccess(res.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	wantPerms := []string{"manage:access_control", "roles.list", "users.list"}
	if !reflect.DeepEqual(claims.Permissions, wantPerms) {
		t.Fatalf("permissions = %v, want %v", claims.Permissions, wantPerms)
	}
	wantRoles := []string{"auditor", "admin"}
	if !reflect.DeepEqual(claims.Roles, wantRoles) {
		t.Fatalf("roles = %v, want %v", claims.Roles, wantRoles)
	}

	refresh, err := tokens.ParseRefresh(res.RefreshToken)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if refresh.DeviceID != "device-a" {
		t.Fatalf("device_id = %q, want device-a", refresh.DeviceID)
	}
}

func TestAuthService_LoginRejects(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "user@example.com", "Password123!")

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "Password123!"},
		{"wrong password", "user@example.com", "wrong"},
		{"empty password", "user@example.com", ""},
		{"empty email", "", "Password123!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tc.email, tc.password, "device-a"); err != ErrInvalidCredentials {
				t.Fatalf("Login(%q) err = %v, want ErrInvalidCredentials", tc.email, err)
			}
		})
	}

	user.IsActive = false
	repo.put(user)
	if _, err := svc.Login(ctx, "user@example.com", "Password123!", "device-a"); err != ErrInvalidCredentials {
		t.Fatalf("inactive user err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthService_LoginNormalizesEmail(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()
	seedUser(t, repo, "user@example.com", "Password123!")

	if _, err := svc.Login(ctx, "  USER@Example.COM ", "Password123!", "device-a"); err != nil {
		t.Fatalf("Login with unnormalized email: %v", err)
	}
}

func TestAuthService_RefreshRotates(t *testing.T) {
	svc, repo, sessions := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "user@example.com", "Password123!")

	login, err := svc.Login(ctx, "user@example.com", "Password123!", "device-a")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	refreshed, err := svc.Refresh(ctx, user.ID, "device-a", login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh must rotate the stored token")
	}
	stored, err := sessions.Get(ctx, user.ID, "device-a")
	if err != nil {
		t.Fatalf("Get session: %v", err)
	}
	if stored != refreshed.RefreshToken {
		t.Fatal("store holds stale refresh token after rotation")
	}

	// The superseded token is rejected; the rotated one still works.
	if _, err := svc.Refresh(ctx, user.ID, "device-a", login.RefreshToken); err != ErrTokenMismatch {
		t.Fatalf("replayed token err = %v, want ErrTokenMismatch", err)
	}
	if _, err := svc.Refresh(ctx, user.ID, "device-a", refreshed.RefreshToken); err != nil {
		t.Fatalf("Refresh with rotated token: %v", err)
	}
}

func TestAuthService_RefreshFailsClosed(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "user@example.com", "Password123!")

	login, err := svc.Login(ctx, "user@example.com", "Password123!", "device-a")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	user.IsActive = false
	repo.put(user)
	if _, err := svc.Refresh(ctx, user.ID, "device-a", login.RefreshToken); err != ErrUserInactive {
		t.Fatalf("inactive user err = %v, want ErrUserInactive", err)
	}

	repo.remove(user.ID)
	if _, err := svc.Refresh(ctx, user.ID, "device-a", login.RefreshToken); err != ErrUserNotFound {
		t.Fatalf("deleted user err = %v, want ErrUserNotFound", err)
	}
}

func TestAuthService_RefreshPicksUpRoleChanges(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "user@example.com", "Password123!", adminRole())

	login, err := svc.Login(ctx, "user@example.com", "Password123!", "device-a")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Revoke the role between login and refresh; the new access token
	// must reflect current state, not the old claims.
	user.Roles = nil
	repo.put(user)

	refreshed, err := svc.Refresh(ctx, user.ID, "device-a", login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	claims, err := tokens.ParseAccess(refreshed.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if len(claims.Permissions) != 0 {
		t.Fatalf("permissions = %v, want none after role revocation", claims.Permissions)
	}
}

func TestAuthService_RefreshAfterLogout(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "user@example.com", "Password123!")

	login, err := svc.Login(ctx, "user@example.com", "Password123!", "device-a")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(ctx, user.ID, "device-a"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, user.ID, "device-a", login.RefreshToken); err != ErrSessionNotFound {
		t.Fatalf("refresh after logout err = %v, want ErrSessionNotFound", err)
	}
	// Logout is idempotent.
	if err := svc.Logout(ctx, user.ID, "device-a"); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}

func TestAuthService_DeviceIsolation(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "user@example.com", "Password123!")

	a, err := svc.Login(ctx, "user@example.com", "Password123!", "device-a")
	if err != nil {
		t.Fatalf("Login device-a: %v", err)
	}
	b, err := svc.Login(ctx, "user@example.com", "Password123!", "device-b")
	if err != nil {
		t.Fatalf("Login device-b: %v", err)
	}

	if err := svc.Logout(ctx, user.ID, "device-a"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, user.ID, "device-a", a.RefreshToken); err != ErrSessionNotFound {
		t.Fatalf("logged-out device err = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Refresh(ctx, user.ID, "device-b", b.RefreshToken); err != nil {
		t.Fatalf("other device must survive: %v", err)
	}

	// A token issued for one device is unusable on another.
	c, err := svc.Login(ctx, "user@example.com", "Password123!", "device-c")
	if err != nil {
		t.Fatalf("Login device-c: %v", err)
	}
	if _, err := svc.Refresh(ctx, user.ID, "device-b", c.RefreshToken); err != ErrTokenMismatch {
		t.Fatalf("cross-device token err = %v, want ErrTokenMismatch", err)
	}
}

func TestAuthService_LogoutAll(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "user@example.com", "Password123!")
	other := seedUser(t, repo, "other@example.com", "Password123!")

	a, err := svc.Login(ctx, "user@example.com", "Password123!", "device-a")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	b, err := svc.Login(ctx, "user@example.com", "Password123!", "device-b")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	o, err := svc.Login(ctx, "other@example.com", "Password123!", "device-a")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.LogoutAll(ctx, user.ID); err != nil {
		t.Fatalf("LogoutAll: %v", err)
	}
	if _, err := svc.Refresh(ctx, user.ID, "device-a", a.RefreshToken); err != ErrSessionNotFound {
		t.Fatalf("device-a err = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Refresh(ctx, user.ID, "device-b", b.RefreshToken); err != ErrSessionNotFound {
		t.Fatalf("device-b err = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Refresh(ctx, other.ID, "device-a", o.RefreshToken); err != nil {
		t.Fatalf("other user must survive: %v", err)
	}
}

func TestAuthService_GetProfile(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, repo, "user@example.com", "Password123!", adminRole())

	got, err := svc.GetProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Email != "user@example.com" {
		t.Fatalf("email = %q", got.Email)
	}

	if _, err := svc.GetProfile(ctx, uuid.NewString()); err != ErrUserNotFound {
		t.Fatalf("unknown user err = %v, want ErrUserNotFound", err)
	}

	user.IsActive = false
	repo.put(user)
	if _, err := svc.GetProfile(ctx, user.ID); err != ErrUserInactive {
		t.Fatalf("inactive user err = %v, want ErrUserInactive", err)
	}
}
