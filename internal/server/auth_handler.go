package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"identity-service/internal/accesscontrol"
	"identity-service/internal/identity/service"
	userdomain "identity-service/internal/user/domain"
)

// AuthHandler serves the login, refresh, logout, and profile endpoints.
type AuthHandler struct {
	auth       *service.AuthService
	refreshTTL time.Duration
}

// NewAuthHandler returns an AuthHandler. refreshTTL controls the
// refreshToken cookie max-age.
func NewAuthHandler(auth *service.AuthService, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, refreshTTL: refreshTTL}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId"`
}

type deviceRequest struct {
	DeviceID string `json:"deviceId"`
}

type profileResponse struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	IsActive    bool     `json:"isActive"`
	CreatedAt   string   `json:"createdAt"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func profilePayload(u *userdomain.User) profileResponse {
	return profileResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
		Roles:       u.RoleNames(),
		Permissions: accesscontrol.ResolvePermissions(u.Roles),
	}
}

// Login handles POST /auth/login. On success the refresh token is set as
// an httpOnly cookie and only the access token is returned in the body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.DeviceID == "" {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "email, password, and deviceId are required")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password, req.DeviceID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			WriteError(w, r, http.StatusUnauthorized, CodeInvalidCredentials, "invalid credentials")
			return
		}
		WriteInternal(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    res.RefreshToken,
		Path:     "/auth",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	WriteSuccess(w, r, http.StatusOK, "login successful", map[string]string{
		"accessToken": res.AccessToken,
	})
}

// Refresh handles POST /auth/refresh. Requires the refresh-token guard;
// the body deviceId must match the device the token was issued for.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	grant, ok := GetRefreshGrant(r.Context())
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid authorization")
		return
	}
	var req deviceRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if req.DeviceID == "" {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "deviceId is required")
		return
	}
	if req.DeviceID != grant.DeviceID {
		WriteError(w, r, http.StatusUnauthorized, CodeSessionInvalid, "session invalid")
		return
	}

	res, err := h.auth.Refresh(r.Context(), grant.UserID, grant.DeviceID, grant.Token)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	WriteSuccess(w, r, http.StatusOK, "token refreshed", map[string]string{
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
	})
}

// Logout handles POST /auth/logout. Always succeeds for an absent
// session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	grant, ok := GetRefreshGrant(r.Context())
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid authorization")
		return
	}
	var req deviceRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = grant.DeviceID
	}
	if err := h.auth.Logout(r.Context(), grant.UserID, deviceID); err != nil {
		WriteInternal(w, r, err)
		return
	}
	clearRefreshCookie(w)
	WriteSuccess(w, r, http.StatusOK, "logged out", map[string]string{
		"message": "logged out",
	})
}

// LogoutAll handles POST /auth/logout-all and revokes every device
// session for the user.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	grant, ok := GetRefreshGrant(r.Context())
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid authorization")
		return
	}
	if err := h.auth.LogoutAll(r.Context(), grant.UserID); err != nil {
		WriteInternal(w, r, err)
		return
	}
	clearRefreshCookie(w)
	WriteSuccess(w, r, http.StatusOK, "logged out everywhere", map[string]string{
		"message": "logged out everywhere",
	})
}

// Me handles GET /auth/me. Requires the access-token guard.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentity(r.Context())
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid authorization")
		return
	}
	user, err := h.auth.GetProfile(r.Context(), id.UserID)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	WriteSuccess(w, r, http.StatusOK, "profile", profilePayload(user))
}

// writeAuthError maps auth service sentinels to responses. Rotation
// failures share one message so store internals stay opaque.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrTokenMismatch):
		WriteError(w, r, http.StatusUnauthorized, CodeSessionInvalid, "session invalid")
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrUserInactive):
		WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid authorization")
	default:
		WriteInternal(w, r, err)
	}
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
