package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"identity-service/internal/accesscontrol"
	"identity-service/internal/security"
)

type contextKey struct{ name string }

var (
	identityKey = contextKey{"identity"}
	refreshKey  = contextKey{"refresh"}
	clientIPKey = contextKey{"client_ip"}
)

// clientIPContext stores the request's remote address in the context so
// code below the transport can attribute events to a client. Runs after
// RealIP so forwarded addresses are already resolved.
func clientIPContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPKey, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the client address stored by the router middleware,
// or "" outside a request.
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

// Identity is the authenticated principal attached to the request context
// by the access-token guard.
type Identity struct {
	UserID      string
	Email       string
	Roles       []string
	Permissions []string
}

// RefreshGrant is the verified refresh-token context attached by the
// refresh-token guard. Token is the raw presented token; the orchestrator
// compares it against store state.
type RefreshGrant struct {
	UserID   string
	DeviceID string
	Token    string
}

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the identity from context and true if set.
func GetIdentity(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey).(Identity)
	return v, ok
}

// WithRefreshGrant returns a context carrying the verified refresh grant.
func WithRefreshGrant(ctx context.Context, g RefreshGrant) context.Context {
	return context.WithValue(ctx, refreshKey, g)
}

// GetRefreshGrant returns the refresh grant from context and true if set.
func GetRefreshGrant(ctx context.Context) (RefreshGrant, bool) {
	v, ok := ctx.Value(refreshKey).(RefreshGrant)
	return v, ok
}

const bearerPrefix = "bearer "

// extractBearer returns the Bearer token from the Authorization header,
// or "" if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// RequireAccess validates the Bearer access token and attaches the
// identity to the request context. 401 on any failure.
func RequireAccess(tokens *security.TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid authorization")
				return
			}
			claims, err := tokens.ParseAccess(token)
			if err != nil {
				writeTokenError(w, r, err)
				return
			}
			ctx := WithIdentity(r.Context(), Identity{
				UserID:      claims.Subject,
				Email:       claims.Email,
				Roles:       claims.Roles,
				Permissions: claims.Permissions,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRefresh validates the Bearer refresh token and attaches the
// grant, including the raw token for store comparison. 401 on any failure.
func RequireRefresh(tokens *security.TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid authorization")
				return
			}
			claims, err := tokens.ParseRefresh(token)
			if err != nil {
				writeTokenError(w, r, err)
				return
			}
			ctx := WithRefreshGrant(r.Context(), RefreshGrant{
				UserID:   claims.Subject,
				DeviceID: claims.DeviceID,
				Token:    token,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermissions checks the policy table for the named operation and
// rejects with 403 unless the identity holds every required permission.
// Must run after RequireAccess.
func RequirePermissions(policy accesscontrol.Policy, operation string) func(http.Handler) http.Handler {
	required := policy.Required(operation)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid authorization")
				return
			}
			if !accesscontrol.HasAll(id.Permissions, required) {
				WriteError(w, r, http.StatusForbidden, CodeForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeTokenError maps token verification failures to 401 responses.
// Expired tokens get their own code; everything else stays generic.
func writeTokenError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, security.ErrTokenExpired):
		WriteError(w, r, http.StatusUnauthorized, CodeTokenExpired, "token expired")
	default:
		WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid authorization")
	}
}
