package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token verification errors. Handlers map these to transport codes; all three
// render as a generic authentication failure at the boundary.
var (
	// ErrTokenExpired is returned when a token's exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenSignature is returned when a token's signature does not verify.
	ErrTokenSignature = errors.New("invalid token signature")
	// ErrTokenMalformed is returned when a token cannot be parsed or its claims are invalid.
	ErrTokenMalformed = errors.New("malformed token")
)

// AccessClaims holds JWT claims for the stateless access token. Roles and
// Permissions are snapshotted at issuance and never re-checked against the
// store while the token is live.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// RefreshClaims holds JWT claims for the refresh token. DeviceID binds the
// token to one session entry.
type RefreshClaims struct {
	jwt.RegisteredClaims
	DeviceID string `json:"device_id"`
}

// TokenProvider issues and verifies HS256 access and refresh tokens with
// independent secrets, so a leaked access secret cannot forge refresh tokens
// and vice versa.
type TokenProvider struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the two given secrets.
// The secrets must be non-empty and must differ.
func NewTokenProvider(accessSecret, refreshSecret []byte, issuer string, accessTTL, refreshTTL time.Duration) (*TokenProvider, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, errors.New("security: token secrets must be non-empty")
	}
	if string(accessSecret) == string(refreshSecret) {
		return nil, errors.New("security: access and refresh secrets must differ")
	}
	return &TokenProvider{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssueAccess signs a stateless access token carrying the subject's email,
// role names, and permission names. Returns the token and its expiry.
func (p *TokenProvider) IssueAccess(userID, email string, roles, permissions []string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:       email,
		Roles:       roles,
		Permissions: permissions,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssueRefresh signs a refresh token carrying the subject and device ids, with
// the refresh secret and the (longer) refresh lifetime. Each token gets a fresh
// jti; iat/exp alone have one-second granularity, and rotation depends on the
// new token differing from the one it replaces.
func (p *TokenProvider) IssueRefresh(userID, deviceID string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(p.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		DeviceID: deviceID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseAccess verifies signature, expiry, and issuer of an access token and
// returns its claims.
func (p *TokenProvider) ParseAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := p.parse(tokenString, claims, p.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies signature, expiry, and issuer of a refresh token and
// returns its claims. It never consults the session store; matching against
// the stored token is the orchestrator's job.
func (p *TokenProvider) ParseRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := p.parse(tokenString, claims, p.refreshSecret); err != nil {
		return nil, err
	}
	if claims.DeviceID == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func (p *TokenProvider) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return ErrTokenSignature
		default:
			return ErrTokenMalformed
		}
	}
	if !token.Valid {
		return ErrTokenMalformed
	}
	return nil
}
