package security

import "time"

// NewTestTokenProvider returns a TokenProvider with fixed secrets and short
// lifetimes. For unit tests only.
func NewTestTokenProvider() (*TokenProvider, error) {
	return NewTokenProvider(
		[]byte("test-access-secret"),
		[]byte("test-refresh-secret"),
		"test-issuer",
		15*time.Minute,
		24*time.Hour,
	)
}
