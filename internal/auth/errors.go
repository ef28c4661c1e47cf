package auth

import "fmt"

// AuthenticationError reports a definitive failure of the interactive
// authorization flow: declined consent, a timeout, or denied scopes.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s (re-run `gmail-cli auth` to retry)", e.Reason)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// TokenRefreshError reports a refresh token rejected by the provider. It is
// handled internally by falling back to interactive authorization and is
// never fatal on its own.
type TokenRefreshError struct {
	Err error
}

func (e *TokenRefreshError) Error() string {
	return fmt.Sprintf("token refresh rejected: %v", e.Err)
}

func (e *TokenRefreshError) Unwrap() error { return e.Err }
