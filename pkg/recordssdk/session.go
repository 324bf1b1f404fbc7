package recordssdk

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// tokenExpiryBuffer is subtracted from the token lifetime so the session
// re-authenticates before the server-side expiry.
const tokenExpiryBuffer = 30 * time.Second

// Session represents an authenticated session with automatic re-login.
// The records service issues short-lived access tokens without refresh
// tokens, so the session keeps the login credentials and repeats the
// credential exchange when the token expires. All Session methods handle
// token expiration transparently.
type Session struct {
	client *SDKClient

	mu          sync.RWMutex
	email       string
	password    string
	accessToken string
	expiresAt   time.Time
	account     Account
}

// newSession creates a new authenticated session from a token response.
func newSession(client *SDKClient, email, password string, tokenResp *TokenResponse) *Session {
	expiresAt := time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	expiresAt = expiresAt.Add(-tokenExpiryBuffer)

	return &Session{
		client:      client,
		email:       email,
		password:    password,
		accessToken: tokenResp.AccessToken,
		expiresAt:   expiresAt,
		account:     tokenResp.Account,
	}
}

// Account returns the account this session was authenticated as. The value is
// captured at login time and refreshed whenever the session re-authenticates.
func (s *Session) Account() Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// AccessToken returns the current access token without checking expiration.
// For most use cases, prefer using the Session methods which handle re-login automatically.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// getValidToken returns a valid access token, automatically logging in again if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	// Token expired, need to re-authenticate
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have re-authenticated)
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	// Token-only sessions hold no credentials to log in with
	if s.email == "" {
		return "", fmt.Errorf("access token expired and no credentials available")
	}

	tokenResp, err := s.client.token(ctx, s.email, s.password)
	if err != nil {
		return "", fmt.Errorf("failed to re-authenticate: %w", err)
	}

	s.accessToken = tokenResp.AccessToken
	s.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenExpiryBuffer)
	s.account = tokenResp.Account

	return s.accessToken, nil
}
