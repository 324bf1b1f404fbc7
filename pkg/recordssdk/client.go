package recordssdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the Folio records service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new records service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates with an account's email and password and returns a
// Session bound to that account. The session keeps the credentials so it can
// transparently log in again when the access token expires.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	tokenResp, err := c.token(ctx, email, password)
	if err != nil {
		return nil, err
	}

	return newSession(c, email, password, tokenResp), nil
}

// token performs the credential exchange against the login endpoint.
func (c *SDKClient) token(ctx context.Context, email, password string) (*TokenResponse, error) {
	resp, err := c.doJSONRequest(ctx, http.MethodPost, "/v1/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}

// NewSessionFromToken creates an authenticated session from an existing access
// token. This is useful when a token was obtained elsewhere (e.g. stored from
// a previous login). The session cannot re-authenticate when the token
// expires, since it holds no credentials.
func (c *SDKClient) NewSessionFromToken(accessToken string, expiresIn int, account Account) *Session {
	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)
	expiresAt = expiresAt.Add(-tokenExpiryBuffer)

	return &Session{
		client:      c,
		accessToken: accessToken,
		expiresAt:   expiresAt,
		account:     account,
	}
}
