package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/folioworks/folio/internal/records/metrics"
	"github.com/folioworks/folio/internal/records/service"
	"github.com/folioworks/folio/pkg/httpx"
)

// LoginHandler handles POST /v1/auth/login.
type LoginHandler struct {
	AuthService *service.AuthService
	Metrics     *metrics.Metrics
}

// ServeHTTP authenticates an email/password pair and mints an access token.
//
//	@Summary		Log in
//	@Description	Authenticates an email/password pair and returns a Bearer access token plus the account it belongs to.
//	@Description	Soft-deleted accounts can still authenticate.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	TokenResponse	"access_token, token_type, expires_in, account"
//	@Failure		400		{object}	ErrorResponse	"error, error_description"
//	@Failure		401		{object}	ErrorResponse	"error, error_description"
//	@Failure		500		{object}	ErrorResponse	"error, error_description"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	account, token, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.Metrics.IncrementLogin("failure")
		}
		writeServiceError(w, r, err)
		return
	}
	h.Metrics.IncrementLogin("success")

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
		Account:     newAccountResponse(account),
	})
}
