package http

import (
	"encoding/json"
	"net/http"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/metrics"
	"github.com/folioworks/folio/internal/records/service"
	"github.com/folioworks/folio/pkg/httpx"
)

// AccountsHandler handles all account management endpoints.
type AccountsHandler struct {
	Accounts *service.AccountService
	Metrics  *metrics.Metrics
}

// HandleList handles GET /v1/accounts
//
//	@Summary		List accounts
//	@Description	Lists accounts with substring filters, sorting and pagination. Soft-deleted accounts are excluded unless deleted=1.
//	@Tags			Accounts
//	@Produce		json
//	@Param			handle		query		string	false	"Substring filter on handle"
//	@Param			email		query		string	false	"Substring filter on email"
//	@Param			role		query		string	false	"Exact role filter (standard|privileged)"
//	@Param			deleted		query		bool	false	"Include soft-deleted accounts"
//	@Param			sort_by		query		string	false	"Sort field (created_at|updated_at|handle|email)"
//	@Param			sort_dir	query		string	false	"Sort direction (asc|desc)"
//	@Param			page		query		int		false	"Page number (1-based)"
//	@Param			limit		query		int		false	"Page size (max 100)"
//	@Success		200			{object}	AccountListResponse	"data, pagination"
//	@Failure		400			{object}	ErrorResponse		"error, error_description"
//	@Failure		500			{object}	ErrorResponse		"error, error_description"
//	@Router			/v1/accounts [get].
func (h *AccountsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	raw := parseListQuery(r, "handle", "email")

	accounts, page, err := h.Accounts.List(r.Context(), raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newAccountListResponse(accounts, page))
}

// HandleCreate handles POST /v1/accounts
//
//	@Summary		Create account
//	@Description	Registers a new active account. Handle and email must be unused by any account in any lifecycle state.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateAccountRequest	true	"Account to create"
//	@Success		201		{object}	AccountResponse			"The created account"
//	@Failure		400		{object}	ErrorResponse			"error, error_description"
//	@Failure		409		{object}	ErrorResponse			"handle or email already taken"
//	@Failure		500		{object}	ErrorResponse			"error, error_description"
//	@Router			/v1/accounts [post].
func (h *AccountsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	account, err := h.Accounts.Create(r.Context(), req.Handle, req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, newAccountResponse(account))
}

// HandleGet handles GET /v1/accounts/{id}
//
//	@Summary		Get account
//	@Description	Fetches one account by id. Soft-deleted accounts are only visible with deleted=1.
//	@Tags			Accounts
//	@Produce		json
//	@Param			id		path		int		true	"Account ID"
//	@Param			deleted	query		bool	false	"Look up soft-deleted accounts too"
//	@Success		200		{object}	AccountResponse	"The account"
//	@Failure		400		{object}	ErrorResponse	"error, error_description"
//	@Failure		404		{object}	ErrorResponse	"error, error_description"
//	@Failure		500		{object}	ErrorResponse	"error, error_description"
//	@Router			/v1/accounts/{id} [get].
func (h *AccountsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return
	}

	account, err := h.Accounts.Get(r.Context(), id, visibilityParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newAccountResponse(account))
}

// HandleUpdate handles PATCH /v1/accounts/{id}
//
//	@Summary		Update account
//	@Description	Applies a partial update. Omitted fields are left untouched; changed handle/email must be unused. Works on soft-deleted accounts.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int						true	"Account ID"
//	@Param			request	body		UpdateAccountRequest	true	"Fields to change"
//	@Success		200		{object}	AccountResponse			"The updated account"
//	@Failure		400		{object}	ErrorResponse			"error, error_description"
//	@Failure		404		{object}	ErrorResponse			"error, error_description"
//	@Failure		409		{object}	ErrorResponse			"handle or email already taken"
//	@Failure		500		{object}	ErrorResponse			"error, error_description"
//	@Router			/v1/accounts/{id} [patch].
func (h *AccountsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	account, err := h.Accounts.Update(r.Context(), id, domain.AccountPatch{
		Handle: req.Handle,
		Email:  req.Email,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newAccountResponse(account))
}

// HandleDelete handles DELETE /v1/accounts/{id}
//
//	@Summary		Soft delete account
//	@Description	Marks the account deleted. It disappears from default reads but keeps occupying its handle and email, and can be restored.
//	@Tags			Accounts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Account ID"
//	@Success		204	"Account soft-deleted"
//	@Failure		400	{object}	ErrorResponse	"error, error_description"
//	@Failure		404	{object}	ErrorResponse	"error, error_description"
//	@Failure		409	{object}	ErrorResponse	"already soft-deleted (strict mode only)"
//	@Failure		500	{object}	ErrorResponse	"error, error_description"
//	@Router			/v1/accounts/{id} [delete].
func (h *AccountsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return
	}

	if err := h.Accounts.SoftDelete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Metrics.IncrementTransition("account", "soft_delete", 1)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRestore handles POST /v1/accounts/{id}/restore
//
//	@Summary		Restore account
//	@Description	Brings a soft-deleted account back to active. Fails if the account is active or purged.
//	@Tags			Accounts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int				true	"Account ID"
//	@Success		200	{object}	AccountResponse	"The restored account"
//	@Failure		400	{object}	ErrorResponse	"error, error_description"
//	@Failure		404	{object}	ErrorResponse	"error, error_description"
//	@Failure		409	{object}	ErrorResponse	"account is not soft-deleted"
//	@Failure		500	{object}	ErrorResponse	"error, error_description"
//	@Router			/v1/accounts/{id}/restore [post].
func (h *AccountsHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return
	}

	if err := h.Accounts.Restore(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.Metrics.IncrementTransition("account", "restore", 1)

	account, err := h.Accounts.Get(r.Context(), id, domain.ActiveOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newAccountResponse(account))
}

// HandlePurge handles DELETE /v1/accounts/{id}/purge
//
//	@Summary		Purge account
//	@Description	Permanently removes the account in any lifecycle state. Irreversible; its handle and email become reusable. Documents it owns are left in place.
//	@Tags			Accounts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Account ID"
//	@Success		204	"Account purged"
//	@Failure		400	{object}	ErrorResponse	"error, error_description"
//	@Failure		401	{object}	ErrorResponse	"error, error_description"
//	@Failure		403	{object}	ErrorResponse	"requires the privileged role"
//	@Failure		404	{object}	ErrorResponse	"error, error_description"
//	@Failure		500	{object}	ErrorResponse	"error, error_description"
//	@Router			/v1/accounts/{id}/purge [delete].
func (h *AccountsHandler) HandlePurge(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return
	}

	if err := h.Accounts.Purge(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Metrics.IncrementTransition("account", "purge", 1)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRole handles PATCH /v1/accounts/{id}/role
//
//	@Summary		Change account role
//	@Description	Sets the account's privilege level to standard or privileged.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int					true	"Account ID"
//	@Param			request	body		UpdateRoleRequest	true	"New role"
//	@Success		200		{object}	AccountResponse		"The updated account"
//	@Failure		400		{object}	ErrorResponse		"error, error_description"
//	@Failure		401		{object}	ErrorResponse		"error, error_description"
//	@Failure		403		{object}	ErrorResponse		"requires the privileged role"
//	@Failure		404		{object}	ErrorResponse		"error, error_description"
//	@Failure		500		{object}	ErrorResponse		"error, error_description"
//	@Router			/v1/accounts/{id}/role [patch].
func (h *AccountsHandler) HandleRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	account, err := h.Accounts.UpdateRole(r.Context(), id, domain.Role(req.Role))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newAccountResponse(account))
}

// HandleBatchDelete handles POST /v1/accounts/batch-delete
//
//	@Summary		Batch soft delete accounts
//	@Description	Soft-deletes every listed account. Missing ids count as misses, not errors; the response reports how many records changed.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		BatchDeleteRequest	true	"Account ids"
//	@Success		200		{object}	BatchDeleteResponse	"affected"
//	@Failure		400		{object}	ErrorResponse		"error, error_description"
//	@Failure		401		{object}	ErrorResponse		"error, error_description"
//	@Failure		403		{object}	ErrorResponse		"requires the privileged role"
//	@Failure		500		{object}	ErrorResponse		"error, error_description"
//	@Router			/v1/accounts/batch-delete [post].
func (h *AccountsHandler) HandleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var req BatchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	affected, err := h.Accounts.BatchSoftDelete(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Metrics.IncrementTransition("account", "soft_delete", affected)
	httpx.WriteJSON(w, http.StatusOK, BatchDeleteResponse{Affected: affected})
}

// HandleStats handles GET /v1/accounts/stats
//
//	@Summary		Account statistics
//	@Description	Returns total/active/deleted counts plus a per-role breakdown across all lifecycle states.
//	@Tags			Accounts
//	@Produce		json
//	@Success		200	{object}	service.AccountStats	"total, active, deleted, by_role"
//	@Failure		500	{object}	ErrorResponse			"error, error_description"
//	@Router			/v1/accounts/stats [get].
func (h *AccountsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Accounts.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, stats)
}
