package http

import (
	"encoding/json"
	"net/http"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/metrics"
	"github.com/folioworks/folio/internal/records/service"
	"github.com/folioworks/folio/pkg/httpx"
)

// DocumentsHandler handles all document management endpoints.
type DocumentsHandler struct {
	Documents *service.DocumentService
	Metrics   *metrics.Metrics
}

// HandleList handles GET /v1/documents
//
//	@Summary		List documents
//	@Description	Lists documents with substring filters, sorting and pagination. Soft-deleted documents are excluded unless deleted=1.
//	@Tags			Documents
//	@Produce		json
//	@Param			title		query		string	false	"Substring filter on title"
//	@Param			body		query		string	false	"Substring filter on body"
//	@Param			owner_id	query		int		false	"Exact owner filter"
//	@Param			deleted		query		bool	false	"Include soft-deleted documents"
//	@Param			sort_by		query		string	false	"Sort field (created_at|updated_at|title)"
//	@Param			sort_dir	query		string	false	"Sort direction (asc|desc)"
//	@Param			page		query		int		false	"Page number (1-based)"
//	@Param			limit		query		int		false	"Page size (max 100)"
//	@Success		200			{object}	DocumentListResponse	"data, pagination"
//	@Failure		400			{object}	ErrorResponse			"error, error_description"
//	@Failure		500			{object}	ErrorResponse			"error, error_description"
//	@Router			/v1/documents [get].
func (h *DocumentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	raw := parseListQuery(r, "title", "body")

	documents, page, err := h.Documents.List(r.Context(), raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newDocumentListResponse(documents, page))
}

// HandleSearch handles GET /v1/documents/search
//
//	@Summary		Search documents
//	@Description	Matches the keyword as a case-insensitive substring against title and body.
//	@Tags			Documents
//	@Produce		json
//	@Param			q		query		string	true	"Search keyword"
//	@Param			deleted	query		bool	false	"Include soft-deleted documents"
//	@Param			page	query		int		false	"Page number (1-based)"
//	@Param			limit	query		int		false	"Page size (max 100)"
//	@Success		200		{object}	DocumentListResponse	"data, pagination"
//	@Failure		400		{object}	ErrorResponse			"error, error_description"
//	@Failure		500		{object}	ErrorResponse			"error, error_description"
//	@Router			/v1/documents/search [get].
func (h *DocumentsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	raw := parseListQuery(r)

	documents, page, err := h.Documents.Search(r.Context(), r.URL.Query().Get("q"), raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newDocumentListResponse(documents, page))
}

// HandleCreate handles POST /v1/documents
//
//	@Summary		Create document
//	@Description	Creates a document owned by the authenticated account. The title must be unused by any document in any lifecycle state.
//	@Tags			Documents
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateDocumentRequest	true	"Document to create"
//	@Success		201		{object}	DocumentResponse		"The created document"
//	@Failure		400		{object}	ErrorResponse			"error, error_description"
//	@Failure		401		{object}	ErrorResponse			"error, error_description"
//	@Failure		409		{object}	ErrorResponse			"title already taken"
//	@Failure		422		{object}	ErrorResponse			"owner account does not exist"
//	@Failure		500		{object}	ErrorResponse			"error, error_description"
//	@Router			/v1/documents [post].
func (h *DocumentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := httpx.ActorFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
		return
	}

	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	document, err := h.Documents.Create(r.Context(), req.Title, req.Body, actorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, newDocumentResponse(document))
}

// HandleGet handles GET /v1/documents/{id}
//
//	@Summary		Get document
//	@Description	Fetches one document by id. Soft-deleted documents are only visible with deleted=1.
//	@Tags			Documents
//	@Produce		json
//	@Param			id		path		int		true	"Document ID"
//	@Param			deleted	query		bool	false	"Look up soft-deleted documents too"
//	@Success		200		{object}	DocumentResponse	"The document"
//	@Failure		400		{object}	ErrorResponse		"error, error_description"
//	@Failure		404		{object}	ErrorResponse		"error, error_description"
//	@Failure		500		{object}	ErrorResponse		"error, error_description"
//	@Router			/v1/documents/{id} [get].
func (h *DocumentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return
	}

	document, err := h.Documents.Get(r.Context(), id, visibilityParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newDocumentResponse(document))
}

// HandleUpdate handles PATCH /v1/documents/{id}
//
//	@Summary		Update document
//	@Description	Applies a partial update as the authenticated account. With ownership enforcement on, only the owner may update. Works on soft-deleted documents.
//	@Tags			Documents
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int						true	"Document ID"
//	@Param			request	body		UpdateDocumentRequest	true	"Fields to change"
//	@Success		200		{object}	DocumentResponse		"The updated document"
//	@Failure		400		{object}	ErrorResponse			"error, error_description"
//	@Failure		401		{object}	ErrorResponse			"error, error_description"
//	@Failure		403		{object}	ErrorResponse			"not the document owner"
//	@Failure		404		{object}	ErrorResponse			"error, error_description"
//	@Failure		409		{object}	ErrorResponse			"title already taken"
//	@Failure		500		{object}	ErrorResponse			"error, error_description"
//	@Router			/v1/documents/{id} [patch].
func (h *DocumentsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return
	}

	var req UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	actorID, _ := httpx.ActorFromCtx(r.Context())
	document, err := h.Documents.Update(r.Context(), id, domain.DocumentPatch{
		Title: req.Title,
		Body:  req.Body,
	}, actorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newDocumentResponse(document))
}

// HandleDelete handles DELETE /v1/documents/{id}
//
//	@Summary		Soft delete document
//	@Description	Marks the document deleted. It disappears from default reads but keeps occupying its title, and can be restored.
//	@Tags			Documents
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Document ID"
//	@Success		204	"Document soft-deleted"
//	@Failure		400	{object}	ErrorResponse	"error, error_description"
//	@Failure		401	{object}	ErrorResponse	"error, error_description"
//	@Failure		403	{object}	ErrorResponse	"not the document owner"
//	@Failure		404	{object}	ErrorResponse	"error, error_description"
//	@Failure		409	{object}	ErrorResponse	"already soft-deleted (strict mode only)"
//	@Failure		500	{object}	ErrorResponse	"error, error_description"
//	@Router			/v1/documents/{id} [delete].
func (h *DocumentsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return
	}

	actorID, _ := httpx.ActorFromCtx(r.Context())
	if err := h.Documents.SoftDelete(r.Context(), id, actorID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Metrics.IncrementTransition("document", "soft_delete", 1)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRestore handles POST /v1/documents/{id}/restore
//
//	@Summary		Restore document
//	@Description	Brings a soft-deleted document back to active. Fails if the document is active or purged.
//	@Tags			Documents
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int					true	"Document ID"
//	@Success		200	{object}	DocumentResponse	"The restored document"
//	@Failure		400	{object}	ErrorResponse		"error, error_description"
//	@Failure		401	{object}	ErrorResponse		"error, error_description"
//	@Failure		403	{object}	ErrorResponse		"not the document owner"
//	@Failure		404	{object}	ErrorResponse		"error, error_description"
//	@Failure		409	{object}	ErrorResponse		"document is not soft-deleted"
//	@Failure		500	{object}	ErrorResponse		"error, error_description"
//	@Router			/v1/documents/{id}/restore [post].
func (h *DocumentsHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return
	}

	actorID, _ := httpx.ActorFromCtx(r.Context())
	if err := h.Documents.Restore(r.Context(), id, actorID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.Metrics.IncrementTransition("document", "restore", 1)

	document, err := h.Documents.Get(r.Context(), id, domain.ActiveOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newDocumentResponse(document))
}

// HandlePurge handles DELETE /v1/documents/{id}/purge
//
//	@Summary		Purge document
//	@Description	Permanently removes the document in any lifecycle state. Irreversible; its title becomes reusable.
//	@Tags			Documents
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Document ID"
//	@Success		204	"Document purged"
//	@Failure		400	{object}	ErrorResponse	"error, error_description"
//	@Failure		401	{object}	ErrorResponse	"error, error_description"
//	@Failure		403	{object}	ErrorResponse	"requires the privileged role"
//	@Failure		404	{object}	ErrorResponse	"error, error_description"
//	@Failure		500	{object}	ErrorResponse	"error, error_description"
//	@Router			/v1/documents/{id}/purge [delete].
func (h *DocumentsHandler) HandlePurge(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return
	}

	if err := h.Documents.Purge(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Metrics.IncrementTransition("document", "purge", 1)
	w.WriteHeader(http.StatusNoContent)
}

// HandleBatchDelete handles POST /v1/documents/batch-delete
//
//	@Summary		Batch soft delete documents
//	@Description	Soft-deletes every listed document owned by the caller. Privileged accounts delete across owners. Out-of-scope ids count as misses, not errors.
//	@Tags			Documents
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		BatchDeleteRequest	true	"Document ids"
//	@Success		200		{object}	BatchDeleteResponse	"affected"
//	@Failure		400		{object}	ErrorResponse		"error, error_description"
//	@Failure		401		{object}	ErrorResponse		"error, error_description"
//	@Failure		500		{object}	ErrorResponse		"error, error_description"
//	@Router			/v1/documents/batch-delete [post].
func (h *DocumentsHandler) HandleBatchDelete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := httpx.ActorFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
		return
	}

	var req BatchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	// Privileged callers delete across owners; everyone else is scoped to
	// their own documents.
	ownerScope := actorID
	if role, _ := httpx.RoleFromCtx(r.Context()); role == domain.RolePrivileged.String() {
		ownerScope = 0
	}

	affected, err := h.Documents.BatchSoftDelete(r.Context(), req.IDs, ownerScope)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Metrics.IncrementTransition("document", "soft_delete", affected)
	httpx.WriteJSON(w, http.StatusOK, BatchDeleteResponse{Affected: affected})
}

// HandleStats handles GET /v1/documents/stats
//
//	@Summary		Document statistics
//	@Description	Returns total/active/deleted counts across all lifecycle states.
//	@Tags			Documents
//	@Produce		json
//	@Success		200	{object}	service.Stats	"total, active, deleted"
//	@Failure		500	{object}	ErrorResponse	"error, error_description"
//	@Router			/v1/documents/stats [get].
func (h *DocumentsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Documents.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, stats)
}

// HandleListByOwner handles GET /v1/accounts/{id}/documents
//
//	@Summary		List an account's documents
//	@Description	Lists the documents owned by one account, including documents that outlived a purged owner when listed by its old id.
//	@Tags			Documents
//	@Produce		json
//	@Param			id		path		int		true	"Owner account ID"
//	@Param			deleted	query		bool	false	"Include soft-deleted documents"
//	@Param			page	query		int		false	"Page number (1-based)"
//	@Param			limit	query		int		false	"Page size (max 100)"
//	@Success		200		{object}	DocumentListResponse	"data, pagination"
//	@Failure		400		{object}	ErrorResponse			"error, error_description"
//	@Failure		500		{object}	ErrorResponse			"error, error_description"
//	@Router			/v1/accounts/{id}/documents [get].
func (h *DocumentsHandler) HandleListByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return
	}

	raw := parseListQuery(r, "title", "body")
	documents, page, err := h.Documents.ListByOwner(r.Context(), ownerID, raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newDocumentListResponse(documents, page))
}
