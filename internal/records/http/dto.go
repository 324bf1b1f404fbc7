package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/query"
)

// ============================================================================
// Request DTOs
// ============================================================================

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateAccountRequest struct {
	Handle   string `json:"handle"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"` // defaults to "standard"
}

type UpdateAccountRequest struct {
	Handle *string `json:"handle,omitempty"`
	Email  *string `json:"email,omitempty"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type CreateDocumentRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type UpdateDocumentRequest struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

type BatchDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// ============================================================================
// Response DTOs
// ============================================================================

type AccountResponse struct {
	ID        int64   `json:"id"`
	Handle    string  `json:"handle"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	DeletedAt *string `json:"deleted_at,omitempty"`
}

type DocumentResponse struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	OwnerID   int64   `json:"owner_id"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	DeletedAt *string `json:"deleted_at,omitempty"`
}

type AccountListResponse struct {
	Data       []AccountResponse `json:"data"`
	Pagination query.Pagination  `json:"pagination"`
}

type DocumentListResponse struct {
	Data       []DocumentResponse `json:"data"`
	Pagination query.Pagination   `json:"pagination"`
}

type TokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"`
	Account     AccountResponse `json:"account"`
}

type BatchDeleteResponse struct {
	Affected int `json:"affected"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

func newAccountResponse(a domain.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Handle:    a.Handle,
		Email:     a.Email,
		Role:      a.Role.String(),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
		DeletedAt: formatDeletedAt(a.DeletedAt),
	}
}

func newAccountListResponse(accounts []domain.Account, page query.Pagination) AccountListResponse {
	data := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		data[i] = newAccountResponse(a)
	}
	return AccountListResponse{Data: data, Pagination: page}
}

func newDocumentResponse(d domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:        d.ID,
		Title:     d.Title,
		Body:      d.Body,
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
		DeletedAt: formatDeletedAt(d.DeletedAt),
	}
}

func newDocumentListResponse(documents []domain.Document, page query.Pagination) DocumentListResponse {
	data := make([]DocumentResponse, len(documents))
	for i, d := range documents {
		data[i] = newDocumentResponse(d)
	}
	return DocumentListResponse{Data: data, Pagination: page}
}

func formatDeletedAt(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// ============================================================================
// Request parsing helpers
// ============================================================================

// parseListQuery reads the shared listing parameters. The containsFields are
// the query parameters forwarded as per-column substring filters for the kind
// being listed.
func parseListQuery(r *http.Request, containsFields ...string) query.RawQuery {
	q := r.URL.Query()

	raw := query.RawQuery{
		IncludeDeleted: parseBoolParam(q.Get("deleted")),
		SortBy:         q.Get("sort_by"),
		SortDir:        q.Get("sort_dir"),
		Page:           q.Get("page"),
		Limit:          q.Get("limit"),
		Role:           q.Get("role"),
	}

	for _, field := range containsFields {
		if needle := q.Get(field); needle != "" {
			if raw.Contains == nil {
				raw.Contains = make(map[string]string)
			}
			raw.Contains[field] = needle
		}
	}

	if owner := q.Get("owner_id"); owner != "" {
		raw.OwnerID, _ = strconv.ParseInt(owner, 10, 64)
	}

	return raw
}

func parseBoolParam(v string) bool {
	return v == "1" || v == "true"
}

// parseIDParam reads the {id} path segment as a positive integer.
func parseIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// visibilityParam maps ?deleted=1 onto the lookup visibility.
func visibilityParam(r *http.Request) domain.Visibility {
	if parseBoolParam(r.URL.Query().Get("deleted")) {
		return domain.IncludeDeleted
	}
	return domain.ActiveOnly
}
