package recordssdk

import (
	"net/url"
	"strconv"
)

// ============================================================================
// Resource types
// ============================================================================

// Account is one account as the records service returns it. DeletedAt is nil
// for active accounts and an RFC 3339 timestamp for soft-deleted ones.
type Account struct {
	ID        int64   `json:"id"`
	Handle    string  `json:"handle"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	DeletedAt *string `json:"deleted_at,omitempty"`
}

// Document is one document as the records service returns it.
type Document struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	OwnerID   int64   `json:"owner_id"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	DeletedAt *string `json:"deleted_at,omitempty"`
}

// Pagination describes the page a listing response covers.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// AccountList is a page of accounts.
type AccountList struct {
	Data       []Account  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// DocumentList is a page of documents.
type DocumentList struct {
	Data       []Document `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// TokenResponse is the login exchange result.
type TokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int     `json:"expires_in"` // seconds
	Account     Account `json:"account"`
}

// Stats is the lifecycle breakdown of one record kind.
type Stats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Deleted int `json:"deleted"`
}

// AccountStats adds the per-role breakdown to the lifecycle counts.
type AccountStats struct {
	Stats

	ByRole map[string]int `json:"by_role"`
}

// BatchDeleteResponse reports how many records a batch delete changed.
type BatchDeleteResponse struct {
	Affected int `json:"affected"`
}

// HealthChecks holds the per-dependency results of a readiness probe.
type HealthChecks struct {
	Database string `json:"database"`
}

// HealthResponse is the health probe payload.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// ============================================================================
// Request payloads
// ============================================================================

// LoginRequest is the credential pair for the login exchange.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateAccountRequest registers a new account. Role defaults to "standard"
// when empty.
type CreateAccountRequest struct {
	Handle   string `json:"handle"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// UpdateAccountRequest is a partial account update; nil fields are left
// untouched.
type UpdateAccountRequest struct {
	Handle *string `json:"handle,omitempty"`
	Email  *string `json:"email,omitempty"`
}

// CreateDocumentRequest creates a document owned by the session's account.
type CreateDocumentRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// UpdateDocumentRequest is a partial document update; nil fields are left
// untouched.
type UpdateDocumentRequest struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

// ChangeRoleRequest assigns a new role to an account.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// BatchDeleteRequest soft-deletes a set of records by id.
type BatchDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// ============================================================================
// Listing options
// ============================================================================

// ListOptions carries the optional listing parameters shared by the
// collection endpoints. The zero value lists the first page of active records
// in the server's default order.
type ListOptions struct {
	// Contains maps a text column to a substring filter, e.g.
	// {"handle": "ali"} or {"title": "report"}. The server rejects columns
	// the kind does not expose.
	Contains map[string]string

	// Role filters accounts by exact role; ignored for documents.
	Role string

	// OwnerID filters documents by exact owner; ignored for accounts.
	OwnerID int64

	// IncludeDeleted makes soft-deleted records visible.
	IncludeDeleted bool

	SortBy  string // created_at, updated_at, handle, email, title
	SortDir string // "asc" or "desc"

	Page  int
	Limit int // capped server-side at 100
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	for field, needle := range o.Contains {
		v.Set(field, needle)
	}
	if o.Role != "" {
		v.Set("role", o.Role)
	}
	if o.OwnerID > 0 {
		v.Set("owner_id", strconv.FormatInt(o.OwnerID, 10))
	}
	if o.IncludeDeleted {
		v.Set("deleted", "1")
	}
	if o.SortBy != "" {
		v.Set("sort_by", o.SortBy)
	}
	if o.SortDir != "" {
		v.Set("sort_dir", o.SortDir)
	}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	return v
}
