package recordssdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CreateAccount registers a new account. Registration is open, so no session
// is required. Role defaults to "standard" when left empty.
func (c *SDKClient) CreateAccount(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	resp, err := c.doJSONRequest(ctx, http.MethodPost, "/v1/accounts", req)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := decodeJSON(resp, &account, http.StatusCreated); err != nil {
		return nil, err
	}

	return &account, nil
}

// GetAccount fetches one account by id. Soft-deleted accounts are hidden
// unless includeDeleted is set.
func (c *SDKClient) GetAccount(ctx context.Context, id int64, includeDeleted bool) (*Account, error) {
	v := url.Values{}
	if includeDeleted {
		v.Set("deleted", "1")
	}

	resp, err := c.doRequest(ctx, http.MethodGet, pathWithQuery(fmt.Sprintf("/v1/accounts/%d", id), v), nil)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := decodeJSON(resp, &account, http.StatusOK); err != nil {
		return nil, err
	}

	return &account, nil
}

// ListAccounts lists accounts with optional filtering, sorting and pagination.
func (c *SDKClient) ListAccounts(ctx context.Context, opts ListOptions) (*AccountList, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, pathWithQuery("/v1/accounts", opts.values()), nil)
	if err != nil {
		return nil, err
	}

	var list AccountList
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}

	return &list, nil
}

// GetAccountStats returns total/active/deleted counts plus a per-role
// breakdown spanning every lifecycle state.
func (c *SDKClient) GetAccountStats(ctx context.Context) (*AccountStats, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/accounts/stats", nil)
	if err != nil {
		return nil, err
	}

	var stats AccountStats
	if err := decodeJSON(resp, &stats, http.StatusOK); err != nil {
		return nil, err
	}

	return &stats, nil
}

// ListAccountDocuments lists the documents owned by one account. Documents
// that outlived a purged owner remain listable under the old owner id.
func (c *SDKClient) ListAccountDocuments(ctx context.Context, ownerID int64, opts ListOptions) (*DocumentList, error) {
	path := pathWithQuery(fmt.Sprintf("/v1/accounts/%d/documents", ownerID), opts.values())

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var list DocumentList
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}

	return &list, nil
}
