package recordssdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// GetDocument fetches one document by id. Soft-deleted documents are hidden
// unless includeDeleted is set.
func (c *SDKClient) GetDocument(ctx context.Context, id int64, includeDeleted bool) (*Document, error) {
	v := url.Values{}
	if includeDeleted {
		v.Set("deleted", "1")
	}

	resp, err := c.doRequest(ctx, http.MethodGet, pathWithQuery(fmt.Sprintf("/v1/documents/%d", id), v), nil)
	if err != nil {
		return nil, err
	}

	var document Document
	if err := decodeJSON(resp, &document, http.StatusOK); err != nil {
		return nil, err
	}

	return &document, nil
}

// ListDocuments lists documents with optional filtering, sorting and pagination.
func (c *SDKClient) ListDocuments(ctx context.Context, opts ListOptions) (*DocumentList, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, pathWithQuery("/v1/documents", opts.values()), nil)
	if err != nil {
		return nil, err
	}

	var list DocumentList
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}

	return &list, nil
}

// SearchDocuments performs a keyword search across document titles and
// bodies. The keyword is required; filtering and pagination options behave as
// in ListDocuments.
func (c *SDKClient) SearchDocuments(ctx context.Context, keyword string, opts ListOptions) (*DocumentList, error) {
	v := opts.values()
	v.Set("q", keyword)

	resp, err := c.doRequest(ctx, http.MethodGet, pathWithQuery("/v1/documents/search", v), nil)
	if err != nil {
		return nil, err
	}

	var list DocumentList
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}

	return &list, nil
}

// GetDocumentStats returns total/active/deleted document counts spanning
// every lifecycle state.
func (c *SDKClient) GetDocumentStats(ctx context.Context) (*Stats, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/documents/stats", nil)
	if err != nil {
		return nil, err
	}

	var stats Stats
	if err := decodeJSON(resp, &stats, http.StatusOK); err != nil {
		return nil, err
	}

	return &stats, nil
}
