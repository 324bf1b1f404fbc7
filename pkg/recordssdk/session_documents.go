package recordssdk

import (
	"context"
	"fmt"
	"net/http"
)

// CreateDocument creates a document owned by the session's account.
func (s *Session) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*Document, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/documents", req)
	if err != nil {
		return nil, err
	}

	var document Document
	if err := decodeJSON(resp, &document, http.StatusCreated); err != nil {
		return nil, err
	}

	return &document, nil
}

// UpdateDocument applies a partial update to a document. Standard accounts
// may only update their own documents; privileged accounts may update any.
func (s *Session) UpdateDocument(ctx context.Context, id int64, req UpdateDocumentRequest) (*Document, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPatch, fmt.Sprintf("/v1/documents/%d", id), req)
	if err != nil {
		return nil, err
	}

	var document Document
	if err := decodeJSON(resp, &document, http.StatusOK); err != nil {
		return nil, err
	}

	return &document, nil
}

// DeleteDocument soft-deletes a document. The document disappears from
// default reads but keeps its title reserved until it is purged.
func (s *Session) DeleteDocument(ctx context.Context, id int64) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, fmt.Sprintf("/v1/documents/%d", id), nil)
	if err != nil {
		return err
	}

	return checkStatusNoContent(resp)
}

// RestoreDocument brings a soft-deleted document back to active and returns it.
func (s *Session) RestoreDocument(ctx context.Context, id int64) (*Document, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/documents/%d/restore", id), nil)
	if err != nil {
		return nil, err
	}

	var document Document
	if err := decodeJSON(resp, &document, http.StatusOK); err != nil {
		return nil, err
	}

	return &document, nil
}

// PurgeDocument permanently removes a soft-deleted document and releases its
// title for reuse. Requires the privileged role.
func (s *Session) PurgeDocument(ctx context.Context, id int64) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, fmt.Sprintf("/v1/documents/%d/purge", id), nil)
	if err != nil {
		return err
	}

	return checkStatusNoContent(resp)
}

// BatchDeleteDocuments soft-deletes several documents in one call and returns
// how many were actually transitioned. Standard sessions only affect their
// own documents; privileged sessions affect any. Missing and already-deleted
// ids are skipped, not errors.
func (s *Session) BatchDeleteDocuments(ctx context.Context, ids []int64) (int, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/documents/batch-delete", BatchDeleteRequest{
		IDs: ids,
	})
	if err != nil {
		return 0, err
	}

	var result BatchDeleteResponse
	if err := decodeJSON(resp, &result, http.StatusOK); err != nil {
		return 0, err
	}

	return result.Affected, nil
}
