package recordssdk

import (
	"context"
	"fmt"
	"net/http"
)

// UpdateAccount applies a partial update to an account. Standard accounts may
// only update themselves; privileged accounts may update anyone.
func (s *Session) UpdateAccount(ctx context.Context, id int64, req UpdateAccountRequest) (*Account, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPatch, fmt.Sprintf("/v1/accounts/%d", id), req)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := decodeJSON(resp, &account, http.StatusOK); err != nil {
		return nil, err
	}

	return &account, nil
}

// DeleteAccount soft-deletes an account. The account disappears from default
// reads but can be restored until it is purged.
func (s *Session) DeleteAccount(ctx context.Context, id int64) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, fmt.Sprintf("/v1/accounts/%d", id), nil)
	if err != nil {
		return err
	}

	return checkStatusNoContent(resp)
}

// RestoreAccount brings a soft-deleted account back to active and returns it.
func (s *Session) RestoreAccount(ctx context.Context, id int64) (*Account, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/accounts/%d/restore", id), nil)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := decodeJSON(resp, &account, http.StatusOK); err != nil {
		return nil, err
	}

	return &account, nil
}

// PurgeAccount permanently removes a soft-deleted account. Requires the
// privileged role. Purged accounts cannot be restored, and their documents
// remain behind.
func (s *Session) PurgeAccount(ctx context.Context, id int64) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, fmt.Sprintf("/v1/accounts/%d/purge", id), nil)
	if err != nil {
		return err
	}

	return checkStatusNoContent(resp)
}

// ChangeAccountRole assigns a new role to an account. Requires the privileged
// role.
func (s *Session) ChangeAccountRole(ctx context.Context, id int64, role string) (*Account, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPatch, fmt.Sprintf("/v1/accounts/%d/role", id), ChangeRoleRequest{
		Role: role,
	})
	if err != nil {
		return nil, err
	}

	var account Account
	if err := decodeJSON(resp, &account, http.StatusOK); err != nil {
		return nil, err
	}

	return &account, nil
}

// BatchDeleteAccounts soft-deletes several accounts in one call and returns
// how many were actually transitioned. Missing and already-deleted ids are
// skipped, not errors. Requires the privileged role.
func (s *Session) BatchDeleteAccounts(ctx context.Context, ids []int64) (int, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/accounts/batch-delete", BatchDeleteRequest{
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
