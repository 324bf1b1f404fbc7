package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/store"
)

// uniqueProber is the slice of the store contract the uniqueness guard needs.
// Both sub-repositories satisfy it.
type uniqueProber interface {
	CountValue(ctx context.Context, field, value string, excludeID int64) (int, error)
}

// requireUnique fails ErrDuplicateValue if any record other than excludeID
// holds value in the given unique column. Soft-deleted records still occupy
// their values, so the probe spans every lifecycle state. The probe is
// check-then-act: callers must run it inside the same transaction as the
// write, with the storage unique constraint as the second line of defense.
func requireUnique(ctx context.Context, repo uniqueProber, field, value string, excludeID int64) error {
	n, err := repo.CountValue(ctx, field, value, excludeID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateValue, field)
	}
	return nil
}

// requireParent fails ErrParentNotFound unless an account with the given id
// exists. Any lifecycle state is acceptable as a parent; the guard checks
// existence, not active state.
func requireParent(ctx context.Context, accounts store.Accounts, ownerID int64) error {
	_, err := accounts.GetByID(ctx, ownerID, domain.IncludeDeleted)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: account %d", ErrParentNotFound, ownerID)
	}
	return err
}

// requireOwnership fails ErrForbidden when enforcement is on, an actor was
// supplied, and the actor does not own the document. actorID 0 means no actor
// identity was supplied and the check is skipped.
func requireOwnership(doc domain.Document, actorID int64, enforce bool) error {
	if !enforce || actorID == 0 {
		return nil
	}
	if doc.OwnerID != actorID {
		return fmt.Errorf("%w: document %d", ErrForbidden, doc.ID)
	}
	return nil
}
