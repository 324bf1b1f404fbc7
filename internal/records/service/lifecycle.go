package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/query"
	"github.com/folioworks/folio/internal/records/store"
	"github.com/folioworks/folio/pkg/slogx"
)

// Options name the lifecycle behaviors the original system left implicit.
// Defaults preserve the inherited semantics; stricter callers opt in.
type Options struct {
	// AllowRedundantSoftDelete permits soft-deleting an already-deleted
	// record, refreshing its deleted_at stamp. When false the second delete
	// fails store.ErrAlreadyDeleted.
	AllowRedundantSoftDelete bool

	// EnforceOwnership makes mutating document intents verify the acting
	// account owns the record. When false, actor identity is advisory only.
	EnforceOwnership bool
}

// DefaultOptions matches the inherited behavior: redundant soft deletes are
// allowed and ownership is not enforced.
func DefaultOptions() Options {
	return Options{AllowRedundantSoftDelete: true, EnforceOwnership: false}
}

// record is the lifecycle surface every managed kind exposes.
type record interface {
	Deleted() bool
}

// Lifecycle is the orchestration core shared by both record kinds. It drives
// the active / soft-deleted / purged state machine through the generic store
// contract; the kind-specific services embed it and add their own intents.
type Lifecycle[T record, P any] struct {
	Store store.Store
	Kind  query.Kind
	Opts  Options

	// Repo resolves the kind's sub-repository on a Store or a Tx, so the
	// same orchestration runs inside and outside transactions.
	Repo func(store.Store) store.Entities[T, P]
}

// Get fetches a record under the requested visibility.
func (l *Lifecycle[T, P]) Get(ctx context.Context, id int64, vis domain.Visibility) (T, error) {
	return l.Repo(l.Store).GetByID(ctx, id, vis)
}

// List composes the raw listing inputs into a bounded query, executes it, and
// returns the page plus pagination metadata.
func (l *Lifecycle[T, P]) List(ctx context.Context, raw query.RawQuery) ([]T, query.Pagination, error) {
	spec, err := query.Compose(l.Kind, raw)
	if err != nil {
		return nil, query.Pagination{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	items, total, err := l.Repo(l.Store).List(ctx, spec)
	if err != nil {
		return nil, query.Pagination{}, err
	}
	return items, query.NewPagination(total, spec.Page), nil
}

// SoftDelete moves the record to the soft-deleted state. In the default mode
// a record that is already deleted simply gets its stamp refreshed; in strict
// mode that is a conflict.
func (l *Lifecycle[T, P]) SoftDelete(ctx context.Context, id int64) error {
	log := slogx.FromContext(ctx)

	if !l.Opts.AllowRedundantSoftDelete {
		current, err := l.Repo(l.Store).GetByID(ctx, id, domain.IncludeDeleted)
		if err != nil {
			return err
		}
		if current.Deleted() {
			return store.ErrAlreadyDeleted
		}
	}

	if err := l.Repo(l.Store).SoftDelete(ctx, id); err != nil {
		return err
	}

	log.Debug("record soft-deleted",
		slog.String("kind", l.Kind.Name),
		slog.Int64("id", id),
	)
	return nil
}

// Restore moves a soft-deleted record back to active. Fails store.ErrNotFound
// if the record does not exist at all and store.ErrNotDeleted if it is active.
func (l *Lifecycle[T, P]) Restore(ctx context.Context, id int64) error {
	if err := l.Repo(l.Store).Restore(ctx, id); err != nil {
		return err
	}

	slogx.FromContext(ctx).Debug("record restored",
		slog.String("kind", l.Kind.Name),
		slog.Int64("id", id),
	)
	return nil
}

// Purge permanently removes the record from any lifecycle state. Terminal:
// the identity is never addressable again.
func (l *Lifecycle[T, P]) Purge(ctx context.Context, id int64) error {
	if err := l.Repo(l.Store).Purge(ctx, id); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("record purged",
		slog.String("kind", l.Kind.Name),
		slog.Int64("id", id),
	)
	return nil
}

// BatchSoftDelete soft-deletes every listed id and returns the count actually
// affected. Missing ids are skipped, not errors.
func (l *Lifecycle[T, P]) BatchSoftDelete(ctx context.Context, ids []int64) (int, error) {
	affected, err := l.Repo(l.Store).BatchSoftDelete(ctx, ids, nil)
	if err != nil {
		return 0, err
	}

	slogx.FromContext(ctx).Info("records batch soft-deleted",
		slog.String("kind", l.Kind.Name),
		slog.Int("requested", len(ids)),
		slog.Int("affected", affected),
	)
	return affected, nil
}

// Count returns the number of records matching the filter.
func (l *Lifecycle[T, P]) Count(ctx context.Context, filter query.Filter) (int, error) {
	return l.Repo(l.Store).Count(ctx, filter)
}

// Stats summarizes the lifecycle population of one record kind.
type Stats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Deleted int `json:"deleted"`
}

// Stats gathers total and active counts concurrently; the deleted count is
// their difference.
func (l *Lifecycle[T, P]) Stats(ctx context.Context) (Stats, error) {
	var total, active int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = l.Repo(l.Store).Count(gctx, query.Filter{Visibility: domain.IncludeDeleted})
		return err
	})
	g.Go(func() error {
		var err error
		active, err = l.Repo(l.Store).Count(gctx, query.Filter{Visibility: domain.ActiveOnly})
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	return Stats{Total: total, Active: active, Deleted: total - active}, nil
}

// logStorageFailure logs err as unexpected unless it is one of the typed
// business outcomes.
func logStorageFailure(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrNotDeleted),
		errors.Is(err, store.ErrAlreadyDeleted),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrDuplicateValue),
		errors.Is(err, ErrParentNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidCredentials):
		return
	}
	slogx.FromContext(ctx).Error("storage failure",
		slog.String("op", op),
		slog.Any("error", err),
	)
}
