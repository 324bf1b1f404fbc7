package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/query"
	"github.com/folioworks/folio/internal/records/store"
	"github.com/folioworks/folio/pkg/slogx"
)

// DocumentService orchestrates the document lifecycle: creation behind the
// relation and uniqueness guards, patching, keyword search, and the shared
// soft-delete state machine via the embedded core. Mutating intents accept an
// actor id (0 = none) and consult the ownership guard per the configured mode.
type DocumentService struct {
	Lifecycle[domain.Document, domain.DocumentPatch]
}

func NewDocuments(st store.Store, opts Options) *DocumentService {
	return &DocumentService{
		Lifecycle: Lifecycle[domain.Document, domain.DocumentPatch]{
			Store: st,
			Kind:  query.DocumentKind,
			Opts:  opts,
			Repo: func(s store.Store) store.Entities[domain.Document, domain.DocumentPatch] {
				return s.Documents()
			},
		},
	}
}

// Create inserts a new active document. The owner existence check, the title
// uniqueness probe, and the insert run in one transaction, so nothing is
// persisted when a precondition fails.
func (s *DocumentService) Create(ctx context.Context, title, body string, ownerID int64) (domain.Document, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input shape.
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Document{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if ownerID <= 0 {
		return domain.Document{}, fmt.Errorf("%w: owner id is required", ErrValidation)
	}

	// 2. Guards, then insert.
	var created domain.Document
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := requireParent(ctx, tx.Accounts(), ownerID); err != nil {
			return err
		}
		if err := requireUnique(ctx, tx.Documents(), "title", title, 0); err != nil {
			return err
		}

		d, err := tx.Documents().Create(ctx, domain.Document{
			Title:   title,
			Body:    body,
			OwnerID: ownerID,
		})
		if err != nil {
			return err
		}
		created = d
		return nil
	})
	if err != nil {
		logStorageFailure(ctx, "document.create", err)
		return domain.Document{}, err
	}

	log.Info("document created",
		slog.Int64("document_id", created.ID),
		slog.Int64("owner_id", created.OwnerID),
	)
	return created, nil
}

// Update applies a partial update. Title uniqueness is probed only when the
// title actually changes; the patch applies in any lifecycle state.
func (s *DocumentService) Update(ctx context.Context, id int64, patch domain.DocumentPatch, actorID int64) (domain.Document, error) {
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return domain.Document{}, fmt.Errorf("%w: title cannot be blank", ErrValidation)
		}
		patch.Title = &t
	}

	var updated domain.Document
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Documents().GetByID(ctx, id, domain.IncludeDeleted)
		if err != nil {
			return err
		}
		if err := requireOwnership(current, actorID, s.Opts.EnforceOwnership); err != nil {
			return err
		}
		if patch.Title != nil && *patch.Title != current.Title {
			if err := requireUnique(ctx, tx.Documents(), "title", *patch.Title, id); err != nil {
				return err
			}
		}

		d, err := tx.Documents().Update(ctx, id, patch)
		if err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		logStorageFailure(ctx, "document.update", err)
		return domain.Document{}, err
	}

	slogx.FromContext(ctx).Debug("document updated", slog.Int64("document_id", id))
	return updated, nil
}

// SoftDelete consults the ownership guard, then runs the shared soft delete.
func (s *DocumentService) SoftDelete(ctx context.Context, id, actorID int64) error {
	if err := s.checkOwnership(ctx, id, actorID); err != nil {
		return err
	}
	return s.Lifecycle.SoftDelete(ctx, id)
}

// Restore consults the ownership guard, then runs the shared restore.
func (s *DocumentService) Restore(ctx context.Context, id, actorID int64) error {
	if err := s.checkOwnership(ctx, id, actorID); err != nil {
		return err
	}
	return s.Lifecycle.Restore(ctx, id)
}

func (s *DocumentService) checkOwnership(ctx context.Context, id, actorID int64) error {
	if !s.Opts.EnforceOwnership || actorID == 0 {
		return nil
	}
	doc, err := s.Repo(s.Store).GetByID(ctx, id, domain.IncludeDeleted)
	if err != nil {
		return err
	}
	return requireOwnership(doc, actorID, true)
}

// BatchSoftDelete soft-deletes the listed documents. When ownerID is non-zero
// the batch only touches documents owned by that account; ids outside the
// scope count as misses, not errors.
func (s *DocumentService) BatchSoftDelete(ctx context.Context, ids []int64, ownerID int64) (int, error) {
	var scope *query.Filter
	if ownerID > 0 {
		scope = &query.Filter{Visibility: domain.IncludeDeleted, OwnerID: ownerID}
	}

	affected, err := s.Repo(s.Store).BatchSoftDelete(ctx, ids, scope)
	if err != nil {
		logStorageFailure(ctx, "document.batch_soft_delete", err)
		return 0, err
	}

	slogx.FromContext(ctx).Info("documents batch soft-deleted",
		slog.Int("requested", len(ids)),
		slog.Int("affected", affected),
		slog.Int64("owner_scope", ownerID),
	)
	return affected, nil
}

// ListByOwner lists the documents owned by one account.
func (s *DocumentService) ListByOwner(ctx context.Context, ownerID int64, raw query.RawQuery) ([]domain.Document, query.Pagination, error) {
	if ownerID <= 0 {
		return nil, query.Pagination{}, fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	raw.OwnerID = ownerID
	return s.List(ctx, raw)
}

// Search matches the keyword as a case-insensitive substring against every
// text column of the document kind.
func (s *DocumentService) Search(ctx context.Context, keyword string, raw query.RawQuery) ([]domain.Document, query.Pagination, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, query.Pagination{}, fmt.Errorf("%w: search keyword is required", ErrValidation)
	}
	raw.Search = keyword
	return s.List(ctx, raw)
}
