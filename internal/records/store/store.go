package store

import (
	"context"
	"errors"
	"time"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/query"
)

var (
	ErrNotFound       = errors.New("store: not found")
	ErrDuplicate      = errors.New("store: duplicate value")
	ErrNotDeleted     = errors.New("store: not deleted")
	ErrAlreadyDeleted = errors.New("store: already deleted")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and transaction helpers for multi-step operations that must be
// atomic (e.g., uniqueness probe + insert).
type Store interface {
	Accounts() Accounts
	Documents() Documents

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Entities is the lifecycle contract shared by every record kind. T is the
// entity type, P its patch type. Both kinds run the same state machine
// (active -> soft-deleted -> restored or purged), so the contract is written
// once and instantiated per kind.
type Entities[T, P any] interface {
	// Create inserts a new active record and returns it with its assigned id
	// and timestamps. Storage-level unique violations map to ErrDuplicate.
	Create(ctx context.Context, entity T) (T, error)

	// GetByID returns the record if the visibility permits it, else ErrNotFound.
	GetByID(ctx context.Context, id int64, vis domain.Visibility) (T, error)

	// List executes a composed query spec and returns the page of matches
	// plus the total match count.
	List(ctx context.Context, spec query.Spec) ([]T, int, error)

	// Update applies a patch to a record in any lifecycle state and bumps
	// updated_at. ErrNotFound if absent.
	Update(ctx context.Context, id int64, patch P) (T, error)

	// SoftDelete stamps deleted_at on any found record, active or not; a
	// repeated call re-stamps. ErrNotFound if absent.
	SoftDelete(ctx context.Context, id int64) error

	// Restore clears deleted_at. Searched with IncludeDeleted visibility;
	// ErrNotFound if absent, ErrNotDeleted if the record is active.
	Restore(ctx context.Context, id int64) error

	// Purge permanently removes the record regardless of lifecycle state.
	// ErrNotFound if absent.
	Purge(ctx context.Context, id int64) error

	// BatchSoftDelete soft-deletes every listed id that also matches the
	// optional scope filter and returns the count actually affected. Missing
	// ids are not an error.
	BatchSoftDelete(ctx context.Context, ids []int64, scope *query.Filter) (int, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter query.Filter) (int, error)

	// CountValue counts records holding value in the given unique column,
	// excluding excludeID when non-zero. Soft-deleted records are always
	// counted; a merely deleted record still occupies its unique value.
	CountValue(ctx context.Context, field, value string, excludeID int64) (int, error)

	// PurgeDeletedBefore removes every record soft-deleted before the cutoff
	// and returns the number removed. Used by retention sweeps.
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type Accounts interface {
	Entities[domain.Account, domain.AccountPatch]

	// GetByEmail resolves an account by email, compared case-insensitively.
	GetByEmail(ctx context.Context, email string, vis domain.Visibility) (domain.Account, error)

	// UpdateRole sets the account's role and bumps updated_at.
	UpdateRole(ctx context.Context, id int64, role domain.Role) (domain.Account, error)

	// CountByRole returns per-role counts across all non-purged accounts.
	CountByRole(ctx context.Context) (map[domain.Role]int, error)
}

type Documents interface {
	Entities[domain.Document, domain.DocumentPatch]
}
