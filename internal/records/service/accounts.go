package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/query"
	"github.com/folioworks/folio/internal/records/store"
	"github.com/folioworks/folio/pkg/slogx"
)

// AccountService orchestrates the account lifecycle: creation with uniqueness
// guards and credential hashing, patching, role changes, and the shared
// soft-delete state machine via the embedded core.
type AccountService struct {
	Lifecycle[domain.Account, domain.AccountPatch]

	Hasher CredentialHasher
}

func NewAccounts(st store.Store, opts Options) *AccountService {
	return &AccountService{
		Lifecycle: Lifecycle[domain.Account, domain.AccountPatch]{
			Store: st,
			Kind:  query.AccountKind,
			Opts:  opts,
			Repo: func(s store.Store) store.Entities[domain.Account, domain.AccountPatch] {
				return s.Accounts()
			},
		},
		Hasher: DefaultHasher(),
	}
}

// Create registers a new active account. The handle and email uniqueness
// probes and the insert run in one transaction; the storage unique
// constraints back the probes up under concurrent writers.
func (s *AccountService) Create(ctx context.Context, handle, email, credential string, role domain.Role) (domain.Account, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input shape.
	handle = strings.TrimSpace(handle)
	email = strings.TrimSpace(email)
	if role == "" {
		role = domain.RoleStandard
	}
	if handle == "" || email == "" || credential == "" {
		return domain.Account{}, fmt.Errorf("%w: handle, email and credential are required", ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return domain.Account{}, fmt.Errorf("%w: malformed email", ErrValidation)
	}
	if !role.Valid() {
		return domain.Account{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	// 2. Hash the credential before entering the transaction; argon2 is slow
	// and must not hold a write transaction open.
	hash, err := s.Hasher.Hash(credential)
	if err != nil {
		log.Error("failed to hash credential", slog.Any("error", err))
		return domain.Account{}, err
	}

	// 3. Probe both unique fields, then insert.
	var created domain.Account
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := requireUnique(ctx, tx.Accounts(), "handle", handle, 0); err != nil {
			return err
		}
		if err := requireUnique(ctx, tx.Accounts(), "email", email, 0); err != nil {
			return err
		}

		a, err := tx.Accounts().Create(ctx, domain.Account{
			Handle:         handle,
			Email:          email,
			CredentialHash: hash,
			Role:           role,
		})
		if err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		logStorageFailure(ctx, "account.create", err)
		return domain.Account{}, err
	}

	log.Info("account created",
		slog.Int64("account_id", created.ID),
		slog.String("handle", created.Handle),
		slog.String("role", created.Role.String()),
	)
	return created, nil
}

// Update applies a partial update. Uniqueness is probed only for the fields
// the patch actually changes; the patch applies in any lifecycle state.
func (s *AccountService) Update(ctx context.Context, id int64, patch domain.AccountPatch) (domain.Account, error) {
	// 1. Normalize and validate only the changing fields.
	if patch.Handle != nil {
		h := strings.TrimSpace(*patch.Handle)
		if h == "" {
			return domain.Account{}, fmt.Errorf("%w: handle cannot be blank", ErrValidation)
		}
		patch.Handle = &h
	}
	if patch.Email != nil {
		e := strings.TrimSpace(*patch.Email)
		if e == "" || !strings.Contains(e, "@") {
			return domain.Account{}, fmt.Errorf("%w: malformed email", ErrValidation)
		}
		patch.Email = &e
	}

	// 2. Probe changed unique fields and apply, atomically.
	var updated domain.Account
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Accounts().GetByID(ctx, id, domain.IncludeDeleted)
		if err != nil {
			return err
		}
		if patch.Handle != nil && *patch.Handle != current.Handle {
			if err := requireUnique(ctx, tx.Accounts(), "handle", *patch.Handle, id); err != nil {
				return err
			}
		}
		if patch.Email != nil && !strings.EqualFold(*patch.Email, current.Email) {
			if err := requireUnique(ctx, tx.Accounts(), "email", *patch.Email, id); err != nil {
				return err
			}
		}

		a, err := tx.Accounts().Update(ctx, id, patch)
		if err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		logStorageFailure(ctx, "account.update", err)
		return domain.Account{}, err
	}

	slogx.FromContext(ctx).Debug("account updated", slog.Int64("account_id", id))
	return updated, nil
}

// UpdateRole changes the account's privilege level.
func (s *AccountService) UpdateRole(ctx context.Context, id int64, role domain.Role) (domain.Account, error) {
	if !role.Valid() {
		return domain.Account{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	account, err := s.Store.Accounts().UpdateRole(ctx, id, role)
	if err != nil {
		logStorageFailure(ctx, "account.update_role", err)
		return domain.Account{}, err
	}

	slogx.FromContext(ctx).Info("account role changed",
		slog.Int64("account_id", id),
		slog.String("role", role.String()),
	)
	return account, nil
}

// AccountStats extends the lifecycle counts with a per-role breakdown.
type AccountStats struct {
	Stats

	ByRole map[domain.Role]int `json:"by_role"`
}

// Stats gathers the lifecycle counts and the role breakdown concurrently.
func (s *AccountService) Stats(ctx context.Context) (AccountStats, error) {
	var (
		core   Stats
		byRole map[domain.Role]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		core, err = s.Lifecycle.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		byRole, err = s.Store.Accounts().CountByRole(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logStorageFailure(ctx, "account.stats", err)
		return AccountStats{}, err
	}

	return AccountStats{Stats: core, ByRole: byRole}, nil
}
