package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/query"
	"github.com/folioworks/folio/internal/records/store"
	"github.com/folioworks/folio/pkg/cryptox"
)

func TestAccountService_Create(t *testing.T) {
	ctx := context.Background()
	svc := NewAccounts(newTestStore(t), DefaultOptions())

	t.Run("creates an active account with hashed credential", func(t *testing.T) {
		a, err := svc.Create(ctx, "alice", "a@x.com", "Secret1A", "")
		require.NoError(t, err)
		require.NotZero(t, a.ID)
		require.Equal(t, "alice", a.Handle)
		require.Equal(t, domain.RoleStandard, a.Role)
		require.Nil(t, a.DeletedAt)
		require.False(t, a.CreatedAt.IsZero())

		// The stored hash verifies the original credential and is not the
		// plaintext.
		stored, err := svc.Store.Accounts().GetByID(ctx, a.ID, domain.ActiveOnly)
		require.NoError(t, err)
		require.NotEqual(t, "Secret1A", stored.CredentialHash)
		require.NoError(t, cryptox.VerifyPassword("Secret1A", stored.CredentialHash))
	})

	t.Run("accepts an explicit role", func(t *testing.T) {
		a, err := svc.Create(ctx, "admin", "admin@x.com", "Secret1A", domain.RolePrivileged)
		require.NoError(t, err)
		require.Equal(t, domain.RolePrivileged, a.Role)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		_, err := svc.Create(ctx, "", "b@x.com", "pw", "")
		require.ErrorIs(t, err, ErrValidation)

		_, err = svc.Create(ctx, "bob", "", "pw", "")
		require.ErrorIs(t, err, ErrValidation)

		_, err = svc.Create(ctx, "bob", "b@x.com", "", "")
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		_, err := svc.Create(ctx, "bob", "not-an-email", "pw", "")
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := svc.Create(ctx, "bob", "b@x.com", "pw", domain.Role("superuser"))
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects duplicate handle", func(t *testing.T) {
		_, err := svc.Create(ctx, "alice", "alice2@x.com", "pw", "")
		require.ErrorIs(t, err, ErrDuplicateValue)
	})

	t.Run("rejects duplicate email case-insensitively", func(t *testing.T) {
		_, err := svc.Create(ctx, "alice2", "A@X.COM", "pw", "")
		require.ErrorIs(t, err, ErrDuplicateValue)
	})

	t.Run("a soft-deleted account still occupies its values", func(t *testing.T) {
		ghost, err := svc.Create(ctx, "ghost", "ghost@x.com", "pw", "")
		require.NoError(t, err)
		require.NoError(t, svc.SoftDelete(ctx, ghost.ID))

		_, err = svc.Create(ctx, "ghost", "other@x.com", "pw", "")
		require.ErrorIs(t, err, ErrDuplicateValue)

		_, err = svc.Create(ctx, "other", "ghost@x.com", "pw", "")
		require.ErrorIs(t, err, ErrDuplicateValue)
	})
}

func TestAccountService_Update(t *testing.T) {
	ctx := context.Background()
	svc := NewAccounts(newTestStore(t), DefaultOptions())

	alice, err := svc.Create(ctx, "alice", "a@x.com", "pw", "")
	require.NoError(t, err)
	bob, err := svc.Create(ctx, "bob", "b@x.com", "pw", "")
	require.NoError(t, err)

	t.Run("changes the handle", func(t *testing.T) {
		h := "alice-2"
		updated, err := svc.Update(ctx, alice.ID, domain.AccountPatch{Handle: &h})
		require.NoError(t, err)
		require.Equal(t, "alice-2", updated.Handle)
		require.Equal(t, alice.Email, updated.Email)
	})

	t.Run("rejects a handle held by another account", func(t *testing.T) {
		h := "bob"
		_, err := svc.Update(ctx, alice.ID, domain.AccountPatch{Handle: &h})
		require.ErrorIs(t, err, ErrDuplicateValue)
	})

	t.Run("keeping your own value is not a collision", func(t *testing.T) {
		h := "bob"
		updated, err := svc.Update(ctx, bob.ID, domain.AccountPatch{Handle: &h})
		require.NoError(t, err)
		require.Equal(t, "bob", updated.Handle)
	})

	t.Run("rejects blank patch values", func(t *testing.T) {
		blank := "   "
		_, err := svc.Update(ctx, bob.ID, domain.AccountPatch{Handle: &blank})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown id fails not found", func(t *testing.T) {
		h := "nobody"
		_, err := svc.Update(ctx, 99999, domain.AccountPatch{Handle: &h})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("updates a soft-deleted account and bumps updated_at", func(t *testing.T) {
		ghost, err := svc.Create(ctx, "ghost", "ghost@x.com", "pw", "")
		require.NoError(t, err)
		require.NoError(t, svc.SoftDelete(ctx, ghost.ID))

		before, err := svc.Get(ctx, ghost.ID, domain.IncludeDeleted)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		h := "ghost-renamed"
		updated, err := svc.Update(ctx, ghost.ID, domain.AccountPatch{Handle: &h})
		require.NoError(t, err)
		require.Equal(t, "ghost-renamed", updated.Handle)
		require.NotNil(t, updated.DeletedAt)
		require.True(t, updated.UpdatedAt.After(before.UpdatedAt))
	})
}

func TestAccountService_UpdateRole(t *testing.T) {
	ctx := context.Background()
	svc := NewAccounts(newTestStore(t), DefaultOptions())

	alice, err := svc.Create(ctx, "alice", "a@x.com", "pw", "")
	require.NoError(t, err)

	updated, err := svc.UpdateRole(ctx, alice.ID, domain.RolePrivileged)
	require.NoError(t, err)
	require.Equal(t, domain.RolePrivileged, updated.Role)

	_, err = svc.UpdateRole(ctx, alice.ID, domain.Role("supreme"))
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateRole(ctx, 99999, domain.RoleStandard)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccountService_SoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	svc := NewAccounts(newTestStore(t), DefaultOptions())

	bob, err := svc.Create(ctx, "bob", "b@x.com", "pw", "")
	require.NoError(t, err)

	t.Run("soft delete hides from default visibility", func(t *testing.T) {
		require.NoError(t, svc.SoftDelete(ctx, bob.ID))

		_, err := svc.Get(ctx, bob.ID, domain.ActiveOnly)
		require.ErrorIs(t, err, store.ErrNotFound)

		deleted, err := svc.Get(ctx, bob.ID, domain.IncludeDeleted)
		require.NoError(t, err)
		require.NotNil(t, deleted.DeletedAt)
	})

	t.Run("listing excludes deleted records by default", func(t *testing.T) {
		items, _, err := svc.List(ctx, query.RawQuery{})
		require.NoError(t, err)
		for _, a := range items {
			require.NotEqual(t, bob.ID, a.ID)
		}

		items, _, err = svc.List(ctx, query.RawQuery{IncludeDeleted: true})
		require.NoError(t, err)
		found := false
		for _, a := range items {
			if a.ID == bob.ID {
				found = true
				require.NotNil(t, a.DeletedAt)
			}
		}
		require.True(t, found)
	})

	t.Run("redundant soft delete re-stamps in the default mode", func(t *testing.T) {
		first, err := svc.Get(ctx, bob.ID, domain.IncludeDeleted)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, svc.SoftDelete(ctx, bob.ID))

		second, err := svc.Get(ctx, bob.ID, domain.IncludeDeleted)
		require.NoError(t, err)
		require.True(t, second.DeletedAt.After(*first.DeletedAt))
	})

	t.Run("restore brings the record back", func(t *testing.T) {
		require.NoError(t, svc.Restore(ctx, bob.ID))

		restored, err := svc.Get(ctx, bob.ID, domain.ActiveOnly)
		require.NoError(t, err)
		require.Nil(t, restored.DeletedAt)
	})

	t.Run("restore on an active record fails not-deleted", func(t *testing.T) {
		require.ErrorIs(t, svc.Restore(ctx, bob.ID), store.ErrNotDeleted)
	})

	t.Run("restore on an unknown record fails not found", func(t *testing.T) {
		require.ErrorIs(t, svc.Restore(ctx, 99999), store.ErrNotFound)
	})

	t.Run("soft delete on an unknown record fails not found", func(t *testing.T) {
		require.ErrorIs(t, svc.SoftDelete(ctx, 99999), store.ErrNotFound)
	})
}

func TestAccountService_StrictSoftDeleteMode(t *testing.T) {
	ctx := context.Background()
	svc := NewAccounts(newTestStore(t), Options{AllowRedundantSoftDelete: false})

	carol, err := svc.Create(ctx, "carol", "c@x.com", "pw", "")
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, carol.ID))
	require.ErrorIs(t, svc.SoftDelete(ctx, carol.ID), store.ErrAlreadyDeleted)
}

func TestAccountService_Purge(t *testing.T) {
	ctx := context.Background()
	svc := NewAccounts(newTestStore(t), DefaultOptions())

	t.Run("purge removes an active record from every visibility", func(t *testing.T) {
		a, err := svc.Create(ctx, "gone", "gone@x.com", "pw", "")
		require.NoError(t, err)

		require.NoError(t, svc.Purge(ctx, a.ID))

		_, err = svc.Get(ctx, a.ID, domain.ActiveOnly)
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = svc.Get(ctx, a.ID, domain.IncludeDeleted)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("purge reaches soft-deleted records", func(t *testing.T) {
		a, err := svc.Create(ctx, "gone2", "gone2@x.com", "pw", "")
		require.NoError(t, err)
		require.NoError(t, svc.SoftDelete(ctx, a.ID))

		require.NoError(t, svc.Purge(ctx, a.ID))
		_, err = svc.Get(ctx, a.ID, domain.IncludeDeleted)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("purge is terminal", func(t *testing.T) {
		a, err := svc.Create(ctx, "gone3", "gone3@x.com", "pw", "")
		require.NoError(t, err)
		require.NoError(t, svc.Purge(ctx, a.ID))

		require.ErrorIs(t, svc.Restore(ctx, a.ID), store.ErrNotFound)
		require.ErrorIs(t, svc.Purge(ctx, a.ID), store.ErrNotFound)
	})

	t.Run("a purged value is free for reuse", func(t *testing.T) {
		a, err := svc.Create(ctx, "recycled", "recycled@x.com", "pw", "")
		require.NoError(t, err)
		require.NoError(t, svc.Purge(ctx, a.ID))

		again, err := svc.Create(ctx, "recycled", "recycled@x.com", "pw", "")
		require.NoError(t, err)
		// Identities are never reissued.
		require.NotEqual(t, a.ID, again.ID)
	})
}

func TestAccountService_List(t *testing.T) {
	ctx := context.Background()
	svc := NewAccounts(newTestStore(t), DefaultOptions())

	for i := 1; i <= 23; i++ {
		_, err := svc.Create(ctx,
			fmt.Sprintf("member-%02d", i),
			fmt.Sprintf("member-%02d@x.com", i),
			"pw",
			"",
		)
		require.NoError(t, err)
	}

	t.Run("pagination metadata", func(t *testing.T) {
		items, page, err := svc.List(ctx, query.RawQuery{})
		require.NoError(t, err)
		require.Len(t, items, 10) // default limit
		require.Equal(t, 23, page.Total)
		require.Equal(t, 1, page.Page)
		require.Equal(t, 10, page.Limit)
		require.Equal(t, 3, page.TotalPages)
	})

	t.Run("last page is the remainder", func(t *testing.T) {
		items, page, err := svc.List(ctx, query.RawQuery{Page: "3"})
		require.NoError(t, err)
		require.Len(t, items, 3)
		require.Equal(t, 3, page.Page)
	})

	t.Run("limit is capped", func(t *testing.T) {
		_, page, err := svc.List(ctx, query.RawQuery{Limit: "5000"})
		require.NoError(t, err)
		require.Equal(t, query.MaxLimit, page.Limit)
	})

	t.Run("no matches means zero total pages", func(t *testing.T) {
		items, page, err := svc.List(ctx, query.RawQuery{
			Contains: map[string]string{"handle": "no-such-member"},
		})
		require.NoError(t, err)
		require.Empty(t, items)
		require.Equal(t, 0, page.Total)
		require.Equal(t, 0, page.TotalPages)
	})

	t.Run("contains filter narrows by substring", func(t *testing.T) {
		items, page, err := svc.List(ctx, query.RawQuery{
			Contains: map[string]string{"handle": "member-1"},
		})
		require.NoError(t, err)
		// member-10 through member-19
		require.Equal(t, 10, page.Total)
		require.NotEmpty(t, items)
	})

	t.Run("unknown filter field is a validation error", func(t *testing.T) {
		_, _, err := svc.List(ctx, query.RawQuery{
			Contains: map[string]string{"credential_hash": "x"},
		})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown sort field falls back to default order", func(t *testing.T) {
		items, _, err := svc.List(ctx, query.RawQuery{SortBy: "credential_hash"})
		require.NoError(t, err)
		require.Len(t, items, 10)
		// Default order is created_at descending: newest first.
		require.Equal(t, "member-23", items[0].Handle)
	})

	t.Run("explicit ascending sort by handle", func(t *testing.T) {
		items, _, err := svc.List(ctx, query.RawQuery{SortBy: "handle", SortDir: "asc"})
		require.NoError(t, err)
		require.Equal(t, "member-01", items[0].Handle)
	})

	t.Run("role filter", func(t *testing.T) {
		_, err := svc.UpdateRole(ctx, 1, domain.RolePrivileged)
		require.NoError(t, err)

		_, page, err := svc.List(ctx, query.RawQuery{Role: domain.RolePrivileged.String()})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
	})
}

func TestAccountService_BatchSoftDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewAccounts(newTestStore(t), DefaultOptions())

	a, err := svc.Create(ctx, "batch-a", "ba@x.com", "pw", "")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "batch-b", "bb@x.com", "pw", "")
	require.NoError(t, err)

	// A missing id is a miss, not an error.
	affected, err := svc.BatchSoftDelete(ctx, []int64{a.ID, b.ID, 99999})
	require.NoError(t, err)
	require.Equal(t, 2, affected)

	_, err = svc.Get(ctx, a.ID, domain.ActiveOnly)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = svc.Get(ctx, b.ID, domain.ActiveOnly)
	require.ErrorIs(t, err, store.ErrNotFound)

	affected, err = svc.BatchSoftDelete(ctx, nil)
	require.NoError(t, err)
	require.Zero(t, affected)
}

func TestAccountService_Stats(t *testing.T) {
	ctx := context.Background()
	svc := NewAccounts(newTestStore(t), DefaultOptions())

	_, err := svc.Create(ctx, "one", "one@x.com", "pw", "")
	require.NoError(t, err)
	two, err := svc.Create(ctx, "two", "two@x.com", "pw", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "three", "three@x.com", "pw", domain.RolePrivileged)
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, two.ID))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.Active)
	require.Equal(t, 1, stats.Deleted)
	require.Equal(t, 2, stats.ByRole[domain.RoleStandard])
	require.Equal(t, 1, stats.ByRole[domain.RolePrivileged])
}
