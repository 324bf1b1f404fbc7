package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/query"
	"github.com/folioworks/folio/internal/records/store"
)

func TestDocumentService_Create(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewDocuments(st, DefaultOptions())

	owner := seedAccount(t, st, "owner", "owner@x.com")

	t.Run("creates an active document", func(t *testing.T) {
		d, err := svc.Create(ctx, "First", "hello", owner.ID)
		require.NoError(t, err)
		require.NotZero(t, d.ID)
		require.Equal(t, "First", d.Title)
		require.Equal(t, owner.ID, d.OwnerID)
		require.Nil(t, d.DeletedAt)
	})

	t.Run("rejects a blank title", func(t *testing.T) {
		_, err := svc.Create(ctx, "   ", "body", owner.ID)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects a missing owner id", func(t *testing.T) {
		_, err := svc.Create(ctx, "Orphan", "body", 0)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown owner fails and persists nothing", func(t *testing.T) {
		before, err := svc.Count(ctx, query.Filter{Visibility: domain.IncludeDeleted})
		require.NoError(t, err)

		_, err = svc.Create(ctx, "Orphan", "body", 99999)
		require.ErrorIs(t, err, ErrParentNotFound)

		after, err := svc.Count(ctx, query.Filter{Visibility: domain.IncludeDeleted})
		require.NoError(t, err)
		require.Equal(t, before, after)
	})

	t.Run("a soft-deleted owner is still an acceptable parent", func(t *testing.T) {
		ghost := seedAccount(t, st, "ghost", "ghost@x.com")
		require.NoError(t, st.Accounts().SoftDelete(ctx, ghost.ID))

		d, err := svc.Create(ctx, "Ghost doc", "body", ghost.ID)
		require.NoError(t, err)
		require.Equal(t, ghost.ID, d.OwnerID)
	})

	t.Run("rejects a duplicate title and persists nothing", func(t *testing.T) {
		before, err := svc.Count(ctx, query.Filter{Visibility: domain.IncludeDeleted})
		require.NoError(t, err)

		_, err = svc.Create(ctx, "First", "another body", owner.ID)
		require.ErrorIs(t, err, ErrDuplicateValue)

		after, err := svc.Count(ctx, query.Filter{Visibility: domain.IncludeDeleted})
		require.NoError(t, err)
		require.Equal(t, before, after)
	})

	t.Run("a soft-deleted document still occupies its title", func(t *testing.T) {
		d, err := svc.Create(ctx, "Reserved", "body", owner.ID)
		require.NoError(t, err)
		require.NoError(t, svc.SoftDelete(ctx, d.ID, 0))

		_, err = svc.Create(ctx, "Reserved", "body", owner.ID)
		require.ErrorIs(t, err, ErrDuplicateValue)
	})
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewDocuments(st, DefaultOptions())

	owner := seedAccount(t, st, "owner", "owner@x.com")
	doc, err := svc.Create(ctx, "Draft", "v1", owner.ID)
	require.NoError(t, err)
	other, err := svc.Create(ctx, "Other", "x", owner.ID)
	require.NoError(t, err)

	t.Run("patches title and body", func(t *testing.T) {
		title, body := "Draft v2", "v2"
		updated, err := svc.Update(ctx, doc.ID, domain.DocumentPatch{Title: &title, Body: &body}, 0)
		require.NoError(t, err)
		require.Equal(t, "Draft v2", updated.Title)
		require.Equal(t, "v2", updated.Body)
	})

	t.Run("rejects a title held by another document", func(t *testing.T) {
		title := "Other"
		_, err := svc.Update(ctx, doc.ID, domain.DocumentPatch{Title: &title}, 0)
		require.ErrorIs(t, err, ErrDuplicateValue)
	})

	t.Run("keeping your own title is not a collision", func(t *testing.T) {
		title := "Other"
		updated, err := svc.Update(ctx, other.ID, domain.DocumentPatch{Title: &title}, 0)
		require.NoError(t, err)
		require.Equal(t, "Other", updated.Title)
	})

	t.Run("rejects a blank title", func(t *testing.T) {
		blank := " "
		_, err := svc.Update(ctx, doc.ID, domain.DocumentPatch{Title: &blank}, 0)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown id fails not found", func(t *testing.T) {
		body := "x"
		_, err := svc.Update(ctx, 99999, domain.DocumentPatch{Body: &body}, 0)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestDocumentService_Ownership(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewDocuments(st, Options{AllowRedundantSoftDelete: true, EnforceOwnership: true})

	alice := seedAccount(t, st, "alice", "a@x.com")
	mallory := seedAccount(t, st, "mallory", "m@x.com")
	doc, err := svc.Create(ctx, "Private", "body", alice.ID)
	require.NoError(t, err)

	t.Run("a stranger cannot modify the document", func(t *testing.T) {
		body := "defaced"
		_, err := svc.Update(ctx, doc.ID, domain.DocumentPatch{Body: &body}, mallory.ID)
		require.ErrorIs(t, err, ErrForbidden)

		require.ErrorIs(t, svc.SoftDelete(ctx, doc.ID, mallory.ID), ErrForbidden)
	})

	t.Run("the owner can", func(t *testing.T) {
		body := "edited"
		_, err := svc.Update(ctx, doc.ID, domain.DocumentPatch{Body: &body}, alice.ID)
		require.NoError(t, err)

		require.NoError(t, svc.SoftDelete(ctx, doc.ID, alice.ID))
		require.ErrorIs(t, svc.Restore(ctx, doc.ID, mallory.ID), ErrForbidden)
		require.NoError(t, svc.Restore(ctx, doc.ID, alice.ID))
	})

	t.Run("actor zero bypasses the guard", func(t *testing.T) {
		body := "system edit"
		_, err := svc.Update(ctx, doc.ID, domain.DocumentPatch{Body: &body}, 0)
		require.NoError(t, err)
	})

	t.Run("the guard is off by default", func(t *testing.T) {
		lax := NewDocuments(st, DefaultOptions())
		body := "anyone"
		_, err := lax.Update(ctx, doc.ID, domain.DocumentPatch{Body: &body}, mallory.ID)
		require.NoError(t, err)
	})
}

func TestDocumentService_BatchSoftDelete(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewDocuments(st, DefaultOptions())

	alice := seedAccount(t, st, "alice", "a@x.com")
	bob := seedAccount(t, st, "bob", "b@x.com")

	a1, err := svc.Create(ctx, "Alice 1", "x", alice.ID)
	require.NoError(t, err)
	a2, err := svc.Create(ctx, "Alice 2", "x", alice.ID)
	require.NoError(t, err)
	b1, err := svc.Create(ctx, "Bob 1", "x", bob.ID)
	require.NoError(t, err)

	t.Run("owner scope skips other accounts' documents", func(t *testing.T) {
		affected, err := svc.BatchSoftDelete(ctx, []int64{a1.ID, b1.ID, 99999}, alice.ID)
		require.NoError(t, err)
		require.Equal(t, 1, affected)

		_, err = svc.Get(ctx, a1.ID, domain.ActiveOnly)
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = svc.Get(ctx, b1.ID, domain.ActiveOnly)
		require.NoError(t, err)
	})

	t.Run("unscoped batch reaches everything listed", func(t *testing.T) {
		affected, err := svc.BatchSoftDelete(ctx, []int64{a2.ID, b1.ID}, 0)
		require.NoError(t, err)
		require.Equal(t, 2, affected)
	})

	t.Run("an empty batch is a no-op", func(t *testing.T) {
		affected, err := svc.BatchSoftDelete(ctx, nil, 0)
		require.NoError(t, err)
		require.Zero(t, affected)
	})
}

func TestDocumentService_ListByOwner(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewDocuments(st, DefaultOptions())

	alice := seedAccount(t, st, "alice", "a@x.com")
	bob := seedAccount(t, st, "bob", "b@x.com")

	for i := 1; i <= 3; i++ {
		_, err := svc.Create(ctx, fmt.Sprintf("Alice doc %d", i), "x", alice.ID)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "Bob doc", "x", bob.ID)
	require.NoError(t, err)

	items, page, err := svc.ListByOwner(ctx, alice.ID, query.RawQuery{})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	for _, d := range items {
		require.Equal(t, alice.ID, d.OwnerID)
	}

	_, _, err = svc.ListByOwner(ctx, 0, query.RawQuery{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDocumentService_Search(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewDocuments(st, DefaultOptions())

	owner := seedAccount(t, st, "owner", "owner@x.com")

	_, err := svc.Create(ctx, "Quarterly report", "numbers for the board", owner.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Meeting notes", "we discussed the REPORT at length", owner.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Shopping list", "milk and eggs", owner.ID)
	require.NoError(t, err)

	t.Run("matches any text field case-insensitively", func(t *testing.T) {
		_, page, err := svc.Search(ctx, "report", query.RawQuery{})
		require.NoError(t, err)
		require.Equal(t, 2, page.Total)
	})

	t.Run("LIKE metacharacters are literal", func(t *testing.T) {
		_, page, err := svc.Search(ctx, "100%", query.RawQuery{})
		require.NoError(t, err)
		require.Equal(t, 0, page.Total)
	})

	t.Run("a blank keyword is a validation error", func(t *testing.T) {
		_, _, err := svc.Search(ctx, "  ", query.RawQuery{})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("search composes with owner filtering", func(t *testing.T) {
		other := seedAccount(t, st, "other", "other@x.com")
		_, err := svc.Create(ctx, "Another report", "x", other.ID)
		require.NoError(t, err)

		_, page, err := svc.Search(ctx, "report", query.RawQuery{OwnerID: other.ID})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
	})
}
