package query

import (
	"testing"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/stretchr/testify/require"
)

func TestComposeDefaults(t *testing.T) {
	t.Parallel()

	spec, err := Compose(AccountKind, RawQuery{})
	require.NoError(t, err)

	require.Equal(t, domain.ActiveOnly, spec.Filter.Visibility)
	require.Empty(t, spec.Filter.Contains)
	require.Equal(t, Sort{Field: "created_at", Desc: true}, spec.Sort)
	require.Equal(t, DefaultPage, spec.Page.Page)
	require.Equal(t, DefaultLimit, spec.Page.Limit)
	require.Equal(t, 0, spec.Page.Offset())
}

func TestComposeFilter(t *testing.T) {
	t.Parallel()

	t.Run("accepts known text fields", func(t *testing.T) {
		spec, err := Compose(AccountKind, RawQuery{
			Contains: map[string]string{"handle": "ali", "email": "@x.com"},
		})
		require.NoError(t, err)
		require.Equal(t, "ali", spec.Filter.Contains["handle"])
		require.Equal(t, "@x.com", spec.Filter.Contains["email"])
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := Compose(AccountKind, RawQuery{
			Contains: map[string]string{"credential_hash": "x"},
		})
		require.ErrorIs(t, err, ErrBadField)
	})

	t.Run("drops empty needles", func(t *testing.T) {
		spec, err := Compose(DocumentKind, RawQuery{
			Contains: map[string]string{"title": "   "},
		})
		require.NoError(t, err)
		require.Empty(t, spec.Filter.Contains)
	})

	t.Run("include deleted flips visibility", func(t *testing.T) {
		spec, err := Compose(DocumentKind, RawQuery{IncludeDeleted: true})
		require.NoError(t, err)
		require.Equal(t, domain.IncludeDeleted, spec.Filter.Visibility)
	})

	t.Run("carries search owner and role through", func(t *testing.T) {
		spec, err := Compose(DocumentKind, RawQuery{Search: " notes ", OwnerID: 7})
		require.NoError(t, err)
		require.Equal(t, "notes", spec.Filter.Search)
		require.EqualValues(t, 7, spec.Filter.OwnerID)
	})
}

func TestComposeSort(t *testing.T) {
	t.Parallel()

	t.Run("allow-listed field ascending", func(t *testing.T) {
		spec, err := Compose(AccountKind, RawQuery{SortBy: "handle", SortDir: "asc"})
		require.NoError(t, err)
		require.Equal(t, Sort{Field: "handle", Desc: false}, spec.Sort)
	})

	t.Run("direction defaults to descending", func(t *testing.T) {
		spec, err := Compose(AccountKind, RawQuery{SortBy: "email", SortDir: "sideways"})
		require.NoError(t, err)
		require.Equal(t, Sort{Field: "email", Desc: true}, spec.Sort)
	})

	t.Run("unknown field falls back to default", func(t *testing.T) {
		spec, err := Compose(DocumentKind, RawQuery{SortBy: "body", SortDir: "asc"})
		require.NoError(t, err)
		require.Equal(t, DocumentKind.DefaultSort, spec.Sort)
	})

	t.Run("sort name is case-insensitive", func(t *testing.T) {
		spec, err := Compose(DocumentKind, RawQuery{SortBy: " Title "})
		require.NoError(t, err)
		require.Equal(t, "title", spec.Sort.Field)
	})
}

func TestComposePage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
	}{
		{"empty falls back to defaults", "", "", 1, 10},
		{"explicit values", "3", "25", 3, 25},
		{"zero coerces to defaults", "0", "0", 1, 10},
		{"negative coerces to defaults", "-2", "-5", 1, 10},
		{"garbage coerces to defaults", "two", "ten", 1, 10},
		{"limit is capped", "1", "5000", 1, MaxLimit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := Compose(AccountKind, RawQuery{Page: tc.page, Limit: tc.limit})
			require.NoError(t, err)
			require.Equal(t, tc.wantPage, spec.Page.Page)
			require.Equal(t, tc.wantLimit, spec.Page.Limit)
		})
	}
}

func TestPageOffset(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, Page{Page: 1, Limit: 10}.Offset())
	require.Equal(t, 20, Page{Page: 3, Limit: 10}.Offset())
	require.Equal(t, 50, Page{Page: 11, Limit: 5}.Offset())
}
