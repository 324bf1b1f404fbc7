// Package query turns untyped filter/sort/page parameters from the request
// layer into validated, bounded query specifications the store drivers can
// execute, and computes pagination metadata for listings.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/folioworks/folio/internal/records/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ErrBadField reports a filter on a field the kind does not expose.
var ErrBadField = errors.New("query: field not filterable")

// RawQuery carries the untyped listing inputs as they arrive from the request
// layer. Zero values mean "not requested".
type RawQuery struct {
	Contains       map[string]string // text field -> case-insensitive substring
	Search         string            // substring matched against any text field
	OwnerID        int64             // exact owner match when > 0
	Role           string            // exact role match when non-empty
	IncludeDeleted bool
	SortBy         string
	SortDir        string // "asc" or "desc"; anything else falls back to desc
	Page           string
	Limit          string
}

// Spec is a validated query ready for a store driver to execute.
type Spec struct {
	Kind   Kind
	Filter Filter
	Sort   Sort
	Page   Page
}

// Filter is a conjunction of optional predicates. Contains keys are column
// names already validated against the kind; Search is matched disjunctively
// against every text column of the kind.
type Filter struct {
	Visibility domain.Visibility
	Contains   map[string]string
	Search     string
	OwnerID    int64
	Role       string
}

// Sort holds a validated sort column and direction. Field always comes from a
// kind's allow-list, so drivers may splice it into SQL directly.
type Sort struct {
	Field string
	Desc  bool
}

// Page is a validated page request.
type Page struct {
	Page  int
	Limit int
}

// Offset is the row offset for the page.
func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// Compose validates raw listing inputs against the kind and returns an
// executable Spec.
//
// Unknown contains-fields are rejected; an unknown sort field silently falls
// back to the kind's default ordering so a stale client cannot break
// listings. Page and limit coerce to their defaults when absent or
// non-positive, and limit is capped.
func Compose(kind Kind, raw RawQuery) (Spec, error) {
	filter := Filter{
		Visibility: domain.ActiveOnly,
		Search:     strings.TrimSpace(raw.Search),
		OwnerID:    raw.OwnerID,
		Role:       raw.Role,
	}
	if raw.IncludeDeleted {
		filter.Visibility = domain.IncludeDeleted
	}

	if len(raw.Contains) > 0 {
		filter.Contains = make(map[string]string, len(raw.Contains))
		for field, needle := range raw.Contains {
			if !kind.textField(field) {
				return Spec{}, fmt.Errorf("%w: %q on %s", ErrBadField, field, kind.Name)
			}
			needle = strings.TrimSpace(needle)
			if needle == "" {
				continue
			}
			filter.Contains[field] = needle
		}
	}

	return Spec{
		Kind:   kind,
		Filter: filter,
		Sort:   composeSort(kind, raw.SortBy, raw.SortDir),
		Page:   composePage(raw.Page, raw.Limit),
	}, nil
}

func composeSort(kind Kind, field, dir string) Sort {
	col, ok := kind.SortFields[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		return kind.DefaultSort
	}
	return Sort{
		Field: col,
		Desc:  !strings.EqualFold(strings.TrimSpace(dir), "asc"),
	}
}

func composePage(rawPage, rawLimit string) Page {
	p := Page{
		Page:  parsePositive(rawPage, DefaultPage),
		Limit: parsePositive(rawLimit, DefaultLimit),
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// parsePositive coerces a raw numeric string to a positive integer, falling
// back to def on anything absent, malformed, or non-positive.
func parsePositive(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
