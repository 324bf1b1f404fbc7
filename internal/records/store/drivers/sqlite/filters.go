package sqlite

import (
	"strings"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/query"
)

// whereClause renders a composed filter into a WHERE fragment and its bind
// arguments. Column names come from the kind descriptor's allow-lists, never
// from raw input, so splicing them into the SQL is safe. Text fields are
// iterated in kind order to keep the generated SQL stable.
func whereClause(kind query.Kind, f query.Filter) (string, []any) {
	var conds []string
	var args []any

	if f.Visibility == domain.ActiveOnly {
		conds = append(conds, "deleted_at IS NULL")
	}

	for _, col := range kind.TextFields {
		needle, ok := f.Contains[col]
		if !ok || needle == "" {
			continue
		}
		conds = append(conds, "lower("+col+") LIKE ? ESCAPE '\\'")
		args = append(args, likePattern(needle))
	}

	if f.Search != "" {
		ors := make([]string, 0, len(kind.TextFields))
		for _, col := range kind.TextFields {
			ors = append(ors, "lower("+col+") LIKE ? ESCAPE '\\'")
			args = append(args, likePattern(f.Search))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	if f.OwnerID > 0 {
		conds = append(conds, "owner_id = ?")
		args = append(args, f.OwnerID)
	}

	if f.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, f.Role)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive contains pattern with LIKE
// metacharacters escaped.
func likePattern(needle string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(needle)) + "%"
}

// orderClause renders a validated sort into an ORDER BY fragment. The record
// id breaks ties in the same direction so pages are stable.
func orderClause(s query.Sort) string {
	dir := " ASC"
	if s.Desc {
		dir = " DESC"
	}
	return " ORDER BY " + s.Field + dir + ", id" + dir
}

// placeholders renders n comma-separated ? markers for an IN clause.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
