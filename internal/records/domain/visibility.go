package domain

// Visibility controls which lifecycle states a lookup or listing may return.
// Every read path takes it explicitly so the scope of an operation is an
// argument rather than an implicit flag buried in the query.
type Visibility int

const (
	// ActiveOnly excludes soft-deleted records. The default everywhere.
	ActiveOnly Visibility = iota

	// IncludeDeleted returns records regardless of lifecycle state. Restore
	// and purge search with this so they reach soft-deleted records.
	IncludeDeleted
)

func (v Visibility) String() string {
	if v == IncludeDeleted {
		return "include_deleted"
	}
	return "active_only"
}
