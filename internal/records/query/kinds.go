package query

// Kind describes one entity kind to the composer and the store drivers: the
// backing table, which text columns substring filters and keyword search may
// touch, which fields are exposed for sorting, and which carry uniqueness
// constraints. Keeping this in data lets a single composer and a single
// generic store serve every kind.
type Kind struct {
	Name         string
	Table        string
	TextFields   []string          // columns available to Contains and Search
	SortFields   map[string]string // exposed sort name -> column
	UniqueFields []string          // columns guarded for uniqueness
	DefaultSort  Sort
}

// AccountKind is the descriptor for account records.
var AccountKind = Kind{
	Name:       "account",
	Table:      "accounts",
	TextFields: []string{"handle", "email"},
	SortFields: map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"handle":     "handle",
		"email":      "email",
	},
	UniqueFields: []string{"handle", "email"},
	DefaultSort:  Sort{Field: "created_at", Desc: true},
}

// DocumentKind is the descriptor for document records.
var DocumentKind = Kind{
	Name:       "document",
	Table:      "documents",
	TextFields: []string{"title", "body"},
	SortFields: map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"title":      "title",
	},
	UniqueFields: []string{"title"},
	DefaultSort:  Sort{Field: "created_at", Desc: true},
}

// textField reports whether name is one of the kind's text columns.
func (k Kind) textField(name string) bool {
	for _, f := range k.TextFields {
		if f == name {
			return true
		}
	}
	return false
}

// UniqueField reports whether name is one of the kind's unique columns.
func (k Kind) UniqueField(name string) bool {
	for _, f := range k.UniqueFields {
		if f == name {
			return true
		}
	}
	return false
}
