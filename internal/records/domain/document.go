package domain

import "time"

// Document is an authored record owned by an account. OwnerID is set at
// creation and never changes. Deleting the owning account neither cascades to
// its documents nor is blocked by them, so a document can outlive its owner.
type Document struct {
	ID        int64
	Title     string // unique across all documents, any lifecycle state
	Body      string
	OwnerID   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time // nil means active
}

// Deleted reports whether the document is soft-deleted.
func (d Document) Deleted() bool { return d.DeletedAt != nil }

// DocumentPatch is a partial update. Nil fields are left untouched.
type DocumentPatch struct {
	Title *string
	Body  *string
}
