package domain

import "time"

type Account struct {
	ID             int64
	Handle         string
	Email          string // unique case-insensitively
	CredentialHash string // argon2 encoded, stripped before leaving the service layer
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time // nil means active
}

// Deleted reports whether the account is soft-deleted.
func (a Account) Deleted() bool { return a.DeletedAt != nil }

// AccountPatch is a partial update. Nil fields are left untouched.
type AccountPatch struct {
	Handle *string
	Email  *string
}
