package service

import "errors"

// Typed business outcomes. The request layer maps these onto transport status
// codes; anything outside this set (and the store sentinels) is treated as an
// unexpected storage failure.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateValue     = errors.New("duplicate value")
	ErrParentNotFound     = errors.New("owner account not found")
	ErrForbidden          = errors.New("not the record owner")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
