package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidConfig = errors.New("invalid pipeline config")
	ErrDuplicateID   = errors.New("duplicate pipeline id")
	ErrVendorFailure = errors.New("vendor failure")
)
