package service

import "errors"

var (
	// ErrWrongKind is returned when a cached object exists but is not of
	// the kind the operation expects.
	ErrWrongKind = errors.New("cached object has unexpected kind")

	// ErrEmptyTitle is returned when a record is saved without a title.
	ErrEmptyTitle = errors.New("record title must not be empty")
)
