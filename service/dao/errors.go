package dao

import "errors"

var (
	// ErrNotFound is returned when no execution is stored under the id
	ErrNotFound = errors.New("dao: not found")
	// ErrInvalidID is returned for an empty execution id
	ErrInvalidID = errors.New("dao: invalid id")
	// ErrNilEntity is returned when saving a nil execution
	ErrNilEntity = errors.New("dao: nil entity")
)
