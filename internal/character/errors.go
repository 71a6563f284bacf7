package character

import "errors"

var (
	// ErrPersistenceUnavailable wraps any failure of the remote document store.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	// ErrInvalidDocument indicates a stored document that cannot be mapped to a character.
	ErrInvalidDocument = errors.New("invalid character document")
)
