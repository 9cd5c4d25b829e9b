package library

import "errors"

var (
	// ErrStoreOffline is returned by seeding operations on a disconnected
	// gateway. Read paths report offline stores through Connected instead.
	ErrStoreOffline = errors.New("library store is offline")
	ErrInvalidSeed  = errors.New("invalid seed")
)
