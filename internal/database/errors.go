package database

import "errors"

var (
	// ErrShortCodeExists is returned when an attempt is made to create
	// a record with a short code that is already taken.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when an attempt is made to retrieve
	// or update a record using a short code that doesn't exist.
	ErrURLNotFound = errors.New("url not found")
)
