package library

import "github.com/google/uuid"

// IDFunc produces identifiers for new entities.
type IDFunc func() string

// NewID returns a random (version 4) UUID string.
func NewID() string { return uuid.NewString() }
