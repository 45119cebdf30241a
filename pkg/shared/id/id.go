package id

import "github.com/google/uuid"

// New returns a fresh random identifier for packages and WS connections.
func New() string { return uuid.NewString() }
