package core

import "github.com/google/uuid"

// NewID returns a unique identifier for units and entries.
func NewID() string {
	return uuid.NewString()
}
