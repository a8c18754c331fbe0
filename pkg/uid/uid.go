// Package uid mints identifiers for store documents and request tracing.
package uid

import "github.com/google/uuid"

// New returns a fresh random identifier.
func New() string {
	return uuid.New().String()
}

// IsValid reports whether id parses as an identifier New could have minted.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
