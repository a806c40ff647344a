package util

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewULID generates a new, monotonically increasing ULID string.
// Safe for concurrent use.
func NewULID() string {
	return ulid.Make().String()
}

// IsULID reports whether s parses as a ULID.
func IsULID(s string) bool {
	_, err := ulid.ParseStrict(strings.ToUpper(s))
	return err == nil
}
