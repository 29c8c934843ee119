package uuid

import (
	"github.com/google/uuid"
)

// UUID represents a UUID
type UUID = uuid.UUID

// Nil is the zero UUID
var Nil = uuid.Nil

// New returns a new time-ordered (version 7) UUID. Track ids created in
// sequence sort in creation order.
func New() UUID {
	uuidv7, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return uuidv7
}

// Parse parses a UUID string
func Parse(s string) (UUID, error) {
	return uuid.Parse(s)
}

// MustParse parses a UUID string and panics if the string is not a valid UUID
func MustParse(s string) UUID {
	return uuid.MustParse(s)
}

// IsCanonical reports whether s is a UUID in its canonical 36 character
// hyphenated form. Genome directories and API path parameters use this form.
func IsCanonical(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
