package identity

import (
	"github.com/google/uuid"
)

// ID is a validated 128-bit identifier in its canonical textual form.
// It is immutable; comparison and ordering follow the textual value.
type ID string

// NewID mints a fresh random identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID validates raw input and normalizes it to the canonical form.
func ParseID(s string) (ID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", &FieldError{Field: "id", Message: "invalid uuid: " + err.Error()}
	}
	return ID(parsed.String()), nil
}

func (id ID) String() string { return string(id) }
