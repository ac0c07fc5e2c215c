package identity

import "fmt"

// FieldError names the input field that failed validation. It is always
// produced before any storage access.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("failed to validate %s: %s", e.Field, e.Message)
}
