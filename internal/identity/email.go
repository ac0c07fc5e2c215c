package identity

import (
	"regexp"
	"strings"
)

// Permissive address grammar; full RFC 5322 conformance is not a goal.
var emailExpr = regexp.MustCompile(`^[a-zA-Z0-9!#$%&'*+\-/=?^_` + "`" + `{|}~.]+@[a-zA-Z0-9]+\.[a-zA-Z0-9]+$`)

// Email is a validated address, normalized to lowercase on construction.
type Email string

// ParseEmail validates raw input against the address grammar.
func ParseEmail(s string) (Email, error) {
	if !emailExpr.MatchString(s) {
		return "", &FieldError{Field: "email", Message: "invalid email format"}
	}
	return Email(strings.ToLower(s)), nil
}

func (e Email) String() string { return string(e) }
