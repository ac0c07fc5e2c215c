// Package user implements the user aggregate: account rows, the attached
// profile, and the registration/lookup/removal workflows built on them.
package user

import (
	"time"

	"gatehouse.org/internal/identity"
)

// User is the account aggregate root. AuthID references the subject at the
// external auth provider; the integration is stubbed for now, so a fresh
// identifier stands in for the upstream value.
type User struct {
	ID        identity.ID
	AuthID    identity.ID
	CreatedAt time.Time
}

// NewUser mints a user with fresh identifiers.
func NewUser() User {
	return User{
		ID:        identity.NewID(),
		AuthID:    identity.NewID(),
		CreatedAt: time.Now().UTC(),
	}
}

// Profile carries the user's contact data, keyed one-to-one by user id.
// Emails are unique across all profiles.
type Profile struct {
	UserID identity.ID
	Email  identity.Email
}
