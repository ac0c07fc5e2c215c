package user

import "errors"

var (
	// ErrInvalidInput wraps field-level validation failures. It is always
	// produced before a transaction is opened.
	ErrInvalidInput = errors.New("user: invalid input")

	// ErrNotFound means no user or profile matched the lookup.
	ErrNotFound = errors.New("user: not found")

	// ErrEmailTaken means the email is already bound to a profile.
	ErrEmailTaken = errors.New("user: email already registered")

	// ErrPermissionDenied means the acting subject does not hold the
	// permission the operation requires on the target user.
	ErrPermissionDenied = errors.New("user: permission denied")

	// ErrAccessCheck means the authorization pre-check itself failed, as
	// opposed to succeeding with a denial.
	ErrAccessCheck = errors.New("user: access check failed")

	// ErrCreate and ErrDelete mean the pre-checks passed but the write
	// transaction did not complete.
	ErrCreate = errors.New("user: create failed")
	ErrDelete = errors.New("user: delete failed")
)
