package perm

import "errors"

var (
	// ErrInvalidInput wraps any field-level validation failure. It is always
	// produced before storage is touched.
	ErrInvalidInput = errors.New("perm: invalid input")

	// ErrUnauthorized means the requesting subject does not hold the
	// permission it is trying to delegate.
	ErrUnauthorized = errors.New("perm: unauthorized")

	// ErrAccessCheck means the authorization pre-check itself failed, as
	// opposed to succeeding with a denial.
	ErrAccessCheck = errors.New("perm: access check failed")

	// ErrGrant means the pre-check passed but the permission write failed.
	ErrGrant = errors.New("perm: grant failed")

	// ErrRevoke means the pre-check passed but the permission delete failed.
	ErrRevoke = errors.New("perm: revoke failed")
)

// Parse errors for the wire forms.
var (
	ErrMissingDelimiter    = errors.New("perm: missing action verb or target")
	ErrUnknownVerb         = errors.New("perm: unknown action verb")
	ErrInvalidKind         = errors.New("perm: invalid resource kind")
	ErrMalformedPermission = errors.New("perm: malformed permission string; expected subject:action:resource_id:resource_kind")
)
