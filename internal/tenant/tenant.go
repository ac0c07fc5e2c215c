// Package tenant implements the tenant aggregate: organization rows and the
// create/lookup/remove workflows built on them. Tenants are authorization
// resources of their own kind, so the creating subject is seeded with the
// bootstrap self-permissions and delegates access from there.
package tenant

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"gatehouse.org/internal/identity"
	"gatehouse.org/internal/store"
)

var (
	// ErrInvalidInput wraps field-level validation failures. It is always
	// produced before a transaction is opened.
	ErrInvalidInput = errors.New("tenant: invalid input")

	// ErrNotFound means no tenant matched the lookup.
	ErrNotFound = errors.New("tenant: not found")

	// ErrPermissionDenied means the acting subject does not hold the
	// permission the operation requires on the target tenant.
	ErrPermissionDenied = errors.New("tenant: permission denied")

	// ErrAccessCheck means the authorization pre-check itself failed, as
	// opposed to succeeding with a denial.
	ErrAccessCheck = errors.New("tenant: access check failed")

	ErrCreate = errors.New("tenant: create failed")
	ErrDelete = errors.New("tenant: delete failed")
)

// Tenant is an organization grouping users for access delegation.
type Tenant struct {
	ID        identity.ID
	Name      string
	CreatedAt time.Time
}

// New mints a tenant with a fresh identifier, rejecting blank names.
func New(name string) (Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tenant{}, &identity.FieldError{Field: "name", Message: "name cannot be empty"}
	}
	return Tenant{ID: identity.NewID(), Name: name, CreatedAt: time.Now().UTC()}, nil
}

// Store persists tenants. Operations are parameterized over an Executor so
// callers choose between the pool and an open transaction.
type Store interface {
	Insert(ctx context.Context, ex store.Executor, t Tenant) error
	Find(ctx context.Context, ex store.Executor, id identity.ID) (Tenant, error)
	Delete(ctx context.Context, ex store.Executor, id identity.ID) (bool, error)
}

var _ Store = (*PGStore)(nil)

// PGStore implements Store against PostgreSQL.
type PGStore struct{}

func NewPGStore() *PGStore { return &PGStore{} }

func (*PGStore) Insert(ctx context.Context, ex store.Executor, t Tenant) error {
	_, err := ex.ExecContext(ctx,
		`insert into tenants(id, name, created_at) values($1,$2,$3)`,
		t.ID.String(), t.Name, t.CreatedAt,
	)
	return err
}

func (*PGStore) Find(ctx context.Context, ex store.Executor, id identity.ID) (Tenant, error) {
	var t Tenant
	err := ex.QueryRowContext(ctx,
		`select id, name, created_at from tenants where id=$1`,
		id.String(),
	).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Tenant{}, ErrNotFound
	}
	if err != nil {
		return Tenant{}, err
	}
	return t, nil
}

func (*PGStore) Delete(ctx context.Context, ex store.Executor, id identity.ID) (bool, error) {
	res, err := ex.ExecContext(ctx, `delete from tenants where id=$1`, id.String())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
