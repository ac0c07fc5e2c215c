package perm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gatehouse.org/internal/audit"
	"gatehouse.org/internal/bus"
	"gatehouse.org/internal/obs"
	"gatehouse.org/internal/store"
)

// Service layers the grant/revoke/check protocol over the permission store.
//
// Authorization is self-hosting: the only way to grant or revoke a permission
// is to already hold the same permission on that resource/action pair. There
// is no admin bypass; bootstrap grants are seeded at resource creation time
// through direct store inserts, never through Grant.
type Service struct {
	db    *sql.DB
	store Store
	bus   *bus.Bus
}

// NewService constructs the authorization service.
func NewService(db *sql.DB, st Store, b *bus.Bus) (*Service, error) {
	if db == nil {
		return nil, errors.New("perm: database handle is required")
	}
	if b == nil {
		return nil, errors.New("perm: event bus is required")
	}
	if st == nil {
		st = NewPGStore()
	}
	return &Service{db: db, store: st, bus: b}, nil
}

// Has reports whether subject may perform action on the resource. Malformed
// fields fail with ErrInvalidInput before any storage access; the check
// itself is a pure read.
func (s *Service) Has(ctx context.Context, subject, action, resourceID, resourceKind string) (bool, error) {
	p, err := fromRaw(subject, action, resourceID, resourceKind)
	if err != nil {
		return false, err
	}
	ok, err := s.store.Exists(ctx, s.db, p)
	if err != nil {
		obs.PermissionCheck("error")
		return false, err
	}
	if ok {
		obs.PermissionCheck("allowed")
	} else {
		obs.PermissionCheck("denied")
	}
	return ok, nil
}

// Grant delegates a permission to the receiving subject. The requester must
// already hold the same permission; granting an already-held permission is a
// no-op, never a duplicate row or a failure.
func (s *Service) Grant(ctx context.Context, requester, receiver, action, resourceID, resourceKind string) (Permission, error) {
	ok, err := s.Has(ctx, requester, action, resourceID, resourceKind)
	if err != nil {
		return Permission{}, fmt.Errorf("%w: %w", ErrAccessCheck, err)
	}
	if !ok {
		return Permission{}, ErrUnauthorized
	}

	p, err := fromRaw(receiver, action, resourceID, resourceKind)
	if err != nil {
		return Permission{}, fmt.Errorf("%w: %w", ErrGrant, err)
	}
	created, err := s.create(ctx, p)
	if err != nil {
		return Permission{}, fmt.Errorf("%w: %w", ErrGrant, err)
	}
	if created {
		s.bus.Publish(Granted{Permission: p})
		_ = audit.LogEvent(ctx, "permission.grant", map[string]any{
			"requester":  requester,
			"permission": p.String(),
		})
	}
	return p, nil
}

// Revoke withdraws a permission from the receiving subject, under the same
// pre-check as Grant. Revoking an absent permission is a no-op.
func (s *Service) Revoke(ctx context.Context, requester, receiver, action, resourceID, resourceKind string) error {
	ok, err := s.Has(ctx, requester, action, resourceID, resourceKind)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAccessCheck, err)
	}
	if !ok {
		return ErrUnauthorized
	}

	p, err := fromRaw(receiver, action, resourceID, resourceKind)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRevoke, err)
	}
	deleted, err := s.delete(ctx, p)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRevoke, err)
	}
	if deleted {
		s.bus.Publish(Revoked{Permission: p})
		_ = audit.LogEvent(ctx, "permission.revoke", map[string]any{
			"requester":  requester,
			"permission": p.String(),
		})
	}
	return nil
}

// create inserts the permission in its own transaction. A uniqueness
// violation means the grant already exists and reports created=false.
func (s *Service) create(ctx context.Context, p Permission) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.store.Insert(ctx, tx, p); err != nil {
		if store.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) delete(ctx context.Context, p Permission) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := s.store.Delete(ctx, tx, p)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return deleted, nil
}

// fromRaw assembles a Permission from wire-form fields, mapping every parse
// failure to ErrInvalidInput with the offending field named.
func fromRaw(subject, action, resourceID, resourceKind string) (Permission, error) {
	resource, err := ParseResource(resourceID, resourceKind)
	if err != nil {
		return Permission{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	p, err := New(subject, action, resource)
	if err != nil {
		return Permission{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return p, nil
}
