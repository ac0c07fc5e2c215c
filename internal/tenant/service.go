package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gatehouse.org/internal/audit"
	"gatehouse.org/internal/bus"
	"gatehouse.org/internal/identity"
	"gatehouse.org/internal/perm"
)

// Service implements the tenant lifecycle.
type Service struct {
	db    *sql.DB
	store Store
	perms perm.Store
	authz *perm.Service
	bus   *bus.Bus
}

// NewService constructs the tenant service.
func NewService(db *sql.DB, st Store, perms perm.Store, authz *perm.Service, b *bus.Bus) (*Service, error) {
	if db == nil {
		return nil, errors.New("tenant: database handle is required")
	}
	if authz == nil {
		return nil, errors.New("tenant: authorization service is required")
	}
	if b == nil {
		return nil, errors.New("tenant: event bus is required")
	}
	if st == nil {
		st = NewPGStore()
	}
	if perms == nil {
		perms = perm.NewPGStore()
	}
	return &Service{db: db, store: st, perms: perms, authz: authz, bus: b}, nil
}

// Create registers a tenant. The row and the creator's bootstrap grants
// commit atomically; the creation event is broadcast only after the commit.
func (s *Service) Create(ctx context.Context, actor, name string) (Tenant, error) {
	creator, err := identity.ParseID(actor)
	if err != nil {
		return Tenant{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	tn, err := New(name)
	if err != nil {
		return Tenant{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Tenant{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.store.Insert(ctx, tx, tn); err != nil {
		return Tenant{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	resource := perm.TenantResource(tn.ID)
	for _, action := range []string{"read-tenant", "write-tenant"} {
		p, err := perm.New(creator.String(), action, resource)
		if err != nil {
			return Tenant{}, fmt.Errorf("%w: %w", ErrCreate, err)
		}
		if err := s.perms.Insert(ctx, tx, p); err != nil {
			return Tenant{}, fmt.Errorf("%w: %w", ErrCreate, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Tenant{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	s.bus.Publish(Created{Tenant: tn})
	_ = audit.LogEvent(ctx, "tenant.create", map[string]any{
		"tenant_id": tn.ID.String(),
		"actor":     creator.String(),
	})
	return tn, nil
}

// Find loads a tenant by id.
func (s *Service) Find(ctx context.Context, id string) (Tenant, error) {
	tid, err := identity.ParseID(id)
	if err != nil {
		return Tenant{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.store.Find(ctx, s.db, tid)
}

// Delete removes a tenant. The actor must hold write-tenant on the target;
// the row and every permission naming the tenant go in one transaction.
func (s *Service) Delete(ctx context.Context, actor, id string) error {
	tid, err := identity.ParseID(id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	ok, err := s.authz.Has(ctx, actor, "write-tenant", tid.String(), perm.KindTenant.String())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAccessCheck, err)
	}
	if !ok {
		return ErrPermissionDenied
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := s.store.Delete(ctx, tx, tid)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	if !deleted {
		return ErrNotFound
	}
	if _, err := s.perms.DeleteForResource(ctx, tx, perm.TenantResource(tid)); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	s.bus.Publish(Deleted{TenantID: tid})
	_ = audit.LogEvent(ctx, "tenant.delete", map[string]any{
		"tenant_id": tid.String(),
		"actor":     actor,
	})
	return nil
}
