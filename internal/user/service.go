package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gatehouse.org/internal/audit"
	"gatehouse.org/internal/bus"
	"gatehouse.org/internal/identity"
	"gatehouse.org/internal/obs"
	"gatehouse.org/internal/perm"
	"gatehouse.org/internal/store"
)

// Service implements the user lifecycle. Registration seeds the bootstrap
// permissions that make self-hosting authorization possible: every new user
// can read and write itself, and all further delegation flows from there.
type Service struct {
	db    *sql.DB
	store Store
	perms perm.Store
	authz *perm.Service
	bus   *bus.Bus
}

// NewService constructs the user service.
func NewService(db *sql.DB, st Store, perms perm.Store, authz *perm.Service, b *bus.Bus) (*Service, error) {
	if db == nil {
		return nil, errors.New("user: database handle is required")
	}
	if authz == nil {
		return nil, errors.New("user: authorization service is required")
	}
	if b == nil {
		return nil, errors.New("user: event bus is required")
	}
	if st == nil {
		st = NewPGStore()
	}
	if perms == nil {
		perms = perm.NewPGStore()
	}
	return &Service{db: db, store: st, perms: perms, authz: authz, bus: b}, nil
}

// Create registers a user under the given email. The account row, its
// profile, and the two bootstrap self-permissions commit atomically; the
// creation event is broadcast only after the commit.
func (s *Service) Create(ctx context.Context, email string) (User, error) {
	addr, err := identity.ParseEmail(email)
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	u := NewUser()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.store.InsertUser(ctx, tx, u); err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	if err := s.store.InsertProfile(ctx, tx, Profile{UserID: u.ID, Email: addr}); err != nil {
		if store.IsUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	// Bootstrap grants bypass the delegation pre-check: there is nobody who
	// could hold a permission on a user that does not exist yet.
	resource := perm.UserResource(u.ID)
	for _, action := range []string{"read-user", "write-user"} {
		p, err := perm.New(u.ID.String(), action, resource)
		if err != nil {
			return User{}, fmt.Errorf("%w: %w", ErrCreate, err)
		}
		if err := s.perms.Insert(ctx, tx, p); err != nil {
			return User{}, fmt.Errorf("%w: %w", ErrCreate, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	s.bus.Publish(Created{User: u})
	_ = audit.LogEvent(ctx, "user.create", map[string]any{
		"user_id": u.ID.String(),
		"email":   addr.String(),
	})
	return u, nil
}

// SignUp registers a user, optionally tagged with the tenant the caller
// signed up under. Tenant routing is accepted and validated but not yet
// persisted on the account row.
func (s *Service) SignUp(ctx context.Context, email, tenantID string) (User, error) {
	if tenantID != "" {
		if _, err := identity.ParseID(tenantID); err != nil {
			return User{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		obs.Log("debug", "sign-up tenant noted", map[string]any{"tenant_id": tenantID})
	}
	return s.Create(ctx, email)
}

// SignIn resolves the profile registered under the email. Credential
// verification happens at the external auth provider, not here.
func (s *Service) SignIn(ctx context.Context, email string) (Profile, error) {
	addr, err := identity.ParseEmail(email)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.store.FindProfileByEmail(ctx, s.db, addr)
}

// Find loads a user by id.
func (s *Service) Find(ctx context.Context, id string) (User, error) {
	uid, err := identity.ParseID(id)
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.store.FindUser(ctx, s.db, uid)
}

// Delete removes a user. The actor must hold write-user on the target; the
// account row, its profile, and every permission naming the user go in one
// transaction, and the deletion event is broadcast only after the commit.
func (s *Service) Delete(ctx context.Context, actor, id string) error {
	uid, err := identity.ParseID(id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	ok, err := s.authz.Has(ctx, actor, "write-user", uid.String(), perm.KindUser.String())
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

	deleted, err := s.store.DeleteUser(ctx, tx, uid)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	if !deleted {
		return ErrNotFound
	}
	// The profile and the user's own grants follow by foreign key cascade;
	// delegations other subjects hold on this user need an explicit sweep.
	if _, err := s.perms.DeleteForResource(ctx, tx, perm.UserResource(uid)); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	s.bus.Publish(Deleted{UserID: uid})
	_ = audit.LogEvent(ctx, "user.delete", map[string]any{
		"user_id": uid.String(),
		"actor":   actor,
	})
	return nil
}

// CreateProfile attaches a profile to an existing user outside the
// registration flow, for accounts imported without contact data.
func (s *Service) CreateProfile(ctx context.Context, userID, email string) (Profile, error) {
	uid, err := identity.ParseID(userID)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	addr, err := identity.ParseEmail(email)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	p := Profile{UserID: uid, Email: addr}
	if err := s.store.InsertProfile(ctx, s.db, p); err != nil {
		if store.IsUniqueViolation(err) {
			return Profile{}, ErrEmailTaken
		}
		if store.IsForeignKeyViolation(err) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	s.bus.Publish(ProfileCreated{Profile: p})
	return p, nil
}

// DeleteProfile detaches the profile from an existing user. Deleting an
// absent profile reports ErrNotFound; the account row stays.
func (s *Service) DeleteProfile(ctx context.Context, userID string) error {
	uid, err := identity.ParseID(userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	deleted, err := s.store.DeleteProfile(ctx, s.db, uid)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	if !deleted {
		return ErrNotFound
	}
	s.bus.Publish(ProfileDeleted{UserID: uid})
	return nil
}

// FindProfile loads the profile attached to a user.
func (s *Service) FindProfile(ctx context.Context, userID string) (Profile, error) {
	uid, err := identity.ParseID(userID)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.store.FindProfile(ctx, s.db, uid)
}
