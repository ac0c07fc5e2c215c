package user

import (
	"context"
	"database/sql"
	"errors"

	"gatehouse.org/internal/identity"
	"gatehouse.org/internal/store"
)

// Store persists users and profiles. Operations are parameterized over an
// Executor so callers choose between the pool and an open transaction.
type Store interface {
	InsertUser(ctx context.Context, ex store.Executor, u User) error
	FindUser(ctx context.Context, ex store.Executor, id identity.ID) (User, error)
	DeleteUser(ctx context.Context, ex store.Executor, id identity.ID) (bool, error)
	InsertProfile(ctx context.Context, ex store.Executor, p Profile) error
	DeleteProfile(ctx context.Context, ex store.Executor, userID identity.ID) (bool, error)
	FindProfile(ctx context.Context, ex store.Executor, userID identity.ID) (Profile, error)
	FindProfileByEmail(ctx context.Context, ex store.Executor, email identity.Email) (Profile, error)
}

var _ Store = (*PGStore)(nil)

// PGStore implements Store against PostgreSQL. It is stateless; all state
// lives in the Executor passed per call.
type PGStore struct{}

func NewPGStore() *PGStore { return &PGStore{} }

func (*PGStore) InsertUser(ctx context.Context, ex store.Executor, u User) error {
	_, err := ex.ExecContext(ctx,
		`insert into users(id, auth_id, created_at) values($1,$2,$3)`,
		u.ID.String(), u.AuthID.String(), u.CreatedAt,
	)
	return err
}

func (*PGStore) FindUser(ctx context.Context, ex store.Executor, id identity.ID) (User, error) {
	var u User
	err := ex.QueryRowContext(ctx,
		`select id, auth_id, created_at from users where id=$1`,
		id.String(),
	).Scan(&u.ID, &u.AuthID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (*PGStore) DeleteUser(ctx context.Context, ex store.Executor, id identity.ID) (bool, error) {
	res, err := ex.ExecContext(ctx, `delete from users where id=$1`, id.String())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (*PGStore) InsertProfile(ctx context.Context, ex store.Executor, p Profile) error {
	_, err := ex.ExecContext(ctx,
		`insert into profiles(user_id, email) values($1,$2)`,
		p.UserID.String(), p.Email.String(),
	)
	return err
}

func (*PGStore) DeleteProfile(ctx context.Context, ex store.Executor, userID identity.ID) (bool, error) {
	res, err := ex.ExecContext(ctx, `delete from profiles where user_id=$1`, userID.String())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (*PGStore) FindProfile(ctx context.Context, ex store.Executor, userID identity.ID) (Profile, error) {
	var p Profile
	err := ex.QueryRowContext(ctx,
		`select user_id, email from profiles where user_id=$1`,
		userID.String(),
	).Scan(&p.UserID, &p.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (*PGStore) FindProfileByEmail(ctx context.Context, ex store.Executor, email identity.Email) (Profile, error) {
	var p Profile
	err := ex.QueryRowContext(ctx,
		`select user_id, email from profiles where email=$1`,
		email.String(),
	).Scan(&p.UserID, &p.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}
