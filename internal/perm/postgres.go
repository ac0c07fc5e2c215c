package perm

import (
	"context"
	"database/sql"
	"errors"

	"gatehouse.org/internal/store"
)

// Store persists permission facts. Operations are parameterized over an
// Executor so callers choose between the pool and an open transaction.
type Store interface {
	Insert(ctx context.Context, ex store.Executor, p Permission) error
	Delete(ctx context.Context, ex store.Executor, p Permission) (bool, error)
	Exists(ctx context.Context, ex store.Executor, p Permission) (bool, error)
	DeleteForResource(ctx context.Context, ex store.Executor, r Resource) (int64, error)
}

var _ Store = (*PGStore)(nil)

// PGStore implements Store against PostgreSQL. It is stateless; all state
// lives in the Executor passed per call.
type PGStore struct{}

func NewPGStore() *PGStore { return &PGStore{} }

func (*PGStore) Insert(ctx context.Context, ex store.Executor, p Permission) error {
	_, err := ex.ExecContext(ctx,
		`insert into permissions(subject, action, resource_id, resource_kind)
		 values($1,$2,$3,$4)`,
		p.Subject.String(), p.Action.String(), p.Resource.ID(), p.Resource.Kind().String(),
	)
	return err
}

func (*PGStore) Delete(ctx context.Context, ex store.Executor, p Permission) (bool, error) {
	res, err := ex.ExecContext(ctx,
		`delete from permissions
		 where subject=$1 and action=$2 and resource_id=$3 and resource_kind=$4`,
		p.Subject.String(), p.Action.String(), p.Resource.ID(), p.Resource.Kind().String(),
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteForResource removes every permission naming the resource. Rows where
// the resource's owner is the subject are covered by the subject cascade;
// this catches delegations held by everyone else.
func (*PGStore) DeleteForResource(ctx context.Context, ex store.Executor, r Resource) (int64, error) {
	res, err := ex.ExecContext(ctx,
		`delete from permissions where resource_id=$1 and resource_kind=$2`,
		r.ID(), r.Kind().String(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (*PGStore) Exists(ctx context.Context, ex store.Executor, p Permission) (bool, error) {
	var one int
	err := ex.QueryRowContext(ctx,
		`select 1 from permissions
		 where subject=$1 and action=$2 and resource_id=$3 and resource_kind=$4`,
		p.Subject.String(), p.Action.String(), p.Resource.ID(), p.Resource.Kind().String(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
