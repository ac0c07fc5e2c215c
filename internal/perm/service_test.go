package perm

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"gatehouse.org/internal/bus"
)

const (
	requesterID = "11111111-2222-3333-4444-555555555555"
	receiverID  = "99999999-8888-7777-6666-555555555555"
	targetID    = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *bus.Bus) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	b := bus.New(4)
	svc, err := NewService(db, NewPGStore(), b)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, mock, b
}

func expectExistsCheck(mock sqlmock.Sqlmock, subject, action, rid, rkind string, held bool) {
	q := mock.ExpectQuery("select 1 from permissions").
		WithArgs(subject, action, rid, rkind)
	if held {
		q.WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	} else {
		q.WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	}
}

func TestHasPermission(t *testing.T) {
	svc, mock, _ := newTestService(t)

	expectExistsCheck(mock, requesterID, "write-user", targetID, "user", true)
	ok, err := svc.Has(context.Background(), requesterID, "write-user", targetID, "user")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !ok {
		t.Fatal("expected permission to be held")
	}

	expectExistsCheck(mock, requesterID, "write-user", "other-id", "user", false)
	ok, err = svc.Has(context.Background(), requesterID, "write-user", "other-id", "user")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if ok {
		t.Fatal("expected permission to be absent")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHasRejectsMalformedInput(t *testing.T) {
	svc, mock, _ := newTestService(t)

	// No storage access permitted: every case fails validation first.
	cases := [][4]string{
		{"not-a-uuid", "write-user", targetID, "user"},
		{requesterID, "writeuser", targetID, "user"},
		{requesterID, "delete-user", targetID, "user"},
		{requesterID, "write-user", targetID, "role"},
	}
	for _, c := range cases {
		if _, err := svc.Has(context.Background(), c[0], c[1], c[2], c[3]); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Has(%v) = %v, want ErrInvalidInput", c, err)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected storage access: %v", err)
	}
}

func TestGrantRequiresPriorPermission(t *testing.T) {
	svc, mock, b := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := b.Subscribe(ctx)

	expectExistsCheck(mock, requesterID, "read-user", targetID, "user", false)
	_, err := svc.Grant(context.Background(), requesterID, receiverID, "read-user", targetID, "user")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Grant = %v, want ErrUnauthorized", err)
	}

	select {
	case env := <-events:
		t.Fatalf("unexpected event %s", env.Event.Kind())
	default:
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGrantInsertsAndPublishes(t *testing.T) {
	svc, mock, b := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := b.Subscribe(ctx)

	expectExistsCheck(mock, requesterID, "read-user", targetID, "user", true)
	mock.ExpectBegin()
	mock.ExpectExec("insert into permissions").
		WithArgs(receiverID, "read-user", targetID, "user").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := svc.Grant(context.Background(), requesterID, receiverID, "read-user", targetID, "user")
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if p.Subject.String() != receiverID {
		t.Fatalf("permission minted for wrong subject: %s", p.Subject)
	}

	select {
	case env := <-events:
		granted, ok := env.Event.(Granted)
		if !ok {
			t.Fatalf("unexpected event %T", env.Event)
		}
		if granted.Permission != p {
			t.Fatalf("event carries %v, want %v", granted.Permission, p)
		}
	default:
		t.Fatal("expected a Granted event after commit")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGrantIsIdempotentOnConflict(t *testing.T) {
	svc, mock, b := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := b.Subscribe(ctx)

	expectExistsCheck(mock, requesterID, "read-user", targetID, "user", true)
	mock.ExpectBegin()
	mock.ExpectExec("insert into permissions").
		WithArgs(receiverID, "read-user", targetID, "user").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	if _, err := svc.Grant(context.Background(), requesterID, receiverID, "read-user", targetID, "user"); err != nil {
		t.Fatalf("second grant must be a no-op, got %v", err)
	}

	select {
	case env := <-events:
		t.Fatalf("no-op grant must not publish, got %s", env.Event.Kind())
	default:
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGrantSurfacesStorageFailure(t *testing.T) {
	svc, mock, _ := newTestService(t)

	expectExistsCheck(mock, requesterID, "read-user", targetID, "user", true)
	mock.ExpectBegin()
	mock.ExpectExec("insert into permissions").
		WithArgs(receiverID, "read-user", targetID, "user").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.Grant(context.Background(), requesterID, receiverID, "read-user", targetID, "user")
	if !errors.Is(err, ErrGrant) {
		t.Fatalf("Grant = %v, want ErrGrant", err)
	}
	if errors.Is(err, ErrAccessCheck) {
		t.Fatal("storage failure must not masquerade as a failed access check")
	}
}

func TestGrantDistinguishesAccessCheckFailure(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery("select 1 from permissions").
		WithArgs(requesterID, "read-user", targetID, "user").
		WillReturnError(errors.New("connection reset"))

	_, err := svc.Grant(context.Background(), requesterID, receiverID, "read-user", targetID, "user")
	if !errors.Is(err, ErrAccessCheck) {
		t.Fatalf("Grant = %v, want ErrAccessCheck", err)
	}
}

func TestRevokeAbsentPermissionIsNoop(t *testing.T) {
	svc, mock, b := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := b.Subscribe(ctx)

	expectExistsCheck(mock, requesterID, "read-user", targetID, "user", true)
	mock.ExpectBegin()
	mock.ExpectExec("delete from permissions").
		WithArgs(receiverID, "read-user", targetID, "user").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := svc.Revoke(context.Background(), requesterID, receiverID, "read-user", targetID, "user"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	select {
	case env := <-events:
		t.Fatalf("no-op revoke must not publish, got %s", env.Event.Kind())
	default:
	}
}

func TestRevokePublishesAfterDelete(t *testing.T) {
	svc, mock, b := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := b.Subscribe(ctx)

	expectExistsCheck(mock, requesterID, "read-user", targetID, "user", true)
	mock.ExpectBegin()
	mock.ExpectExec("delete from permissions").
		WithArgs(receiverID, "read-user", targetID, "user").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := svc.Revoke(context.Background(), requesterID, receiverID, "read-user", targetID, "user"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	select {
	case env := <-events:
		if _, ok := env.Event.(Revoked); !ok {
			t.Fatalf("unexpected event %T", env.Event)
		}
	default:
		t.Fatal("expected a Revoked event after commit")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRevokeRequiresPriorPermission(t *testing.T) {
	svc, mock, _ := newTestService(t)

	expectExistsCheck(mock, requesterID, "read-user", targetID, "user", false)
	err := svc.Revoke(context.Background(), requesterID, receiverID, "read-user", targetID, "user")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Revoke = %v, want ErrUnauthorized", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
