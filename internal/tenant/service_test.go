package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"gatehouse.org/internal/bus"
	"gatehouse.org/internal/perm"
)

const (
	actorID  = "11111111-2222-3333-4444-555555555555"
	tenantID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *bus.Bus) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	b := bus.New(4)
	authz, err := perm.NewService(db, nil, b)
	if err != nil {
		t.Fatalf("perm.NewService: %v", err)
	}
	svc, err := NewService(db, nil, nil, authz, b)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, mock, b
}

func TestCreateSeedsCreatorGrants(t *testing.T) {
	svc, mock, b := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := b.Subscribe(ctx)

	mock.ExpectBegin()
	mock.ExpectExec("insert into tenants").
		WithArgs(sqlmock.AnyArg(), "Acme", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into permissions").
		WithArgs(actorID, "read-tenant", sqlmock.AnyArg(), "tenant").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into permissions").
		WithArgs(actorID, "write-tenant", sqlmock.AnyArg(), "tenant").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tn, err := svc.Create(context.Background(), actorID, "Acme")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tn.Name != "Acme" || tn.ID == "" {
		t.Fatalf("unexpected tenant %+v", tn)
	}

	select {
	case env := <-events:
		if _, ok := env.Event.(Created); !ok {
			t.Fatalf("expected a Created event, got %T", env.Event)
		}
	case <-time.After(time.Second):
		t.Fatal("creation event was not broadcast after commit")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc, mock, _ := newTestService(t)

	_, err := svc.Create(context.Background(), actorID, "   ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected storage access: %v", err)
	}
}

func TestDeleteRequiresWriteTenant(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery("select 1 from permissions").
		WithArgs(actorID, "write-tenant", tenantID, "tenant").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	err := svc.Delete(context.Background(), actorID, tenantID)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteSweepsTenantPermissions(t *testing.T) {
	svc, mock, b := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := b.Subscribe(ctx)

	mock.ExpectQuery("select 1 from permissions").
		WithArgs(actorID, "write-tenant", tenantID, "tenant").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec("delete from tenants where id=").
		WithArgs(tenantID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from permissions where resource_id=").
		WithArgs(tenantID, "tenant").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	if err := svc.Delete(context.Background(), actorID, tenantID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	select {
	case env := <-events:
		deleted, ok := env.Event.(Deleted)
		if !ok {
			t.Fatalf("expected a Deleted event, got %T", env.Event)
		}
		if deleted.TenantID.String() != tenantID {
			t.Fatalf("event names tenant %s, want %s", deleted.TenantID, tenantID)
		}
	case <-time.After(time.Second):
		t.Fatal("deletion event was not broadcast after commit")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindTenant(t *testing.T) {
	svc, mock, _ := newTestService(t)

	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("select id, name, created_at from tenants where id=").
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow(tenantID, "Acme", created))

	tn, err := svc.Find(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if tn.Name != "Acme" {
		t.Fatalf("unexpected tenant %+v", tn)
	}

	mock.ExpectQuery("select id, name, created_at from tenants where id=").
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}))
	if _, err := svc.Find(context.Background(), tenantID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
