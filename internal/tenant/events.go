package tenant

import (
	"context"

	"gatehouse.org/internal/bus"
	"gatehouse.org/internal/identity"
	"gatehouse.org/internal/obs"
)

// Created is broadcast after a tenant creation transaction commits.
type Created struct {
	Tenant Tenant
}

func (Created) Kind() string { return "tenant.created" }

// Deleted is broadcast after a tenant removal transaction commits.
type Deleted struct {
	TenantID identity.ID
}

func (Deleted) Kind() string { return "tenant.deleted" }

// EventLogger is the tenant-domain subscriber.
type EventLogger struct{}

func (EventLogger) Name() string { return "tenants" }

func (EventLogger) Handle(_ context.Context, env bus.Envelope) {
	switch ev := env.Event.(type) {
	case Created:
		obs.Log("debug", "tenant created", map[string]any{
			"event_id":  env.ID,
			"tenant_id": ev.Tenant.ID.String(),
		})
	case Deleted:
		obs.Log("debug", "tenant deleted", map[string]any{
			"event_id":  env.ID,
			"tenant_id": ev.TenantID.String(),
		})
	}
}
