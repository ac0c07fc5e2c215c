package perm

import (
	"context"

	"gatehouse.org/internal/bus"
	"gatehouse.org/internal/obs"
)

// Granted is broadcast after a grant transaction commits.
type Granted struct {
	Permission Permission
}

func (Granted) Kind() string { return "permission.granted" }

// Revoked is broadcast after a revoke transaction commits.
type Revoked struct {
	Permission Permission
}

func (Revoked) Kind() string { return "permission.revoked" }

// EventLogger is the permission-domain subscriber; it records grant and
// revoke broadcasts and ignores everything else on the bus.
type EventLogger struct{}

func (EventLogger) Name() string { return "permissions" }

func (EventLogger) Handle(_ context.Context, env bus.Envelope) {
	switch ev := env.Event.(type) {
	case Granted:
		obs.Log("debug", "permission granted", map[string]any{
			"event_id":   env.ID,
			"permission": ev.Permission.String(),
		})
	case Revoked:
		obs.Log("debug", "permission revoked", map[string]any{
			"event_id":   env.ID,
			"permission": ev.Permission.String(),
		})
	}
}
