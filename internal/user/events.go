package user

import (
	"context"

	"gatehouse.org/internal/bus"
	"gatehouse.org/internal/identity"
	"gatehouse.org/internal/obs"
)

// Created is broadcast after a registration transaction commits.
type Created struct {
	User User
}

func (Created) Kind() string { return "user.created" }

// Deleted is broadcast after a removal transaction commits.
type Deleted struct {
	UserID identity.ID
}

func (Deleted) Kind() string { return "user.deleted" }

// ProfileCreated is broadcast when a profile is attached to an existing user
// outside the registration flow.
type ProfileCreated struct {
	Profile Profile
}

func (ProfileCreated) Kind() string { return "user.profile_created" }

// ProfileDeleted is broadcast when a profile is detached without removing the
// account itself.
type ProfileDeleted struct {
	UserID identity.ID
}

func (ProfileDeleted) Kind() string { return "user.profile_deleted" }

// EventLogger is the user-domain subscriber; it records user lifecycle
// broadcasts and ignores everything else on the bus.
type EventLogger struct{}

func (EventLogger) Name() string { return "users" }

func (EventLogger) Handle(_ context.Context, env bus.Envelope) {
	switch ev := env.Event.(type) {
	case Created:
		obs.Log("debug", "user created", map[string]any{
			"event_id": env.ID,
			"user_id":  ev.User.ID.String(),
		})
	case Deleted:
		obs.Log("debug", "user deleted", map[string]any{
			"event_id": env.ID,
			"user_id":  ev.UserID.String(),
		})
	case ProfileCreated:
		obs.Log("debug", "profile created", map[string]any{
			"event_id": env.ID,
			"user_id":  ev.Profile.UserID.String(),
		})
	case ProfileDeleted:
		obs.Log("debug", "profile deleted", map[string]any{
			"event_id": env.ID,
			"user_id":  ev.UserID.String(),
		})
	}
}
