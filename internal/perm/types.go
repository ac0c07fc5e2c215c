// Package perm implements the permission data model and the
// grant/revoke/check protocol. A permission is an immutable fact:
// subject may perform a verb on a resource instance, keyed by
// (subject, action, resource id, resource kind). The canonical wire form is
// `subject:verb-target:resource_id:resource_kind` and round-trips exactly.
package perm

import (
	"fmt"
	"strings"
	"unicode"

	"gatehouse.org/internal/identity"
)

// Target is a namespaced resource category such as "user" or "tenant".
type Target string

// NewTarget validates a raw category name.
func NewTarget(s string) (Target, error) {
	if s == "" {
		return "", &identity.FieldError{Field: "target", Message: "target cannot be empty"}
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			return "", &identity.FieldError{
				Field:   "target",
				Message: "target can only contain alphanumerics and '-'",
			}
		}
	}
	return Target(s), nil
}

func (t Target) String() string { return string(t) }

// The registered resource kinds. Resources of any other kind are rejected at
// construction time.
const (
	KindUser   Target = "user"
	KindTenant Target = "tenant"
)

// Resource is the entity instance a permission applies to, tagged by kind.
// The id is carried verbatim: a permission naming a nonexistent resource is
// checkable (and simply absent), not malformed.
type Resource struct {
	kind Target
	id   string
}

// UserResource references a user aggregate.
func UserResource(id identity.ID) Resource {
	return Resource{kind: KindUser, id: id.String()}
}

// TenantResource references a tenant aggregate.
func TenantResource(id identity.ID) Resource {
	return Resource{kind: KindTenant, id: id.String()}
}

// ParseResource builds a Resource from a raw (id, kind) pair, rejecting
// unregistered kinds.
func ParseResource(id, kind string) (Resource, error) {
	switch Target(kind) {
	case KindUser, KindTenant:
		return Resource{kind: Target(kind), id: id}, nil
	default:
		return Resource{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

// ID returns the referenced entity's identifier.
func (r Resource) ID() string { return r.id }

// Kind returns the resource category, derived from the variant.
func (r Resource) Kind() Target { return r.kind }

func (r Resource) String() string {
	return r.id + ":" + string(r.kind)
}

// Verb is the action half of an Actionable.
type Verb string

const (
	VerbRead    Verb = "read"
	VerbWrite   Verb = "write"
	VerbExecute Verb = "execute"
)

// Actionable pairs a verb with the target category it applies to.
// Wire form is `<verb>-<target>`, split on the first hyphen.
type Actionable struct {
	Verb   Verb
	Target Target
}

// ParseActionable parses the `verb-target` wire form.
func ParseActionable(s string) (Actionable, error) {
	verb, rawTarget, found := strings.Cut(s, "-")
	if !found {
		return Actionable{}, ErrMissingDelimiter
	}
	switch Verb(verb) {
	case VerbRead, VerbWrite, VerbExecute:
	default:
		return Actionable{}, fmt.Errorf("%w: %q", ErrUnknownVerb, verb)
	}
	target, err := NewTarget(rawTarget)
	if err != nil {
		return Actionable{}, err
	}
	return Actionable{Verb: Verb(verb), Target: target}, nil
}

func (a Actionable) String() string {
	return string(a.Verb) + "-" + string(a.Target)
}

// Permission is the aggregate fact granting Subject the Action on Resource.
// The action's target conventionally matches the resource kind; the pairing
// is not structurally enforced.
type Permission struct {
	Subject  identity.ID
	Action   Actionable
	Resource Resource
}

// New builds a Permission from raw subject and action strings.
func New(subject, action string, resource Resource) (Permission, error) {
	id, err := identity.ParseID(subject)
	if err != nil {
		return Permission{}, &identity.FieldError{
			Field:   "subject",
			Message: "invalid uuid provided for field `subject`",
		}
	}
	act, err := ParseActionable(action)
	if err != nil {
		return Permission{}, &identity.FieldError{Field: "action", Message: err.Error()}
	}
	return Permission{Subject: id, Action: act, Resource: resource}, nil
}

// Parse parses the canonical 4-segment wire form. It is the exact inverse of
// String for all valid permissions.
func Parse(s string) (Permission, error) {
	segments := strings.Split(s, ":")
	if len(segments) != 4 {
		return Permission{}, ErrMalformedPermission
	}
	resource, err := ParseResource(segments[2], segments[3])
	if err != nil {
		return Permission{}, err
	}
	return New(segments[0], segments[1], resource)
}

func (p Permission) String() string {
	return p.Subject.String() + ":" + p.Action.String() + ":" + p.Resource.String()
}
