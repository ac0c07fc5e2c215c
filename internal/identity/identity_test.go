package identity

import (
	"errors"
	"strings"
	"testing"
)

func TestParseIDCanonicalizes(t *testing.T) {
	id, err := ParseID("6F9619FF-8B86-D011-B42D-00C04FC964FF")
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	if id.String() != "6f9619ff-8b86-d011-b42d-00c04fc964ff" {
		t.Fatalf("expected canonical lowercase form, got %s", id)
	}
}

func TestParseIDRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "not-a-uuid", "6f9619ff-8b86-d011-b42d"} {
		if _, err := ParseID(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseIDFieldError(t *testing.T) {
	_, err := ParseID("nope")
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldError, got %T", err)
	}
	if fe.Field != "id" {
		t.Fatalf("unexpected field %q", fe.Field)
	}
}

func TestNewIDRoundTrips(t *testing.T) {
	id := NewID()
	parsed, err := ParseID(id.String())
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	if parsed != id {
		t.Fatalf("expected %s, got %s", id, parsed)
	}
}

func TestParseEmailNormalizes(t *testing.T) {
	email, err := ParseEmail("User.Name+tag@Example.com")
	if err != nil {
		t.Fatalf("ParseEmail: %v", err)
	}
	if email.String() != strings.ToLower("User.Name+tag@Example.com") {
		t.Fatalf("expected lowercased email, got %s", email)
	}
}

func TestParseEmailRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "plain", "@example.com", "a@", "a@b", "a b@example.com"} {
		if _, err := ParseEmail(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
