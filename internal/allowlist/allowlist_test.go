package allowlist

import "testing"

func TestAllowByExactEmail(t *testing.T) {
	hook := New(nil, []string{"Alice@Example.com"})
	if !hook.Allow("alice@example.com") {
		t.Error("expected exact-address match to be case-insensitive")
	}
	if hook.Allow("bob@example.com") {
		t.Error("did not expect bob@example.com to be allowed")
	}
}

func TestAllowByDomain(t *testing.T) {
	hook := New([]string{"@acme.com", "partner.io"}, nil)

	if !hook.Allow("new-hire@acme.com") {
		t.Error("expected acme.com domain to be allowed")
	}
	if !hook.Allow("contact@partner.io") {
		t.Error("expected partner.io domain to be allowed")
	}
	if hook.Allow("someone@evil.com") {
		t.Error("did not expect evil.com to be allowed")
	}
}

func TestAllowRejectsMalformedEmail(t *testing.T) {
	hook := New([]string{"acme.com"}, nil)
	if hook.Allow("not-an-email") {
		t.Error("expected malformed email to be rejected")
	}
	if hook.Allow("trailing@") {
		t.Error("expected email with empty domain to be rejected")
	}
}
