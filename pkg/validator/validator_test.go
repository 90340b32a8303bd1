package validator

import "testing"

func TestValidator(t *testing.T) {
	v := New()
	v.Check(true, "ok", "never")
	if !v.Valid() {
		t.Fatalf("expected valid validator")
	}

	v.Check(false, "distance_meters", "must be >= 0")
	v.Check(false, "distance_meters", "second message")
	if v.Valid() {
		t.Fatalf("expected invalid validator")
	}
	if v.Errors["distance_meters"] != "must be >= 0" {
		t.Fatalf("first message must win, got %q", v.Errors["distance_meters"])
	}
}

func TestHelpers(t *testing.T) {
	if !PermittedValue("up", "up", "down") || PermittedValue("left", "up", "down") {
		t.Fatalf("PermittedValue misbehaves")
	}
	if !Between(90.0, -90, 90) || Between(91.0, -90, 90) {
		t.Fatalf("Between misbehaves")
	}
	for _, ok := range []string{"CR", "CR-SJ", "US-NY"} {
		if !Matches(ok, JurisdictionRX) {
			t.Errorf("%s must match", ok)
		}
	}
	for _, bad := range []string{"cr", "CRI", "", "CR-"} {
		if Matches(bad, JurisdictionRX) {
			t.Errorf("%s must not match", bad)
		}
	}
}
