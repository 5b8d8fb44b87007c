package models

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusDraft, StatusPublished, true},
		{StatusPublished, StatusDeprecated, true},
		{StatusDraft, StatusDeprecated, false},
		{StatusPublished, StatusDraft, false},
		{StatusDeprecated, StatusPublished, false},
		{StatusDeprecated, StatusDraft, false},
		{StatusDraft, StatusDraft, false},
		{"bogus", StatusPublished, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range ValidStatuses {
		if !IsValidStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if IsValidStatus("active") {
		t.Error("'active' is a user status, not a lifecycle status")
	}
	if IsValidStatus("") {
		t.Error("empty status should be invalid")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, r := range ValidRoles {
		if !IsValidRole(r) {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if IsValidRole("superuser") {
		t.Error("unknown role should be invalid")
	}
}
