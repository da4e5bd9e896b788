package permission

import (
	"errors"
	"testing"
)

func TestClassifierSubstringMatching(t *testing.T) {
	c := NewClassifier("")

	cases := []struct {
		role string
		want Class
	}{
		{"ROLE_ADMIN", ClassPrivileged},
		{"[ROLE_ADMIN]", ClassPrivileged},
		{"admin", ClassPrivileged},
		{"ROLE_CUSTOMER", ClassDefault},
		{"", ClassDefault},
		{"customer", ClassDefault},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.role); got != tc.want {
			t.Fatalf("Classify(%q) = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestSatisfies(t *testing.T) {
	c := NewClassifier("admin")

	if !c.Satisfies("[ROLE_ADMIN]", RequirePrivileged) {
		t.Fatalf("expected bracketed admin role to satisfy privileged requirement")
	}
	if c.Satisfies("ROLE_CUSTOMER", RequirePrivileged) {
		t.Fatalf("customer must not satisfy privileged requirement")
	}
	if !c.Satisfies("ROLE_CUSTOMER", RequireDefault) {
		t.Fatalf("customer must satisfy default requirement")
	}
	if c.Satisfies("ROLE_ADMIN", RequireDefault) {
		t.Fatalf("admin must not satisfy default requirement")
	}
	if !c.Satisfies("anything", RequireNone) {
		t.Fatalf("no requirement must always be satisfied")
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(" [ROLE_ADMIN] "); got != "ROLE_ADMIN" {
		t.Fatalf("Normalize = %q", got)
	}
	if got := Normalize("ROLE_CUSTOMER"); got != "ROLE_CUSTOMER" {
		t.Fatalf("Normalize = %q", got)
	}
}

func TestParseRequirement(t *testing.T) {
	for name, want := range map[string]Requirement{
		"":         RequireNone,
		"admin":    RequirePrivileged,
		"Customer": RequireDefault,
	} {
		got, err := ParseRequirement(name)
		if err != nil {
			t.Fatalf("ParseRequirement(%q): %v", name, err)
		}
		if got != want {
			t.Fatalf("ParseRequirement(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseRequirement("root"); !errors.Is(err, ErrUnknownRequirement) {
		t.Fatalf("expected ErrUnknownRequirement, got %v", err)
	}
}
