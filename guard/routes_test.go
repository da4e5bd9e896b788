package guard

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrEthical07/goSession/permission"
)

func TestDefaultRoutesInheritance(t *testing.T) {
	table, err := NewTable(DefaultRoutes())
	if err != nil {
		t.Fatalf("table: %v", err)
	}

	users, ok := table.Match("/admin/users")
	if !ok || !users.RequiresAuth || users.Role != permission.RequirePrivileged || users.Name != "AdminUsers" {
		t.Fatalf("unexpected admin child %+v", users)
	}
	home, ok := table.Match("/home/")
	if !ok || !home.RequiresAuth || home.Role != permission.RequireNone || home.Name != "Home" {
		t.Fatalf("unexpected home %+v", home)
	}
	login, ok := table.Match("/login")
	if !ok || !login.PublicOnly || login.RequiresAuth {
		t.Fatalf("unexpected login %+v", login)
	}
}

func TestMatchCatchAll(t *testing.T) {
	table, err := NewTable([]Route{
		{Path: "/docs/*", Name: "Docs"},
		{Path: "/*", Redirect: "/login"},
		{Path: "/docs/private", RequiresAuth: true},
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}

	cases := map[string]string{
		"/docs":         "Docs",
		"/docs/a/b":     "Docs",
		"/docs/private": "",
		"/elsewhere":    "",
	}
	for p, name := range cases {
		r, ok := table.Match(p)
		if !ok {
			t.Fatalf("expected %s to match", p)
		}
		if r.Name != name {
			t.Fatalf("%s: expected %q, got %+v", p, name, r)
		}
	}
	if r, _ := table.Match("/elsewhere"); r.Redirect != "/login" {
		t.Fatalf("expected catch-all redirect, got %+v", r)
	}
	if r, _ := table.Match("/docs/private"); !r.RequiresAuth {
		t.Fatalf("exact match must win over catch-all")
	}
}

func TestLoadRoutes(t *testing.T) {
	doc := `
routes:
  - path: /login
    public_only: true
  - path: /
    requires_auth: true
    children:
      - path: home
        name: Home
  - path: /console
    requires_auth: true
    role: admin
    children:
      - path: audit
  - path: /*
    redirect: /login
`
	table, err := LoadRoutes(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	audit, ok := table.Match("/console/audit")
	if !ok || audit.Role != permission.RequirePrivileged || !audit.RequiresAuth {
		t.Fatalf("unexpected record %+v", audit)
	}
	if got := len(table.Routes()); got != 6 {
		t.Fatalf("expected 6 flattened routes, got %d", got)
	}
}

func TestLoadRoutesRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown role":     "routes:\n  - path: /x\n    role: wizard\n",
		"relative top":     "routes:\n  - path: x\n",
		"relative target":  "routes:\n  - path: /x\n    redirect: login\n",
		"unknown field":    "routes:\n  - path: /x\n    layout: none\n",
		"protected public": "routes:\n  - path: /x\n    requires_auth: true\n    public_only: true\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadRoutes(strings.NewReader(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	_, err := NewTable([]Route{{Path: "relative"}})
	if !errors.Is(err, ErrInvalidRoute) {
		t.Fatalf("expected ErrInvalidRoute, got %v", err)
	}
}
