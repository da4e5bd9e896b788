package guard

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/MrEthical07/goSession/permission"
	"gopkg.in/yaml.v3"
)

const catchAllSuffix = "/*"

// Route is one route authorization record. Children inherit the parent's requirements;
// a child path without a leading slash is relative to its parent.
type Route struct {
	Path         string                 `yaml:"path"`
	Name         string                 `yaml:"name,omitempty"`
	RequiresAuth bool                   `yaml:"requires_auth,omitempty"`
	PublicOnly   bool                   `yaml:"public_only,omitempty"`
	Role         permission.Requirement `yaml:"role,omitempty"`
	Redirect     string                 `yaml:"redirect,omitempty"`
	Children     []Route                `yaml:"children,omitempty"`
}

// Table is a compiled, read-only route table.
type Table struct {
	exact    map[string]Route
	prefixes []prefixRoute
	ordered  []Route
}

type prefixRoute struct {
	prefix string
	route  Route
}

// DefaultRoutes returns the application's route table.
func DefaultRoutes() []Route {
	admin := func(p, name string) Route {
		return Route{Path: p, Name: name, Role: permission.RequirePrivileged}
	}
	return []Route{
		{Path: "/login", Name: "Login", PublicOnly: true},
		{Path: "/signup", Name: "Signup", PublicOnly: true},
		{
			Path:         "/",
			RequiresAuth: true,
			Children: []Route{
				{Path: "home", Name: "Home"},
				{Path: "product", Name: "Products"},
			},
		},
		{
			Path:         "/admin",
			RequiresAuth: true,
			Role:         permission.RequirePrivileged,
			Children: []Route{
				admin("", "AdminDashboard"),
				admin("users", "AdminUsers"),
				admin("products", "AdminProducts"),
				admin("categories", "AdminCategories"),
				admin("orders", "AdminOrders"),
				admin("reports", "AdminReports"),
				admin("settings", "AdminSettings"),
			},
		},
		{Path: "/*", Redirect: "/login"},
	}
}

// LoadRoutes reads a route table from YAML of the form `routes: [...]`.
func LoadRoutes(r io.Reader) (*Table, error) {
	var doc struct {
		Routes []Route `yaml:"routes"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding route table: %w", err)
	}
	return NewTable(doc.Routes)
}

// NewTable flattens routes, applying inheritance, and indexes them for matching.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{exact: make(map[string]Route)}
	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: top-level path %q must be absolute", ErrInvalidRoute, r.Path)
		}
		if err := t.add(r, Route{}); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(t.prefixes, func(i, j int) bool {
		return len(t.prefixes[i].prefix) > len(t.prefixes[j].prefix)
	})
	return t, nil
}

func (t *Table) add(r Route, parent Route) error {
	full := r.Path
	if !strings.HasPrefix(full, "/") {
		full = path.Join(parent.Path, r.Path)
	}
	if r.Redirect != "" && !strings.HasPrefix(r.Redirect, "/") {
		return fmt.Errorf("%w: redirect %q of %q must be absolute", ErrInvalidRoute, r.Redirect, full)
	}

	eff := Route{
		Path:         full,
		Name:         r.Name,
		RequiresAuth: r.RequiresAuth || parent.RequiresAuth,
		PublicOnly:   r.PublicOnly || parent.PublicOnly,
		Role:         r.Role,
		Redirect:     r.Redirect,
	}
	if eff.Role == permission.RequireNone {
		eff.Role = parent.Role
	}
	if eff.RequiresAuth && eff.PublicOnly {
		return fmt.Errorf("%w: %q is both protected and public-only", ErrInvalidRoute, full)
	}

	if strings.HasSuffix(full, catchAllSuffix) {
		t.prefixes = append(t.prefixes, prefixRoute{prefix: strings.TrimSuffix(full, "*"), route: eff})
	} else {
		full = cleanPath(full)
		eff.Path = full
		if _, dup := t.exact[full]; !dup {
			t.exact[full] = eff
		}
	}
	t.ordered = append(t.ordered, eff)

	for _, child := range r.Children {
		if err := t.add(child, eff); err != nil {
			return err
		}
	}
	return nil
}

// Match returns the record governing p. Exact paths win over catch-all prefixes, and
// longer prefixes win over shorter ones.
func (t *Table) Match(p string) (Route, bool) {
	if t == nil {
		return Route{}, false
	}
	p = cleanPath(p)
	if r, ok := t.exact[p]; ok {
		return r, true
	}
	for _, pr := range t.prefixes {
		if strings.HasPrefix(p+"/", pr.prefix) {
			return pr.route, true
		}
	}
	return Route{}, false
}

// Routes returns the flattened records in declaration order.
func (t *Table) Routes() []Route {
	if t == nil {
		return nil
	}
	return append([]Route(nil), t.ordered...)
}

func cleanPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
