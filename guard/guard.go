package guard

import (
	"context"
	"log/slog"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/permission"
)

// SessionSource is the session the guard consults. *goSession.Manager satisfies it.
type SessionSource interface {
	Initialize(ctx context.Context) error
	Snapshot() goSession.Snapshot
}

// Reason names the rule that produced a Decision.
type Reason string

const (
	ReasonStaticRedirect Reason = "static_redirect"
	ReasonRoot           Reason = "root"
	ReasonAuthRequired   Reason = "auth_required"
	ReasonPublicOnly     Reason = "public_only"
	ReasonRoleMismatch   Reason = "role_mismatch"
	ReasonAllowed        Reason = "allowed"
)

// Decision is the outcome of a guard check. Redirect is empty when the navigation is
// allowed.
type Decision struct {
	Path     string
	Redirect string
	Reason   Reason
}

// Allowed reports whether navigation may proceed to Path.
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Config configures a Guard.
type Config struct {
	Routes     goSession.RoutesConfig
	Classifier permission.Classifier
	Logger     *slog.Logger
}

// Guard decides whether a navigation may proceed.
type Guard struct {
	source     SessionSource
	table      *Table
	routes     goSession.RoutesConfig
	classifier permission.Classifier
	logger     *slog.Logger
}

// New returns a Guard over source. A nil table uses DefaultRoutes.
func New(source SessionSource, table *Table, cfg Config) *Guard {
	if table == nil {
		table, _ = NewTable(DefaultRoutes())
	}
	if cfg.Routes == (goSession.RoutesConfig{}) {
		cfg.Routes = goSession.DefaultConfig().Routes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Guard{
		source:     source,
		table:      table,
		routes:     cfg.Routes,
		classifier: cfg.Classifier,
		logger:     logger,
	}
}

// ForManager returns a Guard using m's route targets and role classifier.
func ForManager(m *goSession.Manager, table *Table, logger *slog.Logger) *Guard {
	return New(m, table, Config{
		Routes:     m.Config().Routes,
		Classifier: m.Classifier(),
		Logger:     logger,
	})
}

// Table returns the route table.
func (g *Guard) Table() *Table {
	return g.table
}

// Decide reconciles the session and applies the rules in order; the first match wins.
//
// A failed Initialize is not an error here: the session has already been logged out and
// the decision proceeds on the unauthenticated snapshot.
func (g *Guard) Decide(ctx context.Context, target string) Decision {
	if err := g.source.Initialize(ctx); err != nil {
		g.logger.Debug("session initialize failed during navigation", "error", err)
	}
	snap := g.source.Snapshot()
	p := cleanPath(target)
	route, matched := g.table.Match(p)

	switch {
	case matched && route.Redirect != "":
		return g.redirect(p, route.Redirect, ReasonStaticRedirect)

	case p == g.routes.Root:
		if !snap.Authenticated {
			return g.redirect(p, g.routes.Login, ReasonRoot)
		}
		return g.redirect(p, g.home(snap.Identity.Role), ReasonRoot)

	case matched && route.RequiresAuth && !snap.Authenticated:
		return g.redirect(p, g.routes.Login, ReasonAuthRequired)

	case matched && route.PublicOnly && snap.Authenticated:
		return g.redirect(p, g.home(snap.Identity.Role), ReasonPublicOnly)

	case matched && !g.classifier.Satisfies(snap.Identity.Role, route.Role):
		return g.redirect(p, g.opposite(route.Role), ReasonRoleMismatch)
	}

	return Decision{Path: p, Reason: ReasonAllowed}
}

func (g *Guard) redirect(from, to string, reason Reason) Decision {
	g.logger.Debug("navigation redirected", "from", from, "to", to, "reason", string(reason))
	return Decision{Path: from, Redirect: to, Reason: reason}
}

func (g *Guard) home(role string) string {
	if g.classifier.IsPrivileged(role) {
		return g.routes.PrivilegedHome
	}
	return g.routes.DefaultHome
}

// opposite is the home of the role class that does not satisfy req.
func (g *Guard) opposite(req permission.Requirement) string {
	if req == permission.RequireDefault {
		return g.routes.PrivilegedHome
	}
	return g.routes.DefaultHome
}
