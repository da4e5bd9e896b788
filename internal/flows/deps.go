package flows

import (
	"context"
	"strings"

	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// Deps groups flow dependency sets. The Manager builds this once and delegates
// operations to the matching flow implementation.
type Deps struct {
	Login    LoginDeps
	Refresh  RefreshDeps
	Validate ValidateDeps
	Logout   LogoutDeps
}

// EmitFunc records a lifecycle event.
type EmitFunc func(ctx context.Context, event string, success bool, identity session.Identity, err error)

func nopMetric(int) {}

func nopEmit(context.Context, string, bool, session.Identity, error) {}

// PreferPrivileged returns a role picker that prefers roles classified as privileged by c.
func PreferPrivileged(c permission.Classifier) func(transport.Roles) string {
	return func(roles transport.Roles) string {
		return permission.Normalize(roles.Pick(c.IsPrivileged))
	}
}

func pickRole(roles transport.Roles, pick func(transport.Roles) string) string {
	if pick != nil {
		return pick(roles)
	}
	return permission.Normalize(roles.Pick(nil))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
