package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// RefreshAPI is the backend call used by the refresh flow.
type RefreshAPI interface {
	Refresh(ctx context.Context) (*transport.AuthResponse, error)
}

// RefreshMetrics carries metric IDs needed by the refresh flow.
type RefreshMetrics struct {
	RefreshSuccess int
	RefreshFailure int
}

// RefreshEvents carries lifecycle event names used by the refresh flow.
type RefreshEvents struct {
	RefreshSuccess string
	RefreshFailure string
}

// RefreshErrors carries host-level sentinel errors used by the refresh flow.
type RefreshErrors struct {
	NotReady      error
	RefreshFailed error
}

// RefreshDeps captures refresh dependencies.
type RefreshDeps struct {
	API      RefreshAPI
	PickRole func(transport.Roles) string

	MetricInc func(int)
	EmitAudit EmitFunc

	Metrics RefreshMetrics
	Events  RefreshEvents
	Errors  RefreshErrors
}

// RefreshOutcome carries either the replacement credential or the failure.
type RefreshOutcome struct {
	Err      error
	Token    string
	Identity session.Identity
}

// RunRefresh exchanges the current credential. Identity fields absent from the response
// are carried over from current.
func RunRefresh(ctx context.Context, current session.Identity, deps RefreshDeps) RefreshOutcome {
	if deps.MetricInc == nil {
		deps.MetricInc = nopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = nopEmit
	}
	if deps.API == nil {
		return RefreshOutcome{Err: deps.Errors.NotReady}
	}

	resp, err := deps.API.Refresh(ctx)
	if err != nil {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshFailure, false, current, err)
		return RefreshOutcome{Err: fmt.Errorf("%w: %w", deps.Errors.RefreshFailed, err)}
	}

	identity := session.Identity{
		Username: firstNonEmpty(resp.UserName, current.Username),
		Email:    firstNonEmpty(resp.Email, current.Email),
		Role:     firstNonEmpty(pickRole(resp.Role, deps.PickRole), current.Role),
	}
	deps.MetricInc(deps.Metrics.RefreshSuccess)
	deps.EmitAudit(ctx, deps.Events.RefreshSuccess, true, identity, nil)

	return RefreshOutcome{
		Token:    resp.Token,
		Identity: identity,
	}
}
