package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/session"
)

// LogoutStore is the durable-storage subset used by logout.
type LogoutStore interface {
	Delete(ctx context.Context, keys ...string) error
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Store    LogoutStore
	Keys     []string
	Target   string
	Navigate func(ctx context.Context, target string) error

	// IgnoreNavigation reports navigation errors that are expected, such as navigating to
	// the page already shown.
	IgnoreNavigation func(error) bool

	MetricInc func(int)
	EmitAudit EmitFunc
	Metric    int
	Event     string
}

// LogoutResult reports the side-effects that failed. Logout itself never fails.
type LogoutResult struct {
	StoreErr    error
	NavigateErr error
}

// RunLogout clears durable storage and navigates to the login entry. Memory state and
// timers belong to the caller and must already be cleared.
func RunLogout(ctx context.Context, identity session.Identity, deps LogoutDeps) LogoutResult {
	var res LogoutResult
	if deps.Store != nil && len(deps.Keys) > 0 {
		res.StoreErr = deps.Store.Delete(ctx, deps.Keys...)
	}
	if deps.Navigate != nil && deps.Target != "" {
		if err := deps.Navigate(ctx, deps.Target); err != nil {
			if deps.IgnoreNavigation == nil || !deps.IgnoreNavigation(err) {
				res.NavigateErr = err
			}
		}
	}
	if deps.MetricInc != nil {
		deps.MetricInc(deps.Metric)
	}
	if deps.EmitAudit != nil {
		deps.EmitAudit(ctx, deps.Event, errors.Join(res.StoreErr, res.NavigateErr) == nil, identity, errors.Join(res.StoreErr, res.NavigateErr))
	}
	return res
}
