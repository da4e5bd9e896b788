package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureNotReady
	ValidateFailureUnauthorized
	ValidateFailureTransport
)

// CheckAPI is the backend call used by the validate flow.
type CheckAPI interface {
	Check(ctx context.Context) (*transport.CheckResponse, error)
}

// ValidateMetrics carries metric IDs needed by the validate flow.
type ValidateMetrics struct {
	RestoreSuccess int
	RestoreFailure int
}

// ValidateEvents carries lifecycle event names used by the validate flow.
type ValidateEvents struct {
	RestoreSuccess string
	RestoreFailure string
}

// ValidateErrors carries host-level sentinel errors used by the validate flow.
type ValidateErrors struct {
	NotReady  error
	Rejected  error
	Transport error
}

// ValidateDeps captures validation dependencies.
type ValidateDeps struct {
	API      CheckAPI
	PickRole func(transport.Roles) string

	MetricInc func(int)
	EmitAudit EmitFunc

	Metrics ValidateMetrics
	Events  ValidateEvents
	Errors  ValidateErrors
}

// ValidateResult returns the server's canonical identity or a classified failure.
type ValidateResult struct {
	Failure  ValidateFailureKind
	Err      error
	Identity session.Identity
}

// RunValidate asks the backend to confirm the stored credential. The returned identity
// takes email and role from the server, falling back to saved for absent fields.
func RunValidate(ctx context.Context, saved session.Identity, deps ValidateDeps) ValidateResult {
	if deps.MetricInc == nil {
		deps.MetricInc = nopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = nopEmit
	}
	if deps.API == nil {
		return ValidateResult{Failure: ValidateFailureNotReady, Err: deps.Errors.NotReady}
	}

	resp, err := deps.API.Check(ctx)
	if err != nil {
		kind := ValidateFailureTransport
		hostErr := deps.Errors.Transport
		if errors.Is(err, transport.ErrUnauthorized) {
			kind = ValidateFailureUnauthorized
			hostErr = deps.Errors.Rejected
		}
		deps.MetricInc(deps.Metrics.RestoreFailure)
		deps.EmitAudit(ctx, deps.Events.RestoreFailure, false, saved, err)
		return ValidateResult{Failure: kind, Err: fmt.Errorf("%w: %w", hostErr, err)}
	}

	identity := session.Identity{
		Username: firstNonEmpty(resp.UserName, saved.Username),
		Email:    firstNonEmpty(resp.Email, saved.Email),
		Role:     firstNonEmpty(pickRole(resp.Roles, deps.PickRole), saved.Role),
	}
	deps.MetricInc(deps.Metrics.RestoreSuccess)
	deps.EmitAudit(ctx, deps.Events.RestoreSuccess, true, identity, nil)

	return ValidateResult{Identity: identity}
}
