package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureNotReady
	LoginFailureInvalidCredentials
	LoginFailureTransport
)

// LoginAPI is the backend call used by the login flow.
type LoginAPI interface {
	Login(ctx context.Context, email, password string) (*transport.AuthResponse, error)
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess int
	LoginFailure int
}

// LoginEvents carries lifecycle event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	NotReady           error
	InvalidCredentials error
	Transport          error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	API             LoginAPI
	PickRole        func(transport.Roles) string
	FallbackMessage string

	MetricInc func(int)
	EmitAudit EmitFunc

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// LoginOutcome is either a credential with its identity or a classified failure with a
// user-facing message.
type LoginOutcome struct {
	Failure  LoginFailureKind
	Err      error
	Message  string
	Token    string
	Identity session.Identity
}

// RunLogin authenticates against the backend. It never touches session state.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) LoginOutcome {
	if deps.MetricInc == nil {
		deps.MetricInc = nopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = nopEmit
	}
	if deps.FallbackMessage == "" {
		deps.FallbackMessage = "Login failed"
	}
	if deps.API == nil {
		return LoginOutcome{
			Failure: LoginFailureNotReady,
			Err:     deps.Errors.NotReady,
			Message: deps.FallbackMessage,
		}
	}

	attempted := session.Identity{Username: username, Email: username}
	resp, err := deps.API.Login(ctx, username, password)
	if err != nil {
		kind := LoginFailureTransport
		hostErr := deps.Errors.Transport
		if errors.Is(err, transport.ErrUnauthorized) {
			kind = LoginFailureInvalidCredentials
			hostErr = deps.Errors.InvalidCredentials
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, attempted, err)
		return LoginOutcome{
			Failure: kind,
			Err:     fmt.Errorf("%w: %w", hostErr, err),
			Message: loginMessage(err, deps.FallbackMessage),
		}
	}

	identity := session.Identity{
		Username: firstNonEmpty(resp.UserName, username),
		Email:    firstNonEmpty(resp.Email, username),
		Role:     pickRole(resp.Role, deps.PickRole),
	}
	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, identity, nil)

	return LoginOutcome{
		Token:    resp.Token,
		Identity: identity,
	}
}

// loginMessage prefers the server's message over the fallback.
func loginMessage(err error, fallback string) string {
	msg := transport.Message(err)
	if msg == "" || msg == transport.DefaultErrorMessage {
		return fallback
	}
	return msg
}
