package flows

import (
	"context"

	"github.com/MrEthical07/goSession/session"
)

// Service is the centralized flow runner built once by the Manager.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with a backend.
func (s Service) Initialized() bool {
	return s.deps.Login.API != nil && s.deps.Refresh.API != nil && s.deps.Validate.API != nil
}

func (s Service) Login(ctx context.Context, username, password string) LoginOutcome {
	return RunLogin(ctx, username, password, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, current session.Identity) RefreshOutcome {
	return RunRefresh(ctx, current, s.deps.Refresh)
}

func (s Service) Validate(ctx context.Context, saved session.Identity) ValidateResult {
	return RunValidate(ctx, saved, s.deps.Validate)
}

func (s Service) Logout(ctx context.Context, identity session.Identity) LogoutResult {
	return RunLogout(ctx, identity, s.deps.Logout)
}
