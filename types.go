package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// Identity is the profile of the signed-in user.
type Identity = session.Identity

// LoginResult is the structured outcome of [Manager.Login].
//
// Error carries a message suitable for display. Err carries the cause and matches
// [ErrInvalidCredentials] or [ErrTransport] with errors.Is.
type LoginResult struct {
	Success bool
	Role    string
	Error   string
	Err     error
}

// Snapshot is a consistent read of the session state.
type Snapshot struct {
	Authenticated bool
	Loading       bool
	Credential    string
	Identity      Identity
	// ExpiresAt is the decoded credential expiry; zero when unknown.
	ExpiresAt time.Time
}

// Notifier reports session events to the user and asks for confirmations.
//
// Confirm blocks until the user answers or ctx ends. An ended context counts as "no".
type Notifier interface {
	Info(message string)
	Success(message string)
	Warning(message string)
	Error(message string)
	Confirm(ctx context.Context, title, message string) (bool, error)
}

// Navigator moves the application to a location.
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(ctx context.Context, target string) error

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, target string) error { return f(ctx, target) }

// AuthAPI is the auth backend contract.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*transport.AuthResponse, error)
	Refresh(ctx context.Context) (*transport.AuthResponse, error)
	Check(ctx context.Context) (*transport.CheckResponse, error)
}

type nopNotifier struct{}

func (nopNotifier) Info(string)    {}
func (nopNotifier) Success(string) {}
func (nopNotifier) Warning(string) {}
func (nopNotifier) Error(string)   {}

func (nopNotifier) Confirm(context.Context, string, string) (bool, error) { return false, nil }

type nopNavigator struct{}

func (nopNavigator) Navigate(context.Context, string) error { return nil }
