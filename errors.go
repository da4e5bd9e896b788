package goSession

import "errors"

var (
	// ErrManagerNotReady is returned when a Manager was not built through [Builder.Build].
	ErrManagerNotReady = errors.New("session manager not initialized")
	// ErrInvalidCredentials matches login failures rejected by the backend with 401.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTransport matches failures to reach or decode the auth backend.
	ErrTransport = errors.New("auth backend unavailable")
	// ErrSessionRejected is returned by Initialize when the stored credential fails validation.
	ErrSessionRejected = errors.New("stored session rejected")
	// ErrRefreshFailed is returned by Refresh when the backend does not extend the session.
	ErrRefreshFailed = errors.New("session refresh failed")
	// ErrNotAuthenticated is returned by Refresh when there is no credential to extend.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStaleResult is returned when a result arrived after the session it belonged to ended.
	ErrStaleResult = errors.New("session changed while the request was in flight")
	// ErrStorage wraps durable storage failures.
	ErrStorage = errors.New("session storage failure")
	// ErrNavigationDuplicated is returned by navigators asked to go where they already are.
	ErrNavigationDuplicated = errors.New("navigation duplicated")
	// ErrConfigInvalid wraps configuration validation failures.
	ErrConfigInvalid = errors.New("invalid configuration")
)
