// Package transport is the HTTP adapter between the session manager and the
// authentication backend.
//
// The adapter attaches the current credential to every outgoing request through a
// [CredentialProvider] supplied at construction, unwraps the backend's
// {success, message, data} envelope, and turns 401 responses into errors matching
// [ErrUnauthorized] so callers can tell an invalid session from other failures.
//
// # What this package must NOT do
//
//   - Read credentials from storage or globals.
//   - Mutate session state; it only reports outcomes.
package transport
