// Package guard decides whether a navigation may proceed given the current session.
//
// # Rules
//
// [Guard.Decide] first reconciles the session through [SessionSource.Initialize], then
// applies an ordered rule list where the first match wins:
//
//  0. a route with a static redirect (the catch-all) redirects
//  1. the root path goes to the login entry, or to the role home when authenticated
//  2. a protected route without a session goes to the login entry
//  3. a public-only route with a session goes to the role home
//  4. a role-restricted route the identity does not satisfy goes to the other role's home
//  5. otherwise the navigation is allowed
//
// Paths absent from the table with no catch-all are allowed unchanged.
//
// # Architecture boundaries
//
// guard depends on goSession for the session snapshot and route targets. goSession never
// imports guard; the [Router] is handed to the Manager as its Navigator.
package guard
