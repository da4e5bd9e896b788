// Package flows contains pure-function orchestrators for the Manager's network operations.
//
// Each flow function (RunLogin, RunRefresh, RunValidate, RunLogout) accepts a typed
// dependency struct and returns an outcome without side-effects beyond those
// dependencies. The Manager owns session state, timers and epochs; flows translate
// backend responses into identities and classified failures.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the auth backend, the durable store, the
// navigator, metrics and lifecycle events. They do NOT own any of these resources;
// ownership stays with the Manager.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Touch the shared session state; results are applied by the caller.
package flows
