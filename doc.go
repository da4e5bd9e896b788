// Package goSession provides the client-side session layer of a role-partitioned
// application: credential acquisition, silent validation of a stored session, proactive
// expiry handling, refresh and logout.
//
// A [Manager] is built once through [Builder.Build] and shared. It owns a single [State]
// that the route guard and the transport observe by pointer, so every reader sees the
// result of the latest completed transition.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder], [Config], [State] and
// value types (Snapshot, LoginResult, MetricsSnapshot). Flow orchestration, lifecycle
// event dispatch and logger construction live under internal/ and are never exported.
// Route decisions live in the guard package, which depends on this one.
//
// # Expiry policy
//
// Every acquired credential is decoded for its expiry. Default-class roles are logged
// out when the credential expires. Privileged roles are asked to extend the session
// [ExpiryConfig.WarningBuffer] before expiry; declining, failing to answer or a failed
// refresh logs them out. A credential that is already expired, or a privileged one inside
// the buffer, is logged out at once.
//
// # What this package must NOT do
//
//   - Hold a lock across a network call or a navigation.
//   - Log credentials. Only expiry instants and roles are logged.
//   - Import the guard package (no import cycles).
package goSession
