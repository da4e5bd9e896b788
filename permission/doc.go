// Package permission classifies free-form role strings into the two role classes the
// session layer understands (privileged and default) and evaluates per-route role
// requirements against them.
//
// # Normalization
//
// Upstream role values are noisy: the same administrator role arrives as "ROLE_ADMIN",
// "[ROLE_ADMIN]" or "admin" depending on the endpoint. Classification therefore uses a
// single strategy everywhere: case-insensitive substring containment of the privileged
// marker. Exact comparison is never used.
//
// # Architecture boundaries
//
// This package is a pure in-memory helper with no I/O.
//
// # What this package must NOT do
//
//   - Access storage or the network.
//   - Import goSession, guard, jwt or session.
//   - Mix substring and exact matching strategies.
package permission
