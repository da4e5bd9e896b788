// Package logging builds the structured logger used by the session manager, guard and CLI.
//
// Loggers are log/slog loggers with a configurable level, format and destination, and a
// default component attribute. Credentials are never logged; callers log expiry instants
// and roles only.
package logging
