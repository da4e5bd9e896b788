// Package session provides the durable key/value storage that keeps a saved credential and
// identity across process restarts, plus the compact identity codec stored under the user
// key.
//
// # Drivers
//
// Four drivers implement [Store]: in-process memory, a JSON file on disk, Redis and SQLite
// (through gorm). [New] selects one from [Config].
//
// # Binary encoding
//
// Identities are stored as a versioned binary record, base64url encoded so every driver can
// hold it as a plain string. The decoder also accepts the legacy JSON object written by
// earlier clients and migrates it on read.
//
// # What this package must NOT do
//
//   - Interpret credentials or make authorization decisions.
//   - Provide multi-key transactions; callers clear every key on logout to recover.
package session
