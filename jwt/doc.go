// Package jwt decodes bearer credentials into the expiry instant and role claim the
// session layer schedules against, and issues compatible tokens for test and demo
// backends.
//
// # Verification
//
// A client usually cannot verify the backend's signature, so a [Manager] built without a
// signing method decodes tokens unverified. When keys are configured the signature is
// checked, but time-based claims are never enforced here: an expired credential must still
// decode so the caller can act on its expiry.
package jwt
