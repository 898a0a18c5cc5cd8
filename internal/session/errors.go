package session

import "errors"

// Sentinel errors for session operations.
// These errors are part of the Store's public API and should be checked
// using errors.Is().
//
// Example:
//
//	sess, err := store.Get(id)
//	if errors.Is(err, session.ErrNotFound) {
//	    // Handle missing session
//	}
var (
	// ErrNotFound indicates the requested session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrNotReady indicates the service has not finished initializing
	// and cannot accept new sessions yet.
	ErrNotReady = errors.New("service not ready")
)
