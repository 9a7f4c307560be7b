package session

import "errors"

// ErrAuth matches every login failure: rejected credentials, unreachable
// backend, or an unusable profile response.
var ErrAuth = errors.New("authentication failed")

// ErrSuperseded is returned by Login when a logout or newer login changed the
// session while the request was in flight. The stale result is discarded.
var ErrSuperseded = errors.New("session changed while login was in flight")

// AuthError is a login failure. Message is safe to show on the login page.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return ErrAuth.Error()
	}
	return e.Message
}

// Is reports ErrAuth as a match.
func (e *AuthError) Is(target error) bool { return target == ErrAuth }

func (e *AuthError) Unwrap() error { return e.Err }
