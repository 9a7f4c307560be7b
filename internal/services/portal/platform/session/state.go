package session

import "github.com/louisbranch/smsportal/internal/services/portal/identity"

// State is the position of a Store in its auth lifecycle.
type State int

const (
	// StateUninitialized means the persisted token has not been checked yet.
	StateUninitialized State = iota
	// StateLoading means initialization or a login is in flight.
	StateLoading
	// StateAuthenticated means Token is set and User was confirmed by the backend.
	StateAuthenticated
	// StateUnauthenticated means no usable token is held.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable copy of a Store at one point in time. User is
// non-nil only when State is StateAuthenticated.
type Snapshot struct {
	State      State
	Token      string
	User       *identity.Profile
	Generation uint64
}

// Loading reports whether the snapshot was taken while a resolution was in flight.
func (s Snapshot) Loading() bool { return s.State == StateLoading || s.State == StateUninitialized }

// Authenticated reports whether the snapshot holds a confirmed user.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.User != nil && s.Token != ""
}

// Role returns the user's role, or the empty Role when unauthenticated.
func (s Snapshot) Role() identity.Role {
	if !s.Authenticated() {
		return ""
	}
	return s.User.UserType
}
