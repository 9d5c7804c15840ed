package domain

// ResolutionState tracks whether the session bootstrapper has reached a
// terminal outcome for the current identity-change event.
type ResolutionState string

const (
	ResolutionPending  ResolutionState = "PENDING"
	ResolutionResolved ResolutionState = "RESOLVED"
)

// Session is the ephemeral, per-area view of who is visiting. It is created
// when a protected area mounts and torn down on unmount; it is never stored.
type Session struct {
	Identity *Identity
	Role     Role
	State    ResolutionState
}

// Authenticated reports whether an identity resolved for the session.
func (s Session) Authenticated() bool {
	return s.State == ResolutionResolved && s.Identity != nil
}
