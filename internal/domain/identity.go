package domain

// Identity is the authentication provider's view of a logged-in subject.
// Everything besides SubjectID may be empty.
type Identity struct {
	SubjectID   string
	Email       string
	DisplayName string
	PhotoURL    string
}

// IdentityEvent is one element of the identity-change stream. A nil
// Identity means the subject signed out (or was never signed in).
type IdentityEvent struct {
	Identity *Identity
}
