package events

import (
	"time"

	"github.com/coachhub/coach-platform/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered     EventType = "account_registered"
	EventVerificationRequested EventType = "verification_requested"
	EventSignedIn              EventType = "signed_in"
	EventSignedOut             EventType = "signed_out"
	EventAccessDenied          EventType = "access_denied"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AccountRegisteredPayload payload.
type AccountRegisteredPayload struct {
	Email  string               `json:"email"`
	Role   domain.Role          `json:"role"`
	Status domain.ProfileStatus `json:"status"`
}

// VerificationRequestedPayload payload.
type VerificationRequestedPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// SignedInPayload payload.
type SignedInPayload struct {
	Email string `json:"email"`
}

// AccessDeniedPayload payload.
type AccessDeniedPayload struct {
	Area   string `json:"area"`
	Reason string `json:"reason"`
}
