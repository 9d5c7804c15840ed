package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coachhub/coach-platform/internal/domain"
)

// Code identifies a provider-level failure. The vocabulary follows the
// upstream identity provider's error codes; the account service translates
// these into user-facing errors.
type Code string

const (
	CodeEmailAlreadyInUse    Code = "auth/email-already-in-use"
	CodeWeakPassword         Code = "auth/weak-password"
	CodeInvalidEmail         Code = "auth/invalid-email"
	CodeUserNotFound         Code = "auth/user-not-found"
	CodeWrongPassword        Code = "auth/wrong-password"
	CodeInvalidCredential    Code = "auth/invalid-credential"
	CodeOperationNotAllowed  Code = "auth/operation-not-allowed"
	CodeNetworkRequestFailed Code = "auth/network-request-failed"
	CodeUnknown              Code = "auth/unknown"
)

// Error is a provider failure carrying its code.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a provider code.
func NewError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf extracts the provider code from err, or CodeUnknown.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeUnknown
}

// ProfileUpdate carries the mutable identity attributes.
type ProfileUpdate struct {
	DisplayName string
	PhotoURL    string
}

// Stream is the identity-change subscription surface. The callback fires
// once with the current state on subscribe, then once per transition, until
// the returned unsubscribe func is called.
type Stream interface {
	SubscribeIdentityChanges(fn func(domain.IdentityEvent)) (unsubscribe func())
}

// Provider is the external identity-provider contract consumed by the
// account service and the authorization gate.
type Provider interface {
	Stream

	CreateIdentity(ctx context.Context, email, password string) (*domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (*domain.Identity, string, time.Time, error)
	SignOut(ctx context.Context, subjectID string) error
	UpdateIdentityProfile(ctx context.Context, subjectID string, update ProfileUpdate) error
	SendVerificationMessage(ctx context.Context, subjectID string) error
}
