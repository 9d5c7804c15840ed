package dto

import (
	"time"

	"github.com/coachhub/coach-platform/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role"`
}

// LoginRequest payload for sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MeasurementsRequest fills in the dashboard profile-completion fields.
type MeasurementsRequest struct {
	Age    int     `json:"age"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// SubscriptionResponse is the billing block projection.
type SubscriptionResponse struct {
	Status      string    `json:"status"`
	TrialEndsAt time.Time `json:"trial_ends_at"`
}

// ProfileResponse is the account profile projection.
type ProfileResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Email        string                `json:"email"`
	Role         string                `json:"role"`
	Status       string                `json:"status"`
	AvatarURL    string                `json:"avatar_url"`
	CreatedAt    time.Time             `json:"created_at"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
	Age          *int                  `json:"age,omitempty"`
	Height       *float64              `json:"height,omitempty"`
	Weight       *float64              `json:"weight,omitempty"`
}

// NewProfileResponse maps the domain profile.
func NewProfileResponse(p *domain.Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      string(p.Role),
		Status:    string(p.Status),
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
		Age:       p.Age,
		Height:    p.Height,
		Weight:    p.Weight,
	}
	if p.Subscription != nil {
		resp.Subscription = &SubscriptionResponse{
			Status:      string(p.Subscription.Status),
			TrialEndsAt: p.Subscription.TrialEndsAt,
		}
	}
	return resp
}

// StudentResponse is the student record projection.
type StudentResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Status     string    `json:"status"`
	PersonalID *string   `json:"personal_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewStudentResponse maps the domain record.
func NewStudentResponse(s *domain.StudentRecord) StudentResponse {
	return StudentResponse{
		ID:         s.ID,
		Name:       s.Name,
		Email:      s.Email,
		Status:     string(s.Status),
		PersonalID: s.PersonalID,
		CreatedAt:  s.CreatedAt,
	}
}
