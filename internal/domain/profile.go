package domain

import "time"

// Role enumerates the account types served by the marketplace.
type Role string

const (
	RoleStudent         Role = "STUDENT"
	RolePersonalTrainer Role = "PERSONAL_TRAINER"
	RoleNutritionist    Role = "NUTRITIONIST"
	RoleAdmin           Role = "ADMIN"
)

// ParseRole validates a raw role discriminant.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleStudent, RolePersonalTrainer, RoleNutritionist, RoleAdmin:
		return Role(raw), true
	}
	return "", false
}

// Professional reports whether the role sells coaching services and is
// therefore subject to the trial subscription window.
func (r Role) Professional() bool {
	return r == RolePersonalTrainer || r == RoleNutritionist
}

// ProfileStatus represents lifecycle states for an account profile.
type ProfileStatus string

const (
	ProfileStatusActive  ProfileStatus = "ACTIVE"
	ProfileStatusPending ProfileStatus = "PENDING"
)

// SubscriptionStatus tracks the billing state of a professional account.
type SubscriptionStatus string

const (
	SubscriptionTrial   SubscriptionStatus = "TRIAL"
	SubscriptionActive  SubscriptionStatus = "ACTIVE"
	SubscriptionExpired SubscriptionStatus = "EXPIRED"
)

// TrialWindow is the period after registration during which a professional
// account runs on a trial subscription.
const TrialWindow = 15 * 24 * time.Hour

// Subscription is the billing block attached to professional profiles.
type Subscription struct {
	Status      SubscriptionStatus
	TrialEndsAt time.Time
}

// Profile is the durable application record for an account, keyed by the
// identity provider's subject id. Role is immutable after creation.
type Profile struct {
	ID           string
	Name         string
	Email        string
	Role         Role
	Status       ProfileStatus
	AvatarURL    string
	CreatedAt    time.Time
	Subscription *Subscription

	// Body measurements filled in after first login; the dashboard area
	// redirects to the profile-completion route while any is missing.
	Age    *int
	Height *float64
	Weight *float64
}

// Complete reports whether the measurements required by the dashboard
// area have been filled in.
func (p *Profile) Complete() bool {
	return p.Age != nil && p.Height != nil && p.Weight != nil
}
