package repository

import (
	"context"
	"time"

	"github.com/coachhub/coach-platform/internal/domain"
)

const profilesCollection = "profiles"

// ProfileRepository defines persistence access for account profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	Save(ctx context.Context, profile *domain.Profile) error
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Profile, error)
}

type profileRepository struct {
	docs DocumentRepository
}

// NewProfileRepository returns a document-store-backed implementation.
func NewProfileRepository(docs DocumentRepository) ProfileRepository {
	return &profileRepository{docs: docs}
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	doc, err := r.docs.Get(ctx, profilesCollection, id)
	if err != nil {
		return nil, err
	}
	return decodeProfile(doc)
}

func (r *profileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	return r.docs.Set(ctx, profilesCollection, profile.ID, encodeProfile(profile))
}

func (r *profileRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Profile, error) {
	docs, err := r.docs.Query(ctx, profilesCollection, Filter{Field: "role", Value: string(role)})
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.Profile, 0, len(docs))
	for i := range docs {
		profile, err := decodeProfile(&docs[i])
		if err != nil {
			// skip malformed documents rather than failing the listing
			continue
		}
		profiles = append(profiles, *profile)
	}
	return profiles, nil
}

func encodeProfile(p *domain.Profile) map[string]any {
	data := map[string]any{
		"name":       p.Name,
		"email":      p.Email,
		"role":       string(p.Role),
		"status":     string(p.Status),
		"avatar_url": p.AvatarURL,
		"created_at": p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if p.Subscription != nil {
		data["subscription"] = map[string]any{
			"status":        string(p.Subscription.Status),
			"trial_ends_at": p.Subscription.TrialEndsAt.UTC().Format(time.RFC3339Nano),
		}
	}
	if p.Age != nil {
		data["age"] = *p.Age
	}
	if p.Height != nil {
		data["height"] = *p.Height
	}
	if p.Weight != nil {
		data["weight"] = *p.Weight
	}
	return data
}

// decodeProfile maps a raw document onto the typed profile. Documents with a
// missing or unknown role discriminant are treated as not found.
func decodeProfile(doc *Document) (*domain.Profile, error) {
	rawRole, _ := doc.Data["role"].(string)
	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return nil, ErrNotFound
	}

	profile := &domain.Profile{
		ID:        doc.ID,
		Role:      role,
		Name:      stringField(doc.Data, "name"),
		Email:     stringField(doc.Data, "email"),
		Status:    domain.ProfileStatus(stringField(doc.Data, "status")),
		AvatarURL: stringField(doc.Data, "avatar_url"),
		CreatedAt: timeField(doc.Data, "created_at"),
	}

	if raw, ok := doc.Data["subscription"].(map[string]any); ok {
		profile.Subscription = &domain.Subscription{
			Status:      domain.SubscriptionStatus(stringField(raw, "status")),
			TrialEndsAt: timeField(raw, "trial_ends_at"),
		}
	}

	if v, ok := floatField(doc.Data, "age"); ok {
		age := int(v)
		profile.Age = &age
	}
	if v, ok := floatField(doc.Data, "height"); ok {
		height := v
		profile.Height = &height
	}
	if v, ok := floatField(doc.Data, "weight"); ok {
		weight := v
		profile.Weight = &weight
	}

	return profile, nil
}

// floatField reads a numeric field, tolerating both JSON-decoded float64
// values and in-process int values.
func floatField(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func stringField(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func timeField(data map[string]any, key string) time.Time {
	raw, _ := data[key].(string)
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
