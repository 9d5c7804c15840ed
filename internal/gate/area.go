package gate

import "github.com/coachhub/coach-platform/internal/domain"

// Area configures one protected region of the application: which roles may
// enter, where to send rejected visitors, and whether the area demands a
// completed profile.
type Area struct {
	Name       string
	LoginRoute string
	// Predicate decides whether a resolved profile's role may enter.
	Predicate func(domain.Role) bool
	// Completion, when set, redirects profiles missing their body
	// measurements to Route unless the visitor is already there.
	Completion *CompletionCheck
}

// CompletionCheck points at the profile-completion route.
type CompletionCheck struct {
	Route string
}

func anyRole(domain.Role) bool { return true }

// AdminArea admits administrators only.
func AdminArea() Area {
	return Area{
		Name:       "admin",
		LoginRoute: "/admin/login",
		Predicate:  func(r domain.Role) bool { return r == domain.RoleAdmin },
	}
}

// DashboardArea admits any profile-bearing identity and enforces the
// profile-completion redirect. The relaxed predicate mirrors the product's
// single-login funnel; see DESIGN.md.
func DashboardArea() Area {
	return Area{
		Name:       "dashboard",
		LoginRoute: "/login",
		Predicate:  anyRole,
		Completion: &CompletionCheck{Route: "/dashboard/profile"},
	}
}

// NutritionistArea admits any profile-bearing identity.
func NutritionistArea() Area {
	return Area{
		Name:       "nutritionist",
		LoginRoute: "/nutritionist/login",
		Predicate:  anyRole,
	}
}

// PersonalArea admits any profile-bearing identity.
func PersonalArea() Area {
	return Area{
		Name:       "personal",
		LoginRoute: "/personal/login",
		Predicate:  anyRole,
	}
}
