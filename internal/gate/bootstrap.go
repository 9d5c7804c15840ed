package gate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coachhub/coach-platform/internal/domain"
	"github.com/coachhub/coach-platform/internal/events"
	"github.com/coachhub/coach-platform/internal/repository"
)

// Denial reasons, recorded in metrics and logs.
const (
	reasonUnauthenticated = "unauthenticated"
	reasonForbidden       = "forbidden"
	reasonProfileMissing  = "profile_missing"
	reasonBackendError    = "backend_error"
)

var (
	deniedNotification = domain.Notification{
		Severity:    domain.SeverityError,
		Title:       "Acesso negado",
		Description: "Você não tem permissão para acessar esta área.",
	}
	authErrorNotification = domain.Notification{
		Severity:    domain.SeverityError,
		Title:       "Erro de autenticação",
		Description: "Não foi possível validar sua sessão. Tente novamente.",
	}
)

// handleIdentityEvent is the session bootstrapper: it resolves one
// identity-change event into a terminal session state. Resolution is
// fail-closed; any failure ends unauthorized with sign-out and redirect.
func (g *Gate) handleIdentityEvent(ev domain.IdentityEvent) {
	g.mu.Lock()
	if g.released || g.state == StateUnauthorized {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	if ev.Identity == nil {
		// Not an error: the visitor is simply not signed in.
		g.deny(ev.Identity, reasonUnauthenticated, nil, false)
		return
	}

	profile, err := g.lookupProfile(ev.Identity.SubjectID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		g.deny(ev.Identity, reasonProfileMissing, &deniedNotification, true)
	case err != nil:
		g.deps.Logger.Warn("profile lookup failed",
			zap.String("area", g.area.Name),
			zap.Error(err))
		g.deny(ev.Identity, reasonBackendError, &authErrorNotification, true)
	case !g.area.Predicate(profile.Role):
		g.deny(ev.Identity, reasonForbidden, &deniedNotification, true)
	default:
		g.authorize(ev.Identity, profile)
	}
}

func (g *Gate) lookupProfile(subjectID string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(g.mountCtx(), g.deps.LookupTimeout)
	defer cancel()
	return g.deps.Profiles.GetByID(ctx, subjectID)
}

func (g *Gate) mountCtx() context.Context {
	if g.ctx != nil {
		return g.ctx
	}
	return context.Background()
}

// deny resolves the session unauthorized. The notification fires first, then
// sign-out for the denied subject, then exactly one redirect to the area's
// login route. A sign-out failure never suppresses the redirect.
func (g *Gate) deny(id *domain.Identity, reason string, notification *domain.Notification, signOut bool) {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.state = StateUnauthorized
	g.session = domain.Session{Identity: id, State: domain.ResolutionResolved}
	g.profile = nil
	redirect := !g.redirected
	g.redirected = true
	g.mu.Unlock()

	g.deps.Metrics.RecordGateDenial(g.area.Name, reason)

	subjectID := ""
	if id != nil {
		subjectID = id.SubjectID
	}

	ctx := g.mountCtx()
	if g.deps.Dispatcher != nil {
		_ = g.deps.Dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAccessDenied,
			SubjectID: subjectID,
			Timestamp: time.Now(),
			Payload:   events.AccessDeniedPayload{Area: g.area.Name, Reason: reason},
		})
	}
	if notification != nil && g.deps.Notifier != nil {
		g.deps.Notifier.Notify(ctx, *notification)
	}
	if signOut && g.deps.Sessions != nil {
		if err := g.deps.Sessions.SignOut(ctx, subjectID); err != nil {
			g.deps.Logger.Warn("sign-out failed during denial",
				zap.String("area", g.area.Name),
				zap.String("subject", subjectID),
				zap.Error(err))
		}
	}
	if redirect {
		g.deps.Router.Replace(g.area.LoginRoute)
	}
}

func (g *Gate) authorize(id *domain.Identity, profile *domain.Profile) {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.state = StateAuthorized
	g.session = domain.Session{Identity: id, Role: profile.Role, State: domain.ResolutionResolved}
	g.profile = profile

	needsCompletion := g.area.Completion != nil &&
		!profile.Complete() &&
		g.path != g.area.Completion.Route &&
		!g.redirected
	if needsCompletion {
		g.redirected = true
	}
	g.mu.Unlock()

	if needsCompletion {
		g.deps.Router.Replace(g.area.Completion.Route)
	}
}
