package gate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coachhub/coach-platform/internal/domain"
	"github.com/coachhub/coach-platform/internal/events"
	"github.com/coachhub/coach-platform/internal/identity"
	"github.com/coachhub/coach-platform/internal/observability"
)

// Router abstracts client navigation. Replace is a forced,
// non-history-preserving redirect; Push is ordinary navigation.
type Router interface {
	Replace(path string)
	Push(path string)
}

// Notifier surfaces fire-and-forget user-facing notifications.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// ProfileSource resolves the durable profile for a subject id.
type ProfileSource interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

// SessionTerminator revokes the named subject's provider session. Failures
// are non-fatal for the gate: denial redirects happen whether or not
// sign-out succeeds.
type SessionTerminator interface {
	SignOut(ctx context.Context, subjectID string) error
}

// State is the gate's lifecycle position.
type State int

const (
	StateInitializing State = iota
	StatePending
	StateAuthorized
	StateUnauthorized
)

// RenderOutcome is what the protected area should show.
type RenderOutcome int

const (
	RenderLoading RenderOutcome = iota
	RenderContent
	RenderNone
)

// Deps bundles the gate's collaborators.
type Deps struct {
	Profiles      ProfileSource
	Sessions      SessionTerminator
	Router        Router
	Notifier      Notifier
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	LookupTimeout time.Duration
}

// Gate guards one protected area. It resolves identity-change events into a
// Session and one of three render outcomes: loading placeholder while
// pending, protected content once authorized, nothing while redirecting.
// Content is only ever reachable from the authorized state.
type Gate struct {
	area Area
	path string
	deps Deps
	ctx  context.Context

	mu          sync.Mutex
	released    bool
	redirected  bool
	state       State
	session     domain.Session
	profile     *domain.Profile
	unsubscribe func()
}

// New builds a gate for the area. path is the route the visitor is on,
// consulted by the profile-completion check to avoid redirect loops.
func New(area Area, path string, deps Deps) *Gate {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.LookupTimeout <= 0 {
		deps.LookupTimeout = 5 * time.Second
	}
	return &Gate{area: area, path: path, deps: deps}
}

// Mount subscribes to the identity stream and begins resolution. ctx bounds
// the gate's outbound work; cancelling it aborts an in-flight profile lookup.
func (g *Gate) Mount(ctx context.Context, stream identity.Stream) {
	if ctx == nil {
		ctx = context.Background()
	}
	g.ctx = ctx

	g.mu.Lock()
	g.state = StatePending
	g.session = domain.Session{State: domain.ResolutionPending}
	g.mu.Unlock()

	g.unsubscribe = stream.SubscribeIdentityChanges(g.handleIdentityEvent)
}

// Unmount releases the subscription. No state transitions happen afterwards.
func (g *Gate) Unmount() {
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
	g.mu.Lock()
	g.released = true
	g.mu.Unlock()
}

// Render maps the current state to a render outcome.
func (g *Gate) Render() RenderOutcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case StateAuthorized:
		return RenderContent
	case StateUnauthorized:
		return RenderNone
	default:
		return RenderLoading
	}
}

// State returns the gate's lifecycle position.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns the current session value.
func (g *Gate) Session() domain.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Profile returns the resolved profile, nil unless authorized.
func (g *Gate) Profile() *domain.Profile {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.profile
}
