package gate

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/coachhub/coach-platform/internal/domain"
	"github.com/coachhub/coach-platform/internal/events"
	"github.com/coachhub/coach-platform/internal/observability"
	apperrors "github.com/coachhub/coach-platform/pkg/util"
)

const profileKey = "gate_profile"

// TokenIdentifier resolves a bearer token to an identity.
type TokenIdentifier interface {
	IdentityFromToken(ctx context.Context, token string) (*domain.Identity, error)
}

// Middleware adapts the gate to fiber: each request mounts a fresh gate fed
// by a single identity event derived from the bearer token.
type Middleware struct {
	area          Area
	ids           TokenIdentifier
	profiles      ProfileSource
	sessions      SessionTerminator
	notifier      Notifier
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	lookupTimeout time.Duration
}

// NewMiddleware constructs the per-area middleware.
func NewMiddleware(
	area Area,
	ids TokenIdentifier,
	profiles ProfileSource,
	sessions SessionTerminator,
	notifier Notifier,
	dispatcher events.Dispatcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
	lookupTimeout time.Duration,
) *Middleware {
	return &Middleware{
		area:          area,
		ids:           ids,
		profiles:      profiles,
		sessions:      sessions,
		notifier:      notifier,
		dispatcher:    dispatcher,
		metrics:       metrics,
		logger:        logger,
		lookupTimeout: lookupTimeout,
	}
}

// Handle gates the request.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	// The login route lives under the area prefix; never gate it.
	if c.Path() == m.area.LoginRoute {
		return c.Next()
	}

	router := &fiberRouter{c: c}
	g := New(m.area, c.Path(), Deps{
		Profiles:      m.profiles,
		Sessions:      m.sessions,
		Router:        router,
		Notifier:      m.notifier,
		Dispatcher:    m.dispatcher,
		Metrics:       m.metrics,
		Logger:        m.logger,
		LookupTimeout: m.lookupTimeout,
	})

	g.Mount(c.Context(), requestStream{identity: m.identityFromRequest(c)})
	defer g.Unmount()

	if g.Render() != RenderContent {
		if router.redirected {
			return nil
		}
		return apperrors.NewUnauthorized("authentication required")
	}

	c.Locals(profileKey, g.Profile())
	if router.redirected {
		// profile-completion redirect already wrote the response
		return nil
	}
	return c.Next()
}

func (m *Middleware) identityFromRequest(c *fiber.Ctx) *domain.Identity {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil
	}

	id, err := m.ids.IdentityFromToken(c.Context(), parts[1])
	if err != nil {
		return nil
	}
	return id
}

// ProfileFromContext retrieves the profile resolved by the gate.
func ProfileFromContext(c *fiber.Ctx) (*domain.Profile, bool) {
	val := c.Locals(profileKey)
	if val == nil {
		return nil, false
	}
	profile, ok := val.(*domain.Profile)
	return profile, ok
}

// requestStream delivers the request's identity as a single event.
type requestStream struct {
	identity *domain.Identity
}

func (s requestStream) SubscribeIdentityChanges(fn func(domain.IdentityEvent)) func() {
	fn(domain.IdentityEvent{Identity: s.identity})
	return func() {}
}

// fiberRouter maps gate navigation onto HTTP redirects.
type fiberRouter struct {
	c          *fiber.Ctx
	redirected bool
}

func (r *fiberRouter) Replace(path string) {
	if r.redirected {
		return
	}
	r.redirected = true
	_ = r.c.Redirect(path, fiber.StatusSeeOther)
}

func (r *fiberRouter) Push(path string) {
	if r.redirected {
		return
	}
	r.redirected = true
	_ = r.c.Redirect(path, fiber.StatusFound)
}
