package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachhub/coach-platform/internal/domain"
	"github.com/coachhub/coach-platform/internal/events"
	"github.com/coachhub/coach-platform/internal/repository"
)

type fakeStream struct {
	fn           func(domain.IdentityEvent)
	unsubscribed bool
	fireOnMount  *domain.Identity
	fireNow      bool
}

func (s *fakeStream) SubscribeIdentityChanges(fn func(domain.IdentityEvent)) func() {
	s.fn = fn
	if s.fireNow {
		fn(domain.IdentityEvent{Identity: s.fireOnMount})
	}
	return func() {
		s.unsubscribed = true
	}
}

func immediateStream(id *domain.Identity) *fakeStream {
	return &fakeStream{fireOnMount: id, fireNow: true}
}

type fakeProfiles struct {
	getByIDFn func(ctx context.Context, id string) (*domain.Profile, error)
}

func (f *fakeProfiles) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

type fakeSessions struct {
	calls     int
	subjects  []string
	signOutFn func(ctx context.Context, subjectID string) error
}

func (f *fakeSessions) SignOut(ctx context.Context, subjectID string) error {
	f.calls++
	f.subjects = append(f.subjects, subjectID)
	if f.signOutFn != nil {
		return f.signOutFn(ctx, subjectID)
	}
	return nil
}

type fakeDispatcher struct {
	published []events.Event
}

func (f *fakeDispatcher) Publish(_ context.Context, ev events.Event) error {
	f.published = append(f.published, ev)
	return nil
}

func (f *fakeDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type fakeRouter struct {
	replaces []string
	pushes   []string
}

func (f *fakeRouter) Replace(path string) { f.replaces = append(f.replaces, path) }
func (f *fakeRouter) Push(path string)    { f.pushes = append(f.pushes, path) }

type fakeNotifier struct {
	notifications []domain.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n domain.Notification) {
	f.notifications = append(f.notifications, n)
}

func profileWithRole(role domain.Role) *domain.Profile {
	age, height, weight := 30, 1.75, 70.0
	return &domain.Profile{
		ID:     "subject-1",
		Name:   "Ana Silva",
		Email:  "ana@example.com",
		Role:   role,
		Status: domain.ProfileStatusActive,
		Age:    &age, Height: &height, Weight: &weight,
	}
}

func newTestGate(area Area, path string, profiles ProfileSource) (*Gate, *fakeRouter, *fakeNotifier, *fakeSessions) {
	router := &fakeRouter{}
	notifier := &fakeNotifier{}
	sessions := &fakeSessions{}
	g := New(area, path, Deps{
		Profiles:      profiles,
		Sessions:      sessions,
		Router:        router,
		Notifier:      notifier,
		LookupTimeout: time.Second,
	})
	return g, router, notifier, sessions
}

func TestUnauthenticatedRedirectsToAreaLogin(t *testing.T) {
	areas := []Area{AdminArea(), DashboardArea(), NutritionistArea(), PersonalArea()}

	for _, area := range areas {
		t.Run(area.Name, func(t *testing.T) {
			g, router, notifier, sessions := newTestGate(area, "/"+area.Name+"/home", &fakeProfiles{})

			g.Mount(context.Background(), immediateStream(nil))
			defer g.Unmount()

			assert.Equal(t, StateUnauthorized, g.State())
			assert.Equal(t, RenderNone, g.Render())
			require.Equal(t, []string{area.LoginRoute}, router.replaces)
			assert.Empty(t, notifier.notifications, "missing identity is not an error")
			assert.Zero(t, sessions.calls)
			assert.Equal(t, domain.ResolutionResolved, g.Session().State)
		})
	}
}

func TestAdminGateRejectsNonAdminRoles(t *testing.T) {
	roles := []domain.Role{domain.RoleStudent, domain.RolePersonalTrainer, domain.RoleNutritionist}

	for _, role := range roles {
		t.Run(string(role), func(t *testing.T) {
			profiles := &fakeProfiles{getByIDFn: func(context.Context, string) (*domain.Profile, error) {
				return profileWithRole(role), nil
			}}
			g, router, notifier, sessions := newTestGate(AdminArea(), "/admin/home", profiles)

			g.Mount(context.Background(), immediateStream(&domain.Identity{SubjectID: "subject-1"}))
			defer g.Unmount()

			assert.Equal(t, RenderNone, g.Render(), "admin content must never render")
			assert.Nil(t, g.Profile())
			assert.Equal(t, 1, sessions.calls)
			require.Len(t, notifier.notifications, 1)
			assert.Equal(t, "Acesso negado", notifier.notifications[0].Title)
			assert.Equal(t, []string{"/admin/login"}, router.replaces)
		})
	}
}

func TestAdminGateAdmitsAdmin(t *testing.T) {
	profiles := &fakeProfiles{getByIDFn: func(context.Context, string) (*domain.Profile, error) {
		return profileWithRole(domain.RoleAdmin), nil
	}}
	g, router, _, sessions := newTestGate(AdminArea(), "/admin/home", profiles)

	g.Mount(context.Background(), immediateStream(&domain.Identity{SubjectID: "subject-1"}))
	defer g.Unmount()

	assert.Equal(t, RenderContent, g.Render())
	require.NotNil(t, g.Profile())
	assert.Empty(t, router.replaces)
	assert.Zero(t, sessions.calls)
	assert.Equal(t, domain.RoleAdmin, g.Session().Role)
}

func TestRelaxedAreasAdmitAnyProfileRole(t *testing.T) {
	areas := []Area{DashboardArea(), NutritionistArea(), PersonalArea()}

	for _, area := range areas {
		t.Run(area.Name, func(t *testing.T) {
			profiles := &fakeProfiles{getByIDFn: func(context.Context, string) (*domain.Profile, error) {
				return profileWithRole(domain.RoleStudent), nil
			}}
			g, router, _, _ := newTestGate(area, "/"+area.Name+"/home", profiles)

			g.Mount(context.Background(), immediateStream(&domain.Identity{SubjectID: "subject-1"}))
			defer g.Unmount()

			assert.Equal(t, RenderContent, g.Render())
			assert.Empty(t, router.replaces)
		})
	}
}

func TestMissingProfileFailsClosed(t *testing.T) {
	g, router, notifier, sessions := newTestGate(DashboardArea(), "/dashboard/home", &fakeProfiles{})

	g.Mount(context.Background(), immediateStream(&domain.Identity{SubjectID: "ghost"}))
	defer g.Unmount()

	assert.Equal(t, RenderNone, g.Render())
	assert.Equal(t, 1, sessions.calls)
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, "Acesso negado", notifier.notifications[0].Title)
	assert.Equal(t, []string{"/login"}, router.replaces)
}

func TestTransientLookupFailureFailsClosed(t *testing.T) {
	profiles := &fakeProfiles{getByIDFn: func(context.Context, string) (*domain.Profile, error) {
		return nil, errors.New("connection reset")
	}}
	g, router, notifier, sessions := newTestGate(DashboardArea(), "/dashboard/home", profiles)

	g.Mount(context.Background(), immediateStream(&domain.Identity{SubjectID: "subject-1"}))
	defer g.Unmount()

	assert.Equal(t, RenderNone, g.Render())
	assert.Equal(t, 1, sessions.calls)
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, "Erro de autenticação", notifier.notifications[0].Title)
	assert.Equal(t, []string{"/login"}, router.replaces)
}

func TestHungLookupTimesOutAsTransientFailure(t *testing.T) {
	profiles := &fakeProfiles{getByIDFn: func(ctx context.Context, _ string) (*domain.Profile, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	router := &fakeRouter{}
	notifier := &fakeNotifier{}
	g := New(DashboardArea(), "/dashboard/home", Deps{
		Profiles:      profiles,
		Sessions:      &fakeSessions{},
		Router:        router,
		Notifier:      notifier,
		LookupTimeout: 10 * time.Millisecond,
	})

	g.Mount(context.Background(), immediateStream(&domain.Identity{SubjectID: "subject-1"}))
	defer g.Unmount()

	assert.Equal(t, RenderNone, g.Render(), "a hung lookup must not leave the loading state forever")
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, "Erro de autenticação", notifier.notifications[0].Title)
	assert.Equal(t, []string{"/login"}, router.replaces)
}

func TestSignOutFailureDoesNotChangeDenialBehavior(t *testing.T) {
	run := func(signOutErr error) ([]string, RenderOutcome) {
		profiles := &fakeProfiles{getByIDFn: func(context.Context, string) (*domain.Profile, error) {
			return profileWithRole(domain.RoleStudent), nil
		}}
		g, router, _, sessions := newTestGate(AdminArea(), "/admin/home", profiles)
		sessions.signOutFn = func(context.Context, string) error { return signOutErr }

		g.Mount(context.Background(), immediateStream(&domain.Identity{SubjectID: "subject-1"}))
		defer g.Unmount()
		return router.replaces, g.Render()
	}

	okReplaces, okRender := run(nil)
	failReplaces, failRender := run(errors.New("provider unavailable"))

	assert.Equal(t, okReplaces, failReplaces)
	assert.Equal(t, okRender, failRender)
}

func TestDashboardRedirectsIncompleteProfileToCompletion(t *testing.T) {
	incomplete := profileWithRole(domain.RoleStudent)
	incomplete.Height = nil
	incomplete.Weight = nil
	profiles := &fakeProfiles{getByIDFn: func(context.Context, string) (*domain.Profile, error) {
		return incomplete, nil
	}}

	g, router, _, _ := newTestGate(DashboardArea(), "/dashboard/home", profiles)
	g.Mount(context.Background(), immediateStream(&domain.Identity{SubjectID: "subject-1"}))
	defer g.Unmount()

	assert.Equal(t, StateAuthorized, g.State())
	assert.Equal(t, []string{"/dashboard/profile"}, router.replaces)
}

func TestCompletionRouteDoesNotRedirectLoop(t *testing.T) {
	incomplete := profileWithRole(domain.RoleStudent)
	incomplete.Height = nil
	incomplete.Weight = nil
	profiles := &fakeProfiles{getByIDFn: func(context.Context, string) (*domain.Profile, error) {
		return incomplete, nil
	}}

	g, router, _, _ := newTestGate(DashboardArea(), "/dashboard/profile", profiles)
	g.Mount(context.Background(), immediateStream(&domain.Identity{SubjectID: "subject-1"}))
	defer g.Unmount()

	assert.Equal(t, RenderContent, g.Render())
	assert.Empty(t, router.replaces, "already on the completion route")
}

func TestOtherAreasSkipCompletenessCheck(t *testing.T) {
	incomplete := profileWithRole(domain.RoleStudent)
	incomplete.Age = nil
	profiles := &fakeProfiles{getByIDFn: func(context.Context, string) (*domain.Profile, error) {
		return incomplete, nil
	}}

	g, router, _, _ := newTestGate(PersonalArea(), "/personal/home", profiles)
	g.Mount(context.Background(), immediateStream(&domain.Identity{SubjectID: "subject-1"}))
	defer g.Unmount()

	assert.Equal(t, RenderContent, g.Render())
	assert.Empty(t, router.replaces)
}

func TestLoadingUntilStreamResolves(t *testing.T) {
	stream := &fakeStream{}
	g, router, _, _ := newTestGate(DashboardArea(), "/dashboard/home", &fakeProfiles{})

	g.Mount(context.Background(), stream)
	defer g.Unmount()

	assert.Equal(t, RenderLoading, g.Render())
	assert.Empty(t, router.replaces)

	stream.fn(domain.IdentityEvent{Identity: nil})
	assert.Equal(t, RenderNone, g.Render())
}

func TestRedirectFiresExactlyOnce(t *testing.T) {
	stream := &fakeStream{}
	g, router, _, _ := newTestGate(DashboardArea(), "/dashboard/home", &fakeProfiles{})

	g.Mount(context.Background(), stream)
	defer g.Unmount()

	stream.fn(domain.IdentityEvent{Identity: nil})
	stream.fn(domain.IdentityEvent{Identity: nil})

	assert.Equal(t, []string{"/login"}, router.replaces)
}

func TestNoTransitionsAfterUnmount(t *testing.T) {
	stream := &fakeStream{}
	profiles := &fakeProfiles{getByIDFn: func(context.Context, string) (*domain.Profile, error) {
		return profileWithRole(domain.RoleAdmin), nil
	}}
	g, router, _, _ := newTestGate(AdminArea(), "/admin/home", profiles)

	g.Mount(context.Background(), stream)
	fn := stream.fn
	g.Unmount()
	require.True(t, stream.unsubscribed)

	// a misbehaving stream delivering after release must be ignored
	fn(domain.IdentityEvent{Identity: &domain.Identity{SubjectID: "subject-1"}})

	assert.Equal(t, StatePending, g.State())
	assert.Empty(t, router.replaces)
}

func TestAuthorizedThenSignOutEventDeniesAccess(t *testing.T) {
	stream := &fakeStream{}
	profiles := &fakeProfiles{getByIDFn: func(context.Context, string) (*domain.Profile, error) {
		return profileWithRole(domain.RoleAdmin), nil
	}}
	g, router, _, _ := newTestGate(AdminArea(), "/admin/home", profiles)

	g.Mount(context.Background(), stream)
	defer g.Unmount()

	stream.fn(domain.IdentityEvent{Identity: &domain.Identity{SubjectID: "subject-1"}})
	require.Equal(t, RenderContent, g.Render())

	stream.fn(domain.IdentityEvent{Identity: nil})
	assert.Equal(t, RenderNone, g.Render())
	assert.Equal(t, []string{"/admin/login"}, router.replaces)
}

func TestDenialSignsOutOnlyTheDeniedSubject(t *testing.T) {
	profiles := &fakeProfiles{getByIDFn: func(_ context.Context, id string) (*domain.Profile, error) {
		p := profileWithRole(domain.RoleStudent)
		p.ID = id
		return p, nil
	}}
	g, _, _, sessions := newTestGate(AdminArea(), "/admin/home", profiles)

	g.Mount(context.Background(), immediateStream(&domain.Identity{SubjectID: "subject-2"}))
	defer g.Unmount()

	require.Equal(t, 1, sessions.calls)
	assert.Equal(t, []string{"subject-2"}, sessions.subjects,
		"denial must revoke the denied visitor's own session")
}

func TestDenyPublishesAccessDeniedEvent(t *testing.T) {
	profiles := &fakeProfiles{getByIDFn: func(context.Context, string) (*domain.Profile, error) {
		return profileWithRole(domain.RoleStudent), nil
	}}
	dispatcher := &fakeDispatcher{}
	g := New(AdminArea(), "/admin/home", Deps{
		Profiles:      profiles,
		Sessions:      &fakeSessions{},
		Router:        &fakeRouter{},
		Notifier:      &fakeNotifier{},
		Dispatcher:    dispatcher,
		LookupTimeout: time.Second,
	})

	g.Mount(context.Background(), immediateStream(&domain.Identity{SubjectID: "subject-1"}))
	defer g.Unmount()

	require.Len(t, dispatcher.published, 1)
	ev := dispatcher.published[0]
	assert.Equal(t, events.EventAccessDenied, ev.Type)
	assert.Equal(t, "subject-1", ev.SubjectID)

	payload, ok := ev.Payload.(events.AccessDeniedPayload)
	require.True(t, ok)
	assert.Equal(t, "admin", payload.Area)
	assert.Equal(t, "forbidden", payload.Reason)
}

func TestCancelledMountContextAbortsLookup(t *testing.T) {
	profiles := &fakeProfiles{getByIDFn: func(ctx context.Context, _ string) (*domain.Profile, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	g, router, notifier, _ := newTestGate(DashboardArea(), "/dashboard/home", profiles)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g.Mount(ctx, immediateStream(&domain.Identity{SubjectID: "subject-1"}))
	defer g.Unmount()

	assert.Equal(t, RenderNone, g.Render())
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, "Erro de autenticação", notifier.notifications[0].Title)
	assert.Equal(t, []string{"/login"}, router.replaces)
}
