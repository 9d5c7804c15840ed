package identity

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coachhub/coach-platform/internal/config"
	"github.com/coachhub/coach-platform/internal/events"
	"github.com/coachhub/coach-platform/internal/repository"
)

type memIdentityRepo struct {
	byEmail map[string]*repository.IdentityRecord
	nextID  int
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{byEmail: make(map[string]*repository.IdentityRecord)}
}

func (m *memIdentityRepo) Create(_ context.Context, record *repository.IdentityRecord) error {
	if _, ok := m.byEmail[record.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	m.nextID++
	record.ID = "subject-" + strconv.Itoa(m.nextID)
	m.byEmail[record.Email] = record
	return nil
}

func (m *memIdentityRepo) GetByID(_ context.Context, id string) (*repository.IdentityRecord, error) {
	for _, r := range m.byEmail {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memIdentityRepo) GetByEmail(_ context.Context, email string) (*repository.IdentityRecord, error) {
	r, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

func (m *memIdentityRepo) UpdateProfile(ctx context.Context, id, displayName, photoURL string) error {
	r, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	r.DisplayName = displayName
	r.PhotoURL = photoURL
	return nil
}

func (m *memIdentityRepo) SetVerificationToken(ctx context.Context, id, token string) error {
	r, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	r.VerificationToken = &token
	return nil
}

func (m *memIdentityRepo) MarkVerified(_ context.Context, token string) (*repository.IdentityRecord, error) {
	for _, r := range m.byEmail {
		if r.VerificationToken != nil && *r.VerificationToken == token {
			r.EmailVerified = true
			r.VerificationToken = nil
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memSessionRepo struct {
	tokens map[string]string
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{tokens: make(map[string]string)}
}

func (m *memSessionRepo) Save(_ context.Context, subjectID, token string, _ time.Duration) error {
	m.tokens[subjectID] = token
	return nil
}

func (m *memSessionRepo) Get(_ context.Context, subjectID string) (string, error) {
	token, ok := m.tokens[subjectID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return token, nil
}

func (m *memSessionRepo) Delete(_ context.Context, subjectID string) error {
	delete(m.tokens, subjectID)
	return nil
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:         "test-secret",
		AccessTokenTTLMin: 60,
		SessionTTLMinutes: 60,
		BcryptCost:        4,
		MinPasswordLength: 6,
		SignUpEnabled:     true,
	}
}

func newTestProvider(t *testing.T) (*LocalProvider, *memSessionRepo) {
	t.Helper()
	sessions := newMemSessionRepo()
	p := NewLocalProvider(testAuthConfig(), newMemIdentityRepo(), sessions,
		events.NewInMemoryDispatcher(), zap.NewNop())
	return p, sessions
}

func signUpAndIn(t *testing.T, p *LocalProvider, email string) (subjectID, token string) {
	t.Helper()
	ctx := context.Background()
	id, err := p.CreateIdentity(ctx, email, "senha123")
	require.NoError(t, err)
	signed, token, _, err := p.SignIn(ctx, email, "senha123")
	require.NoError(t, err)
	require.Equal(t, id.SubjectID, signed.SubjectID)
	return signed.SubjectID, token
}

func TestSignOutRevokesOnlyTheNamedSubject(t *testing.T) {
	p, sessions := newTestProvider(t)
	ctx := context.Background()

	ana, _ := signUpAndIn(t, p, "ana@example.com")
	bruno, _ := signUpAndIn(t, p, "bruno@example.com")

	require.NoError(t, p.SignOut(ctx, ana))

	_, err := sessions.Get(ctx, ana)
	assert.ErrorIs(t, err, repository.ErrNotFound, "ana's session is revoked")

	_, err = sessions.Get(ctx, bruno)
	assert.NoError(t, err, "bruno signed in later and must keep his session")
}

func TestSignOutWithoutSubjectIsNoOp(t *testing.T) {
	p, sessions := newTestProvider(t)
	ctx := context.Background()

	ana, _ := signUpAndIn(t, p, "ana@example.com")

	require.NoError(t, p.SignOut(ctx, ""))
	_, err := sessions.Get(ctx, ana)
	assert.NoError(t, err, "an anonymous sign-out must not revoke anyone")

	require.NoError(t, p.SignOut(ctx, ana))
	require.NoError(t, p.SignOut(ctx, ana), "repeated sign-out stays safe")
}

func TestSignOutRevokesBearerToken(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	ana, token := signUpAndIn(t, p, "ana@example.com")

	id, err := p.IdentityFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, ana, id.SubjectID)

	require.NoError(t, p.SignOut(ctx, ana))

	_, err = p.IdentityFromToken(ctx, token)
	assert.Error(t, err, "a revoked session must not resolve")
}
