package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coachhub/coach-platform/internal/config"
	"github.com/coachhub/coach-platform/internal/domain"
	"github.com/coachhub/coach-platform/internal/events"
	"github.com/coachhub/coach-platform/internal/repository"
)

// LocalProvider implements the identity-provider contract against the
// service's own identities table, with live sessions tracked in Redis.
// Signing in sets the current identity and notifies subscribers; signing out
// revokes the named subject's session.
type LocalProvider struct {
	identities repository.IdentityRepository
	sessions   repository.SessionRepository
	tokens     *TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AuthConfig

	mu           sync.Mutex
	current      *domain.Identity
	listeners    map[int]func(domain.IdentityEvent)
	nextListener int
}

// NewLocalProvider builds the provider.
func NewLocalProvider(
	cfg config.AuthConfig,
	identities repository.IdentityRepository,
	sessions repository.SessionRepository,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *LocalProvider {
	return &LocalProvider{
		identities: identities,
		sessions:   sessions,
		tokens:     NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMin),
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		listeners:  make(map[int]func(domain.IdentityEvent)),
	}
}

// TokenManager exposes the token manager for transport-layer bearer parsing.
func (p *LocalProvider) TokenManager() *TokenManager {
	return p.tokens
}

// SubscribeIdentityChanges registers fn and fires it immediately with the
// current state. The returned func releases the subscription; fn is never
// invoked after release.
func (p *LocalProvider) SubscribeIdentityChanges(fn func(domain.IdentityEvent)) func() {
	p.mu.Lock()
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn
	current := p.current
	p.mu.Unlock()

	fn(domain.IdentityEvent{Identity: current})

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *LocalProvider) publish(ev domain.IdentityEvent) {
	p.mu.Lock()
	fns := make([]func(domain.IdentityEvent), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// CreateIdentity registers a new identity. It does not sign the subject in.
func (p *LocalProvider) CreateIdentity(ctx context.Context, email, password string) (*domain.Identity, error) {
	if !p.cfg.SignUpEnabled {
		return nil, NewError(CodeOperationNotAllowed, nil)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return nil, NewError(CodeInvalidEmail, nil)
	}
	if len(password) < p.cfg.MinPasswordLength {
		return nil, NewError(CodeWeakPassword, nil)
	}

	hash, err := HashPassword(password, p.cfg.BcryptCost)
	if err != nil {
		return nil, NewError(CodeUnknown, err)
	}

	record := &repository.IdentityRecord{Email: email, PasswordHash: hash}
	if err := p.identities.Create(ctx, record); err != nil {
		if err == repository.ErrDuplicateEmail {
			return nil, NewError(CodeEmailAlreadyInUse, err)
		}
		return nil, NewError(CodeNetworkRequestFailed, err)
	}

	return &domain.Identity{SubjectID: record.ID, Email: record.Email}, nil
}

// SignIn authenticates an identity and opens a session.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*domain.Identity, string, time.Time, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	record, err := p.identities.GetByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, "", time.Time{}, NewError(CodeUserNotFound, err)
		}
		return nil, "", time.Time{}, NewError(CodeNetworkRequestFailed, err)
	}

	if err := ComparePassword(record.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, NewError(CodeWrongPassword, err)
	}

	id := &domain.Identity{
		SubjectID:   record.ID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
		PhotoURL:    record.PhotoURL,
	}

	token, expiresAt, err := p.tokens.GenerateToken(id)
	if err != nil {
		return nil, "", time.Time{}, NewError(CodeUnknown, err)
	}
	if err := p.sessions.Save(ctx, id.SubjectID, token, p.cfg.SessionTTL()); err != nil {
		return nil, "", time.Time{}, NewError(CodeNetworkRequestFailed, err)
	}

	p.mu.Lock()
	p.current = id
	p.mu.Unlock()
	p.publish(domain.IdentityEvent{Identity: id})

	_ = p.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventSignedIn,
		SubjectID: id.SubjectID,
		Timestamp: time.Now(),
		Payload:   events.SignedInPayload{Email: id.Email},
	})

	return id, token, expiresAt, nil
}

// SignOut revokes the named subject's session. Calling it for a subject with
// no session open is a no-op so repeated sign-outs stay safe for callers.
// Only that subject's session is touched; other signed-in subjects keep
// theirs.
func (p *LocalProvider) SignOut(ctx context.Context, subjectID string) error {
	if subjectID == "" {
		return nil
	}

	p.mu.Lock()
	wasCurrent := p.current != nil && p.current.SubjectID == subjectID
	if wasCurrent {
		p.current = nil
	}
	p.mu.Unlock()

	revokeErr := p.sessions.Delete(ctx, subjectID)

	if wasCurrent {
		p.publish(domain.IdentityEvent{Identity: nil})
	}
	_ = p.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventSignedOut,
		SubjectID: subjectID,
		Timestamp: time.Now(),
	})

	if revokeErr != nil {
		return NewError(CodeNetworkRequestFailed, revokeErr)
	}
	return nil
}

// UpdateIdentityProfile sets the display name and photo URL.
func (p *LocalProvider) UpdateIdentityProfile(ctx context.Context, subjectID string, update ProfileUpdate) error {
	if err := p.identities.UpdateProfile(ctx, subjectID, update.DisplayName, update.PhotoURL); err != nil {
		if err == repository.ErrNotFound {
			return NewError(CodeUserNotFound, err)
		}
		return NewError(CodeNetworkRequestFailed, err)
	}
	return nil
}

// SendVerificationMessage issues a verification token and hands it to the
// notification pipeline.
func (p *LocalProvider) SendVerificationMessage(ctx context.Context, subjectID string) error {
	record, err := p.identities.GetByID(ctx, subjectID)
	if err != nil {
		if err == repository.ErrNotFound {
			return NewError(CodeUserNotFound, err)
		}
		return NewError(CodeNetworkRequestFailed, err)
	}

	token := uuid.NewString()
	if err := p.identities.SetVerificationToken(ctx, subjectID, token); err != nil {
		return NewError(CodeNetworkRequestFailed, err)
	}

	_ = p.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventVerificationRequested,
		SubjectID: subjectID,
		Timestamp: time.Now(),
		Payload:   events.VerificationRequestedPayload{Email: record.Email, Token: token},
	})
	return nil
}

// VerifyEmail consumes a verification token, marking the identity verified.
func (p *LocalProvider) VerifyEmail(ctx context.Context, token string) (*domain.Identity, error) {
	record, err := p.identities.MarkVerified(ctx, token)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, NewError(CodeInvalidCredential, err)
		}
		return nil, NewError(CodeNetworkRequestFailed, err)
	}
	return &domain.Identity{
		SubjectID:   record.ID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
		PhotoURL:    record.PhotoURL,
	}, nil
}

// IdentityFromToken resolves a bearer token to an identity. The token must
// parse and still match the live session, so sign-out revokes it.
func (p *LocalProvider) IdentityFromToken(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := p.tokens.ParseToken(token)
	if err != nil {
		return nil, NewError(CodeInvalidCredential, err)
	}

	live, err := p.sessions.Get(ctx, claims.Subject)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, NewError(CodeInvalidCredential, err)
		}
		return nil, NewError(CodeNetworkRequestFailed, err)
	}
	if live != token {
		return nil, NewError(CodeInvalidCredential, nil)
	}

	return claims.Identity(), nil
}
