package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coachhub/coach-platform/internal/domain"
	"github.com/coachhub/coach-platform/internal/events"
	"github.com/coachhub/coach-platform/internal/identity"
	"github.com/coachhub/coach-platform/internal/repository"
	apperrors "github.com/coachhub/coach-platform/pkg/util"
)

// Account-service error codes. Provider codes are translated into this
// stable vocabulary; raw provider errors never reach the view layer.
const (
	CodeEmailInUse         = "EMAIL_IN_USE"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeAuthNotConfigured  = "AUTH_NOT_CONFIGURED"
	CodeRegistrationFailed = "REGISTRATION_FAILED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeSignInFailed       = "SIGN_IN_FAILED"
	CodeSignOutFailed      = "SIGN_OUT_FAILED"
)

// AccountService coordinates registration, sign-in and sign-out against the
// identity provider and the document store.
type AccountService struct {
	provider   identity.Provider
	profiles   repository.ProfileRepository
	students   repository.StudentRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AccountDependencies encapsulates collaborator requirements.
type AccountDependencies struct {
	Provider    identity.Provider
	ProfileRepo repository.ProfileRepository
	StudentRepo repository.StudentRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		provider:   deps.Provider,
		profiles:   deps.ProfileRepo,
		students:   deps.StudentRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Role            domain.Role
}

// Register creates the identity and its durable profile. The profile (and,
// for students, the student record) is written before the verification
// message goes out, so a user following the verification link immediately
// observes consistent state.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, apperrors.NewValidationError("Preencha todos os campos.", nil)
	}
	if in.ConfirmPassword != "" && in.Password != in.ConfirmPassword {
		return nil, apperrors.NewValidationError("As senhas não coincidem.", nil)
	}
	if _, ok := domain.ParseRole(string(in.Role)); !ok {
		return nil, apperrors.NewValidationError("Tipo de conta inválido.", nil)
	}

	avatar := AvatarURL(in.Name)

	id, err := s.provider.CreateIdentity(ctx, in.Email, in.Password)
	if err != nil {
		return nil, mapRegistrationError(err)
	}

	if err := s.provider.UpdateIdentityProfile(ctx, id.SubjectID, identity.ProfileUpdate{
		DisplayName: in.Name,
		PhotoURL:    avatar,
	}); err != nil {
		s.logger.Warn("identity profile update failed", zap.String("subject", id.SubjectID), zap.Error(err))
	}

	createdAt := s.now()
	profile := &domain.Profile{
		ID:        id.SubjectID,
		Name:      in.Name,
		Email:     id.Email,
		Role:      in.Role,
		Status:    initialStatus(in.Role),
		AvatarURL: avatar,
		CreatedAt: createdAt,
	}
	if in.Role.Professional() {
		profile.Subscription = &domain.Subscription{
			Status:      domain.SubscriptionTrial,
			TrialEndsAt: createdAt.Add(domain.TrialWindow),
		}
	}

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, apperrors.NewDomainError(CodeRegistrationFailed,
			"Não foi possível concluir o cadastro. Tente novamente.",
			http.StatusInternalServerError, nil)
	}

	if in.Role == domain.RoleStudent {
		record := &domain.StudentRecord{
			ID:        id.SubjectID,
			Name:      in.Name,
			Email:     id.Email,
			Status:    domain.ProfileStatusActive,
			CreatedAt: createdAt,
		}
		if err := s.students.Save(ctx, record); err != nil {
			return nil, apperrors.NewDomainError(CodeRegistrationFailed,
				"Não foi possível concluir o cadastro. Tente novamente.",
				http.StatusInternalServerError, nil)
		}
	}

	// Strictly after the profile write.
	if err := s.provider.SendVerificationMessage(ctx, id.SubjectID); err != nil {
		s.logger.Warn("verification message failed", zap.String("subject", id.SubjectID), zap.Error(err))
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAccountRegistered,
			SubjectID: id.SubjectID,
			Timestamp: createdAt,
			Payload: events.AccountRegisteredPayload{
				Email:  id.Email,
				Role:   profile.Role,
				Status: profile.Status,
			},
		})
	}

	return profile, nil
}

// SignIn authenticates against the provider. It performs no profile lookup
// or role check; that is the authorization gate's job.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (*domain.Identity, string, time.Time, error) {
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("Informe e-mail e senha.", nil)
	}

	id, token, expiresAt, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, "", time.Time{}, mapSignInError(err)
	}
	return id, token, expiresAt, nil
}

// SignOut revokes the named subject's provider session. Callers must treat
// failure as non-fatal and keep local state intact.
func (s *AccountService) SignOut(ctx context.Context, subjectID string) error {
	if err := s.provider.SignOut(ctx, subjectID); err != nil {
		s.logger.Warn("sign-out failed", zap.String("subject", subjectID), zap.Error(err))
		return apperrors.NewDomainError(CodeSignOutFailed,
			"Não foi possível sair. Tente novamente.",
			http.StatusInternalServerError, nil)
	}
	return nil
}

// UpdateMeasurements fills in the dashboard completeness fields. Role and
// status are never touched.
func (s *AccountService) UpdateMeasurements(ctx context.Context, subjectID string, age int, height, weight float64) (*domain.Profile, error) {
	if age <= 0 || height <= 0 || weight <= 0 {
		return nil, apperrors.NewValidationError("Informe idade, altura e peso válidos.", nil)
	}

	profile, err := s.profiles.GetByID(ctx, subjectID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFound("profile", nil)
		}
		return nil, apperrors.MapError(err)
	}

	profile.Age = &age
	profile.Height = &height
	profile.Weight = &weight
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// AvatarURL derives a deterministic avatar image URL from the display name.
func AvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(strings.TrimSpace(name)) + "&background=0D8ABC&color=fff"
}

func initialStatus(role domain.Role) domain.ProfileStatus {
	if role.Professional() {
		return domain.ProfileStatusPending
	}
	return domain.ProfileStatusActive
}

func mapRegistrationError(err error) error {
	switch identity.CodeOf(err) {
	case identity.CodeEmailAlreadyInUse:
		return apperrors.NewDomainError(CodeEmailInUse,
			"Este e-mail já está em uso.", http.StatusConflict, nil)
	case identity.CodeWeakPassword:
		return apperrors.NewDomainError(CodeWeakPassword,
			"A senha deve ter pelo menos 6 caracteres.", http.StatusBadRequest, nil)
	case identity.CodeInvalidEmail:
		return apperrors.NewValidationError("E-mail inválido.", nil)
	case identity.CodeOperationNotAllowed:
		return apperrors.NewDomainError(CodeAuthNotConfigured,
			"Autenticação não configurada. Contate o suporte.", http.StatusServiceUnavailable, nil)
	default:
		return apperrors.NewDomainError(CodeRegistrationFailed,
			"Não foi possível concluir o cadastro. Tente novamente.",
			http.StatusInternalServerError, nil)
	}
}

// mapSignInError deliberately merges the not-found, wrong-password,
// invalid-email and invalid-credential provider codes so the response never
// leaks which part of the credential was wrong.
func mapSignInError(err error) error {
	switch identity.CodeOf(err) {
	case identity.CodeUserNotFound,
		identity.CodeWrongPassword,
		identity.CodeInvalidEmail,
		identity.CodeInvalidCredential:
		return apperrors.NewDomainError(CodeInvalidCredentials,
			"E-mail ou senha inválidos.", http.StatusUnauthorized, nil)
	default:
		return apperrors.NewDomainError(CodeSignInFailed,
			"Não foi possível entrar. Tente novamente.",
			http.StatusInternalServerError, nil)
	}
}
