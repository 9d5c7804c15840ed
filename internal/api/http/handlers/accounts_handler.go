package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/coachhub/coach-platform/internal/api/dto"
	"github.com/coachhub/coach-platform/internal/domain"
	"github.com/coachhub/coach-platform/internal/service"
)

// EmailVerifier consumes a verification token.
type EmailVerifier interface {
	VerifyEmail(ctx context.Context, token string) (*domain.Identity, error)
}

// BearerIdentifier resolves a bearer token to the identity it belongs to.
type BearerIdentifier interface {
	IdentityFromToken(ctx context.Context, token string) (*domain.Identity, error)
}

// AccountsHandler exposes registration and session endpoints.
type AccountsHandler struct {
	accounts *service.AccountService
	verifier EmailVerifier
	ids      BearerIdentifier
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accounts *service.AccountService, verifier EmailVerifier, ids BearerIdentifier) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, verifier: verifier, ids: ids}
}

// Register handles POST /auth/register.
func (h *AccountsHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	profile, err := h.accounts.Register(c.Context(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            domain.Role(req.Role),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"profile": dto.NewProfileResponse(profile),
		},
	})
}

// Login handles POST /auth/login.
func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	id, token, expiresAt, err := h.accounts.SignIn(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"identity": fiber.Map{
				"id":    id.SubjectID,
				"email": id.Email,
				"name":  id.DisplayName,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
		},
	})
}

// Logout handles POST /auth/logout. The subject comes from the caller's own
// bearer token; a request without a live session is a no-op, never a way to
// revoke somebody else's.
func (h *AccountsHandler) Logout(c *fiber.Ctx) error {
	id := h.callerIdentity(c)
	if id == nil {
		return c.JSON(fiber.Map{"data": fiber.Map{"signed_out": true}})
	}

	if err := h.accounts.SignOut(c.Context(), id.SubjectID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"signed_out": true}})
}

func (h *AccountsHandler) callerIdentity(c *fiber.Ctx) *domain.Identity {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil
	}
	id, err := h.ids.IdentityFromToken(c.Context(), parts[1])
	if err != nil {
		return nil
	}
	return id
}

// Verify handles GET /auth/verify. The profile is durably written before the
// verification message goes out, so this link always observes it.
func (h *AccountsHandler) Verify(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return fiber.NewError(http.StatusBadRequest, "token required")
	}

	id, err := h.verifier.VerifyEmail(c.Context(), token)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid or expired verification token")
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"verified": true,
			"email":    id.Email,
		},
	})
}

// LoginPage handles the per-area login routes that gate redirects target.
func (h *AccountsHandler) LoginPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"message": "sign in to continue",
			"login":   "/auth/login",
		},
	})
}
