package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/coachhub/coach-platform/internal/api/dto"
	"github.com/coachhub/coach-platform/internal/domain"
	"github.com/coachhub/coach-platform/internal/gate"
	"github.com/coachhub/coach-platform/internal/repository"
	"github.com/coachhub/coach-platform/internal/service"
)

// AreasHandler serves the role-scoped area endpoints behind the gates.
type AreasHandler struct {
	accounts *service.AccountService
	profiles repository.ProfileRepository
	students repository.StudentRepository
}

// NewAreasHandler constructs handler.
func NewAreasHandler(accounts *service.AccountService, profiles repository.ProfileRepository, students repository.StudentRepository) *AreasHandler {
	return &AreasHandler{accounts: accounts, profiles: profiles, students: students}
}

// Home returns the resolved profile for any protected area's home endpoint.
func (h *AreasHandler) Home(c *fiber.Ctx) error {
	profile, ok := gate.ProfileFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "no resolved profile")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"profile": dto.NewProfileResponse(profile)}})
}

// UpdateMeasurements handles PUT /dashboard/profile.
func (h *AreasHandler) UpdateMeasurements(c *fiber.Ctx) error {
	profile, ok := gate.ProfileFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "no resolved profile")
	}

	var req dto.MeasurementsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	updated, err := h.accounts.UpdateMeasurements(c.Context(), profile.ID, req.Age, req.Height, req.Weight)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"profile": dto.NewProfileResponse(updated)}})
}

// ListProfiles handles GET /admin/users?role=.
func (h *AreasHandler) ListProfiles(c *fiber.Ctx) error {
	role, ok := domain.ParseRole(c.Query("role", string(domain.RolePersonalTrainer)))
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "unknown role")
	}

	profiles, err := h.profiles.ListByRole(c.Context(), role)
	if err != nil {
		return err
	}

	out := make([]dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, dto.NewProfileResponse(&profiles[i]))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"profiles": out}})
}

// PersonalStudents handles GET /personal/students: the trainer's roster.
func (h *AreasHandler) PersonalStudents(c *fiber.Ctx) error {
	profile, ok := gate.ProfileFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "no resolved profile")
	}

	records, err := h.students.ListByPersonal(c.Context(), profile.ID)
	if err != nil {
		return err
	}

	out := make([]dto.StudentResponse, 0, len(records))
	for i := range records {
		out = append(out, dto.NewStudentResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"students": out}})
}
