package profile

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/utils"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
	"github.com/sahilchouksey/eduplatform-api/utils/validation"
)

// ProfileHandler serves the caller's own profile and professor choice
type ProfileHandler struct {
	profileService *services.ProfileService
	validator      *validation.Validator
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		validator:      validation.NewValidator(),
	}
}

// AssignProfessorRequest is the body of PUT /profile/professor
type AssignProfessorRequest struct {
	ProfessorID uint `json:"professor_id" validate:"required,gt=0"`
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	profile, err := h.profileService.GetProfile(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, profile)
}

// UpdateProfile handles PUT /api/v1/profile
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req services.UpdateProfileInput
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	profile, err := h.profileService.UpdateProfile(c.Context(), userID, req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Profile updated successfully", profile)
}

// ListProfessors handles GET /api/v1/professors
func (h *ProfileHandler) ListProfessors(c *fiber.Ctx) error {
	professors, err := h.profileService.ListProfessors(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, professors)
}

// AssignProfessor handles PUT /api/v1/profile/professor
func (h *ProfileHandler) AssignProfessor(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req AssignProfessorRequest
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	profile, err := h.profileService.AssignProfessor(c.Context(), user, req.ProfessorID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Professor updated", profile)
}
