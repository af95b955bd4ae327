package subject

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/utils"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
	"github.com/sahilchouksey/eduplatform-api/utils/validation"
)

// SubjectHandler handles subject-related requests
type SubjectHandler struct {
	validator      *validation.Validator
	subjectService *services.SubjectService
}

// NewSubjectHandler creates a new subject handler
func NewSubjectHandler(subjectService *services.SubjectService) *SubjectHandler {
	return &SubjectHandler{
		validator:      validation.NewValidator(),
		subjectService: subjectService,
	}
}

// ListSubjects handles GET /api/v1/subjects
func (h *SubjectHandler) ListSubjects(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	subjects, err := h.subjectService.List(c.Context(), user)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, subjects)
}

// GetSubject handles GET /api/v1/subjects/:id
func (h *SubjectHandler) GetSubject(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	subject, err := h.subjectService.Get(c.Context(), user, id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, subject)
}

// CreateSubject handles POST /api/v1/subjects
func (h *SubjectHandler) CreateSubject(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req services.CreateSubjectInput
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	subject, err := h.subjectService.Create(c.Context(), user, req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, subject)
}

// UpdateSubject handles PUT /api/v1/subjects/:id
func (h *SubjectHandler) UpdateSubject(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.UpdateSubjectInput
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	subject, err := h.subjectService.Update(c.Context(), user, id, req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Subject updated successfully", subject)
}

// DeleteSubject handles DELETE /api/v1/subjects/:id.
// Courses in the subject are kept and lose their subject.
func (h *SubjectHandler) DeleteSubject(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.subjectService.Delete(c.Context(), user, id); err != nil {
		return response.FromError(c, err)
	}

	return response.Message(c, "Subject deleted successfully")
}
