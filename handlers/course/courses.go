package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/utils"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
	"github.com/sahilchouksey/eduplatform-api/utils/validation"
)

// CourseHandler handles course-related requests
type CourseHandler struct {
	validator     *validation.Validator
	courseService *services.CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService *services.CourseService) *CourseHandler {
	return &CourseHandler{
		validator:     validation.NewValidator(),
		courseService: courseService,
	}
}

// ListCourses handles GET /api/v1/courses?subject_id=
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	subjectID, err := utils.QueryID(c, "subject_id")
	if err != nil {
		return response.FromError(c, err)
	}

	courses, err := h.courseService.List(c.Context(), user, subjectID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, courses)
}

// GetCourse handles GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	course, err := h.courseService.Get(c.Context(), user, id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, course)
}

// CreateCourse handles POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req services.CreateCourseInput
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	course, err := h.courseService.Create(c.Context(), user, req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.UpdateCourseInput
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	course, err := h.courseService.Update(c.Context(), user, id, req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /api/v1/courses/:id
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.courseService.Delete(c.Context(), user, id); err != nil {
		return response.FromError(c, err)
	}

	return response.Message(c, "Course deleted successfully")
}
