package student

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
)

// StudentHandler lists the people on the caller's roster
type StudentHandler struct {
	rosterService *services.RosterService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(rosterService *services.RosterService) *StudentHandler {
	return &StudentHandler{rosterService: rosterService}
}

// ListStudents handles GET /api/v1/students.
// Professors get their students; students get their classmates.
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	students, err := h.rosterService.ListStudents(c.Context(), user)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, students)
}
