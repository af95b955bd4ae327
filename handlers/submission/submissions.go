package submission

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/utils"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
	"github.com/sahilchouksey/eduplatform-api/utils/validation"
)

// SubmissionHandler handles submitting, listing and grading work
type SubmissionHandler struct {
	validator         *validation.Validator
	submissionService *services.SubmissionService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissionService *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		validator:         validation.NewValidator(),
		submissionService: submissionService,
	}
}

// Submit handles POST /api/v1/courses/:id/submission
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.SubmitInput
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	submission, err := h.submissionService.Submit(c.Context(), user, courseID, req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Submission saved", submission)
}

// ListSubmissions handles GET /api/v1/submissions?status=&course_id=
func (h *SubmissionHandler) ListSubmissions(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	status := model.SubmissionStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return response.BadRequest(c, "Invalid status")
	}

	courseID, err := utils.QueryID(c, "course_id")
	if err != nil {
		return response.FromError(c, err)
	}

	submissions, err := h.submissionService.List(c.Context(), user, services.ListSubmissionsOptions{
		Status:   status,
		CourseID: courseID,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, submissions)
}

// GradeSubmission handles POST /api/v1/submissions/:id/grade
func (h *SubmissionHandler) GradeSubmission(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.GradeInput
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	submission, err := h.submissionService.Grade(c.Context(), user, id, req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Submission graded", submission)
}

// DownloadSubmission handles GET /api/v1/submissions/:id/download
func (h *SubmissionHandler) DownloadSubmission(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	url, err := h.submissionService.DownloadURL(c.Context(), user, id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, fiber.Map{
		"url":        url,
		"expires_in": int(services.SignedURLExpiry.Seconds()),
	})
}
