package comment

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/utils"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
	"github.com/sahilchouksey/eduplatform-api/utils/validation"
)

// CommentHandler handles course discussion threads
type CommentHandler struct {
	validator      *validation.Validator
	commentService *services.CommentService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{
		validator:      validation.NewValidator(),
		commentService: commentService,
	}
}

// ListComments handles GET /api/v1/courses/:id/comments
func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	comments, err := h.commentService.List(c.Context(), user, courseID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, comments)
}

// CreateComment handles POST /api/v1/courses/:id/comments
func (h *CommentHandler) CreateComment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.CreateCommentInput
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	comment, err := h.commentService.Create(c.Context(), user, courseID, req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, comment)
}

// DeleteComment handles DELETE /api/v1/comments/:id
func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.commentService.Delete(c.Context(), user, id); err != nil {
		return response.FromError(c, err)
	}

	return response.Message(c, "Comment deleted")
}
