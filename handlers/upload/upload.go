package upload

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
)

// UploadHandler accepts multipart file uploads into the storage buckets
type UploadHandler struct {
	fileService *services.FileService
	log         *logger.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(fileService *services.FileService, log *logger.Logger) *UploadHandler {
	return &UploadHandler{fileService: fileService, log: log}
}

// UploadFile handles POST /api/v1/files/:bucket with form fields "file" and optional "folder"
func (h *UploadHandler) UploadFile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "File is required")
	}

	// Reject before reading the body into memory
	if file.Size > services.MaxUploadSize {
		return response.BadRequest(c, "File size exceeds maximum allowed size of 10MB")
	}

	fileContent, err := file.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to open file")
	}
	defer fileContent.Close()

	data, err := io.ReadAll(fileContent)
	if err != nil {
		return response.InternalServerError(c, "Failed to read file")
	}

	uploaded, err := h.fileService.Upload(c.Context(), user, c.Params("bucket"), c.FormValue("folder"),
		file.Filename, file.Header.Get("Content-Type"), data)
	if err != nil {
		h.log.Warn("upload rejected", "user_id", user.ID, "bucket", c.Params("bucket"), "error", err)
		return response.FromError(c, err)
	}

	return response.Created(c, uploaded)
}
