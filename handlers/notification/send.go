package notification

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services/mail"
	"github.com/sahilchouksey/eduplatform-api/services/notify"
	"github.com/sahilchouksey/eduplatform-api/utils"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
	"github.com/sahilchouksey/eduplatform-api/utils/validation"
)

// SendRequest is the body of POST /notifications/send
type SendRequest struct {
	To     string    `json:"to" validate:"required,email"`
	ToName string    `json:"toName" validate:"max=255"`
	Type   string    `json:"type" validate:"required,max=40"`
	Data   mail.Data `json:"data"`
}

// sendResult keeps the {success, data|skipped|error} shape callers of the
// old send-notification function expect
type sendResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Skipped bool        `json:"skipped,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Send handles POST /api/v1/notifications/send.
// The email is rendered and sent on the request; a delivery row is left either way.
func (h *NotificationHandler) Send(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req SendRequest
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	delivery, err := h.notificationService.SendEmail(c.Context(), notify.Request{
		To:     validation.NormalizeEmail(req.To),
		ToName: req.ToName,
		Type:   model.NotificationType(req.Type),
		Data:   req.Data,
	})
	if err != nil {
		h.log.Error("send notification failed", "type", req.Type, "requested_by", user.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(sendResult{Error: err.Error()})
	}

	if delivery.Status == model.DeliverySkipped {
		return c.JSON(sendResult{Success: true, Skipped: true})
	}

	return c.JSON(sendResult{
		Success: true,
		Data:    fiber.Map{"id": delivery.ProviderMessageID},
	})
}
