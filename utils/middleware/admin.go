package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// redactedBodyKeys never reach the audit table
var redactedBodyKeys = []string{"password", "new_password", "current_password", "token"}

// AdminAuditLog records a row in admin_audit_logs for every successful admin mutation.
// It runs after Required and RequireAdmin.
func AdminAuditLog(db *gorm.DB, log *logger.Logger, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, ok := GetUser(c)
		if !ok {
			return c.Next()
		}

		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		var newValue datatypes.JSON
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			var body map[string]interface{}
			if err := json.Unmarshal(c.Body(), &body); err == nil {
				for _, k := range redactedBodyKeys {
					if _, ok := body[k]; ok {
						body[k] = "[REDACTED]"
					}
				}
				newValue, _ = json.Marshal(body)
			}
		}

		// Copy request data before the handler runs; fiber reuses the ctx afterwards
		entry := model.AdminAuditLog{
			AdminID:     admin.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			NewValue:    newValue,
			IPAddress:   c.IP(),
			UserAgent:   string(c.Request().Header.UserAgent()),
			Description: c.Method() + " " + c.Path(),
		}

		err := c.Next()
		if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
			return err
		}

		if dbErr := db.WithContext(c.Context()).Create(&entry).Error; dbErr != nil {
			log.Error("failed to write admin audit log", "action", action, "admin_id", admin.ID, "error", dbErr)
		}

		return nil
	}
}
