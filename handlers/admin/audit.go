package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/database"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/utils"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
	"gorm.io/gorm"
)

// ListAuditLogs retrieves admin audit logs with pagination
// GET /admin/audit-logs?action=&resource=&admin_id=
func ListAuditLogs(c *fiber.Ctx, store database.Storage) error {
	db := store.DB().WithContext(c.Context())

	page, limit := utils.Page(c, 20, 100)

	adminID, err := utils.QueryID(c, "admin_id")
	if err != nil {
		return response.FromError(c, err)
	}

	query := db.Model(&model.AdminAuditLog{})

	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if adminID != nil {
		query = query.Where("admin_id = ?", *adminID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit logs")
	}

	var logs []model.AdminAuditLog
	offset := (page - 1) * limit
	if err := query.Preload("Admin").Offset(offset).Limit(limit).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}

// GetAuditLog retrieves a specific audit log entry
// GET /admin/audit-logs/:id
func GetAuditLog(c *fiber.Ctx, store database.Storage) error {
	db := store.DB().WithContext(c.Context())

	logID, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var log model.AdminAuditLog
	if err := db.Preload("Admin").First(&log, logID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Audit log not found")
		}
		return response.InternalServerError(c, "Failed to fetch audit log")
	}

	return response.Success(c, log)
}
