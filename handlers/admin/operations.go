package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/database"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/utils"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
)

type countRow struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// GetOverview retrieves platform-wide counters for the admin console
// GET /admin/overview
func GetOverview(c *fiber.Ctx, store database.Storage) error {
	db := store.DB().WithContext(c.Context())

	var stats struct {
		UsersByRole        []countRow `json:"users_by_role"`
		DeliveriesByStatus []countRow `json:"deliveries_by_status"`
		NewUsersThisWeek   int64      `json:"new_users_this_week"`
		Subjects           int64      `json:"subjects"`
		Courses            int64      `json:"courses"`
		Submissions        int64      `json:"submissions"`
	}

	if err := db.Model(&model.User{}).Select("role AS label, COUNT(*) AS count").Group("role").Order("role").Scan(&stats.UsersByRole).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}
	if err := db.Model(&model.EmailDelivery{}).Select("status AS label, COUNT(*) AS count").Group("status").Order("status").Scan(&stats.DeliveriesByStatus).Error; err != nil {
		return response.InternalServerError(c, "Failed to count email deliveries")
	}
	if err := db.Model(&model.User{}).Where("created_at >= ?", time.Now().UTC().Add(-7*24*time.Hour)).Count(&stats.NewUsersThisWeek).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	db.Model(&model.Subject{}).Count(&stats.Subjects)
	db.Model(&model.Course{}).Count(&stats.Courses)
	db.Model(&model.Submission{}).Count(&stats.Submissions)

	return response.SuccessWithMessage(c, "Overview retrieved successfully", stats)
}

// ListEmailDeliveries shows the outgoing mail outbox
// GET /admin/email-deliveries?status=&type=
func ListEmailDeliveries(c *fiber.Ctx, store database.Storage) error {
	db := store.DB().WithContext(c.Context())

	page, limit := utils.Page(c, 20, 100)
	query := db.Model(&model.EmailDelivery{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if typ := c.Query("type"); typ != "" {
		query = query.Where("type = ?", typ)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count email deliveries")
	}

	var deliveries []model.EmailDelivery
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC, id DESC").Find(&deliveries).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch email deliveries")
	}

	return response.Paginated(c, deliveries, response.CalculatePagination(page, limit, total))
}

// ListCronJobLogs shows recent background job runs
// GET /admin/cron-logs?job=
func ListCronJobLogs(c *fiber.Ctx, store database.Storage) error {
	db := store.DB().WithContext(c.Context())

	page, limit := utils.Page(c, 20, 100)
	query := db.Model(&model.CronJobLog{})

	if job := c.Query("job"); job != "" {
		query = query.Where("job_name = ?", job)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count job runs")
	}

	var logs []model.CronJobLog
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("started_at DESC, id DESC").Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch job runs")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}
