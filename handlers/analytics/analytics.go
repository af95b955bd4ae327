package analytics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
)

// AnalyticsHandler handles analytics and reporting requests
type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// GetAnalytics handles GET /api/v1/analytics
func (h *AnalyticsHandler) GetAnalytics(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	stats, err := h.analyticsService.Get(c.Context(), user)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, stats)
}
