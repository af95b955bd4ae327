package api

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/internal/testutil"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	server := NewAPIServer(":0", logger.Nop())
	app := server.GetEngine()
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db password leaked here") })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusForbidden, "nope") })

	tests := []struct {
		path    string
		status  int
		code    string
		message string
	}{
		{"/missing", fiber.StatusNotFound, "NOT_FOUND", "Cannot GET /missing"},
		{"/boom", fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"},
		{"/teapot", fiber.StatusForbidden, "FORBIDDEN", "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := testutil.Send(t, app, httptest.NewRequest("GET", tt.path, nil))
			assert.Equal(t, tt.status, status)
			assert.Equal(t, false, body["success"])
			errBody := body["error"].(map[string]interface{})
			assert.Equal(t, tt.code, errBody["code"])
			assert.Equal(t, tt.message, errBody["message"])
		})
	}
}
