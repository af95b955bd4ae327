package utils

import (
	"strconv"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/database"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/utils/validation"
)

// MakeHTTPHandleFunc adapts a handler that needs the storage layer
func MakeHTTPHandleFunc(handler func(c *fiber.Ctx, store database.Storage) error, store database.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return handler(c, store)
	}
}

// Bind parses the JSON body into dst and validates it. A malformed body is
// invalid input; tag failures come back as validator.ValidationErrors.
func Bind(c *fiber.Ctx, v *validation.Validator, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return services.Invalid("Invalid request body")
	}
	return v.ValidateStruct(dst)
}

// ParamID reads a positive numeric route parameter
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, services.Invalid("Invalid %s", name)
	}
	return uint(id), nil
}

// QueryID reads an optional positive numeric query parameter
func QueryID(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, services.Invalid("Invalid %s", name)
	}
	v := uint(id)
	return &v, nil
}

// Page reads page and limit query parameters, clamping limit to max
func Page(c *fiber.Ctx, defaultLimit, max int) (page, limit int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > max {
		limit = max
	}
	return page, limit
}
