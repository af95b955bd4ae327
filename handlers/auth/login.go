package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/utils"
	authutil "github.com/sahilchouksey/eduplatform-api/utils/auth"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
	"github.com/sahilchouksey/eduplatform-api/utils/validation"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles user login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	email := validation.NormalizeEmail(req.Email)

	var user model.User
	if err := h.db.WithContext(c.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		// Record failed attempt even if user not found
		h.bruteForceProtection.RecordFailedAttempt(c, email)
		return response.Unauthorized(c, "Invalid email or password")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		h.bruteForceProtection.RecordFailedAttempt(c, email)
		return response.Unauthorized(c, "Invalid email or password")
	}

	h.bruteForceProtection.RecordSuccessfulAttempt(c)

	tokens, err := h.jwtManager.GeneratePair(subjectOf(&user))
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Success(c, AuthResponse{
		User:         userResponse(&user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	})
}
