package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/utils"
	authutil "github.com/sahilchouksey/eduplatform-api/utils/auth"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken rotates a refresh token: the old one is blacklisted and a new pair issued
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	if claims.TokenType != authutil.TokenTypeRefresh {
		return response.Unauthorized(c, "Invalid token type")
	}

	isRevoked, err := h.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if isRevoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	// Load user to get current token version
	var user model.User
	if err := h.db.WithContext(c.Context()).First(&user, claims.UserID).Error; err != nil {
		return response.Unauthorized(c, "User not found")
	}

	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	// Blacklist before issuing so a replayed token cannot mint a second pair
	if err := h.blacklistService.RevokeToken(c.Context(), claims.ID, user.ID, h.jwtManager.ExpiresAt(claims), "token_refresh"); err != nil {
		h.log.Error("failed to revoke refresh token", "user_id", user.ID, "error", err)
		return response.InternalServerError(c, "Failed to refresh token")
	}

	tokens, err := h.jwtManager.GeneratePair(subjectOf(&user))
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Success(c, tokens)
}

// Logout blacklists the access token used for this request
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if err := h.blacklistService.RevokeToken(c.Context(), claims.ID, claims.UserID, h.jwtManager.ExpiresAt(claims), "logout"); err != nil {
		h.log.Error("failed to revoke token on logout", "user_id", claims.UserID, "error", err)
		return response.InternalServerError(c, "Failed to logout")
	}

	return response.Message(c, "Successfully logged out")
}
