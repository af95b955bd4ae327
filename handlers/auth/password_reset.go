package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services/mail"
	"github.com/sahilchouksey/eduplatform-api/services/notify"
	"github.com/sahilchouksey/eduplatform-api/utils"
	authutil "github.com/sahilchouksey/eduplatform-api/utils/auth"
	"github.com/sahilchouksey/eduplatform-api/utils/crypto"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
	"github.com/sahilchouksey/eduplatform-api/utils/validation"
	"gorm.io/gorm"
)

// ResetTokenTTL is how long a password reset link stays valid
const ResetTokenTTL = time.Hour

const forgotPasswordMessage = "If the email exists, a password reset link will be sent"

// ForgotPasswordRequest represents a password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents a password reset with token
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

// ForgotPassword handles password reset request
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	var user model.User
	if err := h.db.WithContext(c.Context()).Where("email = ?", validation.NormalizeEmail(req.Email)).First(&user).Error; err != nil {
		// Don't reveal if email exists
		return response.Message(c, forgotPasswordMessage)
	}

	rawToken, err := crypto.RandomToken(crypto.ResetTokenBytes)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate reset token")
	}

	// Only the hash is stored; the raw token travels in the email link
	passwordReset := model.PasswordResetToken{
		UserID:    user.ID,
		Token:     crypto.HashToken(rawToken),
		ExpiresAt: time.Now().Add(ResetTokenTTL),
	}
	if err := h.db.WithContext(c.Context()).Create(&passwordReset).Error; err != nil {
		h.log.Error("failed to store reset token", "user_id", user.ID, "error", err)
		return response.InternalServerError(c, "Failed to create reset token")
	}

	if h.mailer != nil {
		userID := user.ID
		err := h.mailer.QueueEmail(context.WithoutCancel(c.Context()), notify.Request{
			UserID: &userID,
			To:     user.Email,
			ToName: user.FullName,
			Type:   model.EmailPasswordReset,
			Data:   mail.Data{ResetLink: h.resetLink(rawToken)},
		})
		if err != nil {
			h.log.Warn("failed to queue password reset email", "user_id", user.ID, "error", err)
		}
	}

	return response.Message(c, forgotPasswordMessage)
}

func (h *AuthHandler) resetLink(token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(h.appURL, "/"), token)
}

// ResetPassword handles password reset with token
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	var passwordReset model.PasswordResetToken
	if err := h.db.WithContext(c.Context()).Where("token = ?", crypto.HashToken(req.Token)).First(&passwordReset).Error; err != nil {
		return response.BadRequest(c, "Invalid or expired reset token")
	}

	if passwordReset.IsExpired() {
		return response.BadRequest(c, "Reset token has expired")
	}
	if passwordReset.IsUsed() {
		return response.BadRequest(c, "Reset token has already been used")
	}

	hashedPassword, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	err = h.db.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
		// Bumping the version logs out every existing session
		res := tx.Model(&model.User{}).Where("id = ?", passwordReset.UserID).Updates(map[string]interface{}{
			"password_hash": hashedPassword,
			"token_version": gorm.Expr("token_version + 1"),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		passwordReset.MarkAsUsed()
		return tx.Model(&passwordReset).Update("used_at", passwordReset.UsedAt).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.BadRequest(c, "Invalid or expired reset token")
	}
	if err != nil {
		h.log.Error("failed to reset password", "user_id", passwordReset.UserID, "error", err)
		return response.InternalServerError(c, "Failed to reset password")
	}

	return response.Message(c, "Password has been reset successfully")
}

// ChangePassword handles password change for authenticated users
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req ChangePasswordRequest
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		return response.BadRequest(c, "Current password is incorrect")
	}

	hashedPassword, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	err = h.db.WithContext(c.Context()).Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"password_hash": hashedPassword,
		"token_version": gorm.Expr("token_version + 1"),
	}).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	return response.Message(c, "Password changed successfully. Please log in again.")
}
