package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services/notify"
	"github.com/sahilchouksey/eduplatform-api/utils"
	authutil "github.com/sahilchouksey/eduplatform-api/utils/auth"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
	"github.com/sahilchouksey/eduplatform-api/utils/validation"
	"gorm.io/gorm"
)

// ResetMailer queues the password reset email
type ResetMailer interface {
	QueueEmail(ctx context.Context, req notify.Request) error
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	mailer               ResetMailer
	validator            *validation.Validator
	appURL               string
	log                  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, bruteForceProtection *middleware.BruteForceProtection, mailer ResetMailer, appURL string, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		blacklistService:     authutil.NewBlacklistService(db),
		bruteForceProtection: bruteForceProtection,
		mailer:               mailer,
		validator:            validation.NewValidator(),
		appURL:               appURL,
		log:                  log,
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
	Role     string `json:"role" validate:"omitempty,signup_role"` // defaults to student
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	ClassName string    `json:"class_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func userResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
		ClassName: u.ClassName,
		CreatedAt: u.CreatedAt,
	}
}

func subjectOf(u *model.User) authutil.Subject {
	return authutil.Subject{UserID: u.ID, Email: u.Email, Role: u.Role, TokenVersion: u.TokenVersion}
}

// Register handles user registration
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := utils.Bind(c, h.validator, &req); err != nil {
		return response.FromError(c, err)
	}

	email := validation.NormalizeEmail(req.Email)
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}

	// Soft-deleted accounts still hold their email
	var existing model.User
	err := h.db.WithContext(c.Context()).Unscoped().Where("email = ?", email).First(&existing).Error
	if err == nil {
		return response.Conflict(c, "User already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		h.log.Error("failed to look up user", "error", err)
		return response.InternalServerError(c, "")
	}

	hashedPassword, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	user := model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		FullName:     validation.SanitizeString(req.FullName),
		Role:         role,
	}
	if err := h.db.WithContext(c.Context()).Create(&user).Error; err != nil {
		h.log.Error("failed to create user", "email", email, "error", err)
		return response.InternalServerError(c, "Failed to create user")
	}

	tokens, err := h.jwtManager.GeneratePair(subjectOf(&user))
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	h.log.Info("user registered", "user_id", user.ID, "role", user.Role)

	return response.Created(c, AuthResponse{
		User:         userResponse(&user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	})
}
