package auth

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/internal/testutil"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services/notify"
	authutil "github.com/sahilchouksey/eduplatform-api/utils/auth"
	"github.com/sahilchouksey/eduplatform-api/utils/crypto"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeMailer struct {
	mu   sync.Mutex
	reqs []notify.Request
}

func (m *fakeMailer) QueueEmail(_ context.Context, req notify.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	return nil
}

type authEnv struct {
	app    *fiber.App
	db     *gorm.DB
	jwt    *authutil.JWTManager
	mailer *fakeMailer
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	db := testutil.NewDB(t)
	jwt := testutil.NewJWT()
	log := logger.Nop()
	mailer := &fakeMailer{}

	h := NewAuthHandler(db, jwt, middleware.NewBruteForceProtection(nil, log), mailer, "http://portal.test/", log)
	authMiddleware := middleware.NewAuthMiddleware(jwt, db)

	app := fiber.New()
	app.Post("/auth/register", h.Register)
	app.Post("/auth/login", h.Login)
	app.Post("/auth/refresh", h.RefreshToken)
	app.Post("/auth/forgot-password", h.ForgotPassword)
	app.Post("/auth/reset-password", h.ResetPassword)
	app.Post("/auth/logout", authMiddleware.Required(), h.Logout)
	app.Post("/auth/change-password", authMiddleware.Required(), h.ChangePassword)
	app.Get("/me", authMiddleware.Required(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	return &authEnv{app: app, db: db, jwt: jwt, mailer: mailer}
}

func TestRegister(t *testing.T) {
	env := newAuthEnv(t)

	status, body := testutil.Do(t, env.app, "POST", "/auth/register", map[string]string{
		"email":     "  New.Student@Test.io ",
		"password":  "secret123",
		"full_name": "New Student",
	}, "")
	require.Equal(t, fiber.StatusCreated, status, body)

	user := body.Data()["user"].(map[string]interface{})
	assert.Equal(t, "new.student@test.io", user["email"])
	assert.Equal(t, model.RoleStudent, user["role"])
	assert.NotEmpty(t, body.Data()["access_token"])
	assert.NotEmpty(t, body.Data()["refresh_token"])

	t.Run("duplicate email", func(t *testing.T) {
		status, body := testutil.Do(t, env.app, "POST", "/auth/register", map[string]string{
			"email":     "new.student@test.io",
			"password":  "secret123",
			"full_name": "Someone Else",
		}, "")
		assert.Equal(t, fiber.StatusConflict, status)
		assert.Equal(t, "User already registered", body.ErrorMessage())
	})

	t.Run("short password", func(t *testing.T) {
		status, _ := testutil.Do(t, env.app, "POST", "/auth/register", map[string]string{
			"email":     "short@test.io",
			"password":  "12345",
			"full_name": "Short Pass",
		}, "")
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	})

	t.Run("admin cannot self register", func(t *testing.T) {
		status, _ := testutil.Do(t, env.app, "POST", "/auth/register", map[string]string{
			"email":     "boss@test.io",
			"password":  "secret123",
			"full_name": "Boss",
			"role":      model.RoleAdmin,
		}, "")
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	})

	t.Run("professor", func(t *testing.T) {
		status, body := testutil.Do(t, env.app, "POST", "/auth/register", map[string]string{
			"email":     "prof@test.io",
			"password":  "secret123",
			"full_name": "Paul Prof",
			"role":      model.RoleProfessor,
		}, "")
		require.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, model.RoleProfessor, body.Data()["user"].(map[string]interface{})["role"])
	})
}

func TestLogin(t *testing.T) {
	env := newAuthEnv(t)
	testutil.CreateUser(t, env.db, "alice@test.io", "Alice", model.RoleStudent)

	status, body := testutil.Do(t, env.app, "POST", "/auth/login", map[string]string{
		"email": "ALICE@test.io", "password": "secret123",
	}, "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.NotEmpty(t, body.Data()["access_token"])

	for _, creds := range []map[string]string{
		{"email": "alice@test.io", "password": "wrong-pass"},
		{"email": "nobody@test.io", "password": "secret123"},
	} {
		status, body := testutil.Do(t, env.app, "POST", "/auth/login", creds, "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "Invalid email or password", body.ErrorMessage())
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newAuthEnv(t)
	testutil.CreateUser(t, env.db, "alice@test.io", "Alice", model.RoleStudent)

	_, body := testutil.Do(t, env.app, "POST", "/auth/login", map[string]string{
		"email": "alice@test.io", "password": "secret123",
	}, "")
	refresh := body.Data()["refresh_token"].(string)

	status, body := testutil.Do(t, env.app, "POST", "/auth/refresh", map[string]string{"refresh_token": refresh}, "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.NotEmpty(t, body.Data()["access_token"])
	assert.NotEqual(t, refresh, body.Data()["refresh_token"])

	status, body = testutil.Do(t, env.app, "POST", "/auth/refresh", map[string]string{"refresh_token": refresh}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", body.ErrorMessage())

	t.Run("access token is not a refresh token", func(t *testing.T) {
		user := &model.User{}
		require.NoError(t, env.db.Where("email = ?", "alice@test.io").First(user).Error)
		status, _ := testutil.Do(t, env.app, "POST", "/auth/refresh",
			map[string]string{"refresh_token": testutil.Token(t, env.jwt, user)}, "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	env := newAuthEnv(t)
	user := testutil.CreateUser(t, env.db, "alice@test.io", "Alice", model.RoleStudent)
	token := testutil.Token(t, env.jwt, user)

	status, _ := testutil.Do(t, env.app, "GET", "/me", nil, token)
	require.Equal(t, fiber.StatusNoContent, status)

	status, _ = testutil.Do(t, env.app, "POST", "/auth/logout", nil, token)
	require.Equal(t, fiber.StatusOK, status)

	status, body := testutil.Do(t, env.app, "GET", "/me", nil, token)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", body.ErrorMessage())
}

func TestChangePasswordInvalidatesSessions(t *testing.T) {
	env := newAuthEnv(t)
	user := testutil.CreateUser(t, env.db, "alice@test.io", "Alice", model.RoleStudent)
	token := testutil.Token(t, env.jwt, user)

	status, body := testutil.Do(t, env.app, "POST", "/auth/change-password", map[string]string{
		"current_password": "not-it", "new_password": "another1",
	}, token)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Current password is incorrect", body.ErrorMessage())

	status, _ = testutil.Do(t, env.app, "POST", "/auth/change-password", map[string]string{
		"current_password": "secret123", "new_password": "another1",
	}, token)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = testutil.Do(t, env.app, "GET", "/me", nil, token)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = testutil.Do(t, env.app, "POST", "/auth/login", map[string]string{
		"email": "alice@test.io", "password": "another1",
	}, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestForgotAndResetPassword(t *testing.T) {
	env := newAuthEnv(t)
	user := testutil.CreateUser(t, env.db, "alice@test.io", "Alice", model.RoleStudent)
	oldToken := testutil.Token(t, env.jwt, user)

	status, body := testutil.Do(t, env.app, "POST", "/auth/forgot-password", map[string]string{"email": "nobody@test.io"}, "")
	require.Equal(t, fiber.StatusOK, status)
	generic := body["message"]
	assert.Empty(t, env.mailer.reqs)

	status, body = testutil.Do(t, env.app, "POST", "/auth/forgot-password", map[string]string{"email": "alice@test.io"}, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, generic, body["message"])

	require.Len(t, env.mailer.reqs, 1)
	req := env.mailer.reqs[0]
	assert.Equal(t, model.EmailPasswordReset, req.Type)
	assert.Equal(t, "alice@test.io", req.To)

	link, err := url.Parse(req.Data.ResetLink)
	require.NoError(t, err)
	assert.Equal(t, "portal.test", link.Host)
	assert.Equal(t, "/reset-password", link.Path)
	raw := link.Query().Get("token")
	require.NotEmpty(t, raw)

	var stored model.PasswordResetToken
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&stored).Error)
	assert.Equal(t, crypto.HashToken(raw), stored.Token)
	assert.WithinDuration(t, time.Now().Add(ResetTokenTTL), stored.ExpiresAt, time.Minute)

	status, _ = testutil.Do(t, env.app, "POST", "/auth/reset-password", map[string]string{
		"token": "bogus", "new_password": "brandnew1",
	}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = testutil.Do(t, env.app, "POST", "/auth/reset-password", map[string]string{
		"token": raw, "new_password": "brandnew1",
	}, "")
	require.Equal(t, fiber.StatusOK, status)

	status, body = testutil.Do(t, env.app, "POST", "/auth/reset-password", map[string]string{
		"token": raw, "new_password": "brandnew2",
	}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Reset token has already been used", body.ErrorMessage())

	status, _ = testutil.Do(t, env.app, "GET", "/me", nil, oldToken)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = testutil.Do(t, env.app, "POST", "/auth/login", map[string]string{
		"email": "alice@test.io", "password": "brandnew1",
	}, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	env := newAuthEnv(t)
	user := testutil.CreateUser(t, env.db, "alice@test.io", "Alice", model.RoleStudent)

	require.NoError(t, env.db.Create(&model.PasswordResetToken{
		UserID:    user.ID,
		Token:     crypto.HashToken("stale"),
		ExpiresAt: time.Now().Add(-time.Minute),
	}).Error)

	status, body := testutil.Do(t, env.app, "POST", "/auth/reset-password", map[string]string{
		"token": "stale", "new_password": "brandnew1",
	}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Reset token has expired", body.ErrorMessage())
}
