package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/utils/auth"
	"github.com/stretchr/testify/require"
)

// NewJWT returns a manager with a fixed test secret
func NewJWT() *auth.JWTManager {
	return auth.NewJWTManager(auth.JWTConfig{
		Secret:        "test-secret-test-secret-test-secret",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "eduplatform-test",
	})
}

// Token issues an access token for user
func Token(t *testing.T, jwt *auth.JWTManager, user *model.User) string {
	t.Helper()

	token, _, err := jwt.GenerateAccessToken(auth.Subject{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	require.NoError(t, err)
	return token
}

// Body is a decoded response envelope
type Body map[string]interface{}

// Data returns the "data" field as an object
func (b Body) Data() map[string]interface{} {
	m, _ := b["data"].(map[string]interface{})
	return m
}

// List returns the "data" field as an array
func (b Body) List() []interface{} {
	l, _ := b["data"].([]interface{})
	return l
}

// ErrorMessage returns error.message, falling back to the top level message
func (b Body) ErrorMessage() string {
	if e, ok := b["error"].(map[string]interface{}); ok {
		if msg, ok := e["message"].(string); ok {
			return msg
		}
	}
	msg, _ := b["message"].(string)
	return msg
}

// Do sends a JSON request through app and decodes the response envelope.
// body may be nil; token may be empty.
func Do(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (int, Body) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return Send(t, app, req)
}

// Send runs req through app and decodes the JSON body
func Send(t *testing.T, app *fiber.App, req *http.Request) (int, Body) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out Body
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}
