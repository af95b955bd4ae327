package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,signup_role"`
}

type subjectInput struct {
	Name  string `json:"name" validate:"required,max=255"`
	Color string `json:"color" validate:"omitempty,subject_color"`
}

func TestValidateStruct_SignupRole(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateStruct(signupInput{Email: "a@b.co", Password: "secret", Role: "professor"}))
	assert.NoError(t, v.ValidateStruct(signupInput{Email: "a@b.co", Password: "secret"}))

	err := v.ValidateStruct(signupInput{Email: "a@b.co", Password: "secret", Role: "admin"})
	require.Error(t, err)
	assert.Equal(t, "Role must be student or professor", FormatValidationErrors(err)["role"])
}

func TestValidateStruct_SubjectColor(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateStruct(subjectInput{Name: "Math", Color: "#10B981"}))

	err := v.ValidateStruct(subjectInput{Name: "Math", Color: "#123456"})
	require.Error(t, err)
	assert.Contains(t, FormatValidationErrors(err), "color")
}

func TestDescribe_UsesJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.ValidateStruct(signupInput{Password: "123"})
	require.Error(t, err)

	assert.Equal(t, "email is required; password must be at least 6 characters", Describe(err))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hel\x00lo \n"))
	assert.Equal(t, "a@b.co", NormalizeEmail("  A@B.co "))
}
