package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputError_MatchesInvalidInput(t *testing.T) {
	err := Invalid("Grade must be between %d and %d", 0, 20)

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "Grade must be between 0 and 20", err.Error())

	wrapped := fmt.Errorf("failed to grade: %w", err)
	var ie *InputError
	assert.True(t, errors.As(wrapped, &ie))
	assert.Equal(t, "Grade must be between 0 and 20", ie.Message)
}

func TestSentinelHelpers(t *testing.T) {
	assert.ErrorIs(t, notFound("Course"), ErrNotFound)
	assert.Equal(t, "Course not found", notFound("Course").Error())
	assert.ErrorIs(t, forbidden("Only the course owner can do that"), ErrForbidden)
	assert.ErrorIs(t, conflict("User already registered"), ErrConflict)
	assert.NotErrorIs(t, conflict("x"), ErrNotFound)
}
