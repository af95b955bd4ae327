package services

import (
	"context"
	"strings"
	"testing"

	"github.com/sahilchouksey/eduplatform-api/internal/testutil"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentCreateNotifiesProfessor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := testutil.CreateCourse(t, f.db, f.professor, nil, "Limits", nil)

	comment, err := f.comments.Create(ctx, f.alice, course.ID, CreateCommentInput{Content: "  When is the exam?  "})
	require.NoError(t, err)
	assert.Equal(t, "When is the exam?", comment.Content)

	notes := f.inApp(t, f.professor.ID, model.NotificationCommentAdded)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "Alice")

	// The professor answering does not notify themselves
	_, err = f.comments.Create(ctx, f.professor, course.ID, CreateCommentInput{Content: "Friday"})
	require.NoError(t, err)
	assert.Len(t, f.inApp(t, f.professor.ID, model.NotificationCommentAdded), 1)

	list, err := f.comments.List(ctx, f.bob, course.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "When is the exam?", list[0].Content)
	require.NotNil(t, list[1].User)
	assert.Equal(t, "Paul Prof", list[1].User.FullName)
}

func TestCommentCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := testutil.CreateCourse(t, f.db, f.professor, nil, "Limits", nil)

	_, err := f.comments.Create(ctx, f.alice, course.ID, CreateCommentInput{Content: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.comments.Create(ctx, f.alice, course.ID, CreateCommentInput{Content: strings.Repeat("é", MaxCommentLength)})
	assert.NoError(t, err)

	_, err = f.comments.Create(ctx, f.alice, course.ID, CreateCommentInput{Content: strings.Repeat("a", MaxCommentLength+1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.comments.Create(ctx, f.carol, course.ID, CreateCommentInput{Content: "hello"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := testutil.CreateCourse(t, f.db, f.professor, nil, "Limits", nil)

	comment, err := f.comments.Create(ctx, f.alice, course.ID, CreateCommentInput{Content: "hi"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.comments.Delete(ctx, f.bob, comment.ID), ErrForbidden)
	require.NoError(t, f.comments.Delete(ctx, f.alice, comment.ID))
	assert.ErrorIs(t, f.comments.Delete(ctx, f.alice, comment.ID), ErrNotFound)

	other, err := f.comments.Create(ctx, f.bob, course.ID, CreateCommentInput{Content: "bye"})
	require.NoError(t, err)
	assert.NoError(t, f.comments.Delete(ctx, f.admin, other.ID))
}
