package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfileIncludesProfessorForStudents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile, err := f.profiles.GetProfile(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@test.io", profile.Email)
	require.NotNil(t, profile.Professor)
	assert.Equal(t, f.professor.ID, profile.Professor.ID)

	profile, err = f.profiles.GetProfile(ctx, f.professor.ID)
	require.NoError(t, err)
	assert.Nil(t, profile.Professor)

	_, err = f.profiles.GetProfile(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name, class := "Alice Liddell", "Terminale S"
	profile, err := f.profiles.UpdateProfile(ctx, f.alice.ID, UpdateProfileInput{FullName: &name, ClassName: &class})
	require.NoError(t, err)
	assert.Equal(t, name, profile.FullName)
	assert.Equal(t, class, profile.ClassName)

	empty := ""
	_, err = f.profiles.UpdateProfile(ctx, f.alice.ID, UpdateProfileInput{FullName: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListProfessors(t *testing.T) {
	f := newFixture(t)

	professors, err := f.profiles.ListProfessors(context.Background())
	require.NoError(t, err)
	require.Len(t, professors, 2)
	assert.Equal(t, "Olga Other", professors[0].FullName)
	assert.Equal(t, "Paul Prof", professors[1].FullName)
}

func TestAssignProfessorReplacesExistingLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile, err := f.profiles.AssignProfessor(ctx, f.alice, f.other.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.Professor)
	assert.Equal(t, f.other.ID, profile.Professor.ID)

	var links int64
	require.NoError(t, f.db.Model(&model.ProfessorStudent{}).Where("student_id = ?", f.alice.ID).Count(&links).Error)
	assert.EqualValues(t, 1, links)

	_, err = f.profiles.AssignProfessor(ctx, f.loner, f.professor.ID)
	require.NoError(t, err)
	students, err := f.roster.StudentsOf(ctx, f.professor.ID)
	require.NoError(t, err)
	ids := make([]uint, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []uint{f.bob.ID, f.loner.ID}, ids)
}

func TestAssignProfessorRejectsNonProfessors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.profiles.AssignProfessor(ctx, f.alice, f.bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.profiles.AssignProfessor(ctx, f.professor, f.other.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// The failed attempt left the original assignment alone
	prof, err := f.roster.ProfessorOf(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, f.professor.ID, prof.ID)
}
