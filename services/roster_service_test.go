package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterVisibleProfessorIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	scope, err := f.roster.VisibleProfessorIDs(ctx, f.admin)
	require.NoError(t, err)
	assert.True(t, scope.All)

	scope, err = f.roster.VisibleProfessorIDs(ctx, f.professor)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.professor.ID}, scope.ProfessorIDs)

	scope, err = f.roster.VisibleProfessorIDs(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.professor.ID}, scope.ProfessorIDs)
	assert.False(t, scope.Allows(f.other.ID))

	scope, err = f.roster.VisibleProfessorIDs(ctx, f.loner)
	require.NoError(t, err)
	assert.False(t, scope.All)
	assert.Empty(t, scope.ProfessorIDs)
	assert.False(t, scope.Allows(f.professor.ID))
}

func TestRosterListStudents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	students, err := f.roster.ListStudents(ctx, f.professor)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Alice", students[0].FullName)
	assert.Equal(t, "Bob", students[1].FullName)

	classmates, err := f.roster.ListStudents(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, classmates, 1)
	assert.Equal(t, f.bob.ID, classmates[0].ID)

	none, err := f.roster.ListStudents(ctx, f.loner)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRosterProfessorOf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	prof, err := f.roster.ProfessorOf(ctx, f.carol.ID)
	require.NoError(t, err)
	require.NotNil(t, prof)
	assert.Equal(t, f.other.ID, prof.ID)

	prof, err = f.roster.ProfessorOf(ctx, f.loner.ID)
	require.NoError(t, err)
	assert.Nil(t, prof)
}
