package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/eduplatform-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchShortQuery(t *testing.T) {
	f := newFixture(t)
	svc := NewSearchService(f.db, f.roster)

	results, err := svc.Search(context.Background(), f.professor, " a ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchMatchesAndScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewSearchService(f.db, f.roster)

	maths := testutil.CreateSubject(t, f.db, f.professor, "Mathematics", "#10B981")
	testutil.CreateCourse(t, f.db, f.professor, maths, "Math basics", nil)
	testutil.CreateCourse(t, f.db, f.other, nil, "Math for historians", nil)
	testutil.CreateUser(t, f.db, "mathilde@test.io", "Mathilde", "student")

	results, err := svc.Search(ctx, f.alice, "MATH")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, SearchResult{ID: results[0].ID, Type: ResultCourse, Title: "Math basics", Subtitle: "Mathematics", Color: "#10B981"}, results[0])
	assert.Equal(t, ResultSubject, results[1].Type)

	// Mathilde is not the professor's student
	results, err = svc.Search(ctx, f.professor, "math")
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, ResultStudent, r.Type)
	}

	results, err = svc.Search(ctx, f.professor, "ali")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ResultStudent, results[0].Type)
	assert.Equal(t, "alice@test.io", results[0].Subtitle)

	results, err = svc.Search(ctx, f.admin, "math")
	require.NoError(t, err)
	var students int
	for _, r := range results {
		if r.Type == ResultStudent {
			students++
		}
	}
	assert.Equal(t, 1, students)
}

func TestSearchEscapesWildcards(t *testing.T) {
	f := newFixture(t)
	svc := NewSearchService(f.db, f.roster)
	testutil.CreateCourse(t, f.db, f.professor, nil, "Discounts", nil)
	testutil.CreateCourse(t, f.db, f.professor, nil, "100% effort", nil)

	results, err := svc.Search(context.Background(), f.professor, "0%")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "100% effort", results[0].Title)

	assert.Equal(t, `%50\%\_off%`, LikePattern("50%_OFF"))
}

func TestSearchLimitsEachKind(t *testing.T) {
	f := newFixture(t)
	for _, title := range []string{"Essay 1", "Essay 2", "Essay 3", "Essay 4"} {
		testutil.CreateCourse(t, f.db, f.professor, nil, title, nil)
	}

	results, err := NewSearchService(f.db, f.roster).Search(context.Background(), f.professor, "essay")
	require.NoError(t, err)
	assert.Len(t, results, 3)
}
