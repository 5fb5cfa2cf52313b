package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-timetable/internal/models"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
)

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func resolverFaculty() []models.Faculty {
	return []models.Faculty{
		{ID: "f3", Name: "Carol", Department: "CSE"},
		{ID: "f1", Name: "Alice", Department: "CSE"},
		{ID: "f2", Name: "Bob", Department: "ECE"},
		{ID: "f4", Name: "Dan", Department: "MECH"},
	}
}

func resolverBatch() *models.Batch {
	return &models.Batch{ID: "b1", Department: "CSE", Branch: "CSE", Semester: 3}
}

func candidateIDs(candidates []models.FacultyCandidate) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Faculty.ID)
	}
	return ids
}

func TestFacultyResolverExactMatchWins(t *testing.T) {
	resolver := NewFacultyResolver(resolverFaculty(), []models.FacultySubjectAssignment{
		{ID: "a1", FacultyID: "f2", SubjectID: "s1", Department: strPtr("CSE"), Priority: 1},
		{ID: "a2", FacultyID: "f3", SubjectID: "s1", Department: strPtr("CSE"), Branch: strPtr("CSE"), Semester: intPtr(3), Priority: 2},
	})

	candidates, err := resolver.Resolve(models.Subject{ID: "s1", Department: "CSE"}, resolverBatch())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "f3", candidates[0].Faculty.ID)
	assert.Equal(t, models.FacultyExactMatch, candidates[0].MatchType)
}

func TestFacultyResolverDepartmentMatchOrdering(t *testing.T) {
	resolver := NewFacultyResolver(resolverFaculty(), []models.FacultySubjectAssignment{
		{ID: "a1", FacultyID: "f1", SubjectID: "s1", Department: strPtr("CSE"), Priority: 2},
		{ID: "a2", FacultyID: "f3", SubjectID: "s1", Department: strPtr("CSE"), Priority: 1},
		{ID: "a3", FacultyID: "f2", SubjectID: "s1", Department: strPtr("CSE"), Priority: 2, IsPrimary: true},
		{ID: "a4", FacultyID: "f4", SubjectID: "s1", Department: strPtr("MECH"), Priority: 1},
	})

	candidates, err := resolver.Resolve(models.Subject{ID: "s1", Department: "CSE"}, resolverBatch())
	require.NoError(t, err)
	assert.Equal(t, []string{"f3", "f2", "f1"}, candidateIDs(candidates))
	for _, c := range candidates {
		assert.Equal(t, models.FacultyDepartmentMatch, c.MatchType)
	}
	assert.True(t, candidates[1].IsPrimary)
}

func TestFacultyResolverSubjectMatch(t *testing.T) {
	resolver := NewFacultyResolver(resolverFaculty(), []models.FacultySubjectAssignment{
		{ID: "a1", FacultyID: "f4", SubjectID: "s1", Department: strPtr("MECH"), Priority: 1},
		{ID: "a2", FacultyID: "f4", SubjectID: "s1", Priority: 2},
	})

	candidates, err := resolver.Resolve(models.Subject{ID: "s1", Department: "CSE"}, resolverBatch())
	require.NoError(t, err)
	assert.Equal(t, []string{"f4"}, candidateIDs(candidates), "duplicate faculty collapse to one candidate")
	assert.Equal(t, models.FacultySubjectMatch, candidates[0].MatchType)
}

func TestFacultyResolverFallbacks(t *testing.T) {
	resolver := NewFacultyResolver(resolverFaculty(), nil)

	candidates, err := resolver.Resolve(models.Subject{ID: "s1", Department: "CSE"}, resolverBatch())
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f3"}, candidateIDs(candidates))
	assert.Equal(t, models.FacultyDepartmentFallback, candidates[0].MatchType)

	candidates, err = resolver.Resolve(models.Subject{ID: "s2", Department: "CIVIL"}, resolverBatch())
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2", "f3", "f4"}, candidateIDs(candidates))
	assert.Equal(t, models.FacultyGeneralFallback, candidates[0].MatchType)
}

func TestFacultyResolverIsIdempotent(t *testing.T) {
	assignments := []models.FacultySubjectAssignment{
		{ID: "a1", FacultyID: "f1", SubjectID: "s1", Department: strPtr("CSE"), Priority: 1},
		{ID: "a2", FacultyID: "f3", SubjectID: "s1", Department: strPtr("CSE"), Priority: 1},
	}
	resolver := NewFacultyResolver(resolverFaculty(), assignments)
	subject := models.Subject{ID: "s1", Department: "CSE"}

	first, err := resolver.Resolve(subject, resolverBatch())
	require.NoError(t, err)
	second, err := resolver.Resolve(subject, resolverBatch())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	rebuilt, err := NewFacultyResolver(resolverFaculty(), assignments).Resolve(subject, resolverBatch())
	require.NoError(t, err)
	assert.Equal(t, first, rebuilt)
}

func TestFacultyResolverUnknownFaculty(t *testing.T) {
	resolver := NewFacultyResolver(resolverFaculty(), []models.FacultySubjectAssignment{
		{ID: "a1", FacultyID: "ghost", SubjectID: "s1"},
	})

	_, err := resolver.Resolve(models.Subject{ID: "s1"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConsistencyViolation)
	assert.Contains(t, err.Error(), "ghost")
}
