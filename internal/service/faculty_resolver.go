package service

import (
	"sort"

	"github.com/samber/lo"

	"github.com/noah-isme/smart-timetable/internal/models"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
)

const (
	departmentFallbackPriority = 3
	generalFallbackPriority    = 4
)

// FacultyResolver ranks faculty for a subject from the most specific
// assignment tier down to "anyone on staff". Availability is not considered
// here; the scheduler checks it per placement attempt.
type FacultyResolver struct {
	faculty     []models.Faculty
	byID        map[string]models.Faculty
	assignments map[string][]models.FacultySubjectAssignment
}

// NewFacultyResolver indexes faculty and assignments. Inputs are not mutated.
func NewFacultyResolver(faculty []models.Faculty, assignments []models.FacultySubjectAssignment) *FacultyResolver {
	sorted := make([]models.Faculty, len(faculty))
	copy(sorted, faculty)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[string]models.Faculty, len(sorted))
	for _, f := range sorted {
		byID[f.ID] = f
	}
	bySubject := make(map[string][]models.FacultySubjectAssignment)
	for _, a := range assignments {
		bySubject[a.SubjectID] = append(bySubject[a.SubjectID], a)
	}
	for subjectID := range bySubject {
		list := bySubject[subjectID]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Priority != list[j].Priority {
				return list[i].Priority < list[j].Priority
			}
			if list[i].IsPrimary != list[j].IsPrimary {
				return list[i].IsPrimary
			}
			return list[i].FacultyID < list[j].FacultyID
		})
	}
	return &FacultyResolver{faculty: sorted, byID: byID, assignments: bySubject}
}

// Resolve returns candidates for subject, most specific tier first. Each tier
// is consulted only when every earlier tier came back empty.
func (r *FacultyResolver) Resolve(subject models.Subject, batch *models.Batch) ([]models.FacultyCandidate, error) {
	assigned := r.assignments[subject.ID]

	if batch != nil {
		exact := lo.Filter(assigned, func(a models.FacultySubjectAssignment, _ int) bool {
			return a.Department != nil && *a.Department == batch.Department &&
				a.Branch != nil && *a.Branch == batch.Branch &&
				a.Semester != nil && *a.Semester == batch.Semester
		})
		if len(exact) > 0 {
			return r.fromAssignments(subject, exact, models.FacultyExactMatch)
		}
	}

	dept := lo.Filter(assigned, func(a models.FacultySubjectAssignment, _ int) bool {
		return a.Department != nil && *a.Department == subject.Department
	})
	if len(dept) > 0 {
		return r.fromAssignments(subject, dept, models.FacultyDepartmentMatch)
	}

	if len(assigned) > 0 {
		return r.fromAssignments(subject, assigned, models.FacultySubjectMatch)
	}

	if subject.Department != "" {
		var candidates []models.FacultyCandidate
		for _, f := range r.faculty {
			if f.Department == subject.Department {
				candidates = append(candidates, models.FacultyCandidate{
					Faculty:   f,
					Priority:  departmentFallbackPriority,
					MatchType: models.FacultyDepartmentFallback,
				})
			}
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}

	candidates := make([]models.FacultyCandidate, 0, len(r.faculty))
	for _, f := range r.faculty {
		candidates = append(candidates, models.FacultyCandidate{
			Faculty:   f,
			Priority:  generalFallbackPriority,
			MatchType: models.FacultyGeneralFallback,
		})
	}
	return candidates, nil
}

// Faculty looks up a faculty record by id.
func (r *FacultyResolver) Faculty(id string) (models.Faculty, bool) {
	f, ok := r.byID[id]
	return f, ok
}

func (r *FacultyResolver) fromAssignments(subject models.Subject, items []models.FacultySubjectAssignment, match models.FacultyMatchType) ([]models.FacultyCandidate, error) {
	seen := make(map[string]bool, len(items))
	candidates := make([]models.FacultyCandidate, 0, len(items))
	for _, a := range items {
		if seen[a.FacultyID] {
			continue
		}
		f, ok := r.byID[a.FacultyID]
		if !ok {
			return nil, appErrors.Clonef(appErrors.ErrConsistencyViolation,
				"assignment %s for subject %s references unknown faculty %s", a.ID, subject.ID, a.FacultyID)
		}
		seen[a.FacultyID] = true
		candidates = append(candidates, models.FacultyCandidate{
			Faculty:   f,
			IsPrimary: a.IsPrimary,
			Priority:  a.Priority,
			MatchType: match,
		})
	}
	return candidates, nil
}
