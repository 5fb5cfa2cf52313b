// Package csvio loads scheduling entities from a directory of CSV files.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/smart-timetable/internal/models"
)

// File names expected inside a data directory. committed_entries.csv is
// optional and holds entries of already active timetables.
const (
	BatchesFile     = "batches.csv"
	SubjectsFile    = "subjects.csv"
	FacultyFile     = "faculty.csv"
	AssignmentsFile = "faculty_subjects.csv"
	ClassroomsFile  = "classrooms.csv"
	CommittedFile   = "committed_entries.csv"
)

// Dataset is everything one generation needs.
type Dataset struct {
	Batches     []models.Batch
	Subjects    []models.Subject
	Faculty     []models.Faculty
	Assignments []models.FacultySubjectAssignment
	Classrooms  []models.Classroom
	Committed   []models.ScheduleEntry
}

// Batch returns the batch with id.
func (d *Dataset) Batch(id string) (models.Batch, bool) {
	for _, b := range d.Batches {
		if b.ID == id {
			return b, true
		}
	}
	return models.Batch{}, false
}

// SubjectsFor returns subjects of department taught in semester.
func (d *Dataset) SubjectsFor(department string, semester int) []models.Subject {
	var out []models.Subject
	for _, s := range d.Subjects {
		if s.Department == department && s.Semester == semester {
			out = append(out, s)
		}
	}
	return out
}

// LoadDir reads every entity file under dir using delim as separator.
func LoadDir(dir string, delim rune) (*Dataset, error) {
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = delim
		r.TrimLeadingSpace = true
		return r
	})

	ds := &Dataset{}
	if err := load(filepath.Join(dir, BatchesFile), &ds.Batches, true); err != nil {
		return nil, err
	}
	if err := load(filepath.Join(dir, SubjectsFile), &ds.Subjects, true); err != nil {
		return nil, err
	}
	if err := load(filepath.Join(dir, FacultyFile), &ds.Faculty, true); err != nil {
		return nil, err
	}
	if err := load(filepath.Join(dir, AssignmentsFile), &ds.Assignments, false); err != nil {
		return nil, err
	}
	if err := load(filepath.Join(dir, ClassroomsFile), &ds.Classrooms, true); err != nil {
		return nil, err
	}
	if err := load(filepath.Join(dir, CommittedFile), &ds.Committed, false); err != nil {
		return nil, err
	}
	return ds, nil
}

func load[T any](path string, out *[]T, required bool) error {
	file, err := os.Open(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer file.Close() //nolint:errcheck

	if err := gocsv.UnmarshalFile(file, out); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil
		}
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
