package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-timetable/internal/models"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
	"github.com/noah-isme/smart-timetable/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(rows []export.ScheduleRow) ([]byte, error)
}

type pdfRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

type exportSource interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	ListEntries(ctx context.Context, timetableID string) ([]models.ScheduleEntry, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	ResultTTL time.Duration
	Timing    models.TimingConfig
}

// ExportResult carries a rendered timetable.
type ExportResult struct {
	Filename     string
	ContentType  string
	Payload      []byte
	RelativePath string
}

// ExportService renders saved timetables as CSV rows or a PDF grid and keeps
// a copy in file storage.
type ExportService struct {
	timetables exportSource
	batches    batchReader
	subjects   subjectReader
	faculty    facultyReader
	classrooms classroomReader
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService. storage may be nil.
func NewExportService(
	timetables exportSource,
	batches batchReader,
	subjects subjectReader,
	faculty facultyReader,
	classrooms classroomReader,
	storage fileStorage,
	cfg ExportConfig,
	logger *zap.Logger,
	csv csvRenderer,
	pdf pdfRenderer,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.Timing.DayStart == "" {
		cfg.Timing = DefaultTimingConfig()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		timetables: timetables,
		batches:    batches,
		subjects:   subjects,
		faculty:    faculty,
		classrooms: classrooms,
		storage:    storage,
		csv:        csv,
		pdf:        pdf,
		logger:     logger,
		cfg:        cfg,
	}
}

// Export renders the timetable identified by id in the given format.
func (s *ExportService) Export(ctx context.Context, id, format string) (*ExportResult, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "unsupported export format %s", format)
	}

	record, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	entries, err := s.timetables.ListEntries(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}
	names, err := s.loadNames(ctx)
	if err != nil {
		return nil, err
	}

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(buildRows(entries, names))
		contentType = "text/csv"
	case ExportFormatPDF:
		var sheet export.Sheet
		sheet, err = s.buildSheet(record, entries, names)
		if err == nil {
			payload, err = s.pdf.Render(sheet)
		}
		contentType = "application/pdf"
	}
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}

	result := &ExportResult{
		Filename:    buildFilename(record, format),
		ContentType: contentType,
		Payload:     payload,
	}
	if s.storage != nil {
		rel, saveErr := s.storage.Save(result.Filename, payload)
		if saveErr != nil {
			s.logger.Warn("export not archived", zap.String("timetable_id", id), zap.Error(saveErr))
		} else {
			result.RelativePath = rel
		}
	}
	return result, nil
}

// Cleanup removes archived exports older than ttl, or the configured TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if s.storage == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

type exportNames struct {
	subjects   map[string]models.Subject
	faculty    map[string]string
	classrooms map[string]string
	batches    map[string]string
}

func (s *ExportService) loadNames(ctx context.Context) (exportNames, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return exportNames{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	faculty, err := s.faculty.List(ctx)
	if err != nil {
		return exportNames{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	rooms, err := s.classrooms.List(ctx)
	if err != nil {
		return exportNames{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	batches, err := s.batches.List(ctx)
	if err != nil {
		return exportNames{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batches")
	}
	return newExportNames(subjects, faculty, rooms, batches), nil
}

func newExportNames(subjects []models.Subject, faculty []models.Faculty, rooms []models.Classroom, batches []models.Batch) exportNames {
	names := exportNames{
		subjects:   make(map[string]models.Subject, len(subjects)),
		faculty:    make(map[string]string, len(faculty)),
		classrooms: make(map[string]string, len(rooms)),
		batches:    make(map[string]string, len(batches)),
	}
	for _, sub := range subjects {
		names.subjects[sub.ID] = sub
	}
	for _, f := range faculty {
		names.faculty[f.ID] = f.Name
	}
	for _, r := range rooms {
		names.classrooms[r.ID] = r.Name
	}
	for _, b := range batches {
		names.batches[b.ID] = b.Name
	}
	return names
}

// ScheduleRows resolves entry references to display names for CSV output.
// Unknown ids are written as-is.
func ScheduleRows(entries []models.ScheduleEntry, subjects []models.Subject, faculty []models.Faculty, rooms []models.Classroom, batches []models.Batch) []export.ScheduleRow {
	return buildRows(entries, newExportNames(subjects, faculty, rooms, batches))
}

func buildRows(entries []models.ScheduleEntry, names exportNames) []export.ScheduleRow {
	rows := make([]export.ScheduleRow, 0, len(entries))
	for _, e := range entries {
		sub := names.subjects[e.SubjectID]
		row := export.ScheduleRow{
			Day:              models.DayName(e.DayOfWeek),
			TimeSlot:         e.TimeSlot,
			SubjectCode:      sub.Code,
			Subject:          fallback(sub.Name, e.SubjectID),
			Faculty:          fallback(names.faculty[e.FacultyID], e.FacultyID),
			Classroom:        fallback(names.classrooms[e.ClassroomID], e.ClassroomID),
			BlockSize:        e.BlockSize,
			Lab:              e.IsLab,
			Temporary:        e.IsTemporaryAllocation,
			AllocationReason: string(e.AllocationReason),
		}
		if e.OriginalOwnerID != nil {
			row.OriginalOwner = fallback(names.batches[*e.OriginalOwnerID], *e.OriginalOwnerID)
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *ExportService) buildSheet(record *models.Timetable, entries []models.ScheduleEntry, names exportNames) (export.Sheet, error) {
	timing := s.cfg.Timing
	if len(record.TimingConfig) > 0 {
		var stored models.TimingConfig
		if err := record.TimingConfig.Unmarshal(&stored); err == nil && stored.DayStart != "" {
			timing = stored
		}
	}
	grid, err := BuildTimeGrid(timing)
	if err != nil {
		return export.Sheet{}, err
	}

	cells := make(map[string]map[string]string, grid.Days())
	for _, e := range entries {
		day := models.DayName(e.DayOfWeek)
		if cells[day] == nil {
			cells[day] = map[string]string{}
		}
		sub := names.subjects[e.SubjectID]
		label := fallback(sub.Code, fallback(sub.Name, e.SubjectID))
		if e.IsLab {
			label += " (Lab)"
		}
		room := fallback(names.classrooms[e.ClassroomID], e.ClassroomID)
		if e.IsTemporaryAllocation {
			room += "*"
		}
		cells[day][e.TimeSlot] = fmt.Sprintf("%s\n%s\n%s", label, fallback(names.faculty[e.FacultyID], e.FacultyID), room)
	}

	subtitle := fallback(names.batches[record.BatchID], record.BatchID)
	if record.Semester > 0 {
		subtitle = fmt.Sprintf("%s | Semester %d", subtitle, record.Semester)
	}
	if record.AcademicYear != "" {
		subtitle = fmt.Sprintf("%s | %s", subtitle, record.AcademicYear)
	}
	title := record.Name
	if record.CollegeName != "" {
		title = record.CollegeName
	}
	return export.Sheet{
		Title:    title,
		Subtitle: subtitle,
		Days:     models.DayNames[:grid.Days()],
		Slots:    grid.Slots(),
		Breaks:   grid.Breaks(),
		Cells:    cells,
	}, nil
}

func buildFilename(record *models.Timetable, format string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("timetable_%s_%s.%s", sanitizeFilename(record.Name), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func fallback(value, alt string) string {
	if value == "" {
		return alt
	}
	return value
}
