package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-timetable/internal/dto"
	"github.com/noah-isme/smart-timetable/internal/models"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
)

type batchReader interface {
	FindByID(ctx context.Context, id string) (*models.Batch, error)
	List(ctx context.Context) ([]models.Batch, error)
}

type subjectReader interface {
	ListByDepartmentSemester(ctx context.Context, department string, semester int) ([]models.Subject, error)
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type facultyReader interface {
	List(ctx context.Context) ([]models.Faculty, error)
	ListAssignments(ctx context.Context, subjectIDs []string) ([]models.FacultySubjectAssignment, error)
}

type classroomReader interface {
	List(ctx context.Context) ([]models.Classroom, error)
}

type timetableStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error
	InsertEntries(ctx context.Context, exec sqlx.ExtContext, timetableID string, entries []models.ScheduleEntry) error
	InsertAllocations(ctx context.Context, exec sqlx.ExtContext, timetableID string, ledger []models.AllocationLedgerEntry) error
	List(ctx context.Context, batchID string, status models.TimetableStatus) ([]models.Timetable, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	ListEntries(ctx context.Context, timetableID string) ([]models.ScheduleEntry, error)
	ListCommittedEntries(ctx context.Context, exec sqlx.ExtContext, excludeBatchID string) ([]models.ScheduleEntry, error)
	ArchiveActive(ctx context.Context, exec sqlx.ExtContext, batchID, keepID string) error
	Delete(ctx context.Context, id string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableServiceConfig governs generation defaults.
type TimetableServiceConfig struct {
	Timing            models.TimingConfig
	Candidates        int
	Limits            PlacementLimits
	GenerationTimeout time.Duration
	ProposalTTL       time.Duration
	// CacheProposals mirrors proposals to Redis so any replica can save them.
	CacheProposals bool
}

// TimetableService generates ranked timetable proposals, saves chosen options
// and answers classroom availability and utilisation queries.
type TimetableService struct {
	batches    batchReader
	subjects   subjectReader
	faculty    facultyReader
	classrooms classroomReader
	timetables timetableStore
	tx         txProvider
	evaluator  *TimetableEvaluator
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	store      *proposalStore
	cfg        TimetableServiceConfig

	// saveMu serialises the conflict re-check and insert of Save so two
	// proposals can never both claim the same classroom or faculty slot.
	saveMu sync.Mutex
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	batches batchReader,
	subjects subjectReader,
	faculty facultyReader,
	classrooms classroomReader,
	timetables timetableStore,
	tx txProvider,
	evaluator *TimetableEvaluator,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if evaluator == nil {
		evaluator = NewTimetableEvaluator(NewCandidateScheduler(logger), 0, logger)
	}
	if cfg.Candidates <= 0 {
		cfg.Candidates = 3
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.Timing.DayStart == "" {
		cfg.Timing = DefaultTimingConfig()
	}
	return &TimetableService{
		batches:    batches,
		subjects:   subjects,
		faculty:    faculty,
		classrooms: classrooms,
		timetables: timetables,
		tx:         tx,
		evaluator:  evaluator,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		store:      newProposalStore(cfg.ProposalTTL),
		cfg:        cfg,
	}
}

// Generate builds and ranks candidate timetables for a batch and semester.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	batch, err := s.loadBatch(ctx, req.BatchID)
	if err != nil {
		return nil, err
	}

	timing := mergeTiming(s.cfg.Timing, req.Timing)
	grid, err := BuildTimeGrid(timing)
	if err != nil {
		return nil, err
	}

	input, err := s.buildRunInput(ctx, *batch, req.Semester, grid)
	if err != nil {
		return nil, err
	}

	n := req.NumOptions
	if n <= 0 {
		n = s.cfg.Candidates
	}
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	runCtx := ctx
	if s.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.GenerationTimeout)
		defer cancel()
	}

	started := time.Now()
	candidates, err := s.evaluator.Evaluate(runCtx, input, n, seed)
	s.metrics.ObserveGeneration(candidates, time.Since(started), err)
	if err != nil {
		return nil, err
	}

	proposal := timetableProposal{
		ProposalID:  uuid.NewString(),
		BatchID:     batch.ID,
		Semester:    req.Semester,
		Timing:      grid.Config(),
		Options:     make([]dto.TimetableOption, 0, len(candidates)),
		Ledgers:     make(map[int][]models.AllocationLedgerEntry, len(candidates)),
		Scores:      make(map[int]float64, len(candidates)),
		RequestedAt: time.Now().UTC(),
	}
	for _, c := range candidates {
		proposal.Options = append(proposal.Options, toOption(c, grid))
		proposal.Ledgers[c.OptionID] = c.Result.Ledger
		proposal.Scores[c.OptionID] = c.Score
	}
	s.store.Save(proposal)
	if s.cfg.CacheProposals {
		if err := s.cache.Set(ctx, ProposalKey(proposal.ProposalID), proposal, s.cfg.ProposalTTL); err != nil {
			s.logger.Warn("proposal not cached", zap.String("proposal_id", proposal.ProposalID), zap.Error(err))
		}
	}

	s.logger.Info("timetable generated",
		zap.String("proposal_id", proposal.ProposalID),
		zap.String("batch_id", batch.ID),
		zap.Int("semester", req.Semester),
		zap.Int("options", len(proposal.Options)),
		zap.Int64("seed", seed),
		zap.Duration("elapsed", time.Since(started)),
	)

	return &dto.GenerateTimetableResponse{
		ProposalID: proposal.ProposalID,
		BatchID:    batch.ID,
		Semester:   req.Semester,
		Timing:     proposal.Timing,
		TimeSlots:  grid.Slots(),
		LabStarts:  grid.LabStarts(),
		Days:       models.DayNames[:grid.Days()],
		Options:    proposal.Options,
		ExpiresAt:  proposal.RequestedAt.Add(s.cfg.ProposalTTL),
	}, nil
}

// Save persists one option of a proposal after re-checking it against every
// active timetable. Concurrent saves are serialised.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save timetable payload")
	}
	proposal, ok := s.lookupProposal(ctx, req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	var option *dto.TimetableOption
	for i := range proposal.Options {
		if proposal.Options[i].OptionID == req.OptionID {
			option = &proposal.Options[i]
			break
		}
	}
	if option == nil {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "option %d is not part of proposal %s", req.OptionID, req.ProposalID)
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	timingBytes, marshalErr := json.Marshal(proposal.Timing)
	if marshalErr != nil {
		return nil, appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timing configuration")
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	txStarted := time.Now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	committed, err := s.timetables.ListCommittedEntries(ctx, tx, proposal.BatchID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committed timetables")
		return nil, err
	}
	if conflicts := detectConflicts(option.Entries, committed); len(conflicts) > 0 {
		err = appErrors.Clonef(appErrors.ErrConflict, "option conflicts with active timetables: %s", strings.Join(conflicts, "; "))
		return nil, err
	}

	status := models.TimetableStatusDraft
	if req.Activate {
		status = models.TimetableStatusActive
	}
	record := &models.Timetable{
		Name:         req.Name,
		BatchID:      proposal.BatchID,
		AcademicYear: req.AcademicYear,
		Semester:     proposal.Semester,
		Status:       status,
		TimingConfig: types.JSONText(timingBytes),
		CollegeName:  req.CollegeName,
		Score:        proposal.Scores[req.OptionID],
	}
	if err = s.timetables.Create(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
		return nil, err
	}

	entries := make([]models.ScheduleEntry, len(option.Entries))
	copy(entries, option.Entries)
	if err = s.timetables.InsertEntries(ctx, tx, record.ID, entries); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable entries")
		return nil, err
	}
	ledger := make([]models.AllocationLedgerEntry, len(proposal.Ledgers[req.OptionID]))
	copy(ledger, proposal.Ledgers[req.OptionID])
	if err = s.timetables.InsertAllocations(ctx, tx, record.ID, ledger); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist classroom allocations")
		return nil, err
	}
	if req.Activate {
		if err = s.timetables.ArchiveActive(ctx, tx, proposal.BatchID, record.ID); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive previous timetables")
			return nil, err
		}
		if stale := staleBorrows(option.Entries, committed, proposal.BatchID); len(stale) > 0 {
			s.logger.Warn("activation leaves borrowed classrooms without an owner lab",
				zap.String("batch_id", proposal.BatchID),
				zap.Int("entries", len(stale)),
				zap.Strings("borrows", stale),
			)
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return nil, err
	}
	s.metrics.ObserveDBQuery("save_timetable", time.Since(txStarted))

	s.store.Delete(req.ProposalID)
	_ = s.cache.Delete(ctx, ProposalKey(req.ProposalID))
	_ = s.cache.InvalidateReports(ctx)

	s.logger.Info("timetable saved",
		zap.String("timetable_id", record.ID),
		zap.String("batch_id", record.BatchID),
		zap.String("status", string(record.Status)),
		zap.Int("entries", len(entries)),
	)
	return record, nil
}

// List returns saved timetables.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable query")
	}
	list, err := s.timetables.List(ctx, query.BatchID, models.TimetableStatus(query.Status))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return list, nil
}

// Get returns a timetable header with its entries.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.Timetable, []models.ScheduleEntry, error) {
	record, err := s.loadTimetable(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.timetables.ListEntries(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}
	return record, entries, nil
}

// Delete removes a draft timetable.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	record, err := s.loadTimetable(ctx, id)
	if err != nil {
		return err
	}
	if record.Status != models.TimetableStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be deleted")
	}
	if err := s.timetables.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	_ = s.cache.InvalidateReports(ctx)
	return nil
}

// CheckAvailability ranks classrooms a batch could use at one slot against
// every active timetable.
func (s *TimetableService) CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) ([]dto.ClassroomOption, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	batch, err := s.loadBatch(ctx, req.BatchID)
	if err != nil {
		return nil, err
	}
	var subject *models.Subject
	if req.SubjectID != "" {
		subject, err = s.subjects.FindByID(ctx, req.SubjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}
	}
	rooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	committed, err := s.timetables.ListCommittedEntries(ctx, nil, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committed timetables")
	}

	allocator := NewClassroomAllocator(rooms)
	options := allocator.FindAvailable(*batch, req.DayOfWeek, req.TimeSlot, subject, NewOccupancy(committed...))
	result := make([]dto.ClassroomOption, 0, len(options))
	for _, opt := range options {
		result = append(result, dto.ClassroomOption{
			ClassroomID:    opt.Classroom.ID,
			ClassroomName:  opt.Classroom.Name,
			Capacity:       opt.Classroom.Capacity,
			Type:           opt.Classroom.Type,
			PriorityScore:  opt.Score,
			AllocationType: opt.Type,
			Temporary:      opt.Temporary(),
			OriginalOwner:  opt.OriginalOwner,
			Reason:         opt.Reason,
		})
	}
	return result, nil
}

// Utilization reports classroom usage for one timetable or all active ones.
func (s *TimetableService) Utilization(ctx context.Context, query dto.ReportQuery) ([]models.ClassroomUtilization, error) {
	key := ReportKey("utilization", reportScope(query))
	var cached []models.ClassroomUtilization
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	entries, timing, err := s.reportEntries(ctx, query)
	if err != nil {
		return nil, err
	}
	grid, err := BuildTimeGrid(timing)
	if err != nil {
		return nil, err
	}
	rooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}

	report := NewClassroomAllocator(rooms).UtilizationReport(entries, grid.SlotUniverse())
	_ = s.cache.Set(ctx, key, report, 0)
	return report, nil
}

// Suggestions proposes better classrooms for existing entries. It never
// changes saved timetables.
func (s *TimetableService) Suggestions(ctx context.Context, query dto.ReportQuery) ([]models.OptimizationSuggestion, error) {
	entries, _, err := s.reportEntries(ctx, query)
	if err != nil {
		return nil, err
	}
	rooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	batches, err := s.batches.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batches")
	}
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}

	batchByID := make(map[string]models.Batch, len(batches))
	for _, b := range batches {
		batchByID[b.ID] = b
	}
	subjectByID := make(map[string]models.Subject, len(subjects))
	for _, sub := range subjects {
		subjectByID[sub.ID] = sub
	}
	return NewClassroomAllocator(rooms).OptimizationSuggestions(entries, batchByID, subjectByID)
}

func (s *TimetableService) buildRunInput(ctx context.Context, batch models.Batch, semester int, grid *TimeGrid) (RunInput, error) {
	subjects, err := s.subjects.ListByDepartmentSemester(ctx, batch.Department, semester)
	if err != nil {
		return RunInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	if len(subjects) == 0 {
		return RunInput{}, appErrors.Clonef(appErrors.ErrPreconditionFailed, "no subjects defined for %s semester %d", batch.Department, semester)
	}
	faculty, err := s.faculty.List(ctx)
	if err != nil {
		return RunInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	subjectIDs := make([]string, 0, len(subjects))
	for _, sub := range subjects {
		subjectIDs = append(subjectIDs, sub.ID)
	}
	assignments, err := s.faculty.ListAssignments(ctx, subjectIDs)
	if err != nil {
		return RunInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty assignments")
	}
	rooms, err := s.classrooms.List(ctx)
	if err != nil {
		return RunInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	if len(rooms) == 0 {
		return RunInput{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "no classrooms defined")
	}
	committed, err := s.timetables.ListCommittedEntries(ctx, nil, batch.ID)
	if err != nil {
		return RunInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committed timetables")
	}

	return RunInput{
		Batch:     batch,
		Subjects:  subjects,
		Resolver:  NewFacultyResolver(faculty, assignments),
		Allocator: NewClassroomAllocator(rooms),
		Grid:      grid,
		Committed: NewOccupancy(committed...),
		Limits:    s.cfg.Limits,
	}, nil
}

func (s *TimetableService) reportEntries(ctx context.Context, query dto.ReportQuery) (models.Schedule, models.TimingConfig, error) {
	if query.TimetableID == "" {
		entries, err := s.timetables.ListCommittedEntries(ctx, nil, "")
		if err != nil {
			return nil, models.TimingConfig{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committed timetables")
		}
		return entries, s.cfg.Timing, nil
	}
	record, entries, err := s.Get(ctx, query.TimetableID)
	if err != nil {
		return nil, models.TimingConfig{}, err
	}
	timing := s.cfg.Timing
	if len(record.TimingConfig) > 0 {
		var stored models.TimingConfig
		if err := record.TimingConfig.Unmarshal(&stored); err == nil && stored.DayStart != "" {
			timing = stored
		}
	}
	return entries, timing, nil
}

func (s *TimetableService) loadBatch(ctx context.Context, id string) (*models.Batch, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	return batch, nil
}

func (s *TimetableService) loadTimetable(ctx context.Context, id string) (*models.Timetable, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	record, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return record, nil
}

func (s *TimetableService) lookupProposal(ctx context.Context, id string) (timetableProposal, bool) {
	if proposal, ok := s.store.Get(id); ok {
		return proposal, true
	}
	if !s.cfg.CacheProposals {
		return timetableProposal{}, false
	}
	var cached timetableProposal
	if hit, _ := s.cache.Get(ctx, ProposalKey(id), &cached); hit {
		return cached, true
	}
	return timetableProposal{}, false
}

func reportScope(query dto.ReportQuery) string {
	if query.TimetableID == "" {
		return "active"
	}
	return query.TimetableID
}

// detectConflicts lists faculty and classroom clashes between proposed and
// committed entries, and borrows whose owner is no longer in a lab.
func detectConflicts(proposed, committed []models.ScheduleEntry) []string {
	occ := NewOccupancy(committed...)
	var conflicts []string
	for _, entry := range proposed {
		day := models.DayName(entry.DayOfWeek)
		if occ.FacultyBusy(entry.FacultyID, entry.DayOfWeek, entry.TimeSlot) {
			conflicts = append(conflicts, fmt.Sprintf("faculty %s busy %s %s", entry.FacultyID, day, entry.TimeSlot))
		}
		if holder, held := occ.RoomHolder(entry.ClassroomID, entry.DayOfWeek, entry.TimeSlot); held {
			conflicts = append(conflicts, fmt.Sprintf("classroom %s held by batch %s %s %s", entry.ClassroomID, holder.BatchID, day, entry.TimeSlot))
		}
		if entry.IsTemporaryAllocation && entry.OriginalOwnerID != nil && !occ.BatchHasLab(*entry.OriginalOwnerID, entry.DayOfWeek, entry.TimeSlot) {
			conflicts = append(conflicts, fmt.Sprintf("borrowed classroom %s: owner %s no longer in a lab %s %s", entry.ClassroomID, *entry.OriginalOwnerID, day, entry.TimeSlot))
		}
	}
	return conflicts
}

// staleBorrows lists committed entries that borrow owner's fixed room at a
// time the owner's new timetable has no lab.
func staleBorrows(proposed, committed []models.ScheduleEntry, owner string) []string {
	occ := NewOccupancy(proposed...)
	var stale []string
	for _, entry := range committed {
		if !entry.IsTemporaryAllocation || entry.OriginalOwnerID == nil || *entry.OriginalOwnerID != owner {
			continue
		}
		if occ.BatchHasLab(owner, entry.DayOfWeek, entry.TimeSlot) {
			continue
		}
		stale = append(stale, fmt.Sprintf("batch %s in classroom %s %s %s", entry.BatchID, entry.ClassroomID, models.DayName(entry.DayOfWeek), entry.TimeSlot))
	}
	return stale
}

func mergeTiming(base models.TimingConfig, o *dto.TimingOverrides) models.TimingConfig {
	if o == nil {
		return base
	}
	if o.CollegeStartTime != nil {
		base.DayStart = *o.CollegeStartTime
	}
	if o.CollegeEndTime != nil {
		base.DayEnd = *o.CollegeEndTime
	}
	if o.LunchStartTime != nil {
		base.LunchStart = *o.LunchStartTime
	}
	if o.LunchDuration != nil {
		base.LunchDuration = *o.LunchDuration
	}
	if o.IncludeShortBreak != nil {
		base.IncludeShortBreak = *o.IncludeShortBreak
	}
	if o.ShortBreakDuration != nil {
		base.ShortBreakDuration = *o.ShortBreakDuration
	}
	if o.PeriodLength != nil {
		base.PeriodLength = *o.PeriodLength
	}
	if o.Days != nil {
		base.Days = *o.Days
	}
	return base
}

func toOption(c ScoredCandidate, grid *TimeGrid) dto.TimetableOption {
	res := c.Result
	cells := make(map[string][]dto.GridCell, grid.Days())
	for _, entry := range res.Entries {
		day := models.DayName(entry.DayOfWeek)
		cells[day] = append(cells[day], dto.GridCell{
			TimeSlot:    entry.TimeSlot,
			SubjectID:   entry.SubjectID,
			FacultyID:   entry.FacultyID,
			ClassroomID: entry.ClassroomID,
			IsLab:       entry.IsLab,
			Temporary:   entry.IsTemporaryAllocation,
		})
	}
	return dto.TimetableOption{
		OptionID:         c.OptionID,
		Score:            c.Score,
		TotalClasses:     len(res.Entries),
		RequiredPeriods:  res.RequiredPeriods,
		ScheduledPeriods: res.ScheduledPeriods,
		Complete:         res.Complete(),
		Entries:          res.Entries,
		Outcomes:         res.Outcomes,
		Stats:            c.Stats,
		Grid:             cells,
	}
}

// --- Proposal cache ---

type timetableProposal struct {
	ProposalID  string                                 `json:"proposalId"`
	BatchID     string                                 `json:"batchId"`
	Semester    int                                    `json:"semester"`
	Timing      models.TimingConfig                    `json:"timing"`
	Options     []dto.TimetableOption                  `json:"options"`
	Ledgers     map[int][]models.AllocationLedgerEntry `json:"ledgers"`
	Scores      map[int]float64                        `json:"scores"`
	RequestedAt time.Time                              `json:"requestedAt"`
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]timetableProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]timetableProposal),
	}
}

func (s *proposalStore) Save(proposal timetableProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (timetableProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return timetableProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return timetableProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
