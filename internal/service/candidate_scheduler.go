package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-timetable/internal/models"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
)

const (
	defaultRetryBudget    = 100
	defaultBatchDailyCap  = 6
	defaultFacultyMaxDay  = 6
	defaultFacultyMaxWeek = 20
)

// PlacementLimits bounds the search. Zero values fall back to defaults.
type PlacementLimits struct {
	RetryBudget    int
	BatchDailyCap  int
	FacultyMaxDay  int
	FacultyMaxWeek int
}

func (l PlacementLimits) normalized() PlacementLimits {
	if l.RetryBudget <= 0 {
		l.RetryBudget = defaultRetryBudget
	}
	if l.BatchDailyCap <= 0 {
		l.BatchDailyCap = defaultBatchDailyCap
	}
	if l.FacultyMaxDay <= 0 {
		l.FacultyMaxDay = defaultFacultyMaxDay
	}
	if l.FacultyMaxWeek <= 0 {
		l.FacultyMaxWeek = defaultFacultyMaxWeek
	}
	return l
}

// RunInput is everything one candidate run reads. It is shared read-only
// between concurrent runs; Committed is cloned before use.
type RunInput struct {
	Batch     models.Batch
	Subjects  []models.Subject
	Resolver  *FacultyResolver
	Allocator *ClassroomAllocator
	Grid      *TimeGrid
	Committed *Occupancy
	Limits    PlacementLimits
}

// CandidateResult is one complete, possibly partial, schedule.
type CandidateResult struct {
	Entries          models.Schedule                `json:"entries"`
	Ledger           []models.AllocationLedgerEntry `json:"ledger"`
	Outcomes         []models.BlockOutcome          `json:"outcomes"`
	RequiredPeriods  int                            `json:"required_periods"`
	ScheduledPeriods int                            `json:"scheduled_periods"`
}

// Complete reports whether every required period was placed.
func (r *CandidateResult) Complete() bool {
	return r.ScheduledPeriods == r.RequiredPeriods
}

type pendingBlock struct {
	subject models.Subject
	size    int
}

// CandidateScheduler places a batch's session blocks with a randomised greedy
// search. A run is sequential; callers parallelise across runs.
type CandidateScheduler struct {
	logger *zap.Logger
}

// NewCandidateScheduler constructs a scheduler.
func NewCandidateScheduler(logger *zap.Logger) *CandidateScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CandidateScheduler{logger: logger}
}

// Run builds one candidate schedule. Blocks that cannot be placed are skipped
// and reported; only configuration and consistency failures return an error.
func (s *CandidateScheduler) Run(ctx context.Context, in RunInput, rng *rand.Rand) (*CandidateResult, error) {
	if in.Grid == nil || in.Resolver == nil || in.Allocator == nil {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "scheduler input is missing grid, resolver or allocator")
	}
	if rng == nil {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "scheduler input is missing a random source")
	}
	limits := in.Limits.normalized()

	var occ *Occupancy
	if in.Committed != nil {
		occ = in.Committed.Clone()
	} else {
		occ = NewOccupancy()
	}

	var blocks []pendingBlock
	for _, subject := range in.Subjects {
		for _, size := range DecomposeBlocks(subject) {
			blocks = append(blocks, pendingBlock{subject: subject, size: size})
		}
	}
	rng.Shuffle(len(blocks), func(i, j int) { blocks[i], blocks[j] = blocks[j], blocks[i] })

	result := &CandidateResult{}
	candidateCache := make(map[string][]models.FacultyCandidate)
	for _, block := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.RequiredPeriods += block.size

		candidates, cached := candidateCache[block.subject.ID]
		if !cached {
			var err error
			candidates, err = in.Resolver.Resolve(block.subject, &in.Batch)
			if err != nil {
				return nil, err
			}
			candidateCache[block.subject.ID] = candidates
		}

		outcome := models.BlockOutcome{SubjectID: block.subject.ID, BlockSize: block.size}
		switch {
		case len(candidates) == 0:
			outcome.Status = models.BlockSkippedNoCandidates
			outcome.Reason = "no faculty candidates"
		case !hasRoomCandidate(in.Allocator.Classrooms(), in.Batch):
			outcome.Status = models.BlockSkippedNoCandidates
			outcome.Reason = "no classroom fits the batch"
		default:
			placed, attempts := s.place(in, limits, occ, block, candidates, rng, result)
			outcome.Attempts = attempts
			if placed {
				outcome.Status = models.BlockScheduled
				result.ScheduledPeriods += block.size
			} else {
				outcome.Status = models.BlockSkippedExhausted
				outcome.Reason = fmt.Sprintf("no valid placement after %d attempts", attempts)
			}
		}

		if outcome.Status != models.BlockScheduled {
			s.logger.Warn("block skipped",
				zap.String("batch_id", in.Batch.ID),
				zap.String("subject_id", block.subject.ID),
				zap.Int("block_size", block.size),
				zap.String("status", string(outcome.Status)),
				zap.String("reason", outcome.Reason),
			)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	sortSchedule(result.Entries)
	if result.ScheduledPeriods < result.RequiredPeriods {
		s.logger.Info("candidate is partial",
			zap.String("batch_id", in.Batch.ID),
			zap.Int("required_periods", result.RequiredPeriods),
			zap.Int("scheduled_periods", result.ScheduledPeriods),
		)
	}
	return result, nil
}

func (s *CandidateScheduler) place(
	in RunInput,
	limits PlacementLimits,
	occ *Occupancy,
	block pendingBlock,
	candidates []models.FacultyCandidate,
	rng *rand.Rand,
	result *CandidateResult,
) (bool, int) {
	starts := in.Grid.Slots()
	if block.subject.RequiresLab {
		starts = in.Grid.LabStarts()
	}
	days := in.Grid.Days()

	for attempt := 1; attempt <= limits.RetryBudget; attempt++ {
		day := rng.Intn(days)
		faculty := candidates[rng.Intn(len(candidates))].Faculty
		start := starts[rng.Intn(len(starts))]

		run, ok := in.Grid.Run(start, block.size)
		if !ok {
			continue
		}
		if !runFree(occ, in.Batch.ID, faculty.ID, day, run) {
			continue
		}

		maxDay, maxWeek := facultyCaps(faculty, limits)
		daily, weekly := occ.FacultyLoad(faculty.ID, day)
		if daily+block.size > maxDay || weekly+block.size > maxWeek {
			continue
		}
		if occ.BatchLoad(in.Batch.ID, day)+block.size > limits.BatchDailyCap {
			continue
		}

		subject := block.subject
		options := in.Allocator.FindAvailableForRun(in.Batch, day, run, &subject, occ)
		if len(options) == 0 {
			continue
		}
		commitBlock(occ, result, in.Batch.ID, block, faculty.ID, day, run, options[0])
		return true, attempt
	}
	return false, limits.RetryBudget
}

func runFree(occ *Occupancy, batchID, facultyID string, day int, run []string) bool {
	for _, slot := range run {
		if occ.FacultyBusy(facultyID, day, slot) || occ.BatchBusy(batchID, day, slot) {
			return false
		}
	}
	return true
}

func facultyCaps(f models.Faculty, limits PlacementLimits) (int, int) {
	maxDay, maxWeek := f.MaxHoursPerDay, f.MaxHoursPerWeek
	if maxDay <= 0 {
		maxDay = limits.FacultyMaxDay
	}
	if maxWeek <= 0 {
		maxWeek = limits.FacultyMaxWeek
	}
	return maxDay, maxWeek
}

// commitBlock writes every period of a block; nothing is written on failure
// paths since all checks run before this point.
func commitBlock(occ *Occupancy, result *CandidateResult, batchID string, block pendingBlock, facultyID string, day int, run []string, option RoomOption) {
	var owner *string
	if option.Temporary() {
		o := option.OriginalOwner
		owner = &o
	}
	for _, slot := range run {
		entry := models.ScheduleEntry{
			BatchID:               batchID,
			SubjectID:             block.subject.ID,
			FacultyID:             facultyID,
			ClassroomID:           option.Classroom.ID,
			DayOfWeek:             day,
			TimeSlot:              slot,
			BlockSize:             block.size,
			IsLab:                 block.subject.RequiresLab,
			IsTemporaryAllocation: option.Temporary(),
			OriginalOwnerID:       owner,
			AllocationReason:      option.AllocationReason(),
		}
		occ.Add(entry)
		result.Entries = append(result.Entries, entry)
		result.Ledger = append(result.Ledger, models.AllocationLedgerEntry{
			ClassroomID:    option.Classroom.ID,
			BatchID:        batchID,
			DayOfWeek:      day,
			TimeSlot:       slot,
			AllocationType: option.Type,
			PriorityScore:  option.Score,
		})
	}
}

// hasRoomCandidate reports whether any room could ever host the batch: one
// large enough that is not reserved for someone else, or a shareable fixed room.
func hasRoomCandidate(rooms []models.Classroom, batch models.Batch) bool {
	for _, room := range rooms {
		owner := room.FixedOwner()
		if owner != "" && owner != batch.ID {
			if room.CanBeShared {
				return true
			}
			continue
		}
		if room.Capacity >= batch.StudentCount {
			return true
		}
	}
	return false
}

func sortSchedule(entries models.Schedule) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DayOfWeek != entries[j].DayOfWeek {
			return entries[i].DayOfWeek < entries[j].DayOfWeek
		}
		return entries[i].TimeSlot < entries[j].TimeSlot
	})
}
