package service

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/smart-timetable/internal/models"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
)

const referenceWeeklyLoad = 20

// ScoredCandidate is one evaluated schedule option.
type ScoredCandidate struct {
	OptionID int                     `json:"option_id"`
	Seed     int64                   `json:"seed"`
	Score    float64                 `json:"score"`
	Result   *CandidateResult        `json:"result"`
	Stats    models.UtilizationStats `json:"utilization_stats"`
}

// TimetableEvaluator runs independent candidate schedules and ranks them.
type TimetableEvaluator struct {
	scheduler *CandidateScheduler
	workers   int
	logger    *zap.Logger
}

// NewTimetableEvaluator bounds parallel runs to workers (NumCPU when <= 0).
func NewTimetableEvaluator(scheduler *CandidateScheduler, workers int, logger *zap.Logger) *TimetableEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scheduler == nil {
		scheduler = NewCandidateScheduler(logger)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &TimetableEvaluator{scheduler: scheduler, workers: workers, logger: logger}
}

// Evaluate runs n candidates seeded baseSeed, baseSeed+1, ... and returns them
// best first. Cancelling ctx skips runs that have not finished; completed runs
// are still returned. A consistency failure in any run fails the evaluation.
func (e *TimetableEvaluator) Evaluate(ctx context.Context, in RunInput, n int, baseSeed int64) ([]ScoredCandidate, error) {
	if n <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "number of candidates must be positive")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	results := make([]*ScoredCandidate, n)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			seed := baseSeed + int64(i)
			res, err := e.scheduler.Run(gctx, in, rand.New(rand.NewSource(seed)))
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				return err
			}
			results[i] = &ScoredCandidate{
				OptionID: i + 1,
				Seed:     seed,
				Score:    ScoreSchedule(res.Entries),
				Result:   res,
				Stats:    ComputeUtilizationStats(res.Entries),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	completed := lo.Filter(results, func(c *ScoredCandidate, _ int) bool { return c != nil })
	if len(completed) == 0 && ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrGenerationTimeout.Code, appErrors.ErrGenerationTimeout.Status, "timetable generation timed out before any candidate finished")
		}
		return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable generation cancelled before any candidate finished")
	}
	if len(completed) < n {
		e.logger.Warn("candidate runs discarded",
			zap.Int("requested", n),
			zap.Int("completed", len(completed)),
		)
	}

	ranked := make([]ScoredCandidate, 0, len(completed))
	for _, c := range completed {
		ranked = append(ranked, *c)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked, nil
}

// ScoreSchedule rates a schedule: 100, minus 2 per period of deviation from
// the mean daily load, minus 5 per period a faculty teaches beyond 20 a week,
// plus twice the mean classroom usage. The result never drops below 0.
func ScoreSchedule(entries models.Schedule) float64 {
	if len(entries) == 0 {
		return 0
	}
	score := 100.0

	byDay := lo.GroupBy(entries, func(e models.ScheduleEntry) int { return e.DayOfWeek })
	mean := float64(len(entries)) / float64(len(byDay))
	for _, day := range byDay {
		score -= math.Abs(float64(len(day))-mean) * 2
	}

	byFaculty := lo.GroupBy(entries, func(e models.ScheduleEntry) string { return e.FacultyID })
	for _, periods := range byFaculty {
		if len(periods) > referenceWeeklyLoad {
			score -= float64(len(periods)-referenceWeeklyLoad) * 5
		}
	}

	byRoom := lo.GroupBy(entries, func(e models.ScheduleEntry) string { return e.ClassroomID })
	score += float64(len(entries)) / float64(len(byRoom)) * 2

	return math.Max(0, score)
}

// ComputeUtilizationStats counts periods per faculty, classroom and day.
func ComputeUtilizationStats(entries models.Schedule) models.UtilizationStats {
	stats := models.UtilizationStats{
		FacultyHours:      make(map[string]int),
		ClassroomHours:    make(map[string]int),
		DailyDistribution: make(map[int]int),
	}
	for _, entry := range entries {
		stats.FacultyHours[entry.FacultyID]++
		stats.ClassroomHours[entry.ClassroomID]++
		stats.DailyDistribution[entry.DayOfWeek]++
	}
	return stats
}
