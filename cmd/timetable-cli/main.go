package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-timetable/internal/csvio"
	"github.com/noah-isme/smart-timetable/internal/models"
	"github.com/noah-isme/smart-timetable/internal/service"
	"github.com/noah-isme/smart-timetable/pkg/config"
	"github.com/noah-isme/smart-timetable/pkg/export"
	"github.com/noah-isme/smart-timetable/pkg/logger"
	"github.com/noah-isme/smart-timetable/pkg/storage"
)

type generateOptions struct {
	dataDir  string
	batchID  string
	semester int
	options  int
	seed     int64
	outDir   string
	delim    string
	all      bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	root := &cobra.Command{
		Use:          "timetable-cli",
		Short:        "Offline timetable generator",
		Long:         "Generates batch timetables from CSV entity files using the same engine as the API.",
		SilenceUsage: true,
	}
	root.AddCommand(newGenerateCommand(cfg, logr), newGridCommand(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newGenerateCommand(cfg *config.Config, logr *zap.Logger) *cobra.Command {
	opts := generateOptions{
		options: cfg.Scheduler.Candidates,
		outDir:  cfg.Exports.StorageDir,
		delim:   ",",
	}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "generate ranked timetable options for one batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), cfg, logr, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dataDir, "data", "", "directory holding batches, subjects, faculty, faculty_subjects and classrooms CSV files")
	cmd.Flags().StringVar(&opts.batchID, "batch", "", "batch id to schedule")
	cmd.Flags().IntVar(&opts.semester, "semester", 0, "semester to schedule")
	cmd.Flags().IntVarP(&opts.options, "options", "n", opts.options, "number of candidate timetables")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed; 0 uses the clock")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", opts.outDir, "output directory")
	cmd.Flags().StringVar(&opts.delim, "delim", opts.delim, "CSV field separator")
	cmd.Flags().BoolVar(&opts.all, "all", false, "write every option instead of only the best")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("batch")
	_ = cmd.MarkFlagRequired("semester")
	return cmd
}

func newGridCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "grid",
		Short: "print the period grid for the configured college day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			grid, err := service.BuildTimeGrid(service.TimingFromConfig(cfg.Timing))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			breaks := grid.Breaks()
			for i, slot := range grid.Slots() {
				if label, ok := breaks[i]; ok {
					fmt.Fprintf(out, "  -- %s --\n", label)
				}
				fmt.Fprintf(out, "%2d  %s\n", i+1, slot)
			}
			fmt.Fprintf(out, "lab starts: %s\n", strings.Join(grid.LabStarts(), ", "))
			return nil
		},
	}
}

func runGenerate(ctx context.Context, cfg *config.Config, logr *zap.Logger, opts generateOptions) error {
	if len([]rune(opts.delim)) != 1 {
		return fmt.Errorf("delimiter must be a single character")
	}
	data, err := csvio.LoadDir(opts.dataDir, []rune(opts.delim)[0])
	if err != nil {
		return err
	}
	batch, ok := data.Batch(opts.batchID)
	if !ok {
		return fmt.Errorf("batch %s not found in %s", opts.batchID, opts.dataDir)
	}
	subjects := data.SubjectsFor(batch.Department, opts.semester)
	if len(subjects) == 0 {
		return fmt.Errorf("no subjects for %s semester %d", batch.Department, opts.semester)
	}

	grid, err := service.BuildTimeGrid(service.TimingFromConfig(cfg.Timing))
	if err != nil {
		return err
	}
	committed := make([]models.ScheduleEntry, 0, len(data.Committed))
	for _, e := range data.Committed {
		if e.BatchID != batch.ID {
			committed = append(committed, e)
		}
	}

	in := service.RunInput{
		Batch:     batch,
		Subjects:  subjects,
		Resolver:  service.NewFacultyResolver(data.Faculty, data.Assignments),
		Allocator: service.NewClassroomAllocator(data.Classrooms),
		Grid:      grid,
		Committed: service.NewOccupancy(committed...),
		Limits:    service.LimitsFromConfig(cfg.Scheduler),
	}
	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	schedLog := logger.Component(logr, "scheduler")
	evaluator := service.NewTimetableEvaluator(service.NewCandidateScheduler(schedLog), cfg.Scheduler.Workers, schedLog)
	if cfg.Scheduler.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Scheduler.GenerationTimeout)
		defer cancel()
	}
	candidates, err := evaluator.Evaluate(ctx, in, opts.options, seed)
	if err != nil {
		return err
	}

	store, err := storage.NewLocalStorage(opts.outDir)
	if err != nil {
		return err
	}
	exporter := export.NewCSVExporter()
	if !opts.all && len(candidates) > 1 {
		candidates = candidates[:1]
	}
	for _, c := range candidates {
		rows := service.ScheduleRows(c.Result.Entries, data.Subjects, data.Faculty, data.Classrooms, data.Batches)
		payload, err := exporter.Render(rows)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("%s_sem%d_option%d.csv", batch.ID, opts.semester, c.OptionID)
		if _, err := store.Save(name, payload); err != nil {
			return err
		}
		logr.Info("timetable option written",
			zap.String("path", store.Path(name)),
			zap.Int("option", c.OptionID),
			zap.Float64("score", c.Score),
			zap.Int("scheduled_periods", c.Result.ScheduledPeriods),
			zap.Int("required_periods", c.Result.RequiredPeriods),
			zap.Bool("complete", c.Result.Complete()),
		)
	}
	logr.Info("generation finished", zap.String("batch_id", batch.ID), zap.Int64("seed", seed), zap.Int("options", len(candidates)))
	return nil
}
