package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-timetable/internal/dto"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
	"github.com/noah-isme/smart-timetable/pkg/jobs"
)

const generationJobType = "timetable.generate"

// GenerationJobStatus is the lifecycle state of an asynchronous generation.
type GenerationJobStatus string

const (
	JobQueued    GenerationJobStatus = "queued"
	JobRunning   GenerationJobStatus = "running"
	JobSucceeded GenerationJobStatus = "succeeded"
	JobFailed    GenerationJobStatus = "failed"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

// GenerationJobConfig tunes the worker pool behind asynchronous generation.
type GenerationJobConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	// RetainFor bounds how long finished jobs stay queryable.
	RetainFor time.Duration
}

type generationJob struct {
	id         string
	request    dto.GenerateTimetableRequest
	status     GenerationJobStatus
	attempts   int
	err        string
	result     *dto.GenerateTimetableResponse
	createdAt  time.Time
	finishedAt *time.Time
}

// GenerationJobService runs timetable generation on a background queue so
// large batches do not hold an HTTP request open.
type GenerationJobService struct {
	generator timetableGenerator
	queue     *jobs.Queue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	retainFor time.Duration

	mu   sync.RWMutex
	jobs map[string]*generationJob
}

// NewGenerationJobService builds the service and its queue. Call Start before
// submitting jobs.
func NewGenerationJobService(generator timetableGenerator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg GenerationJobConfig) *GenerationJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.RetainFor <= 0 {
		cfg.RetainFor = time.Hour
	}
	s := &GenerationJobService{
		generator: generator,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		retainFor: cfg.RetainFor,
		jobs:      make(map[string]*generationJob),
	}
	s.queue = jobs.NewQueue("timetable-generation", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		OnGiveUp:   s.giveUp,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *GenerationJobService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains workers.
func (s *GenerationJobService) Stop() {
	s.queue.Stop()
}

// Submit validates and enqueues a generation request.
func (s *GenerationJobService) Submit(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobResponse, error) {
	if err := s.validator.StructCtx(ctx, req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	s.purgeFinished()

	job := &generationJob{
		id:        uuid.NewString(),
		request:   req,
		status:    JobQueued,
		createdAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.id] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.id, Type: generationJobType, Payload: req}); err != nil {
		s.mu.Lock()
		delete(s.jobs, job.id)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "generation queue unavailable")
	}
	s.metrics.RecordJob(JobQueued)
	s.logger.Info("generation job queued", zap.String("job_id", job.id), zap.String("batch_id", req.BatchID))

	return s.snapshot(job.id)
}

// Get returns the current state of a job.
func (s *GenerationJobService) Get(_ context.Context, id string) (*dto.GenerationJobResponse, error) {
	return s.snapshot(id)
}

func (s *GenerationJobService) handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateTimetableRequest)
	if !ok {
		return fmt.Errorf("%w: unexpected payload %T", jobs.ErrPermanent, job.Payload)
	}
	s.update(job.ID, func(j *generationJob) {
		j.status = JobRunning
		j.attempts = job.Attempt + 1
	})
	s.metrics.RecordJob(JobRunning)

	result, err := s.generator.Generate(ctx, req)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
			return fmt.Errorf("%w: %w", jobs.ErrPermanent, err)
		}
		return err
	}

	now := time.Now().UTC()
	s.update(job.ID, func(j *generationJob) {
		j.status = JobSucceeded
		j.result = result
		j.err = ""
		j.finishedAt = &now
	})
	s.metrics.RecordJob(JobSucceeded)
	return nil
}

func (s *GenerationJobService) giveUp(job jobs.Job, err error) {
	now := time.Now().UTC()
	s.update(job.ID, func(j *generationJob) {
		j.status = JobFailed
		j.attempts = job.Attempt
		j.err = jobErrorMessage(err)
		j.finishedAt = &now
	})
	s.metrics.RecordJob(JobFailed)
}

func (s *GenerationJobService) update(id string, fn func(*generationJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		fn(j)
	}
}

func (s *GenerationJobService) snapshot(id string) (*dto.GenerationJobResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
	}
	return &dto.GenerationJobResponse{
		JobID:      j.id,
		Status:     string(j.status),
		Attempts:   j.attempts,
		Error:      j.err,
		Result:     j.result,
		CreatedAt:  j.createdAt,
		FinishedAt: j.finishedAt,
	}, nil
}

func (s *GenerationJobService) purgeFinished() {
	cutoff := time.Now().Add(-s.retainFor)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, j := range s.jobs {
		if j.finishedAt != nil && j.finishedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}

func jobErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return strings.TrimPrefix(err.Error(), jobs.ErrPermanent.Error()+": ")
}
