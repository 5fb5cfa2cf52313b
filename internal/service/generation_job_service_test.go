package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-timetable/internal/dto"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
)

type scriptedGenerator struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (g *scriptedGenerator) Generate(_ context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	call := g.calls
	g.calls++
	if call < len(g.errs) && g.errs[call] != nil {
		return nil, g.errs[call]
	}
	return &dto.GenerateTimetableResponse{ProposalID: "p-1", BatchID: req.BatchID, Semester: req.Semester}, nil
}

func (g *scriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func startJobService(t *testing.T, gen timetableGenerator, maxRetries int) *GenerationJobService {
	t.Helper()
	svc := NewGenerationJobService(gen, NewMetricsService(), nil, zap.NewNop(), GenerationJobConfig{
		Workers:    2,
		MaxRetries: maxRetries,
		RetryDelay: 10 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	t.Cleanup(func() {
		cancel()
		svc.Stop()
	})
	return svc
}

func waitForJob(t *testing.T, svc *GenerationJobService, id string, status GenerationJobStatus) *dto.GenerationJobResponse {
	t.Helper()
	var last *dto.GenerationJobResponse
	require.Eventually(t, func() bool {
		snap, err := svc.Get(context.Background(), id)
		if err != nil {
			return false
		}
		last = snap
		return snap.Status == string(status)
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func TestGenerationJobServiceSucceeds(t *testing.T) {
	gen := &scriptedGenerator{}
	svc := startJobService(t, gen, 1)

	job, err := svc.Submit(context.Background(), dto.GenerateTimetableRequest{BatchID: "B1", Semester: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, job.JobID)
	assert.Contains(t, []string{string(JobQueued), string(JobRunning), string(JobSucceeded)}, job.Status)

	done := waitForJob(t, svc, job.JobID, JobSucceeded)
	require.NotNil(t, done.Result)
	assert.Equal(t, "B1", done.Result.BatchID)
	assert.Equal(t, 1, done.Attempts)
	assert.NotNil(t, done.FinishedAt)
	assert.Empty(t, done.Error)
}

func TestGenerationJobServiceRetriesTransientErrors(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{errors.New("connection reset")}}
	svc := startJobService(t, gen, 2)

	job, err := svc.Submit(context.Background(), dto.GenerateTimetableRequest{BatchID: "B1", Semester: 3})
	require.NoError(t, err)

	done := waitForJob(t, svc, job.JobID, JobSucceeded)
	assert.Equal(t, 2, done.Attempts)
	assert.Equal(t, 2, gen.Calls())
}

func TestGenerationJobServiceGivesUpAfterRetries(t *testing.T) {
	boom := errors.New("connection reset")
	gen := &scriptedGenerator{errs: []error{boom, boom, boom}}
	svc := startJobService(t, gen, 1)

	job, err := svc.Submit(context.Background(), dto.GenerateTimetableRequest{BatchID: "B1", Semester: 3})
	require.NoError(t, err)

	failed := waitForJob(t, svc, job.JobID, JobFailed)
	assert.Equal(t, 2, failed.Attempts)
	assert.Equal(t, "connection reset", failed.Error)
	assert.Nil(t, failed.Result)
	assert.Equal(t, 2, gen.Calls())
}

func TestGenerationJobServiceRetriesTimeouts(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{appErrors.Clone(appErrors.ErrGenerationTimeout, "")}}
	svc := startJobService(t, gen, 1)

	job, err := svc.Submit(context.Background(), dto.GenerateTimetableRequest{BatchID: "B1", Semester: 3})
	require.NoError(t, err)

	done := waitForJob(t, svc, job.JobID, JobSucceeded)
	assert.Equal(t, 2, done.Attempts)
}

func TestGenerationJobServiceDoesNotRetryClientErrors(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{appErrors.Clone(appErrors.ErrPreconditionFailed, "no subjects defined for CSE semester 3")}}
	svc := startJobService(t, gen, 3)

	job, err := svc.Submit(context.Background(), dto.GenerateTimetableRequest{BatchID: "B1", Semester: 3})
	require.NoError(t, err)

	failed := waitForJob(t, svc, job.JobID, JobFailed)
	assert.Equal(t, 1, failed.Attempts)
	assert.Equal(t, "no subjects defined for CSE semester 3", failed.Error)
	assert.Equal(t, 1, gen.Calls())
}

func TestGenerationJobServiceValidationAndLookup(t *testing.T) {
	svc := startJobService(t, &scriptedGenerator{}, 0)

	_, err := svc.Submit(context.Background(), dto.GenerateTimetableRequest{Semester: 3})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestGenerationJobServiceQueueUnavailable(t *testing.T) {
	svc := NewGenerationJobService(&scriptedGenerator{}, nil, nil, nil, GenerationJobConfig{})

	_, err := svc.Submit(context.Background(), dto.GenerateTimetableRequest{BatchID: "B1", Semester: 3})
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.FromError(err).Status)
	assert.Empty(t, svc.jobs, "rejected jobs are not tracked")
}

func TestGenerationJobServicePurgesFinishedJobs(t *testing.T) {
	svc := NewGenerationJobService(&scriptedGenerator{}, nil, nil, nil, GenerationJobConfig{RetainFor: time.Minute})
	old := time.Now().Add(-time.Hour)
	recent := time.Now()
	svc.jobs["old"] = &generationJob{id: "old", status: JobSucceeded, finishedAt: &old}
	svc.jobs["recent"] = &generationJob{id: "recent", status: JobFailed, finishedAt: &recent}
	svc.jobs["running"] = &generationJob{id: "running", status: JobRunning}

	svc.purgeFinished()
	assert.NotContains(t, svc.jobs, "old")
	assert.Contains(t, svc.jobs, "recent")
	assert.Contains(t, svc.jobs, "running")
}
