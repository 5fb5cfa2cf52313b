package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingCacheRepo struct{ memoryCacheRepo }

func (f *failingCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("redis: connection refused")
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, zap.NewNop(), true)
	ctx := context.Background()

	var out []string
	hit, err := svc.Get(ctx, ReportKey("utilization", "active"), &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, ReportKey("utilization", "active"), []string{"r1"}, 0))
	hit, err = svc.Get(ctx, ReportKey("utilization", "active"), &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"r1"}, out)

	require.NoError(t, svc.InvalidateReports(ctx))
	hit, _ = svc.Get(ctx, ReportKey("utilization", "active"), &out)
	assert.False(t, hit)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(2), snap.CacheMisses)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "timetable:proposal:p-1", ProposalKey("p-1"))
	assert.Equal(t, "timetable:report:utilization:tt-1", ReportKey("utilization", "tt-1"))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)
	ctx := context.Background()

	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Set(ctx, "k", 1, 0))
	assert.Zero(t, repo.sets)

	var nilSvc *CacheService
	hit, err := nilSvc.Get(ctx, "k", new(int))
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	repo := &failingCacheRepo{memoryCacheRepo: memoryCacheRepo{items: map[string][]byte{}}}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	hit, err := svc.Get(context.Background(), "k", new(int))
	assert.Error(t, err)
	assert.False(t, hit)
}
