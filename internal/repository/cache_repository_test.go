package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	assert.NoError(t, repo.Set(ctx, "timetable:proposal:p1", map[string]int{"options": 3}, time.Minute))
	var out map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "timetable:proposal:p1", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Delete(ctx, "timetable:proposal:p1"))
	assert.NoError(t, repo.DeleteByPattern(ctx, "timetable:util:*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}
