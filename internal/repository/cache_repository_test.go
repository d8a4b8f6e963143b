package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/teacher-feedback-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	assert.False(t, repo.Enabled())
	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, "teachers:roster", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "teachers:roster", []string{"t1"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "teachers:*"))
	assert.NoError(t, repo.Close())
}
