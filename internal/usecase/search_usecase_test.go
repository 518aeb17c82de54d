package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/retry"
)

func TestSearchJobsRanksByMeaning(t *testing.T) {
	p := newPipeline()
	backend := p.store.addJob("Backend Developer", "Python", "Django")
	design := p.store.addJob("Product Designer", "Figma", "Sketch")
	_, err := p.uc.EmbedJob(context.Background(), backend.ID)
	require.NoError(t, err)
	_, err = p.uc.EmbedJob(context.Background(), design.ID)
	require.NoError(t, err)
	uc := NewSearchUsecase(p.store, p.embedder, retry.Policy{MaxAttempts: 1}, 10, zap.NewNop())

	matches, err := uc.SearchJobs(context.Background(), "python django backend", 0)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, backend.ID, matches[0].JobID)
	assert.Equal(t, "Backend Developer", matches[0].Title)
	assert.Greater(t, matches[0].MatchPercent, matches[1].MatchPercent)
}

func TestSearchJobsLimit(t *testing.T) {
	p := newPipeline()
	for i := 0; i < 3; i++ {
		j := p.store.addJob("Backend Developer", "Go")
		_, err := p.uc.EmbedJob(context.Background(), j.ID)
		require.NoError(t, err)
	}
	uc := NewSearchUsecase(p.store, p.embedder, retry.Policy{MaxAttempts: 1}, 10, zap.NewNop())

	matches, err := uc.SearchJobs(context.Background(), "go", 2)

	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestSearchJobsEmptyQuery(t *testing.T) {
	p := newPipeline()
	uc := NewSearchUsecase(p.store, p.embedder, retry.Policy{MaxAttempts: 1}, 10, zap.NewNop())

	_, err := uc.SearchJobs(context.Background(), "   ", 5)

	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Zero(t, p.embedder.callCount())
}
