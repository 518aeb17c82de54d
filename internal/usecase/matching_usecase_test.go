package usecase

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/model"
	"github.com/fadilmartias/job-matcher/internal/repository"
)

func newMatching(store EmbeddingStore, mem *memStore, n MatchNotifier, log *zap.Logger) *MatchingUsecase {
	return NewMatchingUsecase(mem, mem, mem, store, n, matchingConfig(), log)
}

func TestMatchPercent(t *testing.T) {
	assert.Equal(t, 87.66, MatchPercent(0.1234))
	assert.Equal(t, 100.0, MatchPercent(0))
	assert.Equal(t, 0.0, MatchPercent(1.3))
	assert.Equal(t, 55.0, MatchPercent(0.45))
}

func TestMatchPercentMonotonic(t *testing.T) {
	distances := []float64{0.91, 0.0, 0.333333, 0.45, 0.450001, 1.2, 0.12, 0.7777, 2}
	sort.Float64s(distances)
	for i := 1; i < len(distances); i++ {
		closer, farther := MatchPercent(distances[i-1]), MatchPercent(distances[i])
		assert.GreaterOrEqual(t, closer, farther, "distance %v vs %v", distances[i-1], distances[i])
	}
}

func TestScoreApplicationWaitsForPipeline(t *testing.T) {
	p := newPipeline()
	job := p.store.addJob("Backend Developer", "Python", "Django")
	u, r := p.candidate("jane@example.com", pythonResume)
	app := &model.Application{ID: uuid.New(), JobID: job.ID, ApplicantID: u.ID}
	p.store.applications[app.ID] = app
	m := newMatching(p.store, p.store, &recordingNotifier{}, zap.NewNop())

	_, err := p.uc.EmbedJob(context.Background(), job.ID)
	require.NoError(t, err)

	_, err = m.ScoreApplication(context.Background(), app.ID)
	require.ErrorIs(t, err, errs.ErrEmbeddingNotReady)
	assert.Nil(t, p.store.applications[app.ID].MatchScore)

	_, _, err = p.uc.EmbedResume(context.Background(), r.ID)
	require.NoError(t, err)

	score, err := m.ScoreApplication(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Greater(t, score, 0.0)
	require.NotNil(t, p.store.applications[app.ID].MatchScore)
	assert.Equal(t, score, *p.store.applications[app.ID].MatchScore)

	again, err := m.ScoreApplication(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, score, again)
}

func TestScoreApplicationMissingSource(t *testing.T) {
	tests := []struct {
		name  string
		setup func(mem *memStore) uuid.UUID
	}{
		{
			name:  "application",
			setup: func(*memStore) uuid.UUID { return uuid.New() },
		},
		{
			name: "job",
			setup: func(mem *memStore) uuid.UUID {
				u, _ := mem.addCandidate("a@example.com")
				app := &model.Application{ID: uuid.New(), JobID: uuid.New(), ApplicantID: u.ID}
				mem.applications[app.ID] = app
				return app.ID
			},
		},
		{
			name: "default resume",
			setup: func(mem *memStore) uuid.UUID {
				job := mem.addJob("Backend Developer")
				u, r := mem.addCandidate("b@example.com")
				r.IsDeleted = true
				app := &model.Application{ID: uuid.New(), JobID: job.ID, ApplicantID: u.ID}
				mem.applications[app.ID] = app
				return app.ID
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := newMemStore()
			id := tt.setup(mem)
			m := newMatching(mem, mem, &recordingNotifier{}, zap.NewNop())

			_, err := m.ScoreApplication(context.Background(), id)

			require.ErrorIs(t, err, errs.ErrSourceDeleted)
			assert.True(t, errs.IsPermanent(err))
			if app, ok := mem.applications[id]; ok {
				assert.Nil(t, app.MatchScore)
			}
		})
	}
}

func TestPairSimilarityErrors(t *testing.T) {
	mem := newMemStore()
	job := mem.addJob("Backend Developer")
	nobody := uuid.New()
	m := newMatching(mem, mem, &recordingNotifier{}, zap.NewNop())

	_, err := m.PairSimilarity(context.Background(), uuid.New(), nobody)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = m.PairSimilarity(context.Background(), job.ID, nobody)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	u, _ := mem.addCandidate("a@example.com")
	_, err = m.PairSimilarity(context.Background(), job.ID, u.ID)
	assert.ErrorIs(t, err, errs.ErrEmbeddingNotReady)
}

func TestRelatedCandidateOutscoresUnrelated(t *testing.T) {
	p := newPipeline()
	job := p.store.addJob("Backend Developer", "Python", "Django")
	dev, devResume := p.candidate("dev@example.com", pythonResume)
	artist, artistResume := p.candidate("artist@example.com", pottersResume)
	m := newMatching(p.store, p.store, &recordingNotifier{}, zap.NewNop())

	_, err := p.uc.EmbedJob(context.Background(), job.ID)
	require.NoError(t, err)
	for _, id := range []uuid.UUID{devResume.ID, artistResume.ID} {
		_, _, err := p.uc.EmbedResume(context.Background(), id)
		require.NoError(t, err)
	}

	devPct, err := m.PairSimilarity(context.Background(), job.ID, dev.ID)
	require.NoError(t, err)
	artistPct, err := m.PairSimilarity(context.Background(), job.ID, artist.ID)
	require.NoError(t, err)

	assert.Greater(t, devPct, artistPct)
	assert.Contains(t, p.store.resumeVecs[artistResume.ID].SourceText, "Skills: Oil Painting, Pottery")
}

// fixedCandidates returns a canned, already ordered candidate list.
type fixedCandidates struct {
	*memStore
	candidates []repository.ResumeCandidate
	limits     []int
	ignoreCap  bool
}

func (f *fixedCandidates) NearestResumes(_ context.Context, _ pgvector.Vector, limit int) ([]repository.ResumeCandidate, error) {
	f.limits = append(f.limits, limit)
	if f.ignoreCap || len(f.candidates) <= limit {
		return f.candidates, nil
	}
	return f.candidates[:limit], nil
}

func candidatesWithSimilarity(sims ...float64) []repository.ResumeCandidate {
	out := make([]repository.ResumeCandidate, 0, len(sims))
	for i, s := range sims {
		out = append(out, repository.ResumeCandidate{
			ResumeID: uuid.New(),
			UserID:   uuid.New(),
			Email:    fmt.Sprintf("c%d@example.com", i),
			Distance: 1 - s,
		})
	}
	return out
}

func jobWithEmbedding(mem *memStore) *model.Job {
	job := mem.addJob("Backend Developer", "Go")
	mem.jobVecs[job.ID] = &model.JobEmbedding{JobID: job.ID, Embedding: pgvector.NewVector(make([]float32, testDims))}
	return job
}

func TestBroadcastStopsAtThreshold(t *testing.T) {
	mem := newMemStore()
	job := jobWithEmbedding(mem)
	store := &fixedCandidates{memStore: mem, candidates: candidatesWithSimilarity(0.93, 0.81, 0.6, 0.56, 0.549, 0.5, 0.3)}
	n := &recordingNotifier{}
	m := newMatching(store, mem, n, zap.NewNop())

	summary, err := m.BroadcastMatches(context.Background(), job.ID)

	require.NoError(t, err)
	require.Len(t, n.calls, 1)
	notified := n.calls[0]
	require.Len(t, notified, 4)
	for i, r := range notified {
		assert.Equal(t, store.candidates[i].UserID, r.UserID)
		assert.GreaterOrEqual(t, r.Similarity, 0.55)
	}
	assert.Equal(t, 5, summary.Evaluated)
	assert.Equal(t, 4, summary.Qualified)
	assert.InDelta(t, 0.549, summary.StoppedAt, 1e-9)
}

func TestBroadcastBoundedFanout(t *testing.T) {
	sims := make([]float64, 80)
	for i := range sims {
		sims[i] = 0.99 - float64(i)*0.001
	}
	for _, ignoreCap := range []bool{false, true} {
		t.Run(fmt.Sprintf("store_ignores_limit=%v", ignoreCap), func(t *testing.T) {
			mem := newMemStore()
			job := jobWithEmbedding(mem)
			store := &fixedCandidates{memStore: mem, candidates: candidatesWithSimilarity(sims...), ignoreCap: ignoreCap}
			n := &recordingNotifier{}
			m := newMatching(store, mem, n, zap.NewNop())

			summary, err := m.BroadcastMatches(context.Background(), job.ID)

			require.NoError(t, err)
			assert.Equal(t, []int{50}, store.limits)
			assert.Equal(t, 50, summary.Evaluated)
			require.Len(t, n.calls, 1)
			assert.Len(t, n.calls[0], 50)
		})
	}
}

func TestBroadcastUsesStoreOrdering(t *testing.T) {
	p := newPipeline()
	job := p.store.addJob("Backend Developer", "Python", "Django")
	_, devResume := p.candidate("dev@example.com", pythonResume)
	_, artistResume := p.candidate("artist@example.com", pottersResume)
	n := &recordingNotifier{}
	m := NewMatchingUsecase(p.store, p.store, p.store, p.store, n, matchingConfig(), zap.NewNop())
	m.cfg.Threshold = 0

	_, err := p.uc.EmbedJob(context.Background(), job.ID)
	require.NoError(t, err)
	for _, id := range []uuid.UUID{artistResume.ID, devResume.ID} {
		_, _, err := p.uc.EmbedResume(context.Background(), id)
		require.NoError(t, err)
	}

	_, err = m.BroadcastMatches(context.Background(), job.ID)

	require.NoError(t, err)
	require.Len(t, n.calls, 1)
	require.Len(t, n.calls[0], 2)
	assert.Equal(t, "dev@example.com", n.calls[0][0].Email)
	assert.Greater(t, n.calls[0][0].Similarity, n.calls[0][1].Similarity)
}

func TestBroadcastLogsCounts(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	mem := newMemStore()
	job := jobWithEmbedding(mem)
	store := &fixedCandidates{memStore: mem, candidates: candidatesWithSimilarity(0.9, 0.7, 0.2)}
	m := newMatching(store, mem, &recordingNotifier{}, zap.New(core))

	_, err := m.BroadcastMatches(context.Background(), job.ID)
	require.NoError(t, err)

	entries := logs.FilterMessage("job match fan-out finished").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(3), fields["evaluated"])
	assert.Equal(t, int64(2), fields["qualified"])
	assert.Equal(t, int64(2), fields["notified"])
	assert.Equal(t, job.ID.String(), fields["job_id"])
}

func TestBroadcastWithoutEmbedding(t *testing.T) {
	mem := newMemStore()
	job := mem.addJob("Backend Developer")
	n := &recordingNotifier{}
	m := newMatching(mem, mem, n, zap.NewNop())

	_, err := m.BroadcastMatches(context.Background(), job.ID)

	assert.ErrorIs(t, err, errs.ErrEmbeddingNotReady)
	assert.Empty(t, n.calls)
}

func TestBroadcastSkipsClosedOrMissingJob(t *testing.T) {
	mem := newMemStore()
	job := jobWithEmbedding(mem)
	job.Status = model.JobStatusClosed
	n := &recordingNotifier{}
	m := newMatching(mem, mem, n, zap.NewNop())

	for _, id := range []uuid.UUID{job.ID, uuid.New()} {
		summary, err := m.BroadcastMatches(context.Background(), id)
		require.NoError(t, err)
		assert.Zero(t, summary.Evaluated)
	}
	assert.Empty(t, n.calls)
}
