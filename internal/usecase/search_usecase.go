package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/logger"
	"github.com/fadilmartias/job-matcher/internal/retry"
)

const maxSearchLimit = 50

type JobMatch struct {
	JobID        uuid.UUID `json:"job_id"`
	Title        string    `json:"title"`
	MatchPercent float64   `json:"match_percent"`
}

// SearchUsecase ranks published jobs against a free-text query.
type SearchUsecase struct {
	embeddings   EmbeddingStore
	embedder     Embedder
	policy       retry.Policy
	defaultLimit int
	log          *zap.Logger
}

func NewSearchUsecase(embeddings EmbeddingStore, embedder Embedder, policy retry.Policy, defaultLimit int, log *zap.Logger) *SearchUsecase {
	return &SearchUsecase{
		embeddings:   embeddings,
		embedder:     embedder,
		policy:       policy,
		defaultLimit: defaultLimit,
		log:          logger.OrNop(log),
	}
}

func (uc *SearchUsecase) SearchJobs(ctx context.Context, query string, limit int) ([]JobMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", errs.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = uc.defaultLimit
	}
	limit = min(limit, maxSearchLimit)

	vec, err := retry.Do(ctx, uc.policy, func(ctx context.Context) ([]float32, error) {
		return uc.embedder.Embed(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("embed search query: %w", err)
	}

	rows, err := uc.embeddings.NearestJobs(ctx, pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, err
	}

	matches := make([]JobMatch, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, JobMatch{JobID: r.JobID, Title: r.Title, MatchPercent: MatchPercent(r.Distance)})
	}
	uc.log.Debug("job search", zap.Int("limit", limit), zap.Int("results", len(matches)))
	return matches, nil
}
