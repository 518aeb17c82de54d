package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/config"
	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/logger"
	"github.com/fadilmartias/job-matcher/internal/notifier"
)

// FanoutSummary is what one broadcast run did. Operators compare Notified
// across runs of the same job to spot retry amplification.
type FanoutSummary struct {
	JobID            uuid.UUID
	Evaluated        int
	Qualified        int
	Notified         int
	SkippedDuplicate int
	RecordFailures   int
	// StoppedAt is the similarity of the first candidate under the threshold,
	// zero when the scan ran off the end of the result set.
	StoppedAt float64
}

type MatchingUsecase struct {
	jobs         JobStore
	resumes      ResumeStore
	applications ApplicationStore
	embeddings   EmbeddingStore
	notifier     MatchNotifier
	cfg          *config.MatchingConfig
	log          *zap.Logger
}

func NewMatchingUsecase(jobs JobStore, resumes ResumeStore, applications ApplicationStore, embeddings EmbeddingStore,
	n MatchNotifier, cfg *config.MatchingConfig, log *zap.Logger) *MatchingUsecase {
	return &MatchingUsecase{
		jobs:         jobs,
		resumes:      resumes,
		applications: applications,
		embeddings:   embeddings,
		notifier:     n,
		cfg:          cfg,
		log:          logger.OrNop(log),
	}
}

// ScoreApplication computes the similarity between the application's job and
// the applicant's default resume and caches it on the application. It fails
// with errs.ErrEmbeddingNotReady until both embeddings exist. A job or default
// resume that is gone reports errs.ErrSourceDeleted; embedding a new default
// resume re-scores the applicant's waiting applications.
func (uc *MatchingUsecase) ScoreApplication(ctx context.Context, applicationID uuid.UUID) (float64, error) {
	app, err := uc.applications.FindApplicationByID(ctx, applicationID)
	if errors.Is(err, errs.ErrNotFound) {
		return 0, fmt.Errorf("application %s: %w", applicationID, errs.ErrSourceDeleted)
	}
	if err != nil {
		return 0, err
	}

	score, err := uc.PairSimilarity(ctx, app.JobID, app.ApplicantID)
	if errors.Is(err, errs.ErrNotFound) {
		return 0, fmt.Errorf("score application %s: %v: %w", applicationID, err, errs.ErrSourceDeleted)
	}
	if err != nil {
		return 0, fmt.Errorf("score application %s: %w", applicationID, err)
	}

	if err := uc.applications.UpdateMatchScore(ctx, applicationID, score); err != nil {
		return 0, err
	}
	uc.log.Info("application scored",
		zap.String("application_id", applicationID.String()),
		zap.String(logger.FieldJobID, app.JobID.String()),
		zap.Float64("match_score", score))
	return score, nil
}

// PairSimilarity returns the 0-100 match percentage between a job and a
// user's default resume without persisting it.
func (uc *MatchingUsecase) PairSimilarity(ctx context.Context, jobID, userID uuid.UUID) (float64, error) {
	if _, err := uc.jobs.FindJobByID(ctx, jobID); err != nil {
		return 0, err
	}
	resume, err := uc.resumes.FindDefaultResume(ctx, userID)
	if err != nil {
		return 0, err
	}

	distance, found, err := uc.embeddings.PairDistance(ctx, jobID, resume.ID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("job %s or resume %s: %w", jobID, resume.ID, errs.ErrEmbeddingNotReady)
	}
	return MatchPercent(distance), nil
}

// BroadcastMatches notifies every candidate whose default resume is similar
// enough to the job. Candidates are scanned nearest first, at most TopN of
// them, and the scan stops at the first one below the threshold.
func (uc *MatchingUsecase) BroadcastMatches(ctx context.Context, jobID uuid.UUID) (FanoutSummary, error) {
	summary := FanoutSummary{JobID: jobID}
	log := uc.log.With(zap.String(logger.FieldJobID, jobID.String()))

	job, err := uc.jobs.FindJobByID(ctx, jobID)
	if errors.Is(err, errs.ErrNotFound) {
		log.Info("job no longer exists, skipping fan-out")
		return summary, nil
	}
	if err != nil {
		return summary, err
	}
	if !job.Matchable() {
		log.Info("job is not published and active, skipping fan-out", zap.String("status", job.Status))
		return summary, nil
	}

	emb, err := uc.embeddings.FindJobEmbedding(ctx, jobID)
	if errors.Is(err, errs.ErrNotFound) {
		return summary, fmt.Errorf("job %s: %w", jobID, errs.ErrEmbeddingNotReady)
	}
	if err != nil {
		return summary, err
	}

	start := time.Now()
	candidates, err := uc.embeddings.NearestResumes(ctx, emb.Embedding, uc.cfg.TopN)
	if err != nil {
		return summary, err
	}
	if len(candidates) > uc.cfg.TopN {
		candidates = candidates[:uc.cfg.TopN]
	}

	recipients := make([]notifier.Recipient, 0, len(candidates))
	for _, c := range candidates {
		summary.Evaluated++
		similarity := 1 - c.Distance
		if similarity < uc.cfg.Threshold {
			summary.StoppedAt = similarity
			break
		}
		recipients = append(recipients, notifier.Recipient{
			UserID:     c.UserID,
			Email:      c.Email,
			Similarity: similarity,
		})
	}
	summary.Qualified = len(recipients)

	res := uc.notifier.NotifyMatches(ctx, job, recipients)
	summary.Notified = res.Notified
	summary.SkippedDuplicate = res.SkippedDuplicate
	summary.RecordFailures = res.RecordFailures

	log.Info("job match fan-out finished",
		zap.Int("evaluated", summary.Evaluated),
		zap.Int("qualified", summary.Qualified),
		zap.Int("notified", summary.Notified),
		zap.Int("skipped_duplicate", summary.SkippedDuplicate),
		zap.Int("record_failures", summary.RecordFailures),
		zap.Float64("threshold", uc.cfg.Threshold),
		zap.Int("top_n", uc.cfg.TopN),
		zap.Duration("duration", time.Since(start)))
	return summary, nil
}
