package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/extraction"
	"github.com/fadilmartias/job-matcher/internal/logger"
	"github.com/fadilmartias/job-matcher/internal/model"
	"github.com/fadilmartias/job-matcher/internal/retry"
	"github.com/fadilmartias/job-matcher/internal/textbuilder"
)

// EmbedOutcome tells the caller what an embed call actually did.
type EmbedOutcome int

const (
	// EmbedSkipped means the source was gone or not eligible.
	EmbedSkipped EmbedOutcome = iota
	// EmbedUnchanged means the stored vector already matches the current text.
	EmbedUnchanged
	// EmbedStored means a new vector was computed and written.
	EmbedStored
)

func (o EmbedOutcome) String() string {
	switch o {
	case EmbedUnchanged:
		return "unchanged"
	case EmbedStored:
		return "stored"
	}
	return "skipped"
}

// ParsedResume is the output of the parse stage and the only input of the
// embed stage: a resume embedding can only be built from a persisted profile.
type ParsedResume struct {
	ResumeID  uuid.UUID
	UserID    uuid.UUID
	IsDefault bool
	Profile   model.ParsedProfile
}

type EmbeddingUsecase struct {
	jobs       JobStore
	resumes    ResumeStore
	embeddings EmbeddingStore
	embedder   Embedder
	fetcher    ResumeFetcher
	extractor  TextExtractor
	parser     ProfileParser
	policy     func(stage string) retry.Policy
	log        *zap.Logger
}

type EmbeddingDeps struct {
	Jobs       JobStore
	Resumes    ResumeStore
	Embeddings EmbeddingStore
	Embedder   Embedder
	Fetcher    ResumeFetcher
	Extractor  TextExtractor
	Parser     ProfileParser
}

func NewEmbeddingUsecase(d EmbeddingDeps, policy func(stage string) retry.Policy, log *zap.Logger) *EmbeddingUsecase {
	return &EmbeddingUsecase{
		jobs:       d.Jobs,
		resumes:    d.Resumes,
		embeddings: d.Embeddings,
		embedder:   d.Embedder,
		fetcher:    d.Fetcher,
		extractor:  d.Extractor,
		parser:     d.Parser,
		policy:     policy,
		log:        logger.OrNop(log),
	}
}

// EmbedJob renders the job, embeds it and upserts the vector. Jobs that are
// gone or not published and active are skipped without error.
func (uc *EmbeddingUsecase) EmbedJob(ctx context.Context, jobID uuid.UUID) (EmbedOutcome, error) {
	log := uc.log.With(zap.String(logger.FieldJobID, jobID.String()))

	job, err := uc.jobs.FindJobByID(ctx, jobID)
	if errors.Is(err, errs.ErrNotFound) {
		log.Info("job no longer exists, skipping embedding")
		return EmbedSkipped, nil
	}
	if err != nil {
		return EmbedSkipped, err
	}
	if !job.Matchable() {
		log.Info("job is not published and active, skipping embedding", zap.String("status", job.Status))
		return EmbedSkipped, nil
	}

	text := textbuilder.BuildJobText(job)
	if existing, err := uc.embeddings.FindJobEmbedding(ctx, jobID); err == nil && existing.SourceText == text {
		log.Debug("job text unchanged, keeping stored embedding")
		return EmbedUnchanged, nil
	} else if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return EmbedSkipped, err
	}

	start := time.Now()
	vec, err := retry.Do(ctx, uc.policy("embed_job"), func(ctx context.Context) ([]float32, error) {
		return uc.embedder.Embed(ctx, text)
	})
	if err != nil {
		return EmbedSkipped, fmt.Errorf("embed job %s: %w", jobID, err)
	}
	if err := retry.Run(ctx, uc.policy("store_job_embedding"), func(ctx context.Context) error {
		return uc.embeddings.UpsertJobEmbedding(ctx, jobID, vec, text)
	}); err != nil {
		return EmbedSkipped, err
	}

	log.Info("job embedding stored",
		zap.String(logger.FieldProvider, uc.embedder.Name()),
		zap.Int("dimensions", len(vec)),
		zap.Duration("duration", time.Since(start)))
	return EmbedStored, nil
}

// EmbedResume runs the parse stage and then the embed stage for one resume.
func (uc *EmbeddingUsecase) EmbedResume(ctx context.Context, resumeID uuid.UUID) (ParsedResume, EmbedOutcome, error) {
	parsed, err := uc.ParseStage(ctx, resumeID)
	if errors.Is(err, errs.ErrSourceDeleted) {
		uc.log.Info("resume no longer exists, skipping", zap.String(logger.FieldResumeID, resumeID.String()))
		return ParsedResume{}, EmbedSkipped, nil
	}
	if err != nil {
		return ParsedResume{}, EmbedSkipped, err
	}

	outcome, err := uc.EmbedStage(ctx, parsed)
	return parsed, outcome, err
}

// ParseStage fetches the resume binary, extracts and cleans its text, asks
// the extraction model for a profile and persists it. The fetched file is
// removed on every exit path, including retries.
func (uc *EmbeddingUsecase) ParseStage(ctx context.Context, resumeID uuid.UUID) (ParsedResume, error) {
	resume, err := uc.resumes.FindResumeByID(ctx, resumeID)
	if errors.Is(err, errs.ErrNotFound) {
		return ParsedResume{}, fmt.Errorf("resume %s: %w", resumeID, errs.ErrSourceDeleted)
	}
	if err != nil {
		return ParsedResume{}, err
	}

	log := uc.log.With(zap.String(logger.FieldResumeID, resumeID.String()))
	start := time.Now()

	profile, err := retry.Do(ctx, uc.policy("parse_resume"), func(ctx context.Context) (model.ParsedProfile, error) {
		return uc.parseOnce(ctx, resume.URL)
	})
	if err != nil {
		return ParsedResume{}, fmt.Errorf("parse resume %s: %w", resumeID, err)
	}

	if err := uc.resumes.SaveParsedProfile(ctx, resumeID, profile); err != nil {
		return ParsedResume{}, err
	}

	log.Info("resume parsed",
		zap.Int("skills", len(profile.Skills)),
		zap.Bool("has_level", profile.ExperienceLevel != nil),
		zap.Duration("duration", time.Since(start)))

	return ParsedResume{
		ResumeID:  resume.ID,
		UserID:    resume.UserID,
		IsDefault: resume.IsDefault,
		Profile:   profile,
	}, nil
}

func (uc *EmbeddingUsecase) parseOnce(ctx context.Context, location string) (model.ParsedProfile, error) {
	path, cleanup, err := uc.fetcher.Fetch(ctx, location)
	if err != nil {
		return model.ParsedProfile{}, err
	}
	defer cleanup()

	raw, err := uc.extractor.ExtractText(path)
	if err != nil {
		return model.ParsedProfile{}, err
	}
	return uc.parser.Parse(ctx, extraction.CleanText(raw))
}

// EmbedStage embeds the candidate text built from a persisted profile.
func (uc *EmbeddingUsecase) EmbedStage(ctx context.Context, parsed ParsedResume) (EmbedOutcome, error) {
	text := textbuilder.BuildCandidateText(parsed.Profile)
	log := uc.log.With(zap.String(logger.FieldResumeID, parsed.ResumeID.String()))

	if existing, err := uc.embeddings.FindResumeEmbedding(ctx, parsed.ResumeID); err == nil && existing.SourceText == text {
		log.Debug("candidate text unchanged, keeping stored embedding")
		return EmbedUnchanged, nil
	} else if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return EmbedSkipped, err
	}

	vec, err := retry.Do(ctx, uc.policy("embed_resume"), func(ctx context.Context) ([]float32, error) {
		return uc.embedder.Embed(ctx, text)
	})
	if err != nil {
		return EmbedSkipped, fmt.Errorf("embed resume %s: %w", parsed.ResumeID, err)
	}
	if err := retry.Run(ctx, uc.policy("store_resume_embedding"), func(ctx context.Context) error {
		return uc.embeddings.UpsertResumeEmbedding(ctx, parsed.ResumeID, vec, text)
	}); err != nil {
		return EmbedSkipped, err
	}

	log.Info("resume embedding stored", zap.String(logger.FieldProvider, uc.embedder.Name()))
	return EmbedStored, nil
}
