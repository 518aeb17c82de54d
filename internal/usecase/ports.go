package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/fadilmartias/job-matcher/internal/model"
	"github.com/fadilmartias/job-matcher/internal/notifier"
	"github.com/fadilmartias/job-matcher/internal/repository"
)

// The interfaces below are the narrow slices of the repositories and
// services each usecase reads or writes. The concrete gorm repositories
// satisfy them; tests use in-memory fakes.

type JobStore interface {
	FindJobByID(ctx context.Context, id uuid.UUID) (*model.Job, error)
}

type ResumeStore interface {
	FindResumeByID(ctx context.Context, id uuid.UUID) (*model.Resume, error)
	FindDefaultResume(ctx context.Context, userID uuid.UUID) (*model.Resume, error)
	SaveParsedProfile(ctx context.Context, id uuid.UUID, profile model.ParsedProfile) error
}

type EmbeddingStore interface {
	UpsertJobEmbedding(ctx context.Context, jobID uuid.UUID, vec []float32, sourceText string) error
	UpsertResumeEmbedding(ctx context.Context, resumeID uuid.UUID, vec []float32, sourceText string) error
	FindJobEmbedding(ctx context.Context, jobID uuid.UUID) (*model.JobEmbedding, error)
	FindResumeEmbedding(ctx context.Context, resumeID uuid.UUID) (*model.ResumeEmbedding, error)
	NearestResumes(ctx context.Context, vec pgvector.Vector, limit int) ([]repository.ResumeCandidate, error)
	NearestJobs(ctx context.Context, vec pgvector.Vector, limit int) ([]repository.JobCandidate, error)
	PairDistance(ctx context.Context, jobID, resumeID uuid.UUID) (float64, bool, error)
}

type ApplicationStore interface {
	FindApplicationByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	UpdateMatchScore(ctx context.Context, id uuid.UUID, score float64) error
}

type InsightStore interface {
	FindInsight(ctx context.Context, jobID, resumeID uuid.UUID) (*model.JobResumeInsight, error)
	UpsertInsight(ctx context.Context, insight *model.JobResumeInsight) error
	DeleteInsight(ctx context.Context, jobID, resumeID uuid.UUID) error
}

// Embedder turns text into a fixed-width vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

// Completer sends a prompt to the extraction model and returns its raw reply.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

type ResumeFetcher interface {
	Fetch(ctx context.Context, location string) (path string, cleanup func(), err error)
}

type TextExtractor interface {
	ExtractText(path string) (string, error)
}

type ProfileParser interface {
	Parse(ctx context.Context, cleaned string) (model.ParsedProfile, error)
}

type MatchNotifier interface {
	NotifyMatches(ctx context.Context, job *model.Job, recipients []notifier.Recipient) notifier.Result
}
