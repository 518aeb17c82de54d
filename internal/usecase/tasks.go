package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/logger"
	"github.com/fadilmartias/job-matcher/internal/worker"
)

const (
	TaskEmbedJob         = "embed_job"
	TaskEmbedResume      = "embed_resume"
	TaskScoreApplication = "score_application"
	TaskFanoutJob        = "fanout_job"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, kind string, entityID uuid.UUID) error
}

type Registrar interface {
	Handle(kind string, h worker.HandlerFunc)
}

type UnscoredLister interface {
	ListUnscored(ctx context.Context, jobID, applicantID uuid.UUID) ([]uuid.UUID, error)
}

// Tasks binds the pipeline usecases to queue task kinds and chains the
// follow-up work each of them triggers.
type Tasks struct {
	embedding *EmbeddingUsecase
	matching  *MatchingUsecase
	unscored  UnscoredLister
	queue     Enqueuer
	log       *zap.Logger
}

func NewTasks(embedding *EmbeddingUsecase, matching *MatchingUsecase, unscored UnscoredLister, queue Enqueuer, log *zap.Logger) *Tasks {
	return &Tasks{
		embedding: embedding,
		matching:  matching,
		unscored:  unscored,
		queue:     queue,
		log:       logger.OrNop(log),
	}
}

func (t *Tasks) Register(r Registrar) {
	r.Handle(TaskEmbedJob, t.embedJob)
	r.Handle(TaskEmbedResume, t.embedResume)
	r.Handle(TaskScoreApplication, t.scoreApplication)
	r.Handle(TaskFanoutJob, t.fanoutJob)
}

// A freshly stored job vector triggers the broadcast and scores applications
// that were waiting on it.
func (t *Tasks) embedJob(ctx context.Context, task worker.Task) error {
	outcome, err := t.embedding.EmbedJob(ctx, task.EntityID)
	if err != nil || outcome != EmbedStored {
		return err
	}
	t.follow(ctx, TaskFanoutJob, task.EntityID)
	t.scoreWaiting(ctx, task.EntityID, uuid.Nil)
	return nil
}

func (t *Tasks) embedResume(ctx context.Context, task worker.Task) error {
	parsed, outcome, err := t.embedding.EmbedResume(ctx, task.EntityID)
	if err != nil || outcome != EmbedStored || !parsed.IsDefault {
		return err
	}
	t.scoreWaiting(ctx, uuid.Nil, parsed.UserID)
	return nil
}

func (t *Tasks) scoreApplication(ctx context.Context, task worker.Task) error {
	_, err := t.matching.ScoreApplication(ctx, task.EntityID)
	return err
}

func (t *Tasks) fanoutJob(ctx context.Context, task worker.Task) error {
	_, err := t.matching.BroadcastMatches(ctx, task.EntityID)
	return err
}

func (t *Tasks) scoreWaiting(ctx context.Context, jobID, applicantID uuid.UUID) {
	ids, err := t.unscored.ListUnscored(ctx, jobID, applicantID)
	if err != nil {
		t.log.Warn("failed to list unscored applications", zap.Error(err))
		return
	}
	for _, id := range ids {
		t.follow(ctx, TaskScoreApplication, id)
	}
}

// follow enqueues a follow-up task. The parent already succeeded, so a
// failure here is logged rather than retried.
func (t *Tasks) follow(ctx context.Context, kind string, id uuid.UUID) {
	if err := t.queue.Enqueue(ctx, kind, id); err != nil {
		t.log.Warn("failed to enqueue follow-up task", append(logger.TaskFields(kind, id.String()), zap.Error(err))...)
	}
}
