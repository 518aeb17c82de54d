package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fadilmartias/job-matcher/internal/dto"
	"github.com/fadilmartias/job-matcher/internal/middleware"
	"github.com/fadilmartias/job-matcher/internal/model"
	"github.com/fadilmartias/job-matcher/internal/usecase"
	"github.com/fadilmartias/job-matcher/internal/util"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, kind string, entityID uuid.UUID) error
}

type ApplicationReader interface {
	FindApplicationByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
}

type PairScorer interface {
	PairSimilarity(ctx context.Context, jobID, userID uuid.UUID) (float64, error)
}

type InsightProvider interface {
	Get(ctx context.Context, jobID, resumeID uuid.UUID) (*model.JobResumeInsight, error)
	Invalidate(ctx context.Context, jobID, resumeID uuid.UUID) error
}

type JobSearcher interface {
	SearchJobs(ctx context.Context, query string, limit int) ([]usecase.JobMatch, error)
}

type MatchingHandler struct {
	queue        Enqueuer
	applications ApplicationReader
	matching     PairScorer
	insights     InsightProvider
	search       JobSearcher
}

func NewMatchingHandler(queue Enqueuer, applications ApplicationReader, matching PairScorer, insights InsightProvider, search JobSearcher) *MatchingHandler {
	return &MatchingHandler{queue: queue, applications: applications, matching: matching, insights: insights, search: search}
}

func (h *MatchingHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/jobs/search", middleware.RateLimiter(10, time.Minute), h.SearchJobs)
	app.Post("/jobs/:id/embedding", h.enqueue(usecase.TaskEmbedJob))
	app.Get("/jobs/:id/match", h.PairMatch)
	app.Get("/jobs/:id/resumes/:resumeId/insight", h.GetInsight)
	app.Delete("/jobs/:id/resumes/:resumeId/insight", h.InvalidateInsight)
	app.Post("/resumes/:id/embedding", h.enqueue(usecase.TaskEmbedResume))
	app.Post("/applications/:id/score", h.enqueue(usecase.TaskScoreApplication))
	app.Get("/applications/:id/score", h.ApplicationScore)
}

func (h *MatchingHandler) enqueue(kind string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return invalidUUID(c, "id")
		}
		if err := h.queue.Enqueue(c.UserContext(), kind, id); err != nil {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusServiceUnavailable,
				Message: "failed to queue task",
			}, err)
		}
		return util.SuccessResponse(c, util.SuccessResponseFormat{
			Code:    fiber.StatusAccepted,
			Message: "Task queued",
			Data:    dto.TaskAcceptedDTO{Task: kind, EntityID: id, Status: "queued"},
		})
	}
}

func (h *MatchingHandler) ApplicationScore(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidUUID(c, "id")
	}
	app, err := h.applications.FindApplicationByID(c.UserContext(), id)
	if err != nil {
		return util.FromError(c, "application score", err)
	}
	if app.MatchScore == nil {
		return util.NotReadyResponse(c, "Match score is still being computed")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get match score",
		Data: dto.ApplicationScoreDTO{
			ApplicationID: app.ID,
			JobID:         app.JobID,
			ApplicantID:   app.ApplicantID,
			MatchScore:    *app.MatchScore,
			ScoredAt:      app.ScoredAt,
		},
	})
}

func (h *MatchingHandler) PairMatch(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidUUID(c, "id")
	}
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		return invalidUUID(c, "user_id")
	}

	pct, err := h.matching.PairSimilarity(c.UserContext(), jobID, userID)
	if err != nil {
		return util.FromError(c, "job match", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get job match",
		Data:    dto.PairMatchDTO{JobID: jobID, UserID: userID, MatchPercent: pct},
	})
}

func (h *MatchingHandler) GetInsight(c *fiber.Ctx) error {
	jobID, resumeID, bad := insightParams(c)
	if bad != "" {
		return invalidUUID(c, bad)
	}
	insight, err := h.insights.Get(c.UserContext(), jobID, resumeID)
	if err != nil {
		return util.FromError(c, "insight", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get insight",
		Data:    dto.NewInsightDTO(insight),
	})
}

func (h *MatchingHandler) InvalidateInsight(c *fiber.Ctx) error {
	jobID, resumeID, bad := insightParams(c)
	if bad != "" {
		return invalidUUID(c, bad)
	}
	if err := h.insights.Invalidate(c.UserContext(), jobID, resumeID); err != nil {
		return util.FromError(c, "invalidate insight", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{Message: "Insight invalidated"})
}

func (h *MatchingHandler) SearchJobs(c *fiber.Ctx) error {
	var req dto.SearchJobsRequest
	if err := c.BodyParser(&req); err != nil {
		return util.FromError(c, "invalid request", util.NewFormError("invalid request body", nil))
	}
	if strings.TrimSpace(req.Query) == "" {
		return util.FromError(c, "invalid request", util.NewFormError("invalid request", map[string]string{"query": "is required"}))
	}

	matches, err := h.search.SearchJobs(c.UserContext(), req.Query, req.Limit)
	if err != nil {
		return util.FromError(c, "job search", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success search jobs",
		Data:    matches,
		Meta:    fiber.Map{"count": len(matches)},
	})
}

// insightParams returns the name of the first malformed parameter, if any.
func insightParams(c *fiber.Ctx) (jobID, resumeID uuid.UUID, bad string) {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, "id"
	}
	resumeID, err = uuid.Parse(c.Params("resumeId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, "resumeId"
	}
	return jobID, resumeID, ""
}

func invalidUUID(c *fiber.Ctx, name string) error {
	return util.FromError(c, "invalid request", util.NewFormError("invalid request", map[string]string{name: "must be a valid uuid"}))
}
