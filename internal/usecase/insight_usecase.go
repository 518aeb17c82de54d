package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/extraction"
	"github.com/fadilmartias/job-matcher/internal/logger"
	"github.com/fadilmartias/job-matcher/internal/model"
	"github.com/fadilmartias/job-matcher/internal/retry"
	"github.com/fadilmartias/job-matcher/internal/textbuilder"
)

const insightSystemPrompt = "You are a senior technical recruiter. You reply with a single JSON object and nothing else."

const insightPrompt = `Compare the candidate with the job below and return JSON with exactly these keys:

{
  "strengths": ["where the candidate clearly meets the job"],
  "gaps": ["requirements the candidate does not show"],
  "summary": "two sentences on overall fit"
}

Keep each list to at most five short items. Return JSON only.

JOB:
%s

CANDIDATE:
%s`

// InsightUsecase produces cached hiring notes for a (job, resume) pair.
// The model is only called on a cache miss.
type InsightUsecase struct {
	jobs     JobStore
	resumes  ResumeStore
	insights InsightStore
	model    Completer
	policy   retry.Policy
	group    singleflight.Group
	log      *zap.Logger
}

func NewInsightUsecase(jobs JobStore, resumes ResumeStore, insights InsightStore, m Completer, policy retry.Policy, log *zap.Logger) *InsightUsecase {
	return &InsightUsecase{
		jobs:     jobs,
		resumes:  resumes,
		insights: insights,
		model:    m,
		policy:   policy,
		log:      logger.OrNop(log),
	}
}

// Get returns the stored insight or generates and stores one. Concurrent
// misses for the same pair share one model call.
func (uc *InsightUsecase) Get(ctx context.Context, jobID, resumeID uuid.UUID) (*model.JobResumeInsight, error) {
	cached, err := uc.insights.FindInsight(ctx, jobID, resumeID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	key := jobID.String() + ":" + resumeID.String()
	v, err, _ := uc.group.Do(key, func() (any, error) {
		return uc.generate(ctx, jobID, resumeID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.JobResumeInsight), nil
}

// Invalidate drops the cached insight so the next Get regenerates it.
func (uc *InsightUsecase) Invalidate(ctx context.Context, jobID, resumeID uuid.UUID) error {
	return uc.insights.DeleteInsight(ctx, jobID, resumeID)
}

func (uc *InsightUsecase) generate(ctx context.Context, jobID, resumeID uuid.UUID) (*model.JobResumeInsight, error) {
	job, err := uc.jobs.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	resume, err := uc.resumes.FindResumeByID(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if !resume.Parsed() {
		return nil, fmt.Errorf("resume %s has no parsed profile: %w", resumeID, errs.ErrEmbeddingNotReady)
	}

	prompt := fmt.Sprintf(insightPrompt, textbuilder.BuildJobText(job), textbuilder.BuildCandidateText(resume.Profile()))
	raw, err := retry.Do(ctx, uc.policy, func(ctx context.Context) (string, error) {
		return uc.model.Complete(ctx, insightSystemPrompt, prompt)
	})
	if err != nil {
		return nil, fmt.Errorf("generate insight job %s resume %s: %w", jobID, resumeID, err)
	}

	obj, err := extraction.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	insight := decodeInsight(obj)
	insight.JobID = jobID
	insight.ResumeID = resumeID
	insight.Model = uc.model.Name()

	if err := uc.insights.UpsertInsight(ctx, insight); err != nil {
		return nil, err
	}
	uc.log.Info("insight generated",
		zap.String(logger.FieldJobID, jobID.String()),
		zap.String(logger.FieldResumeID, resumeID.String()),
		zap.String(logger.FieldProvider, insight.Model))
	return insight, nil
}

func decodeInsight(obj string) *model.JobResumeInsight {
	res := gjson.Parse(obj)
	return &model.JobResumeInsight{
		Strengths: datatypes.JSONSlice[string](stringList(res.Get("strengths"))),
		Gaps:      datatypes.JSONSlice[string](stringList(res.Get("gaps"))),
		Summary:   strings.TrimSpace(res.Get("summary").String()),
	}
}

func stringList(v gjson.Result) []string {
	out := []string{}
	if !v.IsArray() {
		if s := strings.TrimSpace(v.String()); s != "" && v.Type != gjson.Null {
			out = append(out, s)
		}
		return out
	}
	for _, item := range v.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}
