package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/logger"
	"github.com/fadilmartias/job-matcher/internal/model"
)

// Completer is the model call the profile parser needs.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

const profileSystemPrompt = "You are a resume parser for a job matching platform. You reply with a single JSON object and nothing else."

const profilePrompt = `Extract the candidate profile from the resume below as JSON with exactly these keys:

{
  "role": "current or desired job title",
  "skills": ["technical", "skills", "only"],
  "experience_summary": "2-3 sentence professional summary",
  "education": "highest relevant education",
  "experience_level": "fresher | mid | senior",
  "projects_summary": "brief summary of key projects"
}

Rules:
- List technical skills only, no soft skills.
- Use null for any field the resume does not mention. Never omit a key.
- Return JSON only.

Resume text:
"""%s"""`

// minResumeChars is the shortest cleaned resume worth sending to the model.
const minResumeChars = 30

type ProfileParser struct {
	model Completer
	log   *zap.Logger
}

func NewProfileParser(m Completer, log *zap.Logger) *ProfileParser {
	return &ProfileParser{model: m, log: logger.OrNop(log)}
}

// Parse sends cleaned resume text to the extraction model and decodes the
// reply into a profile. Unrecoverable output yields errs.ErrParseFailure.
func (p *ProfileParser) Parse(ctx context.Context, cleaned string) (model.ParsedProfile, error) {
	if len([]rune(cleaned)) < minResumeChars {
		return model.ParsedProfile{}, fmt.Errorf("%w: no extractable text in resume", errs.ErrParseFailure)
	}

	prompt := fmt.Sprintf(profilePrompt, truncateRunes(cleaned, MaxPromptChars))
	raw, err := p.model.Complete(ctx, profileSystemPrompt, prompt)
	if err != nil {
		return model.ParsedProfile{}, err
	}
	p.log.Debug("resume model output", zap.String("reply", logger.TruncateForLog(raw, 300)))

	obj, err := ExtractJSON(raw)
	if err != nil {
		return model.ParsedProfile{}, err
	}
	return DecodeProfile(obj), nil
}

// DecodeProfile maps a recovered JSON object onto ParsedProfile, tolerating
// the usual model slips: skills as a comma separated string, blank strings
// instead of null, unknown seniority labels.
func DecodeProfile(obj string) model.ParsedProfile {
	res := gjson.Parse(obj)
	return model.ParsedProfile{
		Role:              optString(res.Get("role")),
		Skills:            skillList(res.Get("skills")),
		ExperienceSummary: optString(res.Get("experience_summary")),
		Education:         optString(res.Get("education")),
		ExperienceLevel:   level(res.Get("experience_level")),
		ProjectsSummary:   optString(res.Get("projects_summary")),
	}
}

func optString(v gjson.Result) *string {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	var s string
	if v.IsArray() {
		parts := make([]string, 0)
		for _, item := range v.Array() {
			if t := strings.TrimSpace(item.String()); t != "" {
				parts = append(parts, t)
			}
		}
		s = strings.Join(parts, "; ")
	} else {
		s = strings.TrimSpace(v.String())
	}
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

func skillList(v gjson.Result) []string {
	var raw []string
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return nil
	case v.IsArray():
		for _, item := range v.Array() {
			raw = append(raw, item.String())
		}
	default:
		raw = strings.Split(v.String(), ",")
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func level(v gjson.Result) *string {
	s := optString(v)
	if s == nil {
		return nil
	}
	l := strings.ToLower(*s)
	switch l {
	case model.LevelFresher, model.LevelMid, model.LevelSenior:
		return &l
	}
	return nil
}
