// Package textbuilder renders jobs and parsed resumes into the labeled text
// blobs that get embedded. Field order is part of the output contract:
// changing it makes new vectors incomparable with stored ones.
package textbuilder

import (
	"strings"

	"github.com/fadilmartias/job-matcher/internal/model"
)

type section struct {
	label string
	value string
}

func render(sections []section) string {
	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s.label)
		b.WriteString(": ")
		b.WriteString(s.value)
	}
	return b.String()
}

func joinSkills(skills []string) string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// BuildJobText renders a job. A nil job yields the empty template.
func BuildJobText(job *model.Job) string {
	if job == nil {
		job = &model.Job{}
	}
	return render([]section{
		{"Job Title", strings.TrimSpace(job.Title)},
		{"Skills", joinSkills(job.Skills)},
		{"Experience Level", strings.TrimSpace(job.ExperienceLevel)},
		{"Description", strings.TrimSpace(job.Description)},
		{"Requirements", strings.TrimSpace(job.Requirements)},
	})
}

// BuildCandidateText renders a parsed resume profile.
func BuildCandidateText(p model.ParsedProfile) string {
	return render([]section{
		{"Experience Level", deref(p.ExperienceLevel)},
		{"Skills", joinSkills(p.Skills)},
		{"Professional Experience", deref(p.ExperienceSummary)},
	})
}
