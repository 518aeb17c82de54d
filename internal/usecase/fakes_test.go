package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/fadilmartias/job-matcher/internal/config"
	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/model"
	"github.com/fadilmartias/job-matcher/internal/notifier"
	"github.com/fadilmartias/job-matcher/internal/repository"
	"github.com/fadilmartias/job-matcher/internal/retry"
)

const testDims = 1024

// memStore is an in-memory stand-in for every repository the usecases use.
// Distances are computed the way pgvector's <=> does.
type memStore struct {
	mu           sync.Mutex
	jobs         map[uuid.UUID]*model.Job
	resumes      map[uuid.UUID]*model.Resume
	users        map[uuid.UUID]*model.User
	applications map[uuid.UUID]*model.Application
	jobVecs      map[uuid.UUID]*model.JobEmbedding
	resumeVecs   map[uuid.UUID]*model.ResumeEmbedding
	insights     map[string]*model.JobResumeInsight

	jobUpserts    int
	nearestLimits []int
}

func newMemStore() *memStore {
	return &memStore{
		jobs:         map[uuid.UUID]*model.Job{},
		resumes:      map[uuid.UUID]*model.Resume{},
		users:        map[uuid.UUID]*model.User{},
		applications: map[uuid.UUID]*model.Application{},
		jobVecs:      map[uuid.UUID]*model.JobEmbedding{},
		resumeVecs:   map[uuid.UUID]*model.ResumeEmbedding{},
		insights:     map[string]*model.JobResumeInsight{},
	}
}

func (s *memStore) addJob(title string, skills ...string) *model.Job {
	j := &model.Job{ID: uuid.New(), Title: title, Skills: datatypes.JSONSlice[string](skills), Status: model.JobStatusPublished, IsActive: true}
	s.jobs[j.ID] = j
	return j
}

func (s *memStore) addCandidate(email string) (*model.User, *model.Resume) {
	u := &model.User{ID: uuid.New(), Email: email, Role: model.RoleJobSeeker, IsActive: true}
	r := &model.Resume{ID: uuid.New(), UserID: u.ID, URL: "s3://resumes/" + email + ".pdf", IsDefault: true}
	s.users[u.ID] = u
	s.resumes[r.ID] = r
	return u, r
}

func (s *memStore) FindJobByID(_ context.Context, id uuid.UUID) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, errs.ErrNotFound)
	}
	cp := *j
	return &cp, nil
}

func (s *memStore) FindResumeByID(_ context.Context, id uuid.UUID) (*model.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resumes[id]
	if !ok || r.IsDeleted {
		return nil, fmt.Errorf("resume %s: %w", id, errs.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) FindDefaultResume(_ context.Context, userID uuid.UUID) (*model.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.resumes {
		if r.UserID == userID && r.IsDefault && !r.IsDeleted {
			cp := *r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("default resume for %s: %w", userID, errs.ErrNotFound)
}

func (s *memStore) SaveParsedProfile(_ context.Context, id uuid.UUID, profile model.ParsedProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resumes[id]
	if !ok || r.IsDeleted {
		return fmt.Errorf("resume %s: %w", id, errs.ErrSourceDeleted)
	}
	now := time.Now()
	r.ParsedData = datatypes.NewJSONType(profile)
	r.ParsedAt = &now
	return nil
}

func (s *memStore) UpsertJobEmbedding(_ context.Context, jobID uuid.UUID, vec []float32, sourceText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobUpserts++
	s.jobVecs[jobID] = &model.JobEmbedding{JobID: jobID, Embedding: pgvector.NewVector(vec), SourceText: sourceText}
	return nil
}

func (s *memStore) UpsertResumeEmbedding(_ context.Context, resumeID uuid.UUID, vec []float32, sourceText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumeVecs[resumeID] = &model.ResumeEmbedding{ResumeID: resumeID, Embedding: pgvector.NewVector(vec), SourceText: sourceText}
	return nil
}

func (s *memStore) FindJobEmbedding(_ context.Context, jobID uuid.UUID) (*model.JobEmbedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobVecs[jobID]
	if !ok {
		return nil, fmt.Errorf("job embedding %s: %w", jobID, errs.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (s *memStore) FindResumeEmbedding(_ context.Context, resumeID uuid.UUID) (*model.ResumeEmbedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.resumeVecs[resumeID]
	if !ok {
		return nil, fmt.Errorf("resume embedding %s: %w", resumeID, errs.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (s *memStore) NearestResumes(_ context.Context, vec pgvector.Vector, limit int) ([]repository.ResumeCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nearestLimits = append(s.nearestLimits, limit)
	var out []repository.ResumeCandidate
	for id, e := range s.resumeVecs {
		r := s.resumes[id]
		if r == nil || !r.IsDefault || r.IsDeleted {
			continue
		}
		u := s.users[r.UserID]
		if u == nil || !u.IsActive {
			continue
		}
		out = append(out, repository.ResumeCandidate{
			ResumeID: id, UserID: u.ID, Email: u.Email,
			Distance: cosineDistance(vec.Slice(), e.Embedding.Slice()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) NearestJobs(_ context.Context, vec pgvector.Vector, limit int) ([]repository.JobCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.JobCandidate
	for id, e := range s.jobVecs {
		j := s.jobs[id]
		if j == nil || !j.Matchable() {
			continue
		}
		out = append(out, repository.JobCandidate{JobID: id, Title: j.Title, Distance: cosineDistance(vec.Slice(), e.Embedding.Slice())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) PairDistance(_ context.Context, jobID, resumeID uuid.UUID) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	je, ok1 := s.jobVecs[jobID]
	re, ok2 := s.resumeVecs[resumeID]
	if !ok1 || !ok2 {
		return 0, false, nil
	}
	return cosineDistance(je.Embedding.Slice(), re.Embedding.Slice()), true, nil
}

func (s *memStore) FindApplicationByID(_ context.Context, id uuid.UUID) (*model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return nil, fmt.Errorf("application %s: %w", id, errs.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) UpdateMatchScore(_ context.Context, id uuid.UUID, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return fmt.Errorf("application %s: %w", id, errs.ErrSourceDeleted)
	}
	a.MatchScore = &score
	return nil
}

func (s *memStore) ListUnscored(_ context.Context, jobID, applicantID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for id, a := range s.applications {
		if a.MatchScore != nil {
			continue
		}
		if jobID != uuid.Nil && a.JobID != jobID {
			continue
		}
		if applicantID != uuid.Nil && a.ApplicantID != applicantID {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func insightKey(jobID, resumeID uuid.UUID) string { return jobID.String() + resumeID.String() }

func (s *memStore) FindInsight(_ context.Context, jobID, resumeID uuid.UUID) (*model.JobResumeInsight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.insights[insightKey(jobID, resumeID)]
	if !ok {
		return nil, fmt.Errorf("insight: %w", errs.ErrNotFound)
	}
	cp := *i
	return &cp, nil
}

func (s *memStore) UpsertInsight(_ context.Context, insight *model.JobResumeInsight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *insight
	s.insights[insightKey(insight.JobID, insight.ResumeID)] = &cp
	return nil
}

func (s *memStore) DeleteInsight(_ context.Context, jobID, resumeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.insights, insightKey(jobID, resumeID))
	return nil
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// bagOfWords is a deterministic embedder: each lowercased word is hashed into
// one of testDims buckets. Texts sharing words end up closer.
type bagOfWords struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (b *bagOfWords) Name() string { return "bag-of-words" }

func (b *bagOfWords) Embed(_ context.Context, text string) ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	vec := make([]float32, testDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%testDims]++
	}
	return vec, nil
}

func (b *bagOfWords) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// scriptedModel replies with canned text and counts calls.
type scriptedModel struct {
	mu      sync.Mutex
	replies map[string]string
	reply   string
	err     error
	calls   int
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Complete(_ context.Context, _, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	for marker, reply := range m.replies {
		if strings.Contains(prompt, marker) {
			return reply, nil
		}
	}
	return m.reply, nil
}

type fakeFetcher struct {
	mu       sync.Mutex
	err      error
	fetched  int
	cleanups int
}

func (f *fakeFetcher) Fetch(_ context.Context, location string) (string, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", nil, f.err
	}
	f.fetched++
	return location, func() {
		f.mu.Lock()
		f.cleanups++
		f.mu.Unlock()
	}, nil
}

// pathText returns the "file contents" registered for a fetched location.
type pathText map[string]string

func (p pathText) ExtractText(path string) (string, error) {
	t, ok := p[path]
	if !ok {
		return "", errors.New("no such file")
	}
	return t, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]notifier.Recipient
}

func (n *recordingNotifier) NotifyMatches(_ context.Context, _ *model.Job, recipients []notifier.Recipient) notifier.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, recipients)
	return notifier.Result{Notified: len(recipients)}
}

func noRetry(string) retry.Policy { return retry.Policy{MaxAttempts: 1} }

func matchingConfig() *config.MatchingConfig {
	return &config.MatchingConfig{Threshold: 0.55, TopN: 50, SearchLimit: 10}
}
