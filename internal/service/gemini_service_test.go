package service

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/fadilmartias/job-matcher/internal/config"
	"github.com/fadilmartias/job-matcher/internal/errs"
)

type fakeModels struct {
	embedResp    *genai.EmbedContentResponse
	embedErr     error
	generateResp *genai.GenerateContentResponse
	generateErr  error

	embedConfigs []*genai.EmbedContentConfig
	genConfigs   []*genai.GenerateContentConfig
}

func (f *fakeModels) EmbedContent(_ context.Context, _ string, _ []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.embedConfigs = append(f.embedConfigs, cfg)
	return f.embedResp, f.embedErr
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, _ []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.genConfigs = append(f.genConfigs, cfg)
	return f.generateResp, f.generateErr
}

func newTestGemini(m *fakeModels, dims int) *GeminiService {
	return newGeminiService(m,
		&config.GeminiConfig{EmbedModel: "gemini-embedding-001", GenerateModel: "gemini-2.5-flash"},
		&config.ProviderConfig{Dimensions: dims, Timeout: time.Second},
		zap.NewNop())
}

func embedResponse(values ...float32) *genai.EmbedContentResponse {
	return &genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{{Values: values}}}
}

func TestGeminiEmbed(t *testing.T) {
	m := &fakeModels{embedResp: embedResponse(0.1, 0.2, 0.3)}
	s := newTestGemini(m, 3)

	vec, err := s.Embed(context.Background(), "  Skills: Go  ")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	require.Len(t, m.embedConfigs, 1)
	assert.Equal(t, int32(3), *m.embedConfigs[0].OutputDimensionality)
}

func TestGeminiEmbedRejectsBadVectors(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.EmbedContentResponse
	}{
		{"nil", nil},
		{"empty", &genai.EmbedContentResponse{}},
		{"wrong width", embedResponse(0.1, 0.2)},
		{"nan", embedResponse(0.1, float32(math.NaN()), 0.3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestGemini(&fakeModels{embedResp: tt.resp}, 3)
			_, err := s.Embed(context.Background(), "text")
			assert.ErrorIs(t, err, errs.ErrProviderUnavailable)
		})
	}
}

func TestGeminiEmbedEmptyText(t *testing.T) {
	s := newTestGemini(&fakeModels{}, 3)
	_, err := s.Embed(context.Background(), "   ")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestGeminiErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"rate limited", genai.APIError{Code: http.StatusTooManyRequests}, true},
		{"server", genai.APIError{Code: http.StatusServiceUnavailable}, true},
		{"bad request", genai.APIError{Code: http.StatusBadRequest}, false},
		{"reset", errors.New("read tcp: connection reset by peer"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"other", errors.New("invalid argument"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestGemini(&fakeModels{embedErr: tt.err}, 3)
			_, err := s.Embed(context.Background(), "text")
			require.Error(t, err)
			assert.Equal(t, tt.transient, errors.Is(err, errs.ErrProviderUnavailable))
		})
	}
}

func TestGeminiCircuitBreakerOpens(t *testing.T) {
	m := &fakeModels{embedErr: genai.APIError{Code: http.StatusInternalServerError}}
	s := newTestGemini(m, 3)

	for i := 0; i < 5; i++ {
		_, _ = s.Embed(context.Background(), "text")
	}
	n, open := s.CircuitBreakerStatus()
	assert.Equal(t, 5, n)
	assert.True(t, open)

	_, err := s.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, errs.ErrProviderUnavailable)
	assert.Len(t, m.embedConfigs, 5, "open breaker must not reach the provider")
}

func TestGeminiComplete(t *testing.T) {
	m := &fakeModels{generateResp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: `{"role": "Engineer"}`}}},
		}},
	}}
	s := newTestGemini(m, 3)

	out, err := s.Complete(context.Background(), "system", "prompt")

	require.NoError(t, err)
	assert.Equal(t, `{"role": "Engineer"}`, out)
	require.Len(t, m.genConfigs, 1)
	assert.Equal(t, "system", m.genConfigs[0].SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", m.genConfigs[0].ResponseMIMEType)
}

func TestGeminiCompleteEmpty(t *testing.T) {
	s := newTestGemini(&fakeModels{generateResp: &genai.GenerateContentResponse{}}, 3)
	_, err := s.Complete(context.Background(), "", "prompt")
	assert.ErrorIs(t, err, errs.ErrProviderUnavailable)
}
