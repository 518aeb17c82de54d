package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/fadilmartias/job-matcher/internal/config"
	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/logger"
)

// geminiModels is the subset of *genai.Models used here.
type geminiModels interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiService struct {
	models         geminiModels
	embedModel     string
	generateModel  string
	dimensions     int
	requestTimeout time.Duration
	breaker        *circuitBreaker
	log            *zap.Logger
}

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, pc *config.ProviderConfig, log *zap.Logger) (*GeminiService, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiService(client.Models, cfg, pc, log), nil
}

func newGeminiService(models geminiModels, cfg *config.GeminiConfig, pc *config.ProviderConfig, log *zap.Logger) *GeminiService {
	return &GeminiService{
		models:         models,
		embedModel:     cfg.EmbedModel,
		generateModel:  cfg.GenerateModel,
		dimensions:     pc.Dimensions,
		requestTimeout: pc.Timeout,
		breaker:        newCircuitBreaker(5, 30*time.Second),
		log:            logger.OrNop(log),
	}
}

func (s *GeminiService) Name() string {
	return "gemini"
}

func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	text, err := prepareEmbeddingText(text)
	if err != nil {
		return nil, err
	}
	if !s.breaker.Allow() {
		n, _ := s.breaker.Status()
		return nil, fmt.Errorf("%w: circuit breaker open after %d consecutive errors", errs.ErrProviderUnavailable, n)
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var embedConfig *genai.EmbedContentConfig
	if s.dimensions > 0 {
		embedConfig = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(int32(s.dimensions))}
	}

	resp, err := s.models.EmbedContent(callCtx, s.embedModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, embedConfig)
	if err != nil {
		err = classifyGeminiError(err)
		s.breaker.Record(err)
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	s.breaker.Record(nil)

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("%w: no embeddings returned", errs.ErrProviderUnavailable)
	}
	return validateEmbedding(resp.Embeddings[0].Values, s.dimensions)
}

func (s *GeminiService) Complete(ctx context.Context, system, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty: %w", errs.ErrInvalidInput)
	}
	if !s.breaker.Allow() {
		n, _ := s.breaker.Status()
		return "", fmt.Errorf("%w: circuit breaker open after %d consecutive errors", errs.ErrProviderUnavailable, n)
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := s.models.GenerateContent(callCtx, s.generateModel, genai.Text(prompt), genConfig)
	if err != nil {
		err = classifyGeminiError(err)
		s.breaker.Record(err)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	s.breaker.Record(nil)

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned empty response", errs.ErrProviderUnavailable)
	}
	logger.WithCommonFields(s.log, s.Name(), s.generateModel).
		Debug("gemini completion", zap.String("reply", logger.TruncateForLog(text, 200)))
	return text, nil
}

func (s *GeminiService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.requestTimeout)
}

func (s *GeminiService) CircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	return s.breaker.Status()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(strings.TrimSpace(part.Text))
		}
	}
	return b.String()
}

// classifyGeminiError wraps transient failures in errs.ErrProviderUnavailable
// and leaves client errors as they are.
func classifyGeminiError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, err)
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	if code != 0 {
		if isTransientStatus(code) {
			return fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, err)
		}
		return err
	}

	if isTransientMessage(err.Error()) {
		return fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, err)
	}
	return err
}
