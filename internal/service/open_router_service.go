package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/config"
	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/logger"
)

// OpenRouterService talks to the OpenAI-compatible OpenRouter API for both
// chat completions and embeddings.
type OpenRouterService struct {
	client     *resty.Client
	chatModel  string
	embedModel string
	dimensions int
	log        *zap.Logger
}

func NewOpenRouterService(cfg *config.OpenRouterConfig, pc *config.ProviderConfig, log *zap.Logger) *OpenRouterService {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(pc.Timeout)

	return &OpenRouterService{
		client:     client,
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		dimensions: pc.Dimensions,
		log:        logger.OrNop(log),
	}
}

func (s *OpenRouterService) Name() string {
	return "openrouter"
}

func (s *OpenRouterService) Complete(ctx context.Context, system, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty: %w", errs.ErrInvalidInput)
	}

	messages := make([]map[string]string, 0, 2)
	if system != "" {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	body, err := s.post(ctx, s.chatModel, "/chat/completions", map[string]any{
		"model":       s.chatModel,
		"messages":    messages,
		"temperature": 0,
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(gjson.Get(body, "choices.0.message.content").String())
	if text == "" {
		return "", fmt.Errorf("%w: no response from LLM", errs.ErrProviderUnavailable)
	}
	logger.WithCommonFields(s.log, s.Name(), s.chatModel).
		Debug("openrouter completion", zap.String("reply", logger.TruncateForLog(text, 200)))
	return text, nil
}

func (s *OpenRouterService) Embed(ctx context.Context, text string) ([]float32, error) {
	text, err := prepareEmbeddingText(text)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"model": s.embedModel,
		"input": text,
	}
	if s.dimensions > 0 {
		payload["dimensions"] = s.dimensions
	}

	body, err := s.post(ctx, s.embedModel, "/embeddings", payload)
	if err != nil {
		return nil, err
	}

	raw := gjson.Get(body, "data.0.embedding")
	if !raw.IsArray() {
		return nil, fmt.Errorf("%w: embedding missing from response", errs.ErrProviderUnavailable)
	}
	items := raw.Array()
	values := make([]float32, len(items))
	for i, v := range items {
		values[i] = float32(v.Float())
	}
	return validateEmbedding(values, s.dimensions)
}

func (s *OpenRouterService) post(ctx context.Context, model, path string, payload any) (string, error) {
	start := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(path)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return "", err
		}
		return "", fmt.Errorf("%w: openrouter %s: %w", errs.ErrProviderUnavailable, path, err)
	}

	logger.WithCommonFields(s.log, s.Name(), model).Debug("openrouter call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("took", time.Since(start)))

	if resp.IsError() {
		msg := gjson.Get(resp.String(), "error.message").String()
		if msg == "" {
			msg = logger.TruncateForLog(resp.String(), 200)
		}
		err := fmt.Errorf("openrouter %s: status %d: %s", path, resp.StatusCode(), msg)
		if isTransientStatus(resp.StatusCode()) {
			return "", fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, err)
		}
		return "", err
	}
	// OpenRouter reports upstream failures inside a 200 body.
	if e := gjson.Get(resp.String(), "error"); e.Exists() {
		return "", fmt.Errorf("%w: openrouter %s: %s", errs.ErrProviderUnavailable, path, e.Get("message").String())
	}
	return resp.String(), nil
}
