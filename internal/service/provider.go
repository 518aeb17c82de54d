package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/fadilmartias/job-matcher/internal/errs"
)

// EmbeddingProvider turns text into a fixed-width vector. Every transient
// failure, including malformed responses, is reported as
// errs.ErrProviderUnavailable. Implementations do not retry.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

// ExtractionProvider sends a prompt to a text model and returns its raw
// reply, which is expected (but not guaranteed) to contain one JSON object.
type ExtractionProvider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

const maxEmbeddingChars = 10000

func prepareEmbeddingText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("text for embedding cannot be empty: %w", errs.ErrInvalidInput)
	}
	if r := []rune(text); len(r) > maxEmbeddingChars {
		text = string(r[:maxEmbeddingChars])
	}
	return text, nil
}

func validateEmbedding(values []float32, dims int) ([]float32, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: embedding vector is empty", errs.ErrProviderUnavailable)
	}
	if dims > 0 && len(values) != dims {
		return nil, fmt.Errorf("%w: embedding has %d dimensions, want %d", errs.ErrProviderUnavailable, len(values), dims)
	}
	for i, val := range values {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("%w: invalid embedding value at index %d: %v", errs.ErrProviderUnavailable, i, val)
		}
	}
	return values, nil
}

// isTransientMessage matches transport failures that carry no typed error.
func isTransientMessage(msg string) bool {
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"EOF",
		"no such host",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func isTransientStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}
