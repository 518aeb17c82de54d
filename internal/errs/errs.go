// Package errs defines the failure categories shared by the matching pipeline
// and the predicates the task queue uses to decide whether to retry.
package errs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrProviderUnavailable marks a transient failure of an external
	// embedding or extraction provider.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrEmbeddingNotReady is returned when a dependent embedding or parsed
	// profile has not been computed yet.
	ErrEmbeddingNotReady = errors.New("embedding not ready")
	// ErrParseFailure means the extraction model produced no recoverable JSON,
	// or the resume had no extractable text.
	ErrParseFailure = errors.New("parse failure")
	// ErrSourceDeleted means the job or resume disappeared between enqueue and
	// execution. Tasks treat it as a no-op.
	ErrSourceDeleted = errors.New("source deleted")
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
)

// IsRetryable reports whether err is worth another attempt later.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch {
	case errors.Is(err, ErrParseFailure),
		errors.Is(err, ErrSourceDeleted),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidInput):
		return false
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, ErrEmbeddingNotReady),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}
	return isTransientPg(err)
}

func isTransientPg(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	code := pgErr.Code
	switch code {
	case "40001", "40P01", "57P01", "57P03":
		return true
	}
	// connection exceptions and insufficient resources
	return len(code) == 5 && (code[:2] == "08" || code[:2] == "53")
}

// IsPermanent reports whether err must not be retried at the task level.
// Anything else, including unclassified errors, is retried until the task's
// attempt budget runs out.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrParseFailure) ||
		errors.Is(err, ErrSourceDeleted) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput)
}
