package usecase

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/config"
	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/logger"
	"github.com/fadilmartias/job-matcher/internal/retry"
)

// StagePolicy is the retry policy wrapped around each pipeline stage. Only
// transient provider and database failures are retried in-stage; anything
// else goes back to the task queue.
func StagePolicy(pc *config.ProviderConfig, log *zap.Logger, stage string) retry.Policy {
	log = logger.OrNop(log)
	return retry.Policy{
		MaxAttempts: pc.MaxAttempts,
		Backoff:     retry.Exponential(pc.BaseDelay, pc.MaxDelay, 0.2),
		Retryable:   errs.IsRetryable,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			log.Warn("stage failed, retrying",
				zap.String("stage", stage),
				zap.Int(logger.FieldAttempt, attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
		},
	}
}

// MatchPercent converts a cosine distance into a 0-100 score rounded to two
// decimals. Scores are monotonically non-increasing in distance.
func MatchPercent(distance float64) float64 {
	pct := math.Round((1-distance)*100*100) / 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}
