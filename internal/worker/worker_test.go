package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fadilmartias/job-matcher/internal/config"
	"github.com/fadilmartias/job-matcher/internal/errs"
)

func testConfig() *config.WorkerConfig {
	return &config.WorkerConfig{
		Concurrency:   2,
		QueueSize:     10,
		TaskTimeout:   time.Second,
		MaxAttempts:   3,
		RetryBackoff:  5 * time.Millisecond,
		RetryMaxDelay: 20 * time.Millisecond,
	}
}

func startPool(t *testing.T, cfg *config.WorkerConfig, log *zap.Logger, register func(p *Pool)) *Pool {
	t.Helper()
	p := New(cfg, log)
	register(p)
	p.Start(context.Background())
	t.Cleanup(p.Stop)
	return p
}

func drain(t *testing.T, p *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Drain(ctx))
}

func TestPoolRunsTasks(t *testing.T) {
	var mu sync.Mutex
	seen := map[uuid.UUID]int{}
	p := startPool(t, testConfig(), zap.NewNop(), func(p *Pool) {
		p.Handle("embed_job", func(_ context.Context, task Task) error {
			mu.Lock()
			defer mu.Unlock()
			seen[task.EntityID] = task.Attempt
			return nil
		})
	})

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, p.Enqueue(context.Background(), "embed_job", id))
	}
	drain(t, p)

	for _, id := range ids {
		assert.Equal(t, 1, seen[id])
	}
}

func TestPoolRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	p := startPool(t, testConfig(), zap.NewNop(), func(p *Pool) {
		p.Handle("score_application", func(context.Context, Task) error {
			if calls.Add(1) < 3 {
				return errs.ErrEmbeddingNotReady
			}
			return nil
		})
	})

	require.NoError(t, p.Enqueue(context.Background(), "score_application", uuid.New()))
	drain(t, p)

	assert.Equal(t, int32(3), calls.Load())
}

func TestPoolGivesUpAfterMaxAttempts(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var calls atomic.Int32
	p := startPool(t, testConfig(), zap.New(core), func(p *Pool) {
		p.Handle("embed_job", func(context.Context, Task) error {
			calls.Add(1)
			return errors.New("provider exploded")
		})
	})

	require.NoError(t, p.Enqueue(context.Background(), "embed_job", uuid.New()))
	drain(t, p)

	assert.Equal(t, int32(3), calls.Load())
	failed := logs.FilterMessage("task permanently failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(3), failed[0].ContextMap()["attempts"])
}

func TestPoolDoesNotRetryPermanentErrors(t *testing.T) {
	var calls atomic.Int32
	p := startPool(t, testConfig(), zap.NewNop(), func(p *Pool) {
		p.Handle("embed_resume", func(context.Context, Task) error {
			calls.Add(1)
			return errs.ErrParseFailure
		})
	})

	require.NoError(t, p.Enqueue(context.Background(), "embed_resume", uuid.New()))
	drain(t, p)

	assert.Equal(t, int32(1), calls.Load())
}

func TestPoolSourceDeletedIsNoop(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := startPool(t, testConfig(), zap.New(core), func(p *Pool) {
		p.Handle("embed_job", func(context.Context, Task) error {
			return errs.ErrSourceDeleted
		})
	})

	require.NoError(t, p.Enqueue(context.Background(), "embed_job", uuid.New()))
	drain(t, p)

	assert.Equal(t, 0, logs.FilterMessage("task permanently failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("task source deleted, nothing to do").Len())
}

func TestPoolTaskTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.TaskTimeout = 20 * time.Millisecond
	cfg.MaxAttempts = 1
	var sawDeadline atomic.Bool
	p := startPool(t, cfg, zap.NewNop(), func(p *Pool) {
		p.Handle("fanout_job", func(ctx context.Context, _ Task) error {
			<-ctx.Done()
			sawDeadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
			return ctx.Err()
		})
	})

	require.NoError(t, p.Enqueue(context.Background(), "fanout_job", uuid.New()))
	drain(t, p)

	assert.True(t, sawDeadline.Load())
}

func TestPoolRecoversPanics(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 2
	var calls atomic.Int32
	p := startPool(t, cfg, zap.NewNop(), func(p *Pool) {
		p.Handle("embed_job", func(context.Context, Task) error {
			if calls.Add(1) == 1 {
				panic("boom")
			}
			return nil
		})
	})

	require.NoError(t, p.Enqueue(context.Background(), "embed_job", uuid.New()))
	drain(t, p)

	assert.Equal(t, int32(2), calls.Load())
}

func TestEnqueueUnknownKind(t *testing.T) {
	p := startPool(t, testConfig(), zap.NewNop(), func(*Pool) {})

	err := p.Enqueue(context.Background(), "nope", uuid.New())

	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestStopCancelsScheduledRetries(t *testing.T) {
	cfg := testConfig()
	cfg.RetryBackoff = time.Hour
	cfg.RetryMaxDelay = time.Hour
	var calls atomic.Int32
	p := New(cfg, zap.NewNop())
	p.Handle("embed_job", func(context.Context, Task) error {
		calls.Add(1)
		return errs.ErrProviderUnavailable
	})
	p.Start(context.Background())

	require.NoError(t, p.Enqueue(context.Background(), "embed_job", uuid.New()))
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return len(p.timers) == 1
	}, time.Second, 5*time.Millisecond)

	p.Stop()

	drain(t, p)
	assert.Equal(t, int32(1), calls.Load())
	assert.ErrorIs(t, p.Enqueue(context.Background(), "embed_job", uuid.New()), ErrStopped)
}

func TestStopLeavesNothingQueued(t *testing.T) {
	for round := 0; round < 20; round++ {
		cfg := testConfig()
		cfg.QueueSize = 10000
		p := New(cfg, zap.NewNop())
		p.Handle("embed_job", func(context.Context, Task) error { return nil })

		var senders sync.WaitGroup
		for i := 0; i < 8; i++ {
			senders.Add(1)
			go func() {
				defer senders.Done()
				for {
					if err := p.Enqueue(context.Background(), "embed_job", uuid.New()); err != nil {
						assert.ErrorIs(t, err, ErrStopped)
						return
					}
				}
			}()
		}
		time.Sleep(time.Millisecond)
		p.Stop()
		senders.Wait()

		assert.Empty(t, p.queue, "round %d", round)
		drain(t, p)
	}
}
