// Package worker runs matching-pipeline tasks on a fixed pool of goroutines.
// Failed tasks are re-enqueued after a backoff until their attempt budget is
// spent.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/config"
	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/logger"
	"github.com/fadilmartias/job-matcher/internal/retry"
)

var (
	ErrStopped     = errors.New("worker pool stopped")
	ErrUnknownKind = errors.New("unknown task kind")
)

// Task is one unit of work against a single entity.
type Task struct {
	Kind     string
	EntityID uuid.UUID
	// Attempt is 1 for the first run.
	Attempt    int
	EnqueuedAt time.Time
}

type HandlerFunc func(ctx context.Context, t Task) error

type Pool struct {
	handlers    map[string]HandlerFunc
	queue       chan Task
	concurrency int
	timeout     time.Duration
	policy      retry.Policy
	log         *zap.Logger

	mu      sync.Mutex
	stopped bool
	// sendMu is held shared around every send to queue and exclusively by
	// Stop before it drains, so nothing lands in the queue afterwards.
	sendMu  sync.RWMutex
	timers  map[*time.Timer]struct{}
	stopCh  chan struct{}
	workers sync.WaitGroup
	// pending counts tasks that are queued, running or waiting for a retry.
	pending sync.WaitGroup
}

// TaskPolicy retries every failure except the permanent ones.
func TaskPolicy(cfg *config.WorkerConfig) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     retry.Exponential(cfg.RetryBackoff, cfg.RetryMaxDelay, 0.1),
		Retryable:   func(err error) bool { return !errs.IsPermanent(err) },
	}
}

func New(cfg *config.WorkerConfig, log *zap.Logger) *Pool {
	concurrency := max(cfg.Concurrency, 1)
	return &Pool{
		handlers:    make(map[string]HandlerFunc),
		queue:       make(chan Task, max(cfg.QueueSize, 1)),
		concurrency: concurrency,
		timeout:     cfg.TaskTimeout,
		policy:      TaskPolicy(cfg),
		log:         logger.OrNop(log),
		timers:      make(map[*time.Timer]struct{}),
		stopCh:      make(chan struct{}),
	}
}

// Handle registers the handler for kind. Register everything before Start.
func (p *Pool) Handle(kind string, h HandlerFunc) {
	p.handlers[kind] = h
}

func (p *Pool) Start(ctx context.Context) {
	p.log.Info("starting worker pool", zap.Int("concurrency", p.concurrency), zap.Int("queue_size", cap(p.queue)))
	for i := 0; i < p.concurrency; i++ {
		p.workers.Add(1)
		go p.process(ctx, i+1)
	}
}

// Enqueue schedules the first attempt of a task. It blocks while the queue
// is full.
func (p *Pool) Enqueue(ctx context.Context, kind string, entityID uuid.UUID) error {
	if _, ok := p.handlers[kind]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	p.pending.Add(1)
	t := Task{Kind: kind, EntityID: entityID, Attempt: 1, EnqueuedAt: time.Now()}
	if err := p.send(ctx, t); err != nil {
		p.pending.Done()
		return err
	}
	p.log.Debug("task enqueued", logger.TaskFields(kind, entityID.String())...)
	return nil
}

// send puts t on the queue unless the pool is stopping.
func (p *Pool) send(ctx context.Context, t Task) error {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()

	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return ErrStopped
	}

	select {
	case p.queue <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopCh:
		return ErrStopped
	}
}

// Drain waits until no task is queued, running or waiting for a retry.
func (p *Pool) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop lets running tasks finish, cancels scheduled retries and drops
// whatever is still queued.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	cancelled := 0
	for t := range p.timers {
		if t.Stop() {
			cancelled++
			p.pending.Done()
		}
	}
	p.timers = nil
	p.mu.Unlock()

	close(p.stopCh)
	// Wait out senders that saw the pool running; later ones see stopped.
	p.sendMu.Lock()
	p.sendMu.Unlock()
	p.workers.Wait()

	dropped := 0
	for drained := false; !drained; {
		select {
		case <-p.queue:
			dropped++
			p.pending.Done()
		default:
			drained = true
		}
	}
	p.log.Info("worker pool stopped", zap.Int("cancelled_retries", cancelled), zap.Int("dropped", dropped))
}

func (p *Pool) process(ctx context.Context, id int) {
	defer p.workers.Done()
	p.log.Debug("worker started", zap.Int("worker", id))
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case t := <-p.queue:
			p.run(ctx, t)
		}
	}
}

func (p *Pool) run(ctx context.Context, t Task) {
	log := p.log.With(logger.TaskFields(t.Kind, t.EntityID.String())...).With(zap.Int(logger.FieldAttempt, t.Attempt))
	start := time.Now()
	err := p.call(ctx, t)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		log.Info("task completed", zap.Duration("duration", elapsed))
	case errors.Is(err, errs.ErrSourceDeleted):
		log.Info("task source deleted, nothing to do", zap.Error(err))
	case p.policy.ShouldRetry(err, t.Attempt):
		delay := p.policy.Delay(t.Attempt)
		log.Warn("task failed, scheduling retry", zap.Duration("delay", delay), zap.Duration("duration", elapsed), zap.Error(err))
		next := t
		next.Attempt++
		p.schedule(next, delay)
		return
	default:
		log.Error("task permanently failed",
			zap.Int("attempts", t.Attempt),
			zap.Duration("duration", elapsed),
			zap.Duration("since_enqueue", time.Since(t.EnqueuedAt)),
			zap.Error(err))
	}
	p.pending.Done()
}

func (p *Pool) call(ctx context.Context, t Task) (err error) {
	h, ok := p.handlers[t.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, t.Kind)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return h(ctx, t)
}

// schedule re-enqueues t after delay. The pending slot of the failed attempt
// carries over to the retry.
func (p *Pool) schedule(t Task, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		p.pending.Done()
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		p.mu.Lock()
		delete(p.timers, timer)
		p.mu.Unlock()
		if p.send(context.Background(), t) != nil {
			p.pending.Done()
		}
	})
	p.timers[timer] = struct{}{}
}
