package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisGuard remembers (job, candidate) notices with SETNX so a retried
// fan-out does not alert the same candidate twice within ttl.
type RedisGuard struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisGuard(client redis.Cmdable, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) FirstNotice(ctx context.Context, jobID, userID uuid.UUID) (bool, error) {
	ok, err := g.client.SetNX(ctx, noticeKey(jobID, userID), time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func noticeKey(jobID, userID uuid.UUID) string {
	return "notify:job_match:" + jobID.String() + ":" + userID.String()
}
