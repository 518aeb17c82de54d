package config

import (
	"sync"
	"time"
)

type WorkerConfig struct {
	Concurrency   int
	QueueSize     int
	TaskTimeout   time.Duration
	MaxAttempts   int
	RetryBackoff  time.Duration
	RetryMaxDelay time.Duration
}

var (
	workerConfig *WorkerConfig
	workerOnce   sync.Once
)

func LoadWorkerConfig() *WorkerConfig {
	workerOnce.Do(func() {
		v := Viper()
		workerConfig = &WorkerConfig{
			Concurrency:   v.GetInt("WORKER_CONCURRENCY"),
			QueueSize:     v.GetInt("WORKER_QUEUE_SIZE"),
			TaskTimeout:   v.GetDuration("WORKER_TASK_TIMEOUT"),
			MaxAttempts:   v.GetInt("WORKER_MAX_ATTEMPTS"),
			RetryBackoff:  v.GetDuration("WORKER_RETRY_BACKOFF"),
			RetryMaxDelay: v.GetDuration("WORKER_RETRY_MAX_DELAY"),
		}
	})
	return workerConfig
}
