package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	v     *viper.Viper
	vOnce sync.Once
)

// Viper returns the process-wide configuration source. Values come from the
// environment (optionally seeded from a .env file) with the defaults below.
func Viper() *viper.Viper {
	vOnce.Do(func() {
		_ = godotenv.Load()

		v = viper.New()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		setDefaults(v)
	})
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "job-matcher")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_JSON", false)
	v.SetDefault("LOG_DEBUG", false)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")

	v.SetDefault("EMBEDDING_PROVIDER", "gemini")
	v.SetDefault("EMBEDDING_DIMENSIONS", 1536)
	v.SetDefault("EXTRACTION_PROVIDER", "openrouter")

	v.SetDefault("GEMINI_EMBED_MODEL", "gemini-embedding-001")
	v.SetDefault("GEMINI_GENERATE_MODEL", "gemini-2.5-flash")

	v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("OPENROUTER_CHAT_MODEL", "openai/gpt-4.1-mini")
	v.SetDefault("OPENROUTER_EMBED_MODEL", "openai/text-embedding-3-small")

	v.SetDefault("PROVIDER_MAX_ATTEMPTS", 3)
	v.SetDefault("PROVIDER_BASE_DELAY", time.Second)
	v.SetDefault("PROVIDER_MAX_DELAY", 90*time.Second)
	v.SetDefault("PROVIDER_TIMEOUT", 90*time.Second)

	v.SetDefault("MATCH_THRESHOLD", 0.55)
	v.SetDefault("MATCH_TOP_N", 50)
	v.SetDefault("SEARCH_LIMIT", 10)

	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("WORKER_QUEUE_SIZE", 100)
	v.SetDefault("WORKER_TASK_TIMEOUT", 5*time.Minute)
	v.SetDefault("WORKER_MAX_ATTEMPTS", 3)
	v.SetDefault("WORKER_RETRY_BACKOFF", 30*time.Second)
	v.SetDefault("WORKER_RETRY_MAX_DELAY", 10*time.Minute)

	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_ENABLED", false)

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NOTIFY_DEDUP_TTL", 24*time.Hour)

	v.SetDefault("RESUME_TMP_DIR", filepath.Join(os.TempDir(), "job-matcher-resumes"))
	v.SetDefault("RESUME_MAX_BYTES", 10<<20)
}
