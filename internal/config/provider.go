package config

import (
	"sync"
	"time"
)

// ProviderConfig selects the embedding/extraction backends and the retry
// budget applied around every external model call.
type ProviderConfig struct {
	Embedding   string
	Extraction  string
	Dimensions  int
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Timeout     time.Duration
}

var (
	providerConfig *ProviderConfig
	providerOnce   sync.Once
)

func LoadProviderConfig() *ProviderConfig {
	providerOnce.Do(func() {
		v := Viper()
		providerConfig = &ProviderConfig{
			Embedding:   v.GetString("EMBEDDING_PROVIDER"),
			Extraction:  v.GetString("EXTRACTION_PROVIDER"),
			Dimensions:  v.GetInt("EMBEDDING_DIMENSIONS"),
			MaxAttempts: v.GetInt("PROVIDER_MAX_ATTEMPTS"),
			BaseDelay:   v.GetDuration("PROVIDER_BASE_DELAY"),
			MaxDelay:    v.GetDuration("PROVIDER_MAX_DELAY"),
			Timeout:     v.GetDuration("PROVIDER_TIMEOUT"),
		}
	})
	return providerConfig
}
