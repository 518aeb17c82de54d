package config

import (
	"log"
	"os"
	"strings"
	"sync"
)

type AppConfig struct {
	Name      string
	Env       string
	Port      string
	BaseURL   string
	LogJSON   bool
	LogDebug  bool
	TmpDir    string
	MaxUpload int64
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		v := Viper()
		if !envProvided("APP_ENV") {
			log.Printf("Warning: APP_ENV not set, defaulting to %s", v.GetString("APP_ENV"))
		}
		appConfig = &AppConfig{
			Name:      v.GetString("APP_NAME"),
			Env:       v.GetString("APP_ENV"),
			Port:      v.GetString("APP_PORT"),
			BaseURL:   v.GetString("APP_URL"),
			LogJSON:   v.GetBool("LOG_JSON"),
			LogDebug:  v.GetBool("LOG_DEBUG"),
			TmpDir:    v.GetString("RESUME_TMP_DIR"),
			MaxUpload: v.GetInt64("RESUME_MAX_BYTES"),
		}
	})
	return appConfig
}

// envProvided reports whether key was given a non-empty value in the
// environment or the .env file. Viper counts defaults as set, so it cannot
// answer this.
func envProvided(key string) bool {
	val, ok := os.LookupEnv(key)
	return ok && strings.TrimSpace(val) != ""
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
