package config

import (
	"sync"
)

type OpenRouterConfig struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	EmbedModel string
}

var (
	openRouterConfig *OpenRouterConfig
	openRouterOnce   sync.Once
)

func LoadOpenRouterConfig() *OpenRouterConfig {
	openRouterOnce.Do(func() {
		v := Viper()
		openRouterConfig = &OpenRouterConfig{
			APIKey:     v.GetString("OPENROUTER_API_KEY"),
			BaseURL:    v.GetString("OPENROUTER_BASE_URL"),
			ChatModel:  v.GetString("OPENROUTER_CHAT_MODEL"),
			EmbedModel: v.GetString("OPENROUTER_EMBED_MODEL"),
		}
	})
	return openRouterConfig
}
