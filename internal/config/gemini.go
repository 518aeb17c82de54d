package config

import (
	"sync"
)

type GeminiConfig struct {
	APIKey        string
	EmbedModel    string
	GenerateModel string
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		v := Viper()
		geminiConfig = &GeminiConfig{
			APIKey:        v.GetString("GEMINI_API_KEY"),
			EmbedModel:    v.GetString("GEMINI_EMBED_MODEL"),
			GenerateModel: v.GetString("GEMINI_GENERATE_MODEL"),
		}
	})
	return geminiConfig
}
