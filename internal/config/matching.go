package config

import (
	"sync"
)

type MatchingConfig struct {
	Threshold   float64
	TopN        int
	SearchLimit int
}

var (
	matchingConfig *MatchingConfig
	matchingOnce   sync.Once
)

func LoadMatchingConfig() *MatchingConfig {
	matchingOnce.Do(func() {
		v := Viper()
		matchingConfig = &MatchingConfig{
			Threshold:   v.GetFloat64("MATCH_THRESHOLD"),
			TopN:        v.GetInt("MATCH_TOP_N"),
			SearchLimit: v.GetInt("SEARCH_LIMIT"),
		}
	})
	return matchingConfig
}
