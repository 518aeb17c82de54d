package config

import (
	"sync"
	"time"
)

type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	DedupTTL time.Duration
}

var (
	mailConfig  *MailConfig
	mailOnce    sync.Once
	redisConfig *RedisConfig
	redisOnce   sync.Once
)

func LoadMailConfig() *MailConfig {
	mailOnce.Do(func() {
		v := Viper()
		mailConfig = &MailConfig{
			Enabled:  v.GetBool("MAIL_ENABLED"),
			Host:     v.GetString("MAIL_HOST"),
			Port:     v.GetInt("MAIL_PORT"),
			Username: v.GetString("MAIL_USERNAME"),
			Password: v.GetString("MAIL_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
		}
	})
	return mailConfig
}

// LoadRedisConfig returns the notification dedup store settings. An empty
// Addr disables dedup.
func LoadRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		v := Viper()
		redisConfig = &RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			DedupTTL: v.GetDuration("NOTIFY_DEDUP_TTL"),
		}
	})
	return redisConfig
}
