package stream

import "github.com/povarna/generative-ai-agents/lm-bridge/internal/stream/redis"

type StreamConfig struct {
	Provider    string // only "redis" today
	RedisConfig *redis.RedisStreamConfig
}
