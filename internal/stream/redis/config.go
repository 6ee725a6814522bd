package redis

import "github.com/google/uuid"

type RedisStreamConfig struct {
	RedisAddr     string
	RedisPassword string
	RequestStream string
	ResultStream  string
	Group         string
	ConsumerName  string
}

// NewRedisStreamConfig fills a unique consumer name when none is given.
func NewRedisStreamConfig(redisAddr, redisPassword, requestStream, resultStream, group, consumerName string) *RedisStreamConfig {
	if consumerName == "" {
		consumerName = "bridge-" + uuid.NewString()
	}
	return &RedisStreamConfig{
		RedisAddr:     redisAddr,
		RedisPassword: redisPassword,
		RequestStream: requestStream,
		ResultStream:  resultStream,
		Group:         group,
		ConsumerName:  consumerName,
	}
}
