package store

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/Danne56/chatbot-api/internal/domain"
)

// ConsentPublisher 同意状态事件发布接口
type ConsentPublisher interface {
	PublishConsentEvent(ctx context.Context, event domain.ConsentEvent) (string, error)
}

// RedisConsentPublisher 把同意状态事件写入 Redis Streams，
// 供下游发送服务用 XREADGROUP 消费
type RedisConsentPublisher struct {
	c      *redis.Client
	stream string
}

func NewRedisConsentPublisher(c *redis.Client, stream string) *RedisConsentPublisher {
	return &RedisConsentPublisher{c: c, stream: stream}
}

var _ ConsentPublisher = (*RedisConsentPublisher)(nil)

// PublishConsentEvent XADD 单条事件，返回流内消息ID
func (p *RedisConsentPublisher) PublishConsentEvent(ctx context.Context, event domain.ConsentEvent) (string, error) {
	jsonBytes, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	return p.c.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"contact_id": event.ContactID,
			"event":      event.Event,
			"data":       string(jsonBytes),
			"timestamp":  event.At.Unix(),
		},
	}).Result()
}

// NoopConsentPublisher Redis 不可用或测试场景下的空实现
type NoopConsentPublisher struct{}

func (NoopConsentPublisher) PublishConsentEvent(_ context.Context, _ domain.ConsentEvent) (string, error) {
	return "", nil
}

var _ ConsentPublisher = NoopConsentPublisher{}
