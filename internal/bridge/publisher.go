package bridge

import (
	"context"

	"go.uber.org/zap"

	redisstorage "github.com/taoyao-code/gdl90-server/internal/storage/redis"
)

// Publisher 总线发布接口
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// RedisPublisher 通过 Redis PUBLISH 投递
type RedisPublisher struct {
	client *redisstorage.Client
	logger *zap.Logger
}

// NewRedisPublisher 创建 Redis 发布器
func NewRedisPublisher(client *redisstorage.Client, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, logger: logger}
}

// Publish 发布一条消息；无订阅者不视为错误
func (p *RedisPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	n, err := p.client.Publish(ctx, topic, payload)
	if err != nil {
		return err
	}
	if n == 0 {
		p.logger.Debug("published without subscribers", zap.String("topic", topic))
	}
	return nil
}

// LogPublisher 未启用 Redis 时把消息写入日志
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher 创建日志发布器
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.logger.Info("bus message", zap.String("topic", topic), zap.ByteString("payload", payload))
	return nil
}

var (
	_ Publisher = (*RedisPublisher)(nil)
	_ Publisher = (*LogPublisher)(nil)
)
