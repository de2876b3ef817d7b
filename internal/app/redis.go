package app

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/taoyao-code/gdl90-server/internal/bridge"
	cfgpkg "github.com/taoyao-code/gdl90-server/internal/config"
	redisstorage "github.com/taoyao-code/gdl90-server/internal/storage/redis"
)

// NewRedisClient 创建Redis客户端，未启用时返回 nil, nil
func NewRedisClient(ctx context.Context, cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, bus messages go to the log")
		return nil, nil
	}

	client, err := redisstorage.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize))

	return client, nil
}

// NewPublisher 选择总线发布器：Redis 可用时为带熔断的 Redis 发布器，否则写日志
func NewPublisher(client *redisstorage.Client, cfg cfgpkg.BridgeConfig, logger *zap.Logger) bridge.Publisher {
	if client == nil {
		return bridge.NewLogPublisher(logger.With(zap.String("component", "bus")))
	}
	bp := bridge.NewBreakerPublisher(
		bridge.NewRedisPublisher(client, logger.With(zap.String("component", "bus"))),
		cfg.BreakerThreshold, cfg.BreakerCooldown, clock.New(),
	)
	bp.OnStateChange = func(from, to bridge.State) {
		logger.Warn("bus circuit breaker state changed",
			zap.Stringer("from", from), zap.Stringer("to", to))
	}
	return bp
}
