package health

import (
	"context"
	"fmt"
	"time"

	redisstorage "github.com/taoyao-code/gdl90-server/internal/storage/redis"
)

// slowPing Redis PING 超过该时长视为降级
const slowPing = 200 * time.Millisecond

// RedisChecker 发布总线（Redis）健康检查器
type RedisChecker struct {
	client *redisstorage.Client
}

// NewRedisChecker 创建Redis健康检查器
func NewRedisChecker(client *redisstorage.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name 返回检查器名称
func (c *RedisChecker) Name() string {
	return "redis"
}

// Check PING 失败为 unhealthy；PING 过慢或连接池等待超时为 degraded
func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	if err := c.client.HealthCheck(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}
	ping := time.Since(start)
	stats := c.client.Stats()

	status := StatusHealthy
	message := "ok"
	switch {
	case ping > slowPing:
		status = StatusDegraded
		message = "slow ping"
	case stats.Timeouts > 0 && stats.Timeouts >= stats.Hits:
		status = StatusDegraded
		message = "connection pool wait timeouts"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]interface{}{
			"ping_ms":     ping.Milliseconds(),
			"total_conns": stats.TotalConns,
			"idle_conns":  stats.IdleConns,
			"hits":        stats.Hits,
			"timeouts":    stats.Timeouts,
		},
		Latency: time.Since(start),
	}
}
