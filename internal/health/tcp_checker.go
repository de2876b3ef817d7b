package health

import (
	"context"
	"fmt"
	"time"
)

// ConnCounter TCP 接入侧连接统计
type ConnCounter interface {
	ActiveConnections() int
	MaxConnections() int
	RejectedTotal() uint64
}

// TCPChecker GDL-90 TCP 接入健康检查器
type TCPChecker struct {
	server ConnCounter
}

// NewTCPChecker 创建TCP健康检查器
func NewTCPChecker(server ConnCounter) *TCPChecker {
	return &TCPChecker{server: server}
}

// Name 返回检查器名称
func (c *TCPChecker) Name() string {
	return "tcp"
}

// Check 执行健康检查
func (c *TCPChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	activeConns := c.server.ActiveConnections()
	maxConns := c.server.MaxConnections()

	if maxConns == 0 {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "no limiting enabled",
			Details: map[string]interface{}{
				"active_connections": activeConns,
			},
			Latency: time.Since(start),
		}
	}

	utilization := float64(activeConns) / float64(maxConns)

	status := StatusHealthy
	message := "ok"
	if utilization >= 1.0 {
		// 达到上限后新连接会被拒绝，已有输入源不受影响
		status = StatusDegraded
		message = "connection limit reached"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]interface{}{
			"active_connections": activeConns,
			"max_connections":    maxConns,
			"rejected_total":     c.server.RejectedTotal(),
			"utilization":        fmt.Sprintf("%.1f%%", utilization*100),
		},
		Latency: time.Since(start),
	}
}
