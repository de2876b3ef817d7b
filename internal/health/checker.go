package health

import (
	"context"
	"time"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"   // 健康
	StatusDegraded  Status = "degraded"  // 降级，仍可解码但部分下游受损
	StatusUnhealthy Status = "unhealthy" // 不健康，无法接收或发布
)

// CheckResult 健康检查结果
type CheckResult struct {
	Status  Status                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Latency time.Duration          `json:"latency"`
}

// Checker 健康检查器接口，Check 应遵守 ctx 的超时
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}
