package health

import (
	"context"
	"time"
)

// DatagramSource UDP 接收侧状态
type DatagramSource interface {
	Listening() bool
	LastDatagram() time.Time
}

// UDPChecker GDL-90 UDP 监听健康检查器。
// 未监听为 unhealthy；超过 staleAfter 未收到数据报为 degraded（接收机可能离线）。
type UDPChecker struct {
	src        DatagramSource
	staleAfter time.Duration
	now        func() time.Time
}

// NewUDPChecker 创建UDP健康检查器，staleAfter<=0 时不做静默判断
func NewUDPChecker(src DatagramSource, staleAfter time.Duration) *UDPChecker {
	return &UDPChecker{src: src, staleAfter: staleAfter, now: time.Now}
}

// Name 返回检查器名称
func (c *UDPChecker) Name() string {
	return "udp"
}

// Check 执行健康检查
func (c *UDPChecker) Check(ctx context.Context) CheckResult {
	start := c.now()

	if !c.src.Listening() {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "not listening",
			Latency: time.Since(start),
		}
	}

	last := c.src.LastDatagram()
	details := map[string]interface{}{}
	if !last.IsZero() {
		details["last_datagram"] = last
	}

	status := StatusHealthy
	message := "ok"
	if c.staleAfter > 0 && (last.IsZero() || start.Sub(last) > c.staleAfter) {
		status = StatusDegraded
		message = "no recent datagrams"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: time.Since(start),
	}
}
