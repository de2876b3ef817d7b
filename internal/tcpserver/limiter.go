package tcpserver

import (
	"sync/atomic"

	"golang.org/x/time/rate"
)

// RateLimiter 接入速率限制（令牌桶）
type RateLimiter struct {
	limiter  *rate.Limiter
	rejected atomic.Uint64
}

// NewRateLimiter ratePerSec<=0 时不限速
func NewRateLimiter(ratePerSec, burst int) *RateLimiter {
	if ratePerSec <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = ratePerSec * 2
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst)}
}

// Allow 非阻塞取令牌
func (l *RateLimiter) Allow() bool {
	if l.limiter.Allow() {
		return true
	}
	l.rejected.Add(1)
	return false
}

// RejectedCount 累计拒绝数
func (l *RateLimiter) RejectedCount() uint64 { return l.rejected.Load() }

// ConnectionLimiter 并发连接数上限（信号量），maxConn<=0 表示不限
type ConnectionLimiter struct {
	sem      chan struct{}
	maxConn  int
	active   atomic.Int64
	rejected atomic.Uint64
}

// NewConnectionLimiter 创建连接限流器
func NewConnectionLimiter(maxConn int) *ConnectionLimiter {
	l := &ConnectionLimiter{maxConn: maxConn}
	if maxConn > 0 {
		l.sem = make(chan struct{}, maxConn)
	}
	return l
}

// TryAcquire 非阻塞获取连接许可；接入循环不能因满额而停顿
func (l *ConnectionLimiter) TryAcquire() bool {
	if l.sem == nil {
		l.active.Add(1)
		return true
	}
	select {
	case l.sem <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		l.rejected.Add(1)
		return false
	}
}

// Release 释放许可，须与成功的 TryAcquire 成对调用
func (l *ConnectionLimiter) Release() {
	l.active.Add(-1)
	if l.sem != nil {
		<-l.sem
	}
}

// Current 当前活跃连接数
func (l *ConnectionLimiter) Current() int { return int(l.active.Load()) }

// MaxConnections 最大连接数，0 表示不限
func (l *ConnectionLimiter) MaxConnections() int {
	if l.maxConn < 0 {
		return 0
	}
	return l.maxConn
}

// RejectedCount 累计拒绝数
func (l *ConnectionLimiter) RejectedCount() uint64 { return l.rejected.Load() }
