package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ErrCircuitOpen 熔断打开，发布被跳过
var ErrCircuitOpen = errors.New("bridge: circuit breaker is open")

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 正常发布
	StateOpen                  // 熔断，直接跳过发布
	StateHalfOpen              // 冷却结束，放行一次试探发布
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerPublisher 带熔断的发布器：总线不可用时快速失败，避免每条交通报告都等待发布超时
type BreakerPublisher struct {
	next      Publisher
	threshold int
	cooldown  time.Duration
	clk       clock.Clock

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool
	trips    int64

	// OnStateChange 状态变化回调（在锁外同步调用）
	OnStateChange func(from, to State)
}

// NewBreakerPublisher 连续 threshold 次失败后熔断 cooldown 时长
func NewBreakerPublisher(next Publisher, threshold int, cooldown time.Duration, clk clock.Clock) *BreakerPublisher {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	if clk == nil {
		clk = clock.New()
	}
	return &BreakerPublisher{next: next, threshold: threshold, cooldown: cooldown, clk: clk}
}

// Publish 实现 Publisher
func (b *BreakerPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.before(); err != nil {
		return err
	}
	err := b.next.Publish(ctx, topic, payload)
	b.after(err)
	return err
}

func (b *BreakerPublisher) before() error {
	b.mu.Lock()
	var from State
	changed := false
	defer func() {
		b.mu.Unlock()
		if changed {
			b.notify(from, StateHalfOpen)
		}
	}()

	switch b.state {
	case StateOpen:
		if b.clk.Now().Sub(b.openedAt) < b.cooldown {
			return ErrCircuitOpen
		}
		from, changed = b.state, true
		b.state = StateHalfOpen
		b.trial = true
		return nil
	case StateHalfOpen:
		// 同一时刻只放行一次试探
		if b.trial {
			return ErrCircuitOpen
		}
		b.trial = true
		return nil
	default:
		return nil
	}
}

func (b *BreakerPublisher) after(err error) {
	b.mu.Lock()
	from := b.state
	switch {
	case err == nil:
		b.failures = 0
		b.trial = false
		b.state = StateClosed
	case b.state == StateHalfOpen:
		b.trip()
	default:
		b.failures++
		if b.failures >= b.threshold {
			b.trip()
		}
	}
	to := b.state
	b.mu.Unlock()

	if from != to {
		b.notify(from, to)
	}
}

func (b *BreakerPublisher) trip() {
	b.state = StateOpen
	b.openedAt = b.clk.Now()
	b.failures = 0
	b.trial = false
	b.trips++
}

func (b *BreakerPublisher) notify(from, to State) {
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}

// State 当前状态
func (b *BreakerPublisher) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Trips 累计熔断次数
func (b *BreakerPublisher) Trips() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trips
}
