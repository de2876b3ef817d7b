package bridge

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const (
	registrationPayload = "GDL90 Sender Registration"
	heartbeatPayload    = "GDL Sender Heartbeat"
)

// Registrar 启动时发布注册消息，此后按周期发布心跳
type Registrar struct {
	pub      Publisher
	env      *Enveloper
	topic    string
	interval time.Duration
	timeout  time.Duration
	clk      clock.Clock
	logger   *zap.Logger
}

// NewRegistrar 创建注册/心跳发布器，clk 为 nil 时使用系统时钟
func NewRegistrar(pub Publisher, env *Enveloper, topic string, interval, timeout time.Duration, clk clock.Clock, logger *zap.Logger) *Registrar {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Registrar{pub: pub, env: env, topic: topic, interval: interval, timeout: timeout, clk: clk, logger: logger}
}

// Run 阻塞运行直至 ctx 取消
func (r *Registrar) Run(ctx context.Context) {
	ticker := r.clk.Ticker(r.interval)
	defer ticker.Stop()

	r.send(ctx, MessageTypeRegistration, registrationPayload)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.send(ctx, MessageTypeHeartbeat, heartbeatPayload)
		}
	}
}

func (r *Registrar) send(ctx context.Context, messageType, text string) {
	payload, err := r.env.Wrap(messageType, "", text)
	if err != nil {
		r.logger.Error("wrap bus message", zap.String("type", messageType), zap.Error(err))
		return
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := r.pub.Publish(ctx, r.topic, payload); err != nil {
		r.logger.Warn("publish failed", zap.String("type", messageType), zap.Error(err))
	}
}
