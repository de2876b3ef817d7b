package app

import (
	"context"

	"github.com/taoyao-code/gdl90-server/internal/metrics"
	"github.com/taoyao-code/gdl90-server/internal/protocol/gdl90"
)

// Pipeline 已解码消息的处理链：计数，经可选的有界队列，交给 sink（转换并发布）
type Pipeline struct {
	queue *gdl90.Queue
	sink  gdl90.Handler
	appm  *metrics.AppMetrics
}

// NewPipeline queueSize<=0 时 sink 在解码协程内同步执行
func NewPipeline(queueSize int, sink gdl90.Handler, appm *metrics.AppMetrics) *Pipeline {
	p := &Pipeline{sink: sink, appm: appm}
	if queueSize > 0 {
		p.queue = gdl90.NewQueue(queueSize, p.deliver)
	}
	return p
}

// Handler 解码器回调入口
func (p *Pipeline) Handler() gdl90.Handler {
	return func(m gdl90.Message) {
		if p.appm != nil {
			p.appm.ObserveMessage(m)
		}
		if p.queue == nil {
			p.sink(m)
			return
		}
		p.queue.Handler()(m)
		p.setDepth()
	}
}

func (p *Pipeline) deliver(m gdl90.Message) {
	p.setDepth()
	p.sink(m)
}

func (p *Pipeline) setDepth() {
	if p.appm != nil && p.queue != nil {
		p.appm.QueueDepth.Set(float64(p.queue.Len()))
	}
}

// Run 运行队列消费者直至 ctx 取消（排空已入队消息后返回）；无队列时仅等待 ctx
func (p *Pipeline) Run(ctx context.Context) {
	if p.queue == nil {
		<-ctx.Done()
		return
	}
	p.queue.Run(ctx)
}

// Close 停止接收新消息
func (p *Pipeline) Close() {
	if p.queue != nil {
		p.queue.Close()
	}
}

// Dropped 关闭后被丢弃的消息数
func (p *Pipeline) Dropped() uint64 {
	if p.queue == nil {
		return 0
	}
	return p.queue.Dropped()
}
