package gdl90

import (
	"context"
	"sync"
	"sync/atomic"
)

// Queue 有界消息队列：解码与下游回调解耦，单消费者保证严格 FIFO。
// 队列满时入队阻塞（背压），不丢弃也不乱序；仅在关闭后到达的消息被丢弃。
type Queue struct {
	ch      chan Message
	h       Handler
	stopC   chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// NewQueue 创建队列，size<=0 时取 256
func NewQueue(size int, h Handler) *Queue {
	if size <= 0 {
		size = 256
	}
	return &Queue{ch: make(chan Message, size), h: h, stopC: make(chan struct{})}
}

// Handler 返回入队函数，可直接作为 Decoder 回调
func (q *Queue) Handler() Handler { return q.enqueue }

func (q *Queue) enqueue(m Message) {
	select {
	case <-q.stopC:
		q.dropped.Add(1)
		return
	default:
	}
	select {
	case q.ch <- m:
	case <-q.stopC:
		q.dropped.Add(1)
	}
}

// Run 消费循环（阻塞），ctx 取消或 Close 后排空已入队消息再返回；ctx 取消等同于 Close
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case m := <-q.ch:
			q.deliver(m)
		case <-ctx.Done():
			// 消费者退出后入队者不能再阻塞
			q.Close()
			q.drain()
			return
		case <-q.stopC:
			q.drain()
			return
		}
	}
}

func (q *Queue) drain() {
	for {
		select {
		case m := <-q.ch:
			q.deliver(m)
		default:
			return
		}
	}
}

func (q *Queue) deliver(m Message) {
	if q.h != nil {
		q.h(m)
	}
}

// Close 停止接收新消息
func (q *Queue) Close() { q.once.Do(func() { close(q.stopC) }) }

// Len 当前排队数
func (q *Queue) Len() int { return len(q.ch) }

// Dropped 关闭后被丢弃的消息数
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
