package health

import "sync/atomic"

// Readiness 就绪状态聚合（UDP 监听、发布总线）
type Readiness struct {
	udpReady atomic.Bool
	busReady atomic.Bool
}

func New() *Readiness { return &Readiness{} }

func (r *Readiness) SetUDPReady(v bool) { r.udpReady.Store(v) }
func (r *Readiness) SetBusReady(v bool) { r.busReady.Store(v) }

// Ready 总体就绪：各子系统均为 true
func (r *Readiness) Ready() bool {
	return r.udpReady.Load() && r.busReady.Load()
}
