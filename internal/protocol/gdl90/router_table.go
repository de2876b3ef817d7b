package gdl90

import (
	"errors"
	"sync"
)

var ErrUnknownType = errors.New("gdl90: unknown message type")

// DecodeFunc 单一类型的解码函数，body[0] 为类型 ID
type DecodeFunc func(body []byte) (Message, error)

// Registry 类型表（type id -> DecodeFunc）
type Registry struct {
	mu       sync.RWMutex
	m        map[uint8]DecodeFunc
	fallback DecodeFunc
}

func NewRegistry() *Registry { return &Registry{m: make(map[uint8]DecodeFunc)} }

// DefaultRegistry 注册 ICD 定义的全部标准消息
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeHeartbeat, DecodeHeartbeat)
	r.Register(TypeInitialization, DecodeInitialization)
	r.Register(TypeUplinkData, DecodeUplinkData)
	r.Register(TypeHeightAboveTerrain, DecodeHeightAboveTerrain)
	r.Register(TypeOwnshipReport, DecodeOwnshipReport)
	r.Register(TypeOwnshipGeoAltitude, DecodeOwnshipGeoAltitude)
	r.Register(TypeTrafficReport, DecodeTrafficReport)
	r.Register(TypeBasicReport, DecodeUATReport)
	r.Register(TypeLongReport, DecodeUATReport)
	return r
}

func (r *Registry) Register(id uint8, fn DecodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[id] = fn
}

// SetFallback 未注册类型的兜底解码（默认无，未注册类型不产生消息）
func (r *Registry) SetFallback(fn DecodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = fn
}

func (r *Registry) Lookup(id uint8) (DecodeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.m[id]
	return fn, ok
}

// Decode 按 body[0] 分发
func (r *Registry) Decode(body []byte) (Message, error) {
	if len(body) == 0 {
		return nil, ErrShortBody
	}
	r.mu.RLock()
	fn, ok := r.m[body[0]]
	if !ok {
		fn = r.fallback
	}
	r.mu.RUnlock()
	if fn == nil {
		return nil, ErrUnknownType
	}
	return fn(body)
}
