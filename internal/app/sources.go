package app

import (
	"sync"

	"go.uber.org/zap"

	"github.com/taoyao-code/gdl90-server/internal/protocol/gdl90"
)

// Sources 输入源登记：每个输入源（UDP 端口、TCP 连接）独占一个解码器，统计按源名导出
type Sources struct {
	mu     sync.RWMutex
	m      map[string]*gdl90.Adapter
	opts   []gdl90.Option
	logger *zap.Logger
}

// NewSources opts 为所有解码器共用的选项
func NewSources(logger *zap.Logger, opts ...gdl90.Option) *Sources {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sources{m: make(map[string]*gdl90.Adapter), opts: opts, logger: logger}
}

// Open 为输入源创建解码器；同名源已存在时直接返回
func (s *Sources) Open(name string) *gdl90.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.m[name]; ok {
		return a
	}
	opts := append(append([]gdl90.Option(nil), s.opts...),
		gdl90.WithLogger(s.logger.With(zap.String("source", name))))
	a := gdl90.NewAdapter(gdl90.NewDecoder(opts...))
	s.m[name] = a
	return a
}

// Close 注销输入源，并记录其最终统计
func (s *Sources) Close(name string) {
	s.mu.Lock()
	a, ok := s.m[name]
	delete(s.m, name)
	s.mu.Unlock()
	if !ok {
		return
	}
	st := a.Stats()
	s.logger.Info("source closed",
		zap.String("source", name),
		zap.Uint64("attempts", st.Attempts),
		zap.Uint64("messages", st.Messages),
		zap.Uint64("failures", st.Failures()),
		zap.Uint64("resyncs", st.Resyncs))
}

// Stats 各输入源的统计快照
func (s *Sources) Stats() map[string]gdl90.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]gdl90.Snapshot, len(s.m))
	for name, a := range s.m {
		out[name] = a.Stats()
	}
	return out
}
