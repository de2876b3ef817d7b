package udpserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/gdl90-server/internal/config"
	padapter "github.com/taoyao-code/gdl90-server/internal/protocol/adapter"
)

// Server GDL-90 UDP 接收：单读协程按到达顺序把数据报原样交给适配器
type Server struct {
	cfg      cfgpkg.UDPConfig
	pc       net.PacketConn
	adapter  padapter.Adapter
	logger   *zap.Logger
	wg       sync.WaitGroup
	stopC    chan struct{}
	stopOnce sync.Once

	listening atomic.Bool
	last      atomic.Int64 // 最近一个数据报的 UnixNano

	// 可选指标回调
	onDatagram  func()
	onRecvBytes func(n int)
}

// New 创建 UDP 接收服务
func New(cfg cfgpkg.UDPConfig, a padapter.Adapter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	return &Server{cfg: cfg, adapter: a, logger: logger, stopC: make(chan struct{})}
}

// SetMetricsCallbacks 设置指标回调
func (s *Server) SetMetricsCallbacks(onDatagram func(), onRecvBytes func(int)) {
	s.onDatagram, s.onRecvBytes = onDatagram, onRecvBytes
}

// Addr 实际监听地址（Start 之后有效）
func (s *Server) Addr() net.Addr {
	if s.pc == nil {
		return nil
	}
	return s.pc.LocalAddr()
}

// Listening 是否处于监听状态
func (s *Server) Listening() bool { return s.listening.Load() }

// LastDatagram 最近一次收到数据报的时间，未收到时为零值
func (s *Server) LastDatagram() time.Time {
	ns := s.last.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Start 绑定端口并启动读协程（非阻塞）
func (s *Server) Start() error {
	pc, err := net.ListenPacket("udp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.pc = pc
	s.listening.Store(true)
	s.logger.Info("udp source listening", zap.String("addr", pc.LocalAddr().String()), zap.Int("buffer", s.cfg.BufferSize))

	s.wg.Add(1)
	go s.readLoop()
	return nil
}

func (s *Server) readLoop() {
	defer s.wg.Done()
	defer s.listening.Store(false)

	buf := make([]byte, s.cfg.BufferSize)
	for {
		n, addr, err := s.pc.ReadFrom(buf)
		if n > 0 {
			s.last.Store(time.Now().UnixNano())
			if s.onDatagram != nil {
				s.onDatagram()
			}
			if s.onRecvBytes != nil {
				s.onRecvBytes(n)
			}
			if s.adapter != nil {
				if perr := s.adapter.ProcessBytes(buf[:n]); perr != nil {
					s.logger.Debug("process datagram", zap.Stringer("from", addr), zap.Error(perr))
				}
			}
		}
		if err != nil {
			select {
			case <-s.stopC:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// 读错误不终止接收
			s.logger.Warn("udp read failed", zap.Error(err))
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// Shutdown 关闭套接字并等待读协程退出
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopC) })
	if s.pc != nil {
		_ = s.pc.Close()
	}
	ch := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(ch)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}
