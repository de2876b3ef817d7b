package tcpserver

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

// SourceFactory 为每个连接创建独立的协议适配器（各自持有解码状态）；
// release 在连接结束时调用，可为 nil
type SourceFactory func(connID uint64, remote net.Addr) (a padapter.Adapter, release func())

// Server GDL-90 over TCP 接入（串口转 TCP 网桥等字节流源）
type Server struct {
	cfg        cfgpkg.TCPConfig
	ln         net.Listener
	wg         sync.WaitGroup
	stopC      chan struct{}
	stopOnce   sync.Once
	logger     *zap.Logger
	factory    SourceFactory
	rate       *RateLimiter
	conns      *ConnectionLimiter
	nextConnID uint64

	// 可选指标回调
	onAccept    func()
	onReject    func()
	onRecvBytes func(n int)
}

// New 创建 TCP 接入服务
func New(cfg cfgpkg.TCPConfig, factory SourceFactory, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		stopC:   make(chan struct{}),
		logger:  logger,
		factory: factory,
		rate:    NewRateLimiter(cfg.AcceptRate, cfg.AcceptBurst),
		conns:   NewConnectionLimiter(cfg.MaxConnections),
	}
}

// SetMetricsCallbacks 设置指标回调
func (s *Server) SetMetricsCallbacks(onAccept, onReject func(), onRecvBytes func(int)) {
	s.onAccept, s.onReject, s.onRecvBytes = onAccept, onReject, onRecvBytes
}

// Addr 实际监听地址（Start 之后有效）
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ActiveConnections 当前连接数
func (s *Server) ActiveConnections() int { return s.conns.Current() }

// MaxConnections 连接上限，0 表示不限
func (s *Server) MaxConnections() int { return s.conns.MaxConnections() }

// RejectedTotal 因速率或连接数被拒绝的连接总数
func (s *Server) RejectedTotal() uint64 { return s.rate.RejectedCount() + s.conns.RejectedCount() }

// Start 监听并接受连接（非阻塞，内部 goroutine）
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("tcp source listening", zap.String("addr", ln.Addr().String()))

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stopC:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// 短暂错误等待后重试
			s.logger.Warn("accept failed", zap.Error(err))
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if !s.rate.Allow() || !s.conns.TryAcquire() {
			s.logger.Warn("tcp connection rejected", zap.String("remote", conn.RemoteAddr().String()))
			if s.onReject != nil {
				s.onReject()
			}
			_ = conn.Close()
			continue
		}
		if s.onAccept != nil {
			s.onAccept()
		}

		cc := newConnContext(s, conn, atomic.AddUint64(&s.nextConnID, 1))
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.conns.Release()
			cc.run()
		}()
	}
}

// Shutdown 关闭监听并等待连接退出；ctx 到期时强制返回
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopC) })
	if s.ln != nil {
		_ = s.ln.Close()
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
