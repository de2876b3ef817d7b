package tcpserver

import (
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	padapter "github.com/taoyao-code/gdl90-server/internal/protocol/adapter"
)

// sniffLen 首包初判取的前缀长度
const sniffLen = 8

// ConnContext 单个 TCP 连接的读循环；GDL-90 为单向输出，不需要写路径
type ConnContext struct {
	s       *Server
	c       net.Conn
	id      uint64
	adapter padapter.Adapter
	release func()
}

func newConnContext(s *Server, c net.Conn, id uint64) *ConnContext {
	cc := &ConnContext{s: s, c: c, id: id}
	if s.factory != nil {
		cc.adapter, cc.release = s.factory(id, c.RemoteAddr())
	}
	return cc
}

// ID 返回连接ID（单进程唯一递增）
func (cc *ConnContext) ID() uint64 { return cc.id }

// RemoteAddr 返回远端地址
func (cc *ConnContext) RemoteAddr() net.Addr { return cc.c.RemoteAddr() }

// run 读循环，阻塞直至连接结束或服务关闭
func (cc *ConnContext) run() {
	logger := cc.s.logger.With(zap.Uint64("conn", cc.id), zap.String("remote", cc.RemoteAddr().String()))
	defer func() {
		_ = cc.c.Close()
		if cc.release != nil {
			cc.release()
		}
		logger.Info("tcp source closed")
	}()

	// 服务关闭时打断阻塞的 Read
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-cc.s.stopC:
			_ = cc.c.Close()
		case <-done:
		}
	}()

	logger.Info("tcp source connected")
	sniffed := false
	buf := make([]byte, 4096)
	for {
		if cc.s.cfg.ReadTimeout > 0 {
			_ = cc.c.SetReadDeadline(time.Now().Add(cc.s.cfg.ReadTimeout))
		}
		n, err := cc.c.Read(buf)
		if n > 0 {
			if cc.s.onRecvBytes != nil {
				cc.s.onRecvBytes(n)
			}
			if cc.adapter != nil {
				if !sniffed {
					sniffed = true
					pref := buf[:n]
					if len(pref) > sniffLen {
						pref = pref[:sniffLen]
					}
					if !cc.adapter.Sniff(pref) {
						logger.Warn("first read carries no frame delimiter", zap.Int("len", n))
					}
				}
				if perr := cc.adapter.ProcessBytes(buf[:n]); perr != nil {
					logger.Debug("process bytes", zap.Error(perr))
				}
			}
		}
		if err != nil {
			var ne net.Error
			switch {
			case errors.As(err, &ne) && ne.Timeout():
				logger.Info("tcp source idle timeout")
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			default:
				logger.Debug("tcp read failed", zap.Error(err))
			}
			return
		}
	}
}
