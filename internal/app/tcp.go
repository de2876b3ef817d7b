package app

import (
	"fmt"
	"net"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/gdl90-server/internal/config"
	"github.com/taoyao-code/gdl90-server/internal/metrics"
	padapter "github.com/taoyao-code/gdl90-server/internal/protocol/adapter"
	"github.com/taoyao-code/gdl90-server/internal/tcpserver"
)

// NewTCPServer 创建 TCP 接入，每个连接在 sources 中登记为 tcp-{连接ID}
func NewTCPServer(cfg cfgpkg.TCPConfig, sources *Sources, appm *metrics.AppMetrics, logger *zap.Logger) *tcpserver.Server {
	factory := func(id uint64, remote net.Addr) (padapter.Adapter, func()) {
		name := fmt.Sprintf("tcp-%d", id)
		return sources.Open(name), func() { sources.Close(name) }
	}
	srv := tcpserver.New(cfg, factory, logger.With(zap.String("component", "tcp")))
	if appm != nil {
		srv.SetMetricsCallbacks(appm.TCPAccepted.Inc, appm.TCPRejected.Inc, appm.ObserveBytes)
	}
	return srv
}
