package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/gdl90-server/internal/config"
	"github.com/taoyao-code/gdl90-server/internal/metrics"
	"github.com/taoyao-code/gdl90-server/internal/udpserver"
)

// UDPSourceName UDP 输入源在统计中的名字
const UDPSourceName = "udp"

// NewUDPServer 创建 UDP 接收，全部数据报进入同一个解码器
func NewUDPServer(cfg cfgpkg.UDPConfig, sources *Sources, appm *metrics.AppMetrics, logger *zap.Logger) *udpserver.Server {
	srv := udpserver.New(cfg, sources.Open(UDPSourceName), logger.With(zap.String("component", "udp")))
	if appm != nil {
		srv.SetMetricsCallbacks(appm.UDPDatagrams.Inc, appm.ObserveBytes)
	}
	return srv
}
