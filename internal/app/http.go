package app

import (
	"net/http"

	cfgpkg "github.com/taoyao-code/gdl90-server/internal/config"
	"github.com/taoyao-code/gdl90-server/internal/httpserver"
)

// NewHTTPServer 根据配置创建 HTTP 服务器，统计路由导出各输入源的解码统计
func NewHTTPServer(cfg cfgpkg.HTTPConfig, metricsPath string, metricsHandler http.Handler, readyFn func() bool, sources *Sources) *httpserver.Server {
	var statsFn httpserver.StatsFunc
	if sources != nil {
		statsFn = func() any { return sources.Stats() }
	}
	return httpserver.New(cfg, metricsPath, metricsHandler, readyFn, statsFn)
}
