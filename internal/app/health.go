package app

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/gdl90-server/internal/health"
	redisstorage "github.com/taoyao-code/gdl90-server/internal/storage/redis"
)

// udpStaleAfter 超过该时长未收到数据报视为接收机静默
const udpStaleAfter = 30 * time.Second

// NewHealthAggregator 创建健康检查聚合器（初始只含 UDP 检查器）
func NewHealthAggregator(udp health.DatagramSource) *health.Aggregator {
	return health.NewAggregator(health.NewUDPChecker(udp, udpStaleAfter))
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}

// AddTCPChecker 添加TCP检查器到聚合器
func AddTCPChecker(aggregator *health.Aggregator, tcp health.ConnCounter) {
	aggregator.AddChecker(health.NewTCPChecker(tcp))
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, redisClient *redisstorage.Client) {
	if redisClient != nil {
		aggregator.AddChecker(health.NewRedisChecker(redisClient))
	}
}
