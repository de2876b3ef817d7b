package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/gdl90-server/internal/app"
	"github.com/taoyao-code/gdl90-server/internal/bridge"
	cfgpkg "github.com/taoyao-code/gdl90-server/internal/config"
	"github.com/taoyao-code/gdl90-server/internal/health"
	"github.com/taoyao-code/gdl90-server/internal/metrics"
	"github.com/taoyao-code/gdl90-server/internal/protocol/gdl90"
	"github.com/taoyao-code/gdl90-server/internal/tcpserver"
)

// Version 构建版本，由 -ldflags 注入
var Version = "v0.1.0"

// Run 统一启动流程：总线就绪后再打开输入源，收到信号后按输入源 -> 队列 -> 总线的顺序关闭
func Run(cfg *cfgpkg.Config, log *zap.Logger) error {
	log.Info("starting gdl90 server", zap.String("version", Version))

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// ========== 阶段1: 基础组件 ==========
	reg, appm := app.NewMetrics()
	var metricsHandler http.Handler
	if cfg.Metrics.Enable {
		metricsHandler = metrics.Handler(reg)
	}
	ready := health.New()
	serverID := app.GenerateServerID()
	log.Info("basic components initialized", zap.String("server_id", serverID))

	// ========== 阶段2: 发布总线 ==========
	redisClient, err := app.NewRedisClient(rootCtx, cfg.Redis, log)
	if err != nil {
		log.Error("redis initialization failed", zap.Error(err))
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	pub := app.NewPublisher(redisClient, cfg.Bridge, log)
	env := bridge.NewEnveloper(cfg.App, serverID, Version, nil)
	ready.SetBusReady(true)

	translator := bridge.NewTranslator(pub, env, cfg.Bridge.DataTopic, cfg.Bridge.PublishTimeout,
		log.With(zap.String("component", "bridge")))
	translator.OnPublish = appm.ObservePublish

	registrar := bridge.NewRegistrar(pub, env, cfg.Bridge.HeartbeatTopic, cfg.Bridge.HeartbeatInterval,
		cfg.Bridge.PublishTimeout, nil, log.With(zap.String("component", "registrar")))
	regDone := make(chan struct{})
	regCtx, regCancel := context.WithCancel(rootCtx)
	defer regCancel()
	go func() {
		defer close(regDone)
		registrar.Run(regCtx)
	}()

	// ========== 阶段3: 解码流水线 ==========
	pipeline := app.NewPipeline(cfg.Decoder.QueueSize, translator.Handle, appm)
	pipeDone := make(chan struct{})
	go func() {
		defer close(pipeDone)
		pipeline.Run(rootCtx)
	}()

	sources := app.NewSources(log.With(zap.String("component", "decoder")),
		gdl90.WithHandler(pipeline.Handler()),
		gdl90.WithObserver(appm),
		gdl90.WithMaxFrameLen(cfg.Decoder.MaxFrameLen),
	)

	// ========== 阶段4: HTTP ==========
	udpSrv := app.NewUDPServer(cfg.UDP, sources, appm, log)
	healthAgg := app.NewHealthAggregator(udpSrv)
	app.AddRedisChecker(healthAgg, redisClient)

	httpSrv := app.NewHTTPServer(cfg.HTTP, cfg.Metrics.Path, metricsHandler, ready.Ready, sources)
	httpSrv.Register(func(r *gin.Engine) {
		app.RegisterHealthRoutes(r, healthAgg)
	})
	go func() {
		if err := httpSrv.Start(); err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}()
	log.Info("http server started", zap.String("addr", cfg.HTTP.Addr))

	var tcpSrv *tcpserver.Server
	// shutdown 按输入源 -> 队列 -> 总线 -> HTTP 的顺序停止，启动失败与收到信号共用
	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ready.SetUDPReady(false)
		_ = udpSrv.Shutdown(ctx)
		if tcpSrv != nil {
			_ = tcpSrv.Shutdown(ctx)
		}
		log.Info("sources stopped")

		// 输入源已停止，排空队列后再停止总线
		pipeline.Close()
		<-pipeDone
		regCancel()
		<-regDone

		_ = httpSrv.Shutdown(ctx)
		log.Info("shutdown complete", zap.Uint64("dropped", pipeline.Dropped()))
	}

	// ========== 阶段5: 输入源 ==========
	if err := udpSrv.Start(); err != nil {
		log.Error("udp server start failed", zap.Error(err))
		shutdown()
		return fmt.Errorf("udp listen %s: %w", cfg.UDP.Addr, err)
	}
	ready.SetUDPReady(true)

	if cfg.TCP.Enable {
		tcpSrv = app.NewTCPServer(cfg.TCP, sources, appm, log)
		if err := tcpSrv.Start(); err != nil {
			log.Error("tcp server start failed", zap.Error(err))
			shutdown()
			return fmt.Errorf("tcp listen %s: %w", cfg.TCP.Addr, err)
		}
		app.AddTCPChecker(healthAgg, tcpSrv)
	}
	log.Info("all services ready, waiting for gdl90 data")

	// ========== 阶段6: 等待关闭信号 ==========
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("received shutdown signal, gracefully shutting down...")
	shutdown()
	return nil
}
