package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jacl-coder/BrawlLadder-Server/config"
	"github.com/sirupsen/logrus"
)

// Registrar 在路由上注册自己的处理器
type Registrar interface {
	RegisterHandlers(mux *http.ServeMux)
}

// Gateway HTTP 入口：管理接口、WebSocket 与指标
type Gateway struct {
	config     config.ServerConfig
	mux        *http.ServeMux
	limiter    *RateLimiter
	log        *logrus.Entry
	httpServer *http.Server

	mutex     sync.Mutex
	isRunning bool
}

// NewGateway 创建新的网关
func NewGateway(cfg config.ServerConfig, limiter *RateLimiter, log *logrus.Entry) *Gateway {
	return &Gateway{
		config:  cfg,
		mux:     http.NewServeMux(),
		limiter: limiter,
		log:     log,
	}
}

// Register 注册一组处理器
func (g *Gateway) Register(r Registrar) {
	r.RegisterHandlers(g.mux)
}

// Handle 注册单个处理器
func (g *Gateway) Handle(pattern string, h http.Handler) {
	g.mux.Handle(pattern, h)
}

// Handler 应用中间件后的处理器
func (g *Gateway) Handler() http.Handler {
	var handler http.Handler = g.mux

	// 从内到外
	if g.limiter != nil {
		handler = g.limiter.Middleware(handler)
	}
	handler = securityHeaders(handler)
	handler = requestLogger(g.log)(handler)

	return handler
}

// Start 启动网关
func (g *Gateway) Start() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.isRunning {
		return fmt.Errorf("网关已经在运行")
	}

	g.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", g.config.HTTPPort),
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		g.log.WithField("port", g.config.HTTPPort).Info("HTTP网关启动")
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.WithError(err).Error("HTTP服务器错误")
		}
	}()

	g.isRunning = true
	return nil
}

// Stop 停止网关，等待进行中的请求结束
func (g *Gateway) Stop(ctx context.Context) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if !g.isRunning {
		return nil
	}

	err := g.httpServer.Shutdown(ctx)
	if g.limiter != nil {
		g.limiter.Close()
	}
	g.isRunning = false
	g.log.Info("HTTP网关已停止")
	return err
}
