package gateway

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrRateLimited 请求过于频繁
var ErrRateLimited = errors.New("请求过于频繁")

// RateLimiter 按键的滑动窗口频率限制器，HTTP 按客户端IP，聊天命令按用户ID
type RateLimiter struct {
	clients map[string]*ClientInfo
	mutex   sync.Mutex

	// 配置
	RequestsPerMinute int
	CleanupInterval   time.Duration

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// ClientInfo 客户端信息
type ClientInfo struct {
	Requests []time.Time
	LastSeen time.Time
}

// NewRateLimiter 创建新的频率限制器，requestsPerMinute 不大于0时不限制
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	rl := &RateLimiter{
		clients:           make(map[string]*ClientInfo),
		RequestsPerMinute: requestsPerMinute,
		CleanupInterval:   5 * time.Minute,
		now:               time.Now,
		stop:              make(chan struct{}),
	}

	// 启动清理协程
	go rl.cleanup()

	return rl
}

// Close 停止清理协程
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// Middleware 频率限制中间件
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			rl.sendRateLimitError(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Allow 记录一次请求并返回是否允许
func (rl *RateLimiter) Allow(key string) bool {
	if rl.RequestsPerMinute <= 0 {
		return true
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()

	client, exists := rl.clients[key]
	if !exists {
		client = &ClientInfo{}
		rl.clients[key] = client
	}
	client.LastSeen = now

	// 丢弃一分钟以前的记录
	cutoff := now.Add(-time.Minute)
	valid := client.Requests[:0]
	for _, t := range client.Requests {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	client.Requests = valid

	if len(client.Requests) >= rl.RequestsPerMinute {
		return false
	}
	client.Requests = append(client.Requests, now)
	return true
}

// clientIP 获取客户端IP
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// sendRateLimitError 发送频率限制错误响应
func (rl *RateLimiter) sendRateLimitError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(apiError{
		Success: false,
		Message: fmt.Sprintf("请求过于频繁，每分钟最多允许 %d 次请求", rl.RequestsPerMinute),
		Code:    "RATE_LIMIT_EXCEEDED",
	})
}

type apiError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// cleanup 清理长时间未访问的客户端
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mutex.Lock()
			cutoff := rl.now().Add(-10 * time.Minute)
			for key, client := range rl.clients {
				if client.LastSeen.Before(cutoff) {
					delete(rl.clients, key)
				}
			}
			rl.mutex.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// securityHeaders 安全响应头
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Server", "BrawlLadder")
		next.ServeHTTP(w, r)
	})
}

// requestLogger 记录每个请求的方法、路径、状态码与耗时
func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(recorder, r)

			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   recorder.statusCode,
				"duration": time.Since(start).String(),
				"client":   clientIP(r),
			}).Debug("HTTP请求")
		})
	}
}

// responseRecorder 响应记录器
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader 记录状态码
func (rr *responseRecorder) WriteHeader(code int) {
	rr.statusCode = code
	rr.ResponseWriter.WriteHeader(code)
}

// Hijack WebSocket 升级需要底层连接
func (rr *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("响应不支持连接劫持")
	}
	return h.Hijack()
}
