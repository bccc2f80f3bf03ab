package httpapi

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Danne56/chatbot-api/internal/store"
)

// Middleware http.Handler 装饰器
type Middleware func(http.Handler) http.Handler

// Chain 从外到内依次套中间件
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequestID 为每个请求分配 X-Request-Id（调用方已带则透传）
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.NewString()
				r.Header.Set("X-Request-Id", id)
			}
			w.Header().Set("X-Request-Id", id)
			next.ServeHTTP(w, r)
		})
	}
}

// APIKeyAuth 共享密钥鉴权（X-Api-Key）
// key 为空时放行（仅限本地联测），启动日志里会给出警告
func APIKeyAuth(key string, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" && r.Header.Get("X-Api-Key") != key {
				logger.Debug("rejected request with bad api key",
					zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr))
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit 基于 Redis 的固定窗口限流（按客户端IP）
// Redis 不可用时放行（fail-open）：限流是保护手段，不能成为单点
func RateLimit(kv store.KV, max int, window time.Duration, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if kv == nil || max <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			key := fmt.Sprintf("ratelimit:%s", ip)
			count, err := kv.IncrWindow(r.Context(), key, window)
			if err != nil {
				logger.Warn("rate limit check failed, allowing request", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count > int64(max) {
				writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": "Too many requests from this IP"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP X-Forwarded-For 首个地址优先，退回 RemoteAddr
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
