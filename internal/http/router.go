package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterHealthRoute 健康检查（不过鉴权/限流）
func (r *Router) RegisterHealthRoute() {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "OK", "message": "Server is up and running"})
	})
}

// RegisterAPIRoutes 注册 /api 下的业务路由，统一套中间件链
func (r *Router) RegisterAPIRoutes(
	contacts *ContactHandler,
	messages *MessageLogHandler,
	preferences *PreferenceHandler,
	mws ...Middleware,
) {
	r.HandleHandler("/api/contacts", Chain(contacts, mws...))
	r.HandleHandler("/api/contacts/", Chain(contacts, mws...))

	r.HandleHandler("/api/messages", Chain(messages, mws...))
	r.HandleHandler("/api/messages/", Chain(messages, mws...))

	r.HandleHandler("/api/preferences/", Chain(preferences, mws...))
}
