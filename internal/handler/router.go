// Package handler はHTTPルーティングを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/lendman/internal/metrics"
	"github.com/hitoshi/lendman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// SOAPエンドポイント本体
	SOAPHandler http.Handler

	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// /health用のDB疎通確認
	HealthChecker HealthChecker

	// /metrics用のスクレイプ対象レジストリ
	MetricsGatherer prometheus.Gatherer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → CORSMiddleware → LoggingMiddleware → RateLimitMiddleware
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	// 運用系ルート
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))

	// SOAPエンドポイント。互換のため /loan と /ws の両方で受ける。
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.Middleware())

		r.Handle("/ws", deps.SOAPHandler)
		r.Handle("/loan", deps.SOAPHandler)
	})

	return r
}
