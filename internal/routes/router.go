// Package routesはroutingを行います。
package routes

import (
	"database/sql"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/database"
	"todo-manager/backend/internal/handlers"
	"todo-manager/backend/internal/logging"
	"todo-manager/backend/internal/metrics"
	"todo-manager/backend/internal/repositories"
	"todo-manager/backend/internal/services"
)

// Options はルーターの組み立てに必要な依存関係です。
type Options struct {
	DB      *sql.DB
	Dialect database.Dialect
	Server  config.Server
	Logger  *log.Logger
	// Metrics が nil の場合は /metrics を公開しません。
	Metrics        *metrics.Metrics
	ServiceOptions []services.Option
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(opts Options) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.Server.TrustedProxies); err != nil {
		opts.Logger.Error("Invalid trusted proxies, ignoring X-Forwarded-For", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(logging.RequestID())
	r.Use(logging.Middleware(opts.Logger))
	r.Use(Recovery(opts.Logger))
	r.Use(opts.Metrics.Middleware())
	r.Use(SecurityHeaders())
	r.Use(corsMiddleware(opts.Server.CORSOrigins))
	r.Use(NewRateLimiter(opts.Server.RateLimitMax, opts.Server.RateLimitWindow.Duration, opts.Metrics).Middleware())
	r.Use(BodyLimit(opts.Server.BodyLimit))

	// リポジトリ
	todoRepo := repositories.NewTodoRepository(opts.DB, opts.Dialect, opts.Logger)

	// サービス
	serviceOpts := append([]services.Option{services.WithMetrics(opts.Metrics)}, opts.ServiceOptions...)
	todoService := services.NewTodoService(todoRepo, opts.Logger, serviceOpts...)

	// ハンドラー
	todoHandler := handlers.NewTodoHandler(todoService)

	// ルーティング
	r.GET("/health", handlers.HealthHandler)
	r.GET("/api/health", handlers.HealthHandler)
	r.GET("/api/dbcheck", handlers.DBCheckHandler(opts.DB, opts.Logger))
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	api := r.Group("/api/todos")
	{
		api.GET("", todoHandler.GetTodosHandler)
		api.GET("/status/:status", todoHandler.GetTodosByStatusHandler)
		api.GET("/category/:category", todoHandler.GetTodosByCategoryHandler)
		api.GET("/:id", todoHandler.GetTodoByIDHandler)
		api.POST("", todoHandler.CreateTodoHandler)
		api.PUT("/:id", todoHandler.UpdateTodoHandler)
		api.DELETE("/:id", todoHandler.DeleteTodoHandler)
	}

	r.NoRoute(NotFoundHandler)

	return r
}

// CORS対策
func corsMiddleware(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", logging.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{logging.RequestIDHeader, "RateLimit-Limit", "RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour

	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
		return cors.New(corsConfig)
	}
	for _, o := range origins {
		if o == "*" {
			corsConfig.AllowAllOrigins = true
			return cors.New(corsConfig)
		}
	}
	corsConfig.AllowOrigins = origins
	corsConfig.AllowCredentials = true
	return cors.New(corsConfig)
}
