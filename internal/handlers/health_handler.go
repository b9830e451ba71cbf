package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"todo-manager/backend/internal/models"
)

// HealthHandler はサーバーの死活確認に応答します。
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "OK", Message: "Server is running"})
}

// Pinger は *sql.DB の PingContext を満たすインターフェースです。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DBCheckHandler はDBへの疎通を確認します。エラーの詳細はログにだけ出力します。
func DBCheckHandler(db Pinger, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.Error("Database ping failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "Database connection failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Database connection is healthy"})
	}
}
