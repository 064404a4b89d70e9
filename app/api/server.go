package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer builds the status HTTP server. The API is read-only: it exposes
// health, processing statistics, and the configured feed list.
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)
	r.GET("/feeds", handler.ListFeeds)

	return r
}

// Run serves until the listener fails. Intended to run in its own goroutine
// alongside the scheduler.
func Run(engine *gin.Engine, port string) {
	addr := ":" + port
	slog.Info("Status API listening", "addr", addr)
	if err := engine.Run(addr); err != nil && err != http.ErrServerClosed {
		slog.Error("Status API stopped", "error", err)
	}
}
