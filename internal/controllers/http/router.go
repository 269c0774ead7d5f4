package http

import (
	"net/http"

	"storefront-service/internal/infra/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the engine: health and metrics are public, everything
// under /api requires a bearer token.
func NewRouter(h *Handler, logger *logrus.Logger, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger), metrics.GinMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api", Auth([]byte(jwtSecret)))
	h.RegisterRoutes(api)
	return r
}
