package httpapi

import (
	"net/http"
	"time"

	"influencer-connect/pkg/config"
	"influencer-connect/pkg/health"
	"influencer-connect/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("httpapi",
	fx.Provide(ProvideEngine),
	fx.Provide(func(e *gin.Engine) http.Handler { return e }),
)

// ProvideEngine builds the shared gin engine. Domain services register their
// route groups against it via fx.Invoke.
func ProvideEngine(cfg *config.Config, h health.HealthService) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	e := gin.New()
	e.Use(gin.Recovery())
	e.Use(requestLogger())
	e.Use(middleware.Error())

	e.GET("/healthz", h.Liveness)
	e.GET("/readyz", h.Readiness)

	return e
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		zap.L().Info("http.request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
