package tracking

import (
	"influencer-connect/pkg/config"
	"influencer-connect/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("tracking.service",
	fx.Provide(
		NewRepository,
		NewService,
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(e *gin.Engine, svc *Service, cfg *config.Config) {
	authed := e.Group("/v1", middleware.Auth(cfg.Auth.JWTSecret))
	authed.POST("/tracking-codes", svc.handleGenerateCode)
	authed.GET("/tracking-codes/:code/stats", svc.handleStats)

	// storefront pixel endpoint, no auth; channel derived from api key
	e.POST("/v1/track", middleware.Channel(), svc.handleTrack)
}
