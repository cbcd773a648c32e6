package escrow

import (
	"influencer-connect/pkg/config"
	"influencer-connect/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("escrow.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)

func registerRoutes(e *gin.Engine, svc *Service, cfg *config.Config) {
	agency := e.Group("/v1/escrow",
		middleware.Auth(cfg.Auth.JWTSecret),
		middleware.RequireRole(middleware.RoleAgency),
	)

	agency.POST("/verify", svc.handleVerify)
	agency.POST("/settle", svc.handleSettle)
	agency.POST("/release", svc.handleRelease)
}
