package creator

import (
	"influencer-connect/pkg/config"
	"influencer-connect/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("creator.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)

func registerRoutes(e *gin.Engine, svc *Service, cfg *config.Config) {
	v1 := e.Group("/v1", middleware.Auth(cfg.Auth.JWTSecret))

	v1.POST("/creators", svc.handleRegister)
	v1.GET("/creators/:id", svc.handleGet)
	v1.GET("/creators/me/wallet", middleware.RequireRole(middleware.RoleCreator), svc.handleMyWallet)
}
