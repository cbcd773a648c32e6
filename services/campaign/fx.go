package campaign

import (
	"influencer-connect/pkg/config"
	"influencer-connect/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("campaign.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)

func registerRoutes(e *gin.Engine, svc *Service, cfg *config.Config) {
	agency := e.Group("/v1",
		middleware.Auth(cfg.Auth.JWTSecret),
		middleware.RequireRole(middleware.RoleAgency),
	)

	agency.POST("/campaigns", svc.handleCreate)
	agency.GET("/campaigns", svc.handleList)
	agency.GET("/campaigns/:id", svc.handleGet)
	agency.GET("/campaigns/:id/logs", svc.handleListLogs)
	agency.POST("/campaigns/:id/status", svc.handleUpdateStatus)
	agency.POST("/campaigns/:id/participants", svc.handleAddParticipant)
}
