package payout

import (
	"influencer-connect/pkg/config"
	"influencer-connect/pkg/middleware"
	"influencer-connect/services/creator"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("payout.service",
	fx.Provide(
		NewService,
		func(s *creator.Service) CreatorResolver { return s },
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(e *gin.Engine, svc *Service, creators CreatorResolver, cfg *config.Config) {
	authed := e.Group("/v1", middleware.Auth(cfg.Auth.JWTSecret))

	creatorOnly := authed.Group("", middleware.RequireRole(middleware.RoleCreator))
	creatorOnly.POST("/payouts/claim", svc.handleClaim(creators))
	creatorOnly.GET("/payouts", svc.handleList(creators))

	agencyOnly := authed.Group("", middleware.RequireRole(middleware.RoleAgency))
	agencyOnly.POST("/connect-accounts", svc.handleConnectAccount)
	agencyOnly.GET("/connect-accounts", svc.handleListConnectedAccounts)
}
