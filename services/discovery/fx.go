package discovery

import (
	"net/http"

	"influencer-connect/pkg/config"
	"influencer-connect/pkg/errutil"
	"influencer-connect/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("discovery.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)

func registerRoutes(e *gin.Engine, svc *Service, cfg *config.Config) {
	v1 := e.Group("/v1", middleware.Auth(cfg.Auth.JWTSecret))
	v1.POST("/search/creators", svc.handleSearch)
}

func (s *Service) handleSearch(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	result, err := s.Search(c.Request.Context(), req.Query)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
