package performance

import (
	"influencer-connect/pkg/config"
	"influencer-connect/pkg/middleware"
	"influencer-connect/pkg/taskname"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

// Module wires the HTTP surface for content tracking and manual syncs.
var Module = fx.Module("performance.service",
	fx.Provide(NewSimulatedSource, NewService),
	fx.Invoke(registerRoutes),
)

// Worker wires the asynq handler and the periodic scheduler. Runs in the
// task binary only.
var Worker = fx.Module("performance.worker",
	fx.Provide(NewSimulatedSource, NewService, NewScheduler),
	fx.Invoke(registerTaskHandlers, registerScheduler),
)

func registerRoutes(e *gin.Engine, svc *Service, cfg *config.Config) {
	v1 := e.Group("/v1", middleware.Auth(cfg.Auth.JWTSecret))

	v1.POST("/content", svc.handleRegisterContent)
	v1.POST("/content/sync", svc.handleSync)
}

func registerTaskHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.PerformanceSyncViews, svc.HandleSyncViews)
}
