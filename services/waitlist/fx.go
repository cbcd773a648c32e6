package waitlist

import (
	"net/http"

	"influencer-connect/pkg/errutil"
	"influencer-connect/pkg/taskname"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

// Module wires the public signup surface.
var Module = fx.Module("waitlist.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)

// Worker wires the welcome email handler. Runs in the task binary only.
var Worker = fx.Module("waitlist.worker",
	fx.Provide(NewService),
	fx.Invoke(registerTaskHandlers),
)

func registerRoutes(e *gin.Engine, svc *Service) {
	e.POST("/v1/waitlist", svc.handleSignup)
	e.POST("/v1/waitlist/welcome-email", svc.handleWelcomeEmail)
}

func registerTaskHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.WaitlistWelcomeEmail, svc.HandleWelcomeEmail)
}

func (s *Service) handleSignup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	result, err := s.Signup(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Service) handleWelcomeEmail(c *gin.Context) {
	var req WelcomeEmailPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	if err := s.SendWelcomeEmail(c.Request.Context(), req.Email, req.FirstName); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
