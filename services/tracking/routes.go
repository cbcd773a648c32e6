package tracking

import (
	"net/http"

	"influencer-connect/pkg/errutil"
	"influencer-connect/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Service) handleGenerateCode(c *gin.Context) {
	var req GenerateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	code, err := s.GenerateCode(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, code)
}

func (s *Service) handleTrack(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	event, err := s.Track(c.Request.Context(), req, RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Channel:   middleware.GetChannel(c),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "event_id": event.EventID})
}

func (s *Service) handleStats(c *gin.Context) {
	code, err := s.Stats(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, code)
}
