package performance

import (
	"net/http"

	"influencer-connect/pkg/errutil"

	"github.com/gin-gonic/gin"
)

func (s *Service) handleRegisterContent(c *gin.Context) {
	var req RegisterContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	content, err := s.RegisterContent(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, content)
}

func (s *Service) handleSync(c *gin.Context) {
	var req struct {
		CampaignID string `json:"campaign_id"`
		ContentID  string `json:"content_performance_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	switch {
	case req.ContentID != "":
		result, err := s.SyncContent(c.Request.Context(), req.ContentID)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "results": []SyncResult{*result}})
	case req.CampaignID != "":
		results, err := s.SyncCampaign(c.Request.Context(), req.CampaignID)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
	default:
		c.Error(errutil.ValidationFailed("campaign_id or content_performance_id is required"))
	}
}
