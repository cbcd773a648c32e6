package campaign

import (
	"net/http"

	"influencer-connect/pkg/errutil"
	"influencer-connect/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Service) handleCreate(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	created, err := s.Create(c.Request.Context(), id.UserID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Service) handleList(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)

	campaigns, err := s.List(c.Request.Context(), id.UserID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

func (s *Service) handleGet(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)

	found, err := s.Get(c.Request.Context(), id.UserID, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (s *Service) handleListLogs(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)

	logs, err := s.ListLogs(c.Request.Context(), id.UserID, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (s *Service) handleUpdateStatus(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)

	var req struct {
		Status Status `json:"status"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	updated, err := s.UpdateStatus(c.Request.Context(), id.UserID, c.Param("id"), req.Status, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Service) handleAddParticipant(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)

	var req AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	participant, err := s.AddParticipant(c.Request.Context(), id.UserID, c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, participant)
}
