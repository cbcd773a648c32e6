package creator

import (
	"net/http"

	"influencer-connect/pkg/errutil"
	"influencer-connect/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Service) handleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	if id, ok := middleware.GetIdentity(c); ok && req.UserID == "" {
		req.UserID = id.UserID
	}

	created, err := s.Register(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Service) handleGet(c *gin.Context) {
	found, err := s.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (s *Service) handleMyWallet(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)

	profile, err := s.GetByUserID(c.Request.Context(), id.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	wallet, err := s.GetWallet(c.Request.Context(), profile.CreatorID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}
