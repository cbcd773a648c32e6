package payout

import (
	"context"
	"net/http"

	"influencer-connect/pkg/errutil"
	"influencer-connect/pkg/middleware"
	"influencer-connect/services/creator"

	"github.com/gin-gonic/gin"
)

// CreatorResolver maps an authenticated user to their creator profile.
type CreatorResolver interface {
	GetByUserID(ctx context.Context, userID string) (*creator.Creator, error)
}

func (s *Service) handleClaim(creators CreatorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := middleware.GetIdentity(c)

		profile, err := creators.GetByUserID(c.Request.Context(), id.UserID)
		if err != nil {
			c.Error(err)
			return
		}

		result, err := s.Claim(c.Request.Context(), profile.CreatorID)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (s *Service) handleList(creators CreatorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := middleware.GetIdentity(c)

		profile, err := creators.GetByUserID(c.Request.Context(), id.UserID)
		if err != nil {
			c.Error(err)
			return
		}

		requests, err := s.List(c.Request.Context(), profile.CreatorID)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payouts": requests})
	}
}

func (s *Service) handleConnectAccount(c *gin.Context) {
	var req ConnectAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	result, err := s.ConnectAccount(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Service) handleListConnectedAccounts(c *gin.Context) {
	accounts, err := s.ListConnectedAccounts(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}
