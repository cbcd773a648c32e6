package escrow

import (
	"net/http"

	"influencer-connect/pkg/errutil"

	"github.com/gin-gonic/gin"
)

func (s *Service) handleVerify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	result, err := s.Verify(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Service) handleSettle(c *gin.Context) {
	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	flipped, err := s.Settle(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transactionCount": flipped})
}

func (s *Service) handleRelease(c *gin.Context) {
	var req ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	result, err := s.Release(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
