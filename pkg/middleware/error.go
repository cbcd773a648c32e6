package middleware

import (
	"errors"
	"net/http"

	"influencer-connect/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Error renders the last error attached to the gin context as the
// {error:{code,message,details}} JSON body with the mapped HTTP status.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		var base errutil.BaseError
		if errors.As(last.Err, &base) {
			c.JSON(base.Code.HTTPStatus(), base.JSON())
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    errutil.StatusInternal,
				"message": last.Err.Error(),
			},
		})
	}
}
