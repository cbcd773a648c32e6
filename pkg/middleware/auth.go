package middleware

import (
	"strings"

	"influencer-connect/pkg/errutil"

	"github.com/gin-gonic/gin"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

const (
	RoleAgency  = "agency"
	RoleCreator = "creator"

	identityKey = "auth.identity"
)

// Identity is the authenticated caller extracted from the bearer token.
type Identity struct {
	UserID string
	Role   string
}

type authClaims struct {
	jwt.Claims
	Role string `json:"role"`
}

// Auth verifies the HS256 bearer token and stores the caller identity on the
// request context. Routes behind it can assume a valid identity.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "no authorization header")
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
		if err != nil {
			abortUnauthorized(c, "malformed bearer token")
			return
		}

		var claims authClaims
		if err := tok.Claims(key, &claims); err != nil {
			abortUnauthorized(c, "invalid token signature")
			return
		}
		if claims.Subject == "" {
			abortUnauthorized(c, "token has no subject")
			return
		}

		c.Set(identityKey, Identity{UserID: claims.Subject, Role: claims.Role})
		c.Next()
	}
}

// RequireRole gates a route group to a single role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok || id.Role != role {
			c.AbortWithStatusJSON(errutil.StatusForbidden.HTTPStatus(), gin.H{
				"error": gin.H{"code": errutil.StatusForbidden, "message": "insufficient role"},
			})
			return
		}
		c.Next()
	}
}

// GetIdentity returns the authenticated identity, if any.
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(errutil.StatusUnauthorized.HTTPStatus(), gin.H{
		"error": gin.H{"code": errutil.StatusUnauthorized, "message": msg},
	})
}
