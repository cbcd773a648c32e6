package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const channelGinKey = "tracking.channel"

// deriveChannelFromAPIKey guesses the traffic channel from the API key pattern.
// Storefront integrations embed the channel in their publishable key prefix.
func deriveChannelFromAPIKey(key string) string {
	switch {
	case strings.HasPrefix(key, "pk_web_"):
		return "web"
	case strings.HasPrefix(key, "pk_app_"):
		return "app"
	case strings.HasPrefix(key, "pk_partner_"):
		return "partner"
	default:
		return "api"
	}
}

// Channel tags each request with the channel derived from x-api-key so that
// tracking events can record where the click or conversion came from.
func Channel() gin.HandlerFunc {
	return func(c *gin.Context) {
		channel := "api"
		if key := c.GetHeader("x-api-key"); key != "" {
			channel = deriveChannelFromAPIKey(key)
		}
		c.Set(channelGinKey, channel)
		c.Next()
	}
}

// GetChannel returns the current channel string (default "api").
func GetChannel(c *gin.Context) string {
	ch, ok := c.Value(channelGinKey).(string)
	if !ok {
		return "api"
	}
	return ch
}
