package rediskey

import "fmt"

// Key conventions shared between the API server and the worker.
const (
	TrackingCodePrefix = "tracking:code"
	CampaignPrefix     = "campaign"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildTrackingCodeKey returns "tracking:code:{code}"
func BuildTrackingCodeKey(code string) string {
	return NamespaceKey(TrackingCodePrefix, code)
}

// BuildCampaignKey returns "campaign:{campaignID}"
func BuildCampaignKey(campaignID string) string {
	return NamespaceKey(CampaignPrefix, campaignID)
}
