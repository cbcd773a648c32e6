package performance

import (
	"context"
	"encoding/json"
	"fmt"

	"influencer-connect/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// SyncViewsPayload is the asynq payload for a campaign view sync.
type SyncViewsPayload struct {
	CampaignID string `json:"campaign_id"`
}

// NewSyncViewsTask builds the asynq task that syncs one campaign.
func NewSyncViewsTask(campaignID string) (*asynq.Task, error) {
	payload, err := json.Marshal(SyncViewsPayload{CampaignID: campaignID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskname.PerformanceSyncViews, payload, asynq.Queue("default")), nil
}

// HandleSyncViews processes a queued campaign sync.
func (s *Service) HandleSyncViews(ctx context.Context, t *asynq.Task) error {
	var payload SyncViewsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal sync payload: %w", err)
	}

	results, err := s.SyncCampaign(ctx, payload.CampaignID)
	if err != nil {
		return fmt.Errorf("sync campaign %s: %w", payload.CampaignID, err)
	}

	var total float64
	for _, r := range results {
		total += r.AmountEarned
	}
	s.logger.Info("campaign views synced",
		zap.String("campaign_id", payload.CampaignID),
		zap.Int("content_count", len(results)),
		zap.Float64("total_earned", total),
	)
	return nil
}
