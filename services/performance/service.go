package performance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"influencer-connect/pkg/config"
	"influencer-connect/pkg/errutil"
	"influencer-connect/services/campaign"
	"influencer-connect/services/creator"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// syncConcurrency bounds parallel per-content syncs within one campaign.
const syncConcurrency = 4

// Service converts view growth into creator earnings for CPV campaigns.
type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	source ViewSource
	logger *zap.Logger

	defaultThreshold float64
}

// ServiceParams defines dependencies for Service construction.
type ServiceParams struct {
	fx.In

	DB     *gorm.DB
	Node   *snowflake.Node
	Source ViewSource
	Config *config.Config
	Logger *zap.Logger
}

// NewService constructs a new Service instance.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:               p.DB,
		node:             p.Node,
		source:           p.Source,
		logger:           logger,
		defaultThreshold: p.Config.Payout.DefaultMinThreshold,
	}
}

// RegisterContentRequest is the payload for registering tracked content.
type RegisterContentRequest struct {
	CampaignID string `json:"campaign_id"`
	CreatorID  string `json:"creator_id"`
	Platform   string `json:"platform"`
	ContentURL string `json:"content_url"`
}

// RegisterContent starts tracking a piece of content for a campaign
// participant.
func (s *Service) RegisterContent(ctx context.Context, req RegisterContentRequest) (*ContentPerformance, error) {
	if req.CampaignID == "" || req.CreatorID == "" {
		return nil, errutil.ValidationFailed("campaign_id and creator_id are required")
	}
	if strings.TrimSpace(req.ContentURL) == "" {
		return nil, errutil.ValidationFailed("content_url is required")
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&campaign.Participant{}).
		Where("campaign_id = ? AND creator_id = ?", req.CampaignID, req.CreatorID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errutil.UnprocessableEntity("creator is not a participant of this campaign")
	}

	now := time.Now().UTC()
	content := &ContentPerformance{
		ContentID:  s.node.Generate().String(),
		CampaignID: req.CampaignID,
		CreatorID:  req.CreatorID,
		Platform:   req.Platform,
		ContentURL: req.ContentURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(content).Error; err != nil {
		return nil, err
	}
	return content, nil
}

// SyncResult describes one content sync outcome.
type SyncResult struct {
	ContentID     string  `json:"content_id"`
	CreatorID     string  `json:"creator_id"`
	PreviousViews int64   `json:"previous_views"`
	NewViews      int64   `json:"new_views"`
	ViewsDelta    int64   `json:"views_delta"`
	AmountEarned  float64 `json:"amount_earned"`
	IsViral       bool    `json:"is_viral"`
	BecameViral   bool    `json:"became_viral"`
}

// SyncContent refreshes one content row and credits any earned delta.
func (s *Service) SyncContent(ctx context.Context, contentID string) (*SyncResult, error) {
	var content ContentPerformance
	err := s.db.WithContext(ctx).Where("content_id = ?", contentID).First(&content).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("content not found")
	}
	if err != nil {
		return nil, err
	}
	return s.syncOne(ctx, &content)
}

// SyncCampaign refreshes every tracked content row of a campaign
// concurrently. Partial failures abort the batch.
func (s *Service) SyncCampaign(ctx context.Context, campaignID string) ([]SyncResult, error) {
	var contents []ContentPerformance
	err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Find(&contents).Error
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return []SyncResult{}, nil
	}

	results := make([]SyncResult, len(contents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)

	for i := range contents {
		g.Go(func() error {
			res, err := s.syncOne(gctx, &contents[i])
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// earningEligible reports whether a campaign status accrues CPV earnings.
func earningEligible(status campaign.Status) bool {
	switch status {
	case campaign.StatusActive, campaign.StatusOptimizing, campaign.StatusScaling:
		return true
	default:
		return false
	}
}

func (s *Service) syncOne(ctx context.Context, content *ContentPerformance) (*SyncResult, error) {
	newCount, err := s.source.FetchViewCount(ctx, content.Platform, content.ContentURL, content.ViewCount)
	if err != nil {
		return nil, fmt.Errorf("fetch view count: %w", err)
	}

	result := &SyncResult{
		ContentID: content.ContentID,
		CreatorID: content.CreatorID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current ContentPerformance
		if err := tx.Where("content_id = ?", content.ContentID).First(&current).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		result.PreviousViews = current.ViewCount
		result.NewViews = newCount
		result.IsViral = current.IsViral

		delta := newCount - current.ViewCount
		if delta <= 0 {
			return tx.Model(&ContentPerformance{}).
				Where("content_id = ?", current.ContentID).
				Updates(map[string]any{"last_synced_at": now, "updated_at": now}).Error
		}
		result.ViewsDelta = delta

		var camp campaign.Campaign
		if err := tx.Where("campaign_id = ?", current.CampaignID).First(&camp).Error; err != nil {
			return err
		}

		rate := camp.CPVRate
		var bonusRate float64
		var reward campaign.Reward
		err := tx.Where("campaign_id = ? AND is_active = ?", camp.CampaignID, true).
			First(&reward).Error
		if err == nil {
			if reward.RatePer1kViews > 0 {
				rate = reward.RatePer1kViews
			}
			bonusRate = reward.BonusRateViral
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		becameViral := !current.IsViral && camp.ViralThreshold > 0 && newCount >= camp.ViralThreshold
		if becameViral && bonusRate > 0 {
			rate = bonusRate
		}
		result.IsViral = current.IsViral || becameViral
		result.BecameViral = becameViral

		updates := map[string]any{
			"previous_view_count": current.ViewCount,
			"view_count":          newCount,
			"is_viral":            result.IsViral,
			"last_synced_at":      now,
			"updated_at":          now,
		}
		if err := tx.Model(&ContentPerformance{}).
			Where("content_id = ?", current.ContentID).
			Updates(updates).Error; err != nil {
			return err
		}

		if becameViral {
			log := &campaign.AILog{
				LogID:       s.node.Generate().String(),
				CampaignID:  camp.CampaignID,
				ActionTaken: "viral_spike_detected",
				Reason: fmt.Sprintf("content %s crossed %d views (%d total)",
					current.ContentID, camp.ViralThreshold, newCount),
				CreatedAt: now,
			}
			if err := tx.Create(log).Error; err != nil {
				return err
			}
		}

		if !camp.IsCPVCampaign || !earningEligible(camp.Status) || rate <= 0 {
			return nil
		}

		gross := float64(delta) / 1000 * rate
		amount := gross
		if amount > camp.RemainingBudget {
			amount = camp.RemainingBudget
		}
		if amount <= 0 {
			return nil
		}
		result.AmountEarned = amount

		entry := &EarningsHistory{
			EntryID:              s.node.Generate().String(),
			CampaignID:           camp.CampaignID,
			CreatorID:            current.CreatorID,
			ContentPerformanceID: current.ContentID,
			ViewsEarned:          delta,
			CPVRate:              rate,
			AmountEarned:         amount,
			CreatedAt:            now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		if err := s.creditWallet(tx, current.CreatorID, amount, now); err != nil {
			return err
		}

		// guard keeps remaining_budget from going negative under
		// concurrent syncs of the same campaign
		spend := tx.Model(&campaign.Campaign{}).
			Where("campaign_id = ? AND remaining_budget >= ?", camp.CampaignID, amount).
			Updates(map[string]any{
				"remaining_budget": gorm.Expr("remaining_budget - ?", amount),
				"updated_at":       now,
			})
		if spend.Error != nil {
			return spend.Error
		}
		if spend.RowsAffected == 0 {
			return errutil.Conflict("campaign budget exhausted during sync")
		}

		if camp.RemainingBudget-amount <= 0 {
			log := &campaign.AILog{
				LogID:       s.node.Generate().String(),
				CampaignID:  camp.CampaignID,
				ActionTaken: "budget_depleted",
				Reason:      "cpv spend reached the campaign budget",
				CreatedAt:   now,
			}
			if err := tx.Create(log).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AmountEarned > 0 {
		s.logger.Info("cpv earnings accrued",
			zap.String("content_id", result.ContentID),
			zap.String("creator_id", result.CreatorID),
			zap.Int64("views_delta", result.ViewsDelta),
			zap.Float64("amount", result.AmountEarned),
		)
	}
	return result, nil
}

// creditWallet adds the accrued amount to the creator wallet, creating the
// wallet row when the creator has never earned before.
func (s *Service) creditWallet(tx *gorm.DB, creatorID string, amount float64, now time.Time) error {
	res := tx.Model(&creator.Wallet{}).
		Where("creator_id = ?", creatorID).
		Updates(map[string]any{
			"pending_earnings": gorm.Expr("pending_earnings + ?", amount),
			"total_earned":     gorm.Expr("total_earned + ?", amount),
			"updated_at":       now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	wallet := &creator.Wallet{
		WalletID:           s.node.Generate().String(),
		CreatorID:          creatorID,
		PendingEarnings:    amount,
		TotalEarned:        amount,
		MinPayoutThreshold: s.defaultThreshold,
		PayoutStatus:       creator.PayoutStatusNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return tx.Create(wallet).Error
}

// ActiveCPVCampaignIDs lists campaigns the scheduler should sync.
func (s *Service) ActiveCPVCampaignIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&campaign.Campaign{}).
		Where("is_cpv_campaign = ? AND status IN ?", true,
			[]campaign.Status{campaign.StatusActive, campaign.StatusOptimizing, campaign.StatusScaling}).
		Pluck("campaign_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
