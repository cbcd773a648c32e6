package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"influencer-connect/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service owns campaign lifecycle, rewards and participants.
type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	logger *zap.Logger
}

// ServiceParams defines dependencies for Service construction.
type ServiceParams struct {
	fx.In

	DB     *gorm.DB
	Node   *snowflake.Node
	Logger *zap.Logger
}

// NewService constructs a new Service instance.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: p.DB, node: p.Node, logger: logger}
}

// CreateRequest is the payload for creating a campaign.
type CreateRequest struct {
	Name            string  `json:"name"`
	VibeDescription string  `json:"vibe_description"`
	TotalBudget     float64 `json:"total_budget"`
	IsCPVCampaign   bool    `json:"is_cpv_campaign"`
	CPVRate         float64 `json:"cpv_rate"`
	ViralThreshold  int64   `json:"viral_threshold"`

	Reward *RewardRequest `json:"reward,omitempty"`
}

// RewardRequest configures the CPV reward attached at creation time.
type RewardRequest struct {
	RatePer1kViews     float64 `json:"rate_per_1k_views"`
	BonusRateViral     float64 `json:"bonus_rate_viral"`
	MinViewThreshold   int64   `json:"min_view_threshold"`
	MinPayoutThreshold float64 `json:"min_payout_threshold"`
	BudgetCap          float64 `json:"budget_cap"`
}

// Create stores a new draft campaign for the agency.
func (s *Service) Create(ctx context.Context, agencyUserID string, req CreateRequest) (*Campaign, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errutil.ValidationFailed("name is required")
	}
	if req.TotalBudget < 0 {
		return nil, errutil.ValidationFailed("total_budget must not be negative")
	}
	if req.IsCPVCampaign && req.CPVRate <= 0 {
		return nil, errutil.ValidationFailed("cpv_rate must be positive for cpv campaigns")
	}

	now := time.Now().UTC()
	c := &Campaign{
		CampaignID:      s.node.Generate().String(),
		AgencyUserID:    agencyUserID,
		Name:            req.Name,
		VibeDescription: req.VibeDescription,
		Status:          StatusDraft,
		TotalBudget:     req.TotalBudget,
		RemainingBudget: req.TotalBudget,
		IsCPVCampaign:   req.IsCPVCampaign,
		CPVRate:         req.CPVRate,
		ViralThreshold:  req.ViralThreshold,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if c.ViralThreshold == 0 {
		c.ViralThreshold = 100_000
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sl, err := s.uniqueSlug(tx, req.Name)
		if err != nil {
			return err
		}
		c.Slug = sl

		if err := tx.Create(c).Error; err != nil {
			return err
		}

		if req.Reward != nil {
			reward := &Reward{
				RewardID:           s.node.Generate().String(),
				CampaignID:         c.CampaignID,
				RatePer1kViews:     req.Reward.RatePer1kViews,
				BonusRateViral:     req.Reward.BonusRateViral,
				MinViewThreshold:   req.Reward.MinViewThreshold,
				MinPayoutThreshold: req.Reward.MinPayoutThreshold,
				BudgetCap:          req.Reward.BudgetCap,
				IsActive:           true,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := tx.Create(reward).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("campaign created",
		zap.String("campaign_id", c.CampaignID),
		zap.String("slug", c.Slug),
		zap.Bool("is_cpv", c.IsCPVCampaign),
	)
	return c, nil
}

// uniqueSlug derives a slug from the name, suffixing a counter on collision.
func (s *Service) uniqueSlug(tx *gorm.DB, name string) (string, error) {
	base := slug.Make(name)
	candidate := base
	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&Campaign{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// Get returns a campaign owned by the agency.
func (s *Service) Get(ctx context.Context, agencyUserID, campaignID string) (*Campaign, error) {
	var c Campaign
	err := s.db.WithContext(ctx).
		Where("campaign_id = ? AND agency_user_id = ?", campaignID, agencyUserID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("campaign not found")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns campaigns owned by the agency, newest first.
func (s *Service) List(ctx context.Context, agencyUserID string) ([]Campaign, error) {
	var campaigns []Campaign
	err := s.db.WithContext(ctx).
		Where("agency_user_id = ?", agencyUserID).
		Order("created_at DESC").
		Find(&campaigns).Error
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

// UpdateStatus moves a campaign through its lifecycle, recording the move in
// the AI log so the decision feed shows manual transitions too.
func (s *Service) UpdateStatus(ctx context.Context, agencyUserID, campaignID string, to Status, reason string) (*Campaign, error) {
	var c Campaign
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("campaign_id = ? AND agency_user_id = ?", campaignID, agencyUserID).
			First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errutil.NotFound("campaign not found")
		}
		if err != nil {
			return err
		}

		if !CanTransition(c.Status, to) {
			return errutil.UnprocessableEntity(
				fmt.Sprintf("cannot transition campaign from %s to %s", c.Status, to))
		}

		now := time.Now().UTC()
		if err := tx.Model(&Campaign{}).
			Where("campaign_id = ?", campaignID).
			Updates(map[string]any{"status": to, "updated_at": now}).Error; err != nil {
			return err
		}

		log := &AILog{
			LogID:       s.node.Generate().String(),
			CampaignID:  campaignID,
			ActionTaken: fmt.Sprintf("status_%s", to),
			Reason:      reason,
			CreatedAt:   now,
		}
		if err := tx.Create(log).Error; err != nil {
			return err
		}

		c.Status = to
		c.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AddParticipantRequest is the payload for inviting a creator.
type AddParticipantRequest struct {
	CreatorID    string  `json:"creator_id"`
	EscrowAmount float64 `json:"escrow_amount"`
}

// AddParticipant adds a creator to the campaign in pending state.
func (s *Service) AddParticipant(ctx context.Context, agencyUserID, campaignID string, req AddParticipantRequest) (*Participant, error) {
	if req.CreatorID == "" {
		return nil, errutil.ValidationFailed("creator_id is required")
	}

	if _, err := s.Get(ctx, agencyUserID, campaignID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Participant{
		ParticipantID: s.node.Generate().String(),
		CampaignID:    campaignID,
		CreatorID:     req.CreatorID,
		Status:        ParticipantPending,
		EscrowAmount:  req.EscrowAmount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&Participant{}).
			Where("campaign_id = ? AND creator_id = ?", campaignID, req.CreatorID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return errutil.Conflict("creator already participates in this campaign")
		}
		return tx.Create(p).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListLogs returns the automated decision feed for a campaign, newest first.
func (s *Service) ListLogs(ctx context.Context, agencyUserID, campaignID string) ([]AILog, error) {
	if _, err := s.Get(ctx, agencyUserID, campaignID); err != nil {
		return nil, err
	}

	var logs []AILog
	err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
