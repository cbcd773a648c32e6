package escrow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"influencer-connect/pkg/errutil"
	"influencer-connect/pkg/sequence"
	"influencer-connect/pkg/stripe"
	"influencer-connect/services/campaign"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service manages the escrow ledger: funding locks budget per creator,
// completion moves it to pending, release pays it out.
type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	seq    sequence.Generator
	stripe stripe.Client
	logger *zap.Logger
}

// ServiceParams defines dependencies for Service construction.
type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Sequence sequence.Generator
	Stripe   stripe.Client
	Logger   *zap.Logger
}

// NewService constructs a new Service instance.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:     p.DB,
		node:   p.Node,
		seq:    p.Sequence,
		stripe: p.Stripe,
		logger: logger,
	}
}

// VerifyRequest funds escrow for campaign participants.
type VerifyRequest struct {
	CampaignID string  `json:"campaignId"`
	CreatorID  string  `json:"creatorId"`
	Amount     float64 `json:"amount"`
}

// VerifyResult reports the funding outcome.
type VerifyResult struct {
	Success          bool    `json:"success"`
	TransactionCount int     `json:"transactionCount"`
	AmountPerCreator float64 `json:"amountPerCreator"`
	AmountFunded     float64 `json:"amountFunded"`
}

// Verify locks escrow for every active or pending participant, splitting the
// amount evenly. The funded amount is capped to the remaining budget.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	if req.CampaignID == "" {
		return nil, errutil.ValidationFailed("campaignId is required")
	}
	if req.Amount <= 0 {
		return nil, errutil.ValidationFailed("amount must be positive")
	}

	var camp campaign.Campaign
	err := s.db.WithContext(ctx).Where("campaign_id = ?", req.CampaignID).First(&camp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("campaign not found")
	}
	if err != nil {
		return nil, err
	}

	creatorIDs, err := s.recipients(ctx, req)
	if err != nil {
		return nil, err
	}

	fund := req.Amount
	if fund > camp.RemainingBudget {
		fund = camp.RemainingBudget
	}
	if fund <= 0 {
		return nil, errutil.UnprocessableEntity("campaign has no remaining budget")
	}

	// Round the per-creator share down so the total never exceeds the
	// remaining budget. The sub-cent residual stays in remaining_budget.
	perCreator := math.Floor(fund/float64(len(creatorIDs))*100) / 100
	if perCreator <= 0 {
		return nil, errutil.UnprocessableEntity("amount is too small to split among participants")
	}
	fund = roundCents(perCreator * float64(len(creatorIDs)))

	codes := make([]string, len(creatorIDs))
	for i, creatorID := range creatorIDs {
		code, err := s.seq.NextEscrowCode(ctx, req.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("generate escrow code for %s: %w", creatorID, err)
		}
		codes[i] = code
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, creatorID := range creatorIDs {
			row := &Transaction{
				TransactionID: s.node.Generate().String(),
				CreatorID:     creatorID,
				CampaignID:    req.CampaignID,
				Amount:        perCreator,
				Type:          TypeEscrow,
				Status:        StatusLocked,
				ReferenceCode: codes[i],
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}

			if err := tx.Model(&campaign.Participant{}).
				Where("campaign_id = ? AND creator_id = ?", req.CampaignID, creatorID).
				Updates(map[string]any{
					"escrow_amount": gorm.Expr("escrow_amount + ?", perCreator),
					"updated_at":    now,
				}).Error; err != nil {
				return err
			}
		}

		res := tx.Model(&campaign.Campaign{}).
			Where("campaign_id = ? AND remaining_budget >= ?", req.CampaignID, fund).
			Updates(map[string]any{
				"remaining_budget": gorm.Expr("remaining_budget - ?", fund),
				"locked_budget":    gorm.Expr("locked_budget + ?", fund),
				"updated_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.Conflict("remaining budget changed during funding")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("escrow funded",
		zap.String("campaign_id", req.CampaignID),
		zap.Int("creators", len(creatorIDs)),
		zap.Float64("amount", fund),
	)
	return &VerifyResult{
		Success:          true,
		TransactionCount: len(creatorIDs),
		AmountPerCreator: perCreator,
		AmountFunded:     fund,
	}, nil
}

// recipients resolves who the funding targets.
func (s *Service) recipients(ctx context.Context, req VerifyRequest) ([]string, error) {
	if req.CreatorID != "" {
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
		return []string{req.CreatorID}, nil
	}

	var ids []string
	err := s.db.WithContext(ctx).Model(&campaign.Participant{}).
		Where("campaign_id = ? AND status IN ?", req.CampaignID,
			[]campaign.ParticipantStatus{campaign.ParticipantActive, campaign.ParticipantPending}).
		Order("created_at ASC").
		Pluck("creator_id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errutil.UnprocessableEntity("campaign has no participants to fund")
	}
	return ids, nil
}

// SettleRequest marks a participant's work as done.
type SettleRequest struct {
	CampaignID string `json:"campaignId"`
	CreatorID  string `json:"creatorId"`
}

// Settle flips the creator's locked escrow to pending and completes the
// participant, making the amount releasable.
func (s *Service) Settle(ctx context.Context, req SettleRequest) (int64, error) {
	if req.CampaignID == "" || req.CreatorID == "" {
		return 0, errutil.ValidationFailed("campaignId and creatorId are required")
	}

	var flipped int64
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Transaction{}).
			Where("campaign_id = ? AND creator_id = ? AND status = ?",
				req.CampaignID, req.CreatorID, StatusLocked).
			Updates(map[string]any{"status": StatusPending, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		flipped = res.RowsAffected
		if flipped == 0 {
			return errutil.NotFound("no locked escrow for this creator and campaign")
		}

		return tx.Model(&campaign.Participant{}).
			Where("campaign_id = ? AND creator_id = ?", req.CampaignID, req.CreatorID).
			Updates(map[string]any{"status": campaign.ParticipantCompleted, "updated_at": now}).Error
	})
	if err != nil {
		return 0, err
	}
	return flipped, nil
}

// ReleaseRequest pays out a creator's pending escrow.
type ReleaseRequest struct {
	CreatorID       string  `json:"creatorId"`
	CampaignID      string  `json:"campaignId"`
	StripeAccountID string  `json:"stripeAccountId"`
	Amount          float64 `json:"amount"`
}

// ReleaseResult reports the payout outcome.
type ReleaseResult struct {
	Success    bool    `json:"success"`
	TransferID string  `json:"transferId,omitempty"`
	Amount     float64 `json:"amount"`
}

// Release transfers the pending escrow to the creator's connected account and
// flips the covered rows to released. The update is scoped to the creator and
// the campaign so other campaigns' pending escrow stays untouched. A partial
// amount releases the oldest rows first and splits the last covered row, so
// whatever was not transferred stays pending and releasable.
func (s *Service) Release(ctx context.Context, req ReleaseRequest) (*ReleaseResult, error) {
	if req.CreatorID == "" || req.CampaignID == "" {
		return nil, errutil.ValidationFailed("creatorId and campaignId are required")
	}

	var rows []Transaction
	err := s.db.WithContext(ctx).
		Where("creator_id = ? AND campaign_id = ? AND status = ?",
			req.CreatorID, req.CampaignID, StatusPending).
		Order("created_at ASC, transaction_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	var pending float64
	for _, row := range rows {
		pending += row.Amount
	}
	pending = roundCents(pending)
	if pending <= 0 {
		return nil, errutil.UnprocessableEntity("no pending escrow to release")
	}

	amount := pending
	if req.Amount > 0 {
		if req.Amount > pending+0.005 {
			return nil, errutil.UnprocessableEntity("amount exceeds pending escrow")
		}
		amount = roundCents(req.Amount)
	}

	// Oldest rows first. A row only partially covered by the amount gets
	// split so the remainder stays pending.
	var fullIDs []string
	var splitRow *Transaction
	var splitAmount float64
	left := amount
	for i := range rows {
		if left < 0.005 {
			break
		}
		if rows[i].Amount <= left+0.005 {
			fullIDs = append(fullIDs, rows[i].TransactionID)
			left = roundCents(left - rows[i].Amount)
			continue
		}
		splitRow = &rows[i]
		splitAmount = left
		left = 0
	}

	var splitCode string
	if splitRow != nil {
		splitCode, err = s.seq.NextEscrowCode(ctx, req.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("generate escrow code for split release: %w", err)
		}
	}

	var transferID string
	if s.stripe.Enabled() {
		if req.StripeAccountID == "" {
			return nil, errutil.ValidationFailed("stripeAccountId is required")
		}
		account, err := s.stripe.RetrieveAccount(ctx, req.StripeAccountID)
		if err != nil {
			return nil, errutil.BadGateway("failed to verify stripe account", errutil.WithErr(err))
		}
		if !account.PayoutsEnabled {
			return nil, errutil.UnprocessableEntity("stripe account cannot receive payouts yet")
		}

		transfer, err := s.stripe.CreateTransfer(ctx, stripe.TransferParams{
			AmountCents: int64(math.Round(amount * 100)),
			Destination: req.StripeAccountID,
			Description: fmt.Sprintf("Escrow release for campaign %s", req.CampaignID),
			Metadata: map[string]string{
				"creator_id":  req.CreatorID,
				"campaign_id": req.CampaignID,
			},
		})
		if err != nil {
			return nil, errutil.BadGateway("stripe transfer failed", errutil.WithErr(err))
		}
		transferID = transfer.ID
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fullIDs) > 0 {
			res := tx.Model(&Transaction{}).
				Where("transaction_id IN ? AND status = ?", fullIDs, StatusPending).
				Updates(map[string]any{
					"status":             StatusReleased,
					"stripe_transfer_id": transferID,
					"released_at":        now,
					"updated_at":         now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != int64(len(fullIDs)) {
				return errutil.Conflict("pending escrow changed during release")
			}
		}

		if splitRow != nil {
			remainder := roundCents(splitRow.Amount - splitAmount)
			res := tx.Model(&Transaction{}).
				Where("transaction_id = ? AND status = ? AND amount = ?",
					splitRow.TransactionID, StatusPending, splitRow.Amount).
				Updates(map[string]any{"amount": remainder, "updated_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errutil.Conflict("pending escrow changed during release")
			}

			if err := tx.Create(&Transaction{
				TransactionID:    s.node.Generate().String(),
				CreatorID:        req.CreatorID,
				CampaignID:       req.CampaignID,
				Amount:           splitAmount,
				Type:             splitRow.Type,
				Status:           StatusReleased,
				ReferenceCode:    splitCode,
				StripeTransferID: transferID,
				ReleasedAt:       &now,
				CreatedAt:        now,
				UpdatedAt:        now,
			}).Error; err != nil {
				return err
			}
		}

		var camp campaign.Campaign
		if err := tx.Where("campaign_id = ?", req.CampaignID).First(&camp).Error; err != nil {
			return err
		}
		locked := roundCents(camp.LockedBudget - amount)
		if locked < 0 {
			locked = 0
		}
		return tx.Model(&campaign.Campaign{}).
			Where("campaign_id = ?", req.CampaignID).
			Updates(map[string]any{"locked_budget": locked, "updated_at": now}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("escrow released",
		zap.String("creator_id", req.CreatorID),
		zap.String("campaign_id", req.CampaignID),
		zap.Float64("amount", amount),
		zap.String("transfer_id", transferID),
	)
	return &ReleaseResult{Success: true, TransferID: transferID, Amount: amount}, nil
}

// roundCents keeps money at two decimal places.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
