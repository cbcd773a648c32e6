package payout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"influencer-connect/pkg/config"
	"influencer-connect/pkg/errutil"
	"influencer-connect/pkg/sequence"
	"influencer-connect/pkg/stripe"
	"influencer-connect/services/creator"
	"influencer-connect/services/escrow"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles creator payout claims and Stripe Connect onboarding.
type Service struct {
	db      *gorm.DB
	node    *snowflake.Node
	seq     sequence.Generator
	stripe  stripe.Client
	logger  *zap.Logger
	baseURL string
}

// ServiceParams defines dependencies for Service construction.
type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Sequence sequence.Generator
	Stripe   stripe.Client
	Config   *config.Config
	Logger   *zap.Logger
}

// NewService constructs a new Service instance.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:      p.DB,
		node:    p.Node,
		seq:     p.Sequence,
		stripe:  p.Stripe,
		logger:  logger,
		baseURL: p.Config.BaseURL,
	}
}

// ClaimResult reports the payout claim outcome.
type ClaimResult struct {
	PayoutID   string  `json:"payout_id"`
	Status     Status  `json:"status"`
	Amount     float64 `json:"amount"`
	TransferID string  `json:"transfer_id,omitempty"`
}

// Claim pays out the creator's pending earnings. The claim is rejected below
// the wallet threshold and while another claim is still in flight. The wallet
// resets only once the transfer is confirmed.
func (s *Service) Claim(ctx context.Context, creatorID string) (*ClaimResult, error) {
	var wallet creator.Wallet
	err := s.db.WithContext(ctx).Where("creator_id = ?", creatorID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("wallet not found")
	}
	if err != nil {
		return nil, err
	}

	amount := wallet.PendingEarnings
	if amount < wallet.MinPayoutThreshold {
		return nil, errutil.BadRequest(fmt.Sprintf(
			"pending earnings %.2f are below the payout threshold %.2f",
			amount, wallet.MinPayoutThreshold))
	}

	code, err := s.seq.NextPayoutCode(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("generate payout code: %w", err)
	}

	now := time.Now().UTC()
	req := &Request{
		PayoutID:       s.node.Generate().String(),
		CreatorID:      creatorID,
		Amount:         amount,
		Status:         StatusProcessing,
		ReferenceCode:  code,
		IdempotencyKey: uuid.NewString(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Atomic flip of the wallet's payout_status is the in-flight guard.
		// The wallet stays processing while a request is non-terminal, so
		// two concurrent claims cannot both pass.
		res := tx.Model(&creator.Wallet{}).
			Where("creator_id = ? AND payout_status <> ?", creatorID, creator.PayoutStatusProcessing).
			Updates(map[string]any{
				"payout_status": creator.PayoutStatusProcessing,
				"updated_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.Conflict("a payout request is already in flight")
		}

		return tx.Create(req).Error
	})
	if err != nil {
		return nil, err
	}

	if !s.stripe.Enabled() || wallet.StripeAccountID == "" {
		// no transfer path available, park the request for manual handling
		if err := s.markPending(ctx, req.PayoutID); err != nil {
			return nil, err
		}
		return &ClaimResult{PayoutID: req.PayoutID, Status: StatusPending, Amount: amount}, nil
	}

	transfer, err := s.stripe.CreateTransfer(ctx, stripe.TransferParams{
		AmountCents: int64(math.Round(amount * 100)),
		Destination: wallet.StripeAccountID,
		Description: fmt.Sprintf("Creator payout %s", code),
		Metadata: map[string]string{
			"creator_id":      creatorID,
			"payout_id":       req.PayoutID,
			"idempotency_key": req.IdempotencyKey,
		},
	})
	if err != nil {
		if markErr := s.markFailed(ctx, req.PayoutID, err); markErr != nil {
			s.logger.Error("failed to mark payout failed",
				zap.String("payout_id", req.PayoutID), zap.Error(markErr))
		}
		return nil, errutil.BadGateway("stripe transfer failed", errutil.WithErr(err))
	}

	if err := s.complete(ctx, req.PayoutID, creatorID, amount, transfer.ID); err != nil {
		return nil, err
	}

	s.logger.Info("payout completed",
		zap.String("payout_id", req.PayoutID),
		zap.String("creator_id", creatorID),
		zap.Float64("amount", amount),
		zap.String("transfer_id", transfer.ID),
	)
	return &ClaimResult{
		PayoutID:   req.PayoutID,
		Status:     StatusCompleted,
		Amount:     amount,
		TransferID: transfer.ID,
	}, nil
}

func (s *Service) markPending(ctx context.Context, payoutID string) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&Request{}).
		Where("payout_id = ?", payoutID).
		Updates(map[string]any{"status": StatusPending, "updated_at": now}).Error
}

func (s *Service) markFailed(ctx context.Context, payoutID string, cause error) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req Request
		if err := tx.Where("payout_id = ?", payoutID).First(&req).Error; err != nil {
			return err
		}
		if err := tx.Model(&Request{}).
			Where("payout_id = ?", payoutID).
			Updates(map[string]any{
				"status":        StatusFailed,
				"error_message": cause.Error(),
				"updated_at":    now,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&creator.Wallet{}).
			Where("creator_id = ?", req.CreatorID).
			Updates(map[string]any{
				"payout_status": creator.PayoutStatusNone,
				"updated_at":    now,
			}).Error
	})
}

// complete finalizes a confirmed transfer and resets the wallet.
func (s *Service) complete(ctx context.Context, payoutID, creatorID string, amount float64, transferID string) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Request{}).
			Where("payout_id = ?", payoutID).
			Updates(map[string]any{
				"status":             StatusCompleted,
				"stripe_transfer_id": transferID,
				"processed_at":       now,
				"updated_at":         now,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&creator.Wallet{}).
			Where("creator_id = ?", creatorID).
			Updates(map[string]any{
				"pending_earnings": 0,
				"total_withdrawn":  gorm.Expr("total_withdrawn + ?", amount),
				"payout_status":    creator.PayoutStatusPaid,
				"last_payout_at":   now,
				"updated_at":       now,
			}).Error
	})
}

// List returns the creator's payout requests, newest first.
func (s *Service) List(ctx context.Context, creatorID string) ([]Request, error) {
	var requests []Request
	err := s.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// ConnectAccountRequest starts Stripe Express onboarding for a creator.
type ConnectAccountRequest struct {
	CreatorID    string `json:"creatorId"`
	CreatorEmail string `json:"creatorEmail"`
	CreatorName  string `json:"creatorName"`
}

// ConnectAccountResult carries the account and its onboarding link.
type ConnectAccountResult struct {
	AccountID     string `json:"accountId"`
	OnboardingURL string `json:"onboardingUrl"`
}

// ConnectAccount creates (or reuses) the creator's Stripe Express account and
// returns a fresh onboarding link.
func (s *Service) ConnectAccount(ctx context.Context, req ConnectAccountRequest) (*ConnectAccountResult, error) {
	if req.CreatorID == "" {
		return nil, errutil.ValidationFailed("creatorId is required")
	}
	if !s.stripe.Enabled() {
		return nil, errutil.NotImplemented("stripe is not configured")
	}

	var wallet creator.Wallet
	err := s.db.WithContext(ctx).Where("creator_id = ?", req.CreatorID).First(&wallet).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	accountID := wallet.StripeAccountID
	if accountID == "" {
		account, err := s.stripe.CreateAccount(ctx, stripe.CreateAccountParams{
			Email:    req.CreatorEmail,
			Name:     req.CreatorName,
			Metadata: map[string]string{"creator_id": req.CreatorID},
		})
		if err != nil {
			return nil, errutil.BadGateway("failed to create stripe account", errutil.WithErr(err))
		}
		accountID = account.ID

		now := time.Now().UTC()
		err = s.db.WithContext(ctx).Model(&creator.Wallet{}).
			Where("creator_id = ?", req.CreatorID).
			Updates(map[string]any{"stripe_account_id": accountID, "updated_at": now}).Error
		if err != nil {
			return nil, err
		}
	}

	link, err := s.stripe.CreateAccountLink(ctx, accountID,
		s.baseURL+"/connect/refresh", s.baseURL+"/connect/return")
	if err != nil {
		return nil, errutil.BadGateway("failed to create onboarding link", errutil.WithErr(err))
	}

	return &ConnectAccountResult{AccountID: accountID, OnboardingURL: link.URL}, nil
}

// ConnectedAccount is one row of the agency-facing payout overview.
type ConnectedAccount struct {
	CreatorID       string  `json:"creator_id"`
	CreatorName     string  `json:"creator_name"`
	Handle          string  `json:"handle"`
	StripeAccountID string  `json:"stripe_account_id,omitempty"`
	PayoutsEnabled  bool    `json:"payouts_enabled"`
	PendingEscrow   float64 `json:"pending_escrow"`
	PendingEarnings float64 `json:"pending_earnings"`
	TotalWithdrawn  float64 `json:"total_withdrawn"`
}

// ListConnectedAccounts joins creators with their wallets, escrow balances
// and Stripe account state.
func (s *Service) ListConnectedAccounts(ctx context.Context) ([]ConnectedAccount, error) {
	var rows []ConnectedAccount
	err := s.db.WithContext(ctx).Model(&creator.Creator{}).
		Select(`creators.creator_id,
			creators.name AS creator_name,
			creators.handle,
			creator_wallets.stripe_account_id,
			creator_wallets.pending_earnings,
			creator_wallets.total_withdrawn`).
		Joins("LEFT JOIN creator_wallets ON creator_wallets.creator_id = creators.creator_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	payoutsEnabled := map[string]bool{}
	if s.stripe.Enabled() {
		accounts, err := s.stripe.ListAccounts(ctx, 100)
		if err != nil {
			s.logger.Warn("failed to list stripe accounts", zap.Error(err))
		}
		for _, account := range accounts {
			payoutsEnabled[account.ID] = account.PayoutsEnabled
		}
	}

	for i := range rows {
		var pending float64
		err := s.db.WithContext(ctx).Model(&escrow.Transaction{}).
			Where("creator_id = ? AND status = ?", rows[i].CreatorID, escrow.StatusPending).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&pending).Error
		if err != nil {
			return nil, err
		}
		rows[i].PendingEscrow = pending
		rows[i].PayoutsEnabled = payoutsEnabled[rows[i].StripeAccountID]
	}
	return rows, nil
}
