package creator

import (
	"context"
	"errors"
	"strings"
	"time"

	"influencer-connect/pkg/config"
	"influencer-connect/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service owns creator profiles and their earnings wallets.
type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	logger *zap.Logger

	defaultThreshold float64
}

// ServiceParams defines dependencies for Service construction.
type ServiceParams struct {
	fx.In

	DB     *gorm.DB
	Node   *snowflake.Node
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
		logger:           logger,
		defaultThreshold: p.Config.Payout.DefaultMinThreshold,
	}
}

// RegisterRequest is the payload for creating a creator profile.
type RegisterRequest struct {
	UserID         string  `json:"user_id"`
	Name           string  `json:"name"`
	Handle         string  `json:"handle"`
	Niche          string  `json:"niche"`
	Platform       string  `json:"platform"`
	Followers      int64   `json:"followers"`
	EngagementRate float64 `json:"engagement_rate"`
	BaseRate       float64 `json:"base_rate"`
	AvatarURL      string  `json:"avatar_url"`
}

// Register creates a creator profile and its wallet in one transaction.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Creator, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errutil.ValidationFailed("name is required")
	}
	handle := strings.TrimPrefix(strings.TrimSpace(req.Handle), "@")
	if handle == "" {
		return nil, errutil.ValidationFailed("handle is required")
	}

	now := time.Now().UTC()
	c := &Creator{
		CreatorID:      s.node.Generate().String(),
		UserID:         req.UserID,
		Name:           req.Name,
		Handle:         handle,
		Niche:          req.Niche,
		Platform:       req.Platform,
		Followers:      req.Followers,
		EngagementRate: req.EngagementRate,
		BaseRate:       req.BaseRate,
		AvatarURL:      req.AvatarURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Creator
		err := tx.Where("handle = ?", handle).First(&existing).Error
		if err == nil {
			return errutil.Conflict("handle already taken")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(c).Error; err != nil {
			return err
		}

		wallet := &Wallet{
			WalletID:           s.node.Generate().String(),
			CreatorID:          c.CreatorID,
			MinPayoutThreshold: s.defaultThreshold,
			PayoutStatus:       PayoutStatusNone,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		return tx.Create(wallet).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("creator registered",
		zap.String("creator_id", c.CreatorID),
		zap.String("handle", c.Handle),
	)
	return c, nil
}

// Get returns a creator by id.
func (s *Service) Get(ctx context.Context, creatorID string) (*Creator, error) {
	var c Creator
	err := s.db.WithContext(ctx).Where("creator_id = ?", creatorID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("creator not found")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByUserID resolves the creator profile owned by an authenticated user.
func (s *Service) GetByUserID(ctx context.Context, userID string) (*Creator, error) {
	var c Creator
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("creator profile not found")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetWallet returns the wallet for a creator, creating one lazily for
// profiles that predate the wallet table.
func (s *Service) GetWallet(ctx context.Context, creatorID string) (*Wallet, error) {
	var w Wallet
	err := s.db.WithContext(ctx).Where("creator_id = ?", creatorID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := time.Now().UTC()
		w = Wallet{
			WalletID:           s.node.Generate().String(),
			CreatorID:          creatorID,
			MinPayoutThreshold: s.defaultThreshold,
			PayoutStatus:       PayoutStatusNone,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.db.WithContext(ctx).Create(&w).Error; err != nil {
			return nil, err
		}
		return &w, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
