package waitlist

import (
	"context"
	"errors"
	"strings"
	"time"

	"influencer-connect/pkg/errutil"
	"influencer-connect/pkg/resend"
	"influencer-connect/pkg/task"
	"influencer-connect/pkg/util"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Signup outcomes.
const (
	OutcomeNew           = "new"
	OutcomeAlreadyExists = "alreadyExists"
	OutcomeUpgraded      = "upgraded"
)

// Service manages pre-launch waitlist signups and referrals.
type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	enqueuer task.Enqueuer
	mailer   resend.Client
	logger   *zap.Logger
}

// ServiceParams defines dependencies for Service construction.
type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Enqueuer task.Enqueuer
	Mailer   resend.Client
	Logger   *zap.Logger
}

// NewService constructs a new Service instance.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:       p.DB,
		node:     p.Node,
		enqueuer: p.Enqueuer,
		mailer:   p.Mailer,
		logger:   logger,
	}
}

// SignupRequest is the public waitlist payload.
type SignupRequest struct {
	Email                 string `json:"email"`
	IsPriority            bool   `json:"isPriority"`
	ReferredBy            string `json:"referredBy"`
	StripeCustomerID      string `json:"stripeCustomerId"`
	StripePaymentIntentID string `json:"stripePaymentIntentId"`
}

// SignupResult reports the signup outcome.
type SignupResult struct {
	Status       string `json:"status"`
	Position     int64  `json:"position"`
	ReferralCode string `json:"referralCode"`
	IsPriority   bool   `json:"isPriority"`
}

// Signup registers an email, upgrades an existing free entry to priority, or
// reports a duplicate. Referral counts bump atomically.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errutil.ValidationFailed("a valid email is required")
	}

	var result SignupResult
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Entry
		err := tx.Where("email = ?", email).First(&existing).Error
		if err == nil {
			if req.IsPriority && !existing.IsPriority {
				updates := map[string]any{
					"is_priority": true,
					"updated_at":  now,
				}
				if req.StripeCustomerID != "" {
					updates["stripe_customer_id"] = req.StripeCustomerID
				}
				if req.StripePaymentIntentID != "" {
					updates["stripe_payment_intent_id"] = req.StripePaymentIntentID
				}
				if err := tx.Model(&Entry{}).
					Where("entry_id = ?", existing.EntryID).
					Updates(updates).Error; err != nil {
					return err
				}
				result = SignupResult{
					Status:       OutcomeUpgraded,
					Position:     existing.WaitlistPosition,
					ReferralCode: existing.ReferralCode,
					IsPriority:   true,
				}
				return nil
			}

			result = SignupResult{
				Status:       OutcomeAlreadyExists,
				Position:     existing.WaitlistPosition,
				ReferralCode: existing.ReferralCode,
				IsPriority:   existing.IsPriority,
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if req.ReferredBy != "" {
			res := tx.Model(&Entry{}).
				Where("referral_code = ?", strings.ToUpper(req.ReferredBy)).
				Updates(map[string]any{
					"referral_count": gorm.Expr("referral_count + 1"),
					"updated_at":     now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				s.logger.Warn("unknown referral code on signup",
					zap.String("referred_by", req.ReferredBy))
			}
		}

		var position int64
		if err := tx.Model(&Entry{}).Count(&position).Error; err != nil {
			return err
		}
		position++

		entry := &Entry{
			EntryID:               s.node.Generate().String(),
			Email:                 email,
			IsPriority:            req.IsPriority,
			ReferralCode:          util.GenerateReferralCode(),
			ReferredBy:            strings.ToUpper(req.ReferredBy),
			WaitlistPosition:      position,
			StripeCustomerID:      req.StripeCustomerID,
			StripePaymentIntentID: req.StripePaymentIntentID,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		result = SignupResult{
			Status:       OutcomeNew,
			Position:     position,
			ReferralCode: entry.ReferralCode,
			IsPriority:   entry.IsPriority,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.IsPriority && (result.Status == OutcomeNew || result.Status == OutcomeUpgraded) {
		s.enqueueWelcomeEmail(email)
	}

	s.logger.Info("waitlist signup",
		zap.String("status", result.Status),
		zap.Bool("priority", result.IsPriority),
		zap.Int64("position", result.Position),
	)
	return &result, nil
}

func (s *Service) enqueueWelcomeEmail(email string) {
	t, err := NewWelcomeEmailTask(email, "")
	if err != nil {
		s.logger.Error("failed to build welcome email task", zap.Error(err))
		return
	}
	if _, err := s.enqueuer.Enqueue(t); err != nil {
		s.logger.Error("failed to enqueue welcome email", zap.Error(err))
	}
}

// SendWelcomeEmail delivers the priority welcome email.
func (s *Service) SendWelcomeEmail(ctx context.Context, email, firstName string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return errutil.ValidationFailed("a valid email is required")
	}
	if !s.mailer.Enabled() {
		s.logger.Warn("welcome email skipped, mailer not configured",
			zap.String("email", email))
		return nil
	}

	greeting := "Hey there"
	if firstName != "" {
		greeting = "Hey " + firstName
	}

	_, err := s.mailer.Send(ctx, resend.Email{
		To:      []string{email},
		Subject: "You're on the Flux AI priority list",
		HTML: "<p>" + greeting + ",</p>" +
			"<p>Your priority spot is locked in. You'll be among the first to " +
			"launch AI-managed influencer campaigns when we open the doors.</p>" +
			"<p>Keep an eye on this inbox.</p>",
	})
	if err != nil {
		return errutil.BadGateway("failed to send welcome email", errutil.WithErr(err))
	}
	return nil
}
