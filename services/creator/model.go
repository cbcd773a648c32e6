package creator

import (
	"time"

	"gorm.io/datatypes"
)

// Creator is a content creator profile available for campaign matching.
type Creator struct {
	CreatorID      string         `gorm:"column:creator_id;primaryKey" json:"creator_id"`
	UserID         string         `gorm:"column:user_id;index" json:"user_id"`
	Name           string         `gorm:"column:name" json:"name"`
	Handle         string         `gorm:"column:handle;uniqueIndex" json:"handle"`
	Niche          string         `gorm:"column:niche" json:"niche"`
	Platform       string         `gorm:"column:platform" json:"platform"`
	Followers      int64          `gorm:"column:followers" json:"followers"`
	EngagementRate float64        `gorm:"column:engagement_rate" json:"engagement_rate"`
	BaseRate       float64        `gorm:"column:base_rate" json:"base_rate"`
	AestheticScore float64        `gorm:"column:aesthetic_score" json:"aesthetic_score"`
	AvatarURL      string         `gorm:"column:avatar_url" json:"avatar_url"`
	Categories     datatypes.JSON `gorm:"column:categories" json:"categories,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the table name for the Creator model.
func (Creator) TableName() string { return "creators" }

// PayoutStatus tracks where a wallet sits in the payout flow.
type PayoutStatus string

const (
	PayoutStatusNone       PayoutStatus = "none"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusPaid       PayoutStatus = "paid"
)

// Wallet accumulates CPV earnings for a creator. pending_earnings is the
// claimable balance; it resets to zero when a payout completes.
type Wallet struct {
	WalletID           string       `gorm:"column:wallet_id;primaryKey" json:"wallet_id"`
	CreatorID          string       `gorm:"column:creator_id;uniqueIndex" json:"creator_id"`
	PendingEarnings    float64      `gorm:"column:pending_earnings" json:"pending_earnings"`
	TotalEarned        float64      `gorm:"column:total_earned" json:"total_earned"`
	TotalWithdrawn     float64      `gorm:"column:total_withdrawn" json:"total_withdrawn"`
	MinPayoutThreshold float64      `gorm:"column:min_payout_threshold" json:"min_payout_threshold"`
	PayoutStatus       PayoutStatus `gorm:"column:payout_status" json:"payout_status"`
	StripeAccountID    string       `gorm:"column:stripe_account_id" json:"stripe_account_id,omitempty"`
	LastPayoutAt       *time.Time   `gorm:"column:last_payout_at" json:"last_payout_at,omitempty"`
	CreatedAt          time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the table name for the Wallet model.
func (Wallet) TableName() string { return "creator_wallets" }
