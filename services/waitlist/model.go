package waitlist

import (
	"time"
)

// Entry is one waitlist signup. Priority entries paid the reservation fee
// and skip ahead at launch.
type Entry struct {
	EntryID               string    `gorm:"column:entry_id;primaryKey" json:"entry_id"`
	Email                 string    `gorm:"column:email;uniqueIndex" json:"email"`
	IsPriority            bool      `gorm:"column:is_priority" json:"is_priority"`
	ReferralCode          string    `gorm:"column:referral_code;uniqueIndex" json:"referral_code"`
	ReferralCount         int64     `gorm:"column:referral_count" json:"referral_count"`
	ReferredBy            string    `gorm:"column:referred_by" json:"referred_by,omitempty"`
	WaitlistPosition      int64     `gorm:"column:waitlist_position" json:"waitlist_position"`
	StripeCustomerID      string    `gorm:"column:stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripePaymentIntentID string    `gorm:"column:stripe_payment_intent_id" json:"stripe_payment_intent_id,omitempty"`
	CreatedAt             time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt             time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the table name for the Entry model.
func (Entry) TableName() string { return "waitlist" }
