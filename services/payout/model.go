package payout

import (
	"time"
)

// Status tracks a payout request through its lifecycle. processing means a
// transfer is in flight, pending means it awaits manual handling.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusPending    Status = "pending"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Request is one creator payout claim.
type Request struct {
	PayoutID         string     `gorm:"column:payout_id;primaryKey" json:"payout_id"`
	CreatorID        string     `gorm:"column:creator_id;index" json:"creator_id"`
	Amount           float64    `gorm:"column:amount" json:"amount"`
	Status           Status     `gorm:"column:status;index" json:"status"`
	ReferenceCode    string     `gorm:"column:reference_code;uniqueIndex" json:"reference_code"`
	IdempotencyKey   string     `gorm:"column:idempotency_key;uniqueIndex" json:"idempotency_key"`
	StripeTransferID string     `gorm:"column:stripe_transfer_id" json:"stripe_transfer_id,omitempty"`
	ErrorMessage     string     `gorm:"column:error_message" json:"error_message,omitempty"`
	ProcessedAt      *time.Time `gorm:"column:processed_at" json:"processed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the table name for the Request model.
func (Request) TableName() string { return "payout_requests" }
