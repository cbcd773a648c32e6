package escrow

import (
	"time"
)

// Type classifies a ledger movement.
type Type string

const (
	TypeEscrow Type = "escrow"
	TypeBonus  Type = "bonus"
	TypePayout Type = "payout"
)

// Status tracks where an escrowed amount sits. Funding creates locked rows,
// participant completion flips them to pending, release pays them out.
type Status string

const (
	StatusLocked   Status = "locked"
	StatusPending  Status = "pending"
	StatusReleased Status = "released"
)

// Transaction is one row in the escrow ledger.
type Transaction struct {
	TransactionID    string     `gorm:"column:transaction_id;primaryKey" json:"transaction_id"`
	CreatorID        string     `gorm:"column:creator_id;index" json:"creator_id"`
	CampaignID       string     `gorm:"column:campaign_id;index" json:"campaign_id"`
	Amount           float64    `gorm:"column:amount" json:"amount"`
	Type             Type       `gorm:"column:type" json:"type"`
	Status           Status     `gorm:"column:status;index" json:"status"`
	ReferenceCode    string     `gorm:"column:reference_code;uniqueIndex" json:"reference_code"`
	StripeTransferID string     `gorm:"column:stripe_transfer_id" json:"stripe_transfer_id,omitempty"`
	ReleasedAt       *time.Time `gorm:"column:released_at" json:"released_at,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the table name for the Transaction model.
func (Transaction) TableName() string { return "transactions" }
