package tracking

import (
	"time"

	"gorm.io/datatypes"
)

// EventType classifies a tracking event.
type EventType string

const (
	EventClick      EventType = "click"
	EventConversion EventType = "conversion"
	EventRefund     EventType = "refund"
)

// Valid reports whether the event type is one we accept on the wire.
func (e EventType) Valid() bool {
	switch e {
	case EventClick, EventConversion, EventRefund:
		return true
	}
	return false
}

// Code is a creator's shareable discount code for one campaign. Aggregates
// are updated in the same transaction as the event insert.
type Code struct {
	CodeID           string    `gorm:"column:code_id;primaryKey" json:"code_id"`
	CampaignID       string    `gorm:"column:campaign_id;index:idx_tracking_pair,unique" json:"campaign_id"`
	CreatorID        string    `gorm:"column:creator_id;index:idx_tracking_pair,unique" json:"creator_id"`
	Code             string    `gorm:"column:code;uniqueIndex" json:"code"`
	DiscountPercent  float64   `gorm:"column:discount_percent" json:"discount_percent"`
	TrackingURL      string    `gorm:"column:tracking_url" json:"tracking_url"`
	IsActive         bool      `gorm:"column:is_active" json:"is_active"`
	Clicks           int64     `gorm:"column:clicks" json:"clicks"`
	Conversions      int64     `gorm:"column:conversions" json:"conversions"`
	RevenueGenerated float64   `gorm:"column:revenue_generated" json:"revenue_generated"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the table name for the Code model.
func (Code) TableName() string { return "tracking_codes" }

// Event is one raw click, conversion or refund against a code.
type Event struct {
	EventID        string         `gorm:"column:event_id;primaryKey" json:"event_id"`
	TrackingCodeID string         `gorm:"column:tracking_code_id;index" json:"tracking_code_id"`
	EventType      EventType      `gorm:"column:event_type" json:"event_type"`
	Amount         float64        `gorm:"column:amount" json:"amount"`
	Metadata       datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	IPAddress      string         `gorm:"column:ip_address" json:"ip_address,omitempty"`
	UserAgent      string         `gorm:"column:user_agent" json:"user_agent,omitempty"`
	Channel        string         `gorm:"column:channel" json:"channel"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
}

// TableName sets the table name for the Event model.
func (Event) TableName() string { return "tracking_events" }

// SalesEvent is the attributed sale recorded for a conversion.
type SalesEvent struct {
	SaleID           string    `gorm:"column:sale_id;primaryKey" json:"sale_id"`
	TrackingCodeID   string    `gorm:"column:tracking_code_id;index" json:"tracking_code_id"`
	CampaignID       string    `gorm:"column:campaign_id;index" json:"campaign_id"`
	CreatorID        string    `gorm:"column:creator_id;index" json:"creator_id"`
	OrderID          string    `gorm:"column:order_id" json:"order_id,omitempty"`
	ProductName      string    `gorm:"column:product_name" json:"product_name,omitempty"`
	SaleAmount       float64   `gorm:"column:sale_amount" json:"sale_amount"`
	CommissionAmount float64   `gorm:"column:commission_amount" json:"commission_amount"`
	CustomerEmail    string    `gorm:"column:customer_email" json:"customer_email,omitempty"`
	ReferenceCode    string    `gorm:"column:reference_code;uniqueIndex" json:"reference_code"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName sets the table name for the SalesEvent model.
func (SalesEvent) TableName() string { return "sales_events" }
