package performance

import (
	"time"
)

// ContentPerformance tracks one piece of campaign content on a platform.
// view_count is the last synced total; previous_view_count the total before
// the last sync, so the earned delta is always reconstructable.
type ContentPerformance struct {
	ContentID         string     `gorm:"column:content_id;primaryKey" json:"content_id"`
	CampaignID        string     `gorm:"column:campaign_id;index" json:"campaign_id"`
	CreatorID         string     `gorm:"column:creator_id;index" json:"creator_id"`
	Platform          string     `gorm:"column:platform" json:"platform"`
	ContentURL        string     `gorm:"column:content_url" json:"content_url"`
	ViewCount         int64      `gorm:"column:view_count" json:"view_count"`
	PreviousViewCount int64      `gorm:"column:previous_view_count" json:"previous_view_count"`
	IsViral           bool       `gorm:"column:is_viral" json:"is_viral"`
	LastSyncedAt      *time.Time `gorm:"column:last_synced_at" json:"last_synced_at,omitempty"`
	CreatedAt         time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the table name for the ContentPerformance model.
func (ContentPerformance) TableName() string { return "content_performance" }

// EarningsHistory is the append-only ledger of CPV accruals.
type EarningsHistory struct {
	EntryID              string    `gorm:"column:entry_id;primaryKey" json:"entry_id"`
	CampaignID           string    `gorm:"column:campaign_id;index" json:"campaign_id"`
	CreatorID            string    `gorm:"column:creator_id;index" json:"creator_id"`
	ContentPerformanceID string    `gorm:"column:content_performance_id;index" json:"content_performance_id"`
	ViewsEarned          int64     `gorm:"column:views_earned" json:"views_earned"`
	CPVRate              float64   `gorm:"column:cpv_rate" json:"cpv_rate"`
	AmountEarned         float64   `gorm:"column:amount_earned" json:"amount_earned"`
	CreatedAt            time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName sets the table name for the EarningsHistory model.
func (EarningsHistory) TableName() string { return "earnings_history" }
