package campaign

import (
	"time"
)

// Status is the campaign lifecycle state.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusOptimizing Status = "optimizing"
	StatusScaling    Status = "scaling"
	StatusHalted     Status = "halted"
	StatusCompleted  Status = "completed"
)

// validTransitions enumerates allowed lifecycle moves. completed is terminal.
var validTransitions = map[Status][]Status{
	StatusDraft:      {StatusActive},
	StatusActive:     {StatusOptimizing, StatusScaling, StatusHalted, StatusCompleted},
	StatusOptimizing: {StatusActive, StatusScaling, StatusHalted, StatusCompleted},
	StatusScaling:    {StatusActive, StatusOptimizing, StatusHalted, StatusCompleted},
	StatusHalted:     {StatusActive, StatusCompleted},
	StatusCompleted:  {},
}

// CanTransition reports whether a campaign may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Campaign is an agency-owned influencer marketing campaign. CPV campaigns
// pay creators per thousand views at cpv_rate out of remaining_budget.
type Campaign struct {
	CampaignID      string    `gorm:"column:campaign_id;primaryKey" json:"campaign_id"`
	AgencyUserID    string    `gorm:"column:agency_user_id;index" json:"agency_user_id"`
	Name            string    `gorm:"column:name" json:"name"`
	Slug            string    `gorm:"column:slug;uniqueIndex" json:"slug"`
	VibeDescription string    `gorm:"column:vibe_description" json:"vibe_description"`
	Status          Status    `gorm:"column:status" json:"status"`
	TotalBudget     float64   `gorm:"column:total_budget" json:"total_budget"`
	RemainingBudget float64   `gorm:"column:remaining_budget" json:"remaining_budget"`
	LockedBudget    float64   `gorm:"column:locked_budget" json:"locked_budget"`
	IsCPVCampaign   bool      `gorm:"column:is_cpv_campaign" json:"is_cpv_campaign"`
	CPVRate         float64   `gorm:"column:cpv_rate" json:"cpv_rate"`
	ViralThreshold  int64     `gorm:"column:viral_threshold" json:"viral_threshold"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the table name for the Campaign model.
func (Campaign) TableName() string { return "campaigns" }

// Reward is the CPV reward configuration attached to a campaign.
type Reward struct {
	RewardID           string    `gorm:"column:reward_id;primaryKey" json:"reward_id"`
	CampaignID         string    `gorm:"column:campaign_id;index" json:"campaign_id"`
	RatePer1kViews     float64   `gorm:"column:rate_per_1k_views" json:"rate_per_1k_views"`
	BonusRateViral     float64   `gorm:"column:bonus_rate_viral" json:"bonus_rate_viral"`
	MinViewThreshold   int64     `gorm:"column:min_view_threshold" json:"min_view_threshold"`
	MinPayoutThreshold float64   `gorm:"column:min_payout_threshold" json:"min_payout_threshold"`
	BudgetCap          float64   `gorm:"column:budget_cap" json:"budget_cap"`
	IsActive           bool      `gorm:"column:is_active" json:"is_active"`
	CreatedAt          time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the table name for the Reward model.
func (Reward) TableName() string { return "campaign_rewards" }

// ParticipantStatus is the per-creator state inside a campaign.
type ParticipantStatus string

const (
	ParticipantPending   ParticipantStatus = "pending"
	ParticipantActive    ParticipantStatus = "active"
	ParticipantPaused    ParticipantStatus = "paused"
	ParticipantCompleted ParticipantStatus = "completed"
)

// Participant links a creator to a campaign.
type Participant struct {
	ParticipantID         string            `gorm:"column:participant_id;primaryKey" json:"participant_id"`
	CampaignID            string            `gorm:"column:campaign_id;index:idx_campaign_creator,unique" json:"campaign_id"`
	CreatorID             string            `gorm:"column:creator_id;index:idx_campaign_creator,unique" json:"creator_id"`
	Status                ParticipantStatus `gorm:"column:status" json:"status"`
	CurrentEngagementRate float64           `gorm:"column:current_engagement_rate" json:"current_engagement_rate"`
	RealTimeSalesLift     float64           `gorm:"column:real_time_sales_lift" json:"real_time_sales_lift"`
	EscrowAmount          float64           `gorm:"column:escrow_amount" json:"escrow_amount"`
	CreatedAt             time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt             time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the table name for the Participant model.
func (Participant) TableName() string { return "campaign_participants" }

// AILog is an append-only feed of automated decisions taken on a campaign.
type AILog struct {
	LogID       string    `gorm:"column:log_id;primaryKey" json:"log_id"`
	CampaignID  string    `gorm:"column:campaign_id;index" json:"campaign_id"`
	ActionTaken string    `gorm:"column:action_taken" json:"action_taken"`
	Reason      string    `gorm:"column:reason" json:"reason"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName sets the table name for the AILog model.
func (AILog) TableName() string { return "ai_logs" }
