package performance

import (
	"context"
	"testing"
	"time"

	"influencer-connect/pkg/config"
	"influencer-connect/services/campaign"
	"influencer-connect/services/creator"
	"influencer-connect/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubSource returns a fixed next view count per content url.
type stubSource struct {
	counts map[string]int64
}

func (s stubSource) FetchViewCount(_ context.Context, _ string, url string, _ int64) (int64, error) {
	return s.counts[url], nil
}

func newTestService(t *testing.T, source ViewSource) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t,
		&ContentPerformance{}, &EarningsHistory{},
		&campaign.Campaign{}, &campaign.Reward{}, &campaign.Participant{}, &campaign.AILog{},
		&creator.Wallet{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Payout.DefaultMinThreshold = 50

	svc := NewService(ServiceParams{DB: db, Node: node, Source: source, Config: cfg})
	return svc, db
}

func seedCampaign(t *testing.T, db *gorm.DB, c *campaign.Campaign) {
	t.Helper()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	require.NoError(t, db.Create(c).Error)
}

func seedContent(t *testing.T, db *gorm.DB, content *ContentPerformance) {
	t.Helper()
	now := time.Now().UTC()
	content.CreatedAt = now
	content.UpdatedAt = now
	require.NoError(t, db.Create(content).Error)
}

func TestSyncAccruesCPVEarnings(t *testing.T) {
	source := stubSource{counts: map[string]int64{"https://tiktok.com/v/1": 50_000}}
	svc, db := newTestService(t, source)

	seedCampaign(t, db, &campaign.Campaign{
		CampaignID:      "camp-1",
		Status:          campaign.StatusActive,
		TotalBudget:     5000,
		RemainingBudget: 5000,
		IsCPVCampaign:   true,
		CPVRate:         5,
		ViralThreshold:  1_000_000,
	})
	seedContent(t, db, &ContentPerformance{
		ContentID:  "content-1",
		CampaignID: "camp-1",
		CreatorID:  "creator-1",
		ContentURL: "https://tiktok.com/v/1",
		ViewCount:  10_000,
	})

	result, err := svc.SyncContent(context.Background(), "content-1")
	require.NoError(t, err)
	require.EqualValues(t, 40_000, result.ViewsDelta)
	require.Equal(t, float64(200), result.AmountEarned)

	var wallet creator.Wallet
	require.NoError(t, db.Where("creator_id = ?", "creator-1").First(&wallet).Error)
	require.Equal(t, float64(200), wallet.PendingEarnings)
	require.Equal(t, float64(200), wallet.TotalEarned)

	var camp campaign.Campaign
	require.NoError(t, db.Where("campaign_id = ?", "camp-1").First(&camp).Error)
	require.Equal(t, float64(4800), camp.RemainingBudget)

	var entry EarningsHistory
	require.NoError(t, db.Where("content_performance_id = ?", "content-1").First(&entry).Error)
	require.EqualValues(t, 40_000, entry.ViewsEarned)
	require.Equal(t, float64(5), entry.CPVRate)

	var synced ContentPerformance
	require.NoError(t, db.Where("content_id = ?", "content-1").First(&synced).Error)
	require.EqualValues(t, 10_000, synced.PreviousViewCount)
	require.EqualValues(t, 50_000, synced.ViewCount)
}

func TestSyncClampsToRemainingBudget(t *testing.T) {
	source := stubSource{counts: map[string]int64{"url": 50_000}}
	svc, db := newTestService(t, source)

	seedCampaign(t, db, &campaign.Campaign{
		CampaignID:      "camp-1",
		Status:          campaign.StatusActive,
		TotalBudget:     5000,
		RemainingBudget: 100,
		IsCPVCampaign:   true,
		CPVRate:         5,
		ViralThreshold:  1_000_000,
	})
	seedContent(t, db, &ContentPerformance{
		ContentID:  "content-1",
		CampaignID: "camp-1",
		CreatorID:  "creator-1",
		ContentURL: "url",
		ViewCount:  10_000,
	})

	result, err := svc.SyncContent(context.Background(), "content-1")
	require.NoError(t, err)
	require.Equal(t, float64(100), result.AmountEarned)

	var camp campaign.Campaign
	require.NoError(t, db.Where("campaign_id = ?", "camp-1").First(&camp).Error)
	require.Zero(t, camp.RemainingBudget)

	// depleted budget accrues nothing on the next sync
	source.counts["url"] = 80_000
	result, err = svc.SyncContent(context.Background(), "content-1")
	require.NoError(t, err)
	require.Zero(t, result.AmountEarned)

	require.NoError(t, db.Where("campaign_id = ?", "camp-1").First(&camp).Error)
	require.Zero(t, camp.RemainingBudget)
}

func TestSyncFlagsViralAndLogs(t *testing.T) {
	source := stubSource{counts: map[string]int64{"url": 150_000}}
	svc, db := newTestService(t, source)

	seedCampaign(t, db, &campaign.Campaign{
		CampaignID:      "camp-1",
		Status:          campaign.StatusActive,
		TotalBudget:     100_000,
		RemainingBudget: 100_000,
		IsCPVCampaign:   true,
		CPVRate:         5,
		ViralThreshold:  100_000,
	})
	require.NoError(t, db.Create(&campaign.Reward{
		RewardID:       "reward-1",
		CampaignID:     "camp-1",
		RatePer1kViews: 5,
		BonusRateViral: 10,
		IsActive:       true,
	}).Error)
	seedContent(t, db, &ContentPerformance{
		ContentID:  "content-1",
		CampaignID: "camp-1",
		CreatorID:  "creator-1",
		ContentURL: "url",
		ViewCount:  50_000,
	})

	result, err := svc.SyncContent(context.Background(), "content-1")
	require.NoError(t, err)
	require.True(t, result.BecameViral)
	// 100k view delta at the viral bonus rate
	require.Equal(t, float64(1000), result.AmountEarned)

	var log campaign.AILog
	require.NoError(t, db.Where("campaign_id = ?", "camp-1").First(&log).Error)
	require.Equal(t, "viral_spike_detected", log.ActionTaken)

	var synced ContentPerformance
	require.NoError(t, db.Where("content_id = ?", "content-1").First(&synced).Error)
	require.True(t, synced.IsViral)
}

func TestSyncSkipsEarningsForInactiveCampaign(t *testing.T) {
	source := stubSource{counts: map[string]int64{"url": 20_000}}
	svc, db := newTestService(t, source)

	seedCampaign(t, db, &campaign.Campaign{
		CampaignID:      "camp-1",
		Status:          campaign.StatusDraft,
		TotalBudget:     1000,
		RemainingBudget: 1000,
		IsCPVCampaign:   true,
		CPVRate:         5,
		ViralThreshold:  1_000_000,
	})
	seedContent(t, db, &ContentPerformance{
		ContentID:  "content-1",
		CampaignID: "camp-1",
		CreatorID:  "creator-1",
		ContentURL: "url",
		ViewCount:  10_000,
	})

	result, err := svc.SyncContent(context.Background(), "content-1")
	require.NoError(t, err)
	require.Zero(t, result.AmountEarned)

	var count int64
	require.NoError(t, db.Model(&EarningsHistory{}).Count(&count).Error)
	require.Zero(t, count)

	var synced ContentPerformance
	require.NoError(t, db.Where("content_id = ?", "content-1").First(&synced).Error)
	require.EqualValues(t, 20_000, synced.ViewCount)
}

func TestRegisterContentRequiresParticipant(t *testing.T) {
	svc, db := newTestService(t, stubSource{})

	_, err := svc.RegisterContent(context.Background(), RegisterContentRequest{
		CampaignID: "camp-1",
		CreatorID:  "creator-1",
		ContentURL: "url",
	})
	require.Error(t, err)

	require.NoError(t, db.Create(&campaign.Participant{
		ParticipantID: "p-1",
		CampaignID:    "camp-1",
		CreatorID:     "creator-1",
		Status:        campaign.ParticipantActive,
	}).Error)

	content, err := svc.RegisterContent(context.Background(), RegisterContentRequest{
		CampaignID: "camp-1",
		CreatorID:  "creator-1",
		Platform:   "tiktok",
		ContentURL: "url",
	})
	require.NoError(t, err)
	require.NotEmpty(t, content.ContentID)
}

func TestSyncCampaignSyncsAllContent(t *testing.T) {
	source := stubSource{counts: map[string]int64{"a": 12_000, "b": 30_000}}
	svc, db := newTestService(t, source)

	seedCampaign(t, db, &campaign.Campaign{
		CampaignID:      "camp-1",
		Status:          campaign.StatusActive,
		TotalBudget:     10_000,
		RemainingBudget: 10_000,
		IsCPVCampaign:   true,
		CPVRate:         2,
		ViralThreshold:  1_000_000,
	})
	seedContent(t, db, &ContentPerformance{
		ContentID: "c-a", CampaignID: "camp-1", CreatorID: "creator-1",
		ContentURL: "a", ViewCount: 10_000,
	})
	seedContent(t, db, &ContentPerformance{
		ContentID: "c-b", CampaignID: "camp-1", CreatorID: "creator-2",
		ContentURL: "b", ViewCount: 20_000,
	})

	results, err := svc.SyncCampaign(context.Background(), "camp-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	var total float64
	for _, r := range results {
		total += r.AmountEarned
	}
	// 2k + 10k view deltas at rate 2 per 1k
	require.Equal(t, float64(24), total)

	var camp campaign.Campaign
	require.NoError(t, db.Where("campaign_id = ?", "camp-1").First(&camp).Error)
	require.Equal(t, float64(9976), camp.RemainingBudget)
}
