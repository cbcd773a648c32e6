package tracking

import (
	"context"
	"fmt"
	"strings"
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

type stubSequence struct{ n int }

func (s *stubSequence) next(prefix string) (string, error) {
	s.n++
	return fmt.Sprintf("%s-%03d", prefix, s.n), nil
}

func (s *stubSequence) NextEscrowCode(context.Context, string) (string, error) {
	return s.next("ESC")
}
func (s *stubSequence) NextPayoutCode(context.Context, string) (string, error) {
	return s.next("PAY")
}
func (s *stubSequence) NextSaleCode(context.Context, string) (string, error) {
	return s.next("SAL")
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t,
		&Code{}, &Event{}, &SalesEvent{},
		&campaign.Campaign{}, &creator.Creator{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{BaseURL: "https://app.example.test"}

	svc := NewService(ServiceParams{
		DB:         db,
		Repository: NewRepository(db),
		Sequence:   &stubSequence{},
		Node:       node,
		Config:     cfg,
	})
	return svc, db
}

func seedPair(t *testing.T, db *gorm.DB, campaignID, creatorID, handle string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&campaign.Campaign{
		CampaignID: campaignID,
		Status:     campaign.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)
	require.NoError(t, db.Create(&creator.Creator{
		CreatorID: creatorID,
		Name:      handle,
		Handle:    handle,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

func TestGenerateCodeIsIdempotentPerPair(t *testing.T) {
	svc, db := newTestService(t)
	seedPair(t, db, "camp-1", "creator-1", "emmalifestyle")

	first, err := svc.GenerateCode(context.Background(), GenerateCodeRequest{
		CampaignID:      "camp-1",
		CreatorID:       "creator-1",
		DiscountPercent: 15,
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(first.Code, "EMMALIFE-"))
	require.True(t, first.IsActive)
	require.Contains(t, first.TrackingURL, first.Code)

	second, err := svc.GenerateCode(context.Background(), GenerateCodeRequest{
		CampaignID: "camp-1",
		CreatorID:  "creator-1",
	})
	require.NoError(t, err)
	require.Equal(t, first.CodeID, second.CodeID)
	require.Equal(t, first.Code, second.Code)
}

func TestGenerateCodeUnknownCampaign(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GenerateCode(context.Background(), GenerateCodeRequest{
		CampaignID: "missing",
		CreatorID:  "creator-1",
	})
	require.Error(t, err)
}

func TestTrackClickUpdatesAggregates(t *testing.T) {
	svc, db := newTestService(t)
	seedPair(t, db, "camp-1", "creator-1", "emma")

	code, err := svc.GenerateCode(context.Background(), GenerateCodeRequest{
		CampaignID: "camp-1",
		CreatorID:  "creator-1",
	})
	require.NoError(t, err)

	_, err = svc.Track(context.Background(), TrackRequest{
		Code:      code.Code,
		EventType: EventClick,
	}, RequestMeta{Channel: "web"})
	require.NoError(t, err)

	var updated Code
	require.NoError(t, db.Where("code_id = ?", code.CodeID).First(&updated).Error)
	require.EqualValues(t, 1, updated.Clicks)
	require.Zero(t, updated.Conversions)
}

func TestTrackConversionRecordsSaleAtomically(t *testing.T) {
	svc, db := newTestService(t)
	seedPair(t, db, "camp-1", "creator-1", "emma")

	code, err := svc.GenerateCode(context.Background(), GenerateCodeRequest{
		CampaignID: "camp-1",
		CreatorID:  "creator-1",
	})
	require.NoError(t, err)

	_, err = svc.Track(context.Background(), TrackRequest{
		Code:      code.Code,
		EventType: EventConversion,
		Amount:    89.90,
		Metadata: map[string]any{
			"order_id":       "ord_123",
			"product_name":   "Glow Serum",
			"customer_email": "buyer@example.test",
		},
	}, RequestMeta{Channel: "web"})
	require.NoError(t, err)

	var updated Code
	require.NoError(t, db.Where("code_id = ?", code.CodeID).First(&updated).Error)
	require.EqualValues(t, 1, updated.Conversions)
	require.InDelta(t, 89.90, updated.RevenueGenerated, 0.001)

	var sale SalesEvent
	require.NoError(t, db.Where("tracking_code_id = ?", code.CodeID).First(&sale).Error)
	require.Equal(t, "ord_123", sale.OrderID)
	require.Equal(t, "camp-1", sale.CampaignID)
	require.Equal(t, "creator-1", sale.CreatorID)
	require.InDelta(t, 8.99, sale.CommissionAmount, 0.001)
	require.NotEmpty(t, sale.ReferenceCode)

	var event Event
	require.NoError(t, db.Where("tracking_code_id = ?", code.CodeID).First(&event).Error)
	require.Equal(t, EventConversion, event.EventType)
	require.Equal(t, "web", event.Channel)
}

func TestTrackUnknownCodeFails(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Track(context.Background(), TrackRequest{
		Code:      "NOPE-1234",
		EventType: EventClick,
	}, RequestMeta{})
	require.Error(t, err)
}

func TestTrackInactiveCodeFails(t *testing.T) {
	svc, db := newTestService(t)
	seedPair(t, db, "camp-1", "creator-1", "emma")

	code, err := svc.GenerateCode(context.Background(), GenerateCodeRequest{
		CampaignID: "camp-1",
		CreatorID:  "creator-1",
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&Code{}).
		Where("code_id = ?", code.CodeID).
		Update("is_active", false).Error)

	_, err = svc.Track(context.Background(), TrackRequest{
		Code:      code.Code,
		EventType: EventClick,
	}, RequestMeta{})
	require.Error(t, err)
}

func TestTrackRejectsUnknownEventType(t *testing.T) {
	svc, db := newTestService(t)
	seedPair(t, db, "camp-1", "creator-1", "emma")

	code, err := svc.GenerateCode(context.Background(), GenerateCodeRequest{
		CampaignID: "camp-1",
		CreatorID:  "creator-1",
	})
	require.NoError(t, err)

	_, err = svc.Track(context.Background(), TrackRequest{
		Code:      code.Code,
		EventType: "impression",
	}, RequestMeta{})
	require.Error(t, err)
}
