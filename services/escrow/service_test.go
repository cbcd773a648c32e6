package escrow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"influencer-connect/pkg/stripe"
	"influencer-connect/services/campaign"
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

type stubStripe struct {
	enabled        bool
	payoutsEnabled bool
	transfers      []stripe.TransferParams
}

func (s *stubStripe) Enabled() bool { return s.enabled }

func (s *stubStripe) CreateAccount(context.Context, stripe.CreateAccountParams) (*stripe.Account, error) {
	return &stripe.Account{ID: "acct_test"}, nil
}

func (s *stubStripe) CreateAccountLink(context.Context, string, string, string) (*stripe.AccountLink, error) {
	return &stripe.AccountLink{URL: "https://connect.stripe.test/onboard"}, nil
}

func (s *stubStripe) RetrieveAccount(_ context.Context, accountID string) (*stripe.Account, error) {
	return &stripe.Account{ID: accountID, PayoutsEnabled: s.payoutsEnabled}, nil
}

func (s *stubStripe) ListAccounts(context.Context, int) ([]stripe.Account, error) {
	return nil, nil
}

func (s *stubStripe) CreateTransfer(_ context.Context, params stripe.TransferParams) (*stripe.Transfer, error) {
	s.transfers = append(s.transfers, params)
	return &stripe.Transfer{
		ID:          fmt.Sprintf("tr_test_%d", len(s.transfers)),
		Amount:      params.AmountCents,
		Destination: params.Destination,
	}, nil
}

func newTestService(t *testing.T, sc *stubStripe) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &Transaction{}, &campaign.Campaign{}, &campaign.Participant{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParams{
		DB:       db,
		Node:     node,
		Sequence: &stubSequence{},
		Stripe:   sc,
	})
	return svc, db
}

func seedCampaignWithParticipants(t *testing.T, db *gorm.DB, campaignID string, budget float64, creatorIDs ...string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&campaign.Campaign{
		CampaignID:      campaignID,
		Slug:            campaignID,
		Status:          campaign.StatusActive,
		TotalBudget:     budget,
		RemainingBudget: budget,
		CreatedAt:       now,
		UpdatedAt:       now,
	}).Error)

	for i, creatorID := range creatorIDs {
		require.NoError(t, db.Create(&campaign.Participant{
			ParticipantID: fmt.Sprintf("%s-p%d", campaignID, i),
			CampaignID:    campaignID,
			CreatorID:     creatorID,
			Status:        campaign.ParticipantActive,
			CreatedAt:     now.Add(time.Duration(i) * time.Second),
			UpdatedAt:     now,
		}).Error)
	}
}

func TestVerifySplitsEvenly(t *testing.T) {
	svc, db := newTestService(t, &stubStripe{})
	seedCampaignWithParticipants(t, db, "camp-1", 5000, "c1", "c2", "c3", "c4")

	result, err := svc.Verify(context.Background(), VerifyRequest{
		CampaignID: "camp-1",
		Amount:     1000,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 4, result.TransactionCount)
	require.Equal(t, float64(250), result.AmountPerCreator)

	var rows []Transaction
	require.NoError(t, db.Where("campaign_id = ?", "camp-1").Find(&rows).Error)
	require.Len(t, rows, 4)
	for _, row := range rows {
		require.Equal(t, StatusLocked, row.Status)
		require.Equal(t, float64(250), row.Amount)
		require.NotEmpty(t, row.ReferenceCode)
	}

	var camp campaign.Campaign
	require.NoError(t, db.Where("campaign_id = ?", "camp-1").First(&camp).Error)
	require.Equal(t, float64(4000), camp.RemainingBudget)
	require.Equal(t, float64(1000), camp.LockedBudget)
}

func TestVerifyCapsToRemainingBudget(t *testing.T) {
	svc, db := newTestService(t, &stubStripe{})
	seedCampaignWithParticipants(t, db, "camp-1", 300, "c1", "c2")

	result, err := svc.Verify(context.Background(), VerifyRequest{
		CampaignID: "camp-1",
		Amount:     1000,
	})
	require.NoError(t, err)
	require.Equal(t, float64(300), result.AmountFunded)
	require.Equal(t, float64(150), result.AmountPerCreator)

	var camp campaign.Campaign
	require.NoError(t, db.Where("campaign_id = ?", "camp-1").First(&camp).Error)
	require.Zero(t, camp.RemainingBudget)
}

func TestVerifyRoundingResidualStaysInBudget(t *testing.T) {
	svc, db := newTestService(t, &stubStripe{})
	seedCampaignWithParticipants(t, db, "camp-1", 500, "c1", "c2", "c3")

	result, err := svc.Verify(context.Background(), VerifyRequest{
		CampaignID: "camp-1",
		Amount:     100,
	})
	require.NoError(t, err)
	require.Equal(t, 33.33, result.AmountPerCreator)
	require.Equal(t, 99.99, result.AmountFunded)

	// the sub-cent residual stays in remaining_budget, not in locked_budget
	var camp campaign.Campaign
	require.NoError(t, db.Where("campaign_id = ?", "camp-1").First(&camp).Error)
	require.InDelta(t, 400.01, camp.RemainingBudget, 0.001)
	require.InDelta(t, 99.99, camp.LockedBudget, 0.001)
}

func TestVerifyRequiresParticipants(t *testing.T) {
	svc, db := newTestService(t, &stubStripe{})
	seedCampaignWithParticipants(t, db, "camp-1", 1000)

	_, err := svc.Verify(context.Background(), VerifyRequest{
		CampaignID: "camp-1",
		Amount:     500,
	})
	require.Error(t, err)
}

func TestSettleFlipsLockedToPending(t *testing.T) {
	svc, db := newTestService(t, &stubStripe{})
	seedCampaignWithParticipants(t, db, "camp-1", 1000, "c1")

	_, err := svc.Verify(context.Background(), VerifyRequest{CampaignID: "camp-1", Amount: 400})
	require.NoError(t, err)

	flipped, err := svc.Settle(context.Background(), SettleRequest{CampaignID: "camp-1", CreatorID: "c1"})
	require.NoError(t, err)
	require.EqualValues(t, 1, flipped)

	var row Transaction
	require.NoError(t, db.Where("campaign_id = ? AND creator_id = ?", "camp-1", "c1").First(&row).Error)
	require.Equal(t, StatusPending, row.Status)

	var p campaign.Participant
	require.NoError(t, db.Where("campaign_id = ? AND creator_id = ?", "camp-1", "c1").First(&p).Error)
	require.Equal(t, campaign.ParticipantCompleted, p.Status)
}

func TestReleaseScopedToCampaign(t *testing.T) {
	sc := &stubStripe{enabled: true, payoutsEnabled: true}
	svc, db := newTestService(t, sc)

	seedCampaignWithParticipants(t, db, "camp-1", 1000, "c1")
	seedCampaignWithParticipants(t, db, "camp-2", 1000, "c1")

	for _, campaignID := range []string{"camp-1", "camp-2"} {
		_, err := svc.Verify(context.Background(), VerifyRequest{CampaignID: campaignID, Amount: 400})
		require.NoError(t, err)
		_, err = svc.Settle(context.Background(), SettleRequest{CampaignID: campaignID, CreatorID: "c1"})
		require.NoError(t, err)
	}

	result, err := svc.Release(context.Background(), ReleaseRequest{
		CreatorID:       "c1",
		CampaignID:      "camp-1",
		StripeAccountID: "acct_1",
	})
	require.NoError(t, err)
	require.Equal(t, float64(400), result.Amount)
	require.NotEmpty(t, result.TransferID)
	require.Len(t, sc.transfers, 1)
	require.EqualValues(t, 40_000, sc.transfers[0].AmountCents)

	var released Transaction
	require.NoError(t, db.Where("campaign_id = ?", "camp-1").First(&released).Error)
	require.Equal(t, StatusReleased, released.Status)
	require.Equal(t, result.TransferID, released.StripeTransferID)

	// the other campaign's pending escrow is untouched
	var other Transaction
	require.NoError(t, db.Where("campaign_id = ?", "camp-2").First(&other).Error)
	require.Equal(t, StatusPending, other.Status)
}

func TestReleasePartialAmountKeepsRemainderPending(t *testing.T) {
	sc := &stubStripe{enabled: true, payoutsEnabled: true}
	svc, db := newTestService(t, sc)

	seedCampaignWithParticipants(t, db, "camp-1", 1000, "c1")
	_, err := svc.Verify(context.Background(), VerifyRequest{CampaignID: "camp-1", Amount: 400})
	require.NoError(t, err)
	_, err = svc.Settle(context.Background(), SettleRequest{CampaignID: "camp-1", CreatorID: "c1"})
	require.NoError(t, err)

	result, err := svc.Release(context.Background(), ReleaseRequest{
		CreatorID:       "c1",
		CampaignID:      "camp-1",
		StripeAccountID: "acct_1",
		Amount:          100,
	})
	require.NoError(t, err)
	require.Equal(t, float64(100), result.Amount)
	require.Len(t, sc.transfers, 1)
	require.EqualValues(t, 10_000, sc.transfers[0].AmountCents)

	// only the transferred amount is released, the rest stays pending
	var pending float64
	require.NoError(t, db.Model(&Transaction{}).
		Where("campaign_id = ? AND creator_id = ? AND status = ?", "camp-1", "c1", StatusPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&pending).Error)
	require.Equal(t, float64(300), pending)

	var released []Transaction
	require.NoError(t, db.Where("campaign_id = ? AND status = ?", "camp-1", StatusReleased).
		Find(&released).Error)
	require.Len(t, released, 1)
	require.Equal(t, float64(100), released[0].Amount)
	require.Equal(t, result.TransferID, released[0].StripeTransferID)

	var camp campaign.Campaign
	require.NoError(t, db.Where("campaign_id = ?", "camp-1").First(&camp).Error)
	require.Equal(t, float64(300), camp.LockedBudget)

	// the remainder is still releasable afterwards
	second, err := svc.Release(context.Background(), ReleaseRequest{
		CreatorID:       "c1",
		CampaignID:      "camp-1",
		StripeAccountID: "acct_1",
	})
	require.NoError(t, err)
	require.Equal(t, float64(300), second.Amount)
	require.Len(t, sc.transfers, 2)
	require.EqualValues(t, 30_000, sc.transfers[1].AmountCents)

	require.NoError(t, db.Model(&Transaction{}).
		Where("campaign_id = ? AND creator_id = ? AND status = ?", "camp-1", "c1", StatusPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&pending).Error)
	require.Zero(t, pending)
}

func TestReleasePartialAmountCoversOldestRowsFirst(t *testing.T) {
	sc := &stubStripe{enabled: true, payoutsEnabled: true}
	svc, db := newTestService(t, sc)

	seedCampaignWithParticipants(t, db, "camp-1", 1000, "c1")
	for _, amount := range []float64{250, 150} {
		_, err := svc.Verify(context.Background(), VerifyRequest{CampaignID: "camp-1", Amount: amount})
		require.NoError(t, err)
	}
	_, err := svc.Settle(context.Background(), SettleRequest{CampaignID: "camp-1", CreatorID: "c1"})
	require.NoError(t, err)

	result, err := svc.Release(context.Background(), ReleaseRequest{
		CreatorID:       "c1",
		CampaignID:      "camp-1",
		StripeAccountID: "acct_1",
		Amount:          300,
	})
	require.NoError(t, err)
	require.Equal(t, float64(300), result.Amount)

	// 250 row fully released, 150 row split into 50 released and 100 pending
	var pendingRows []Transaction
	require.NoError(t, db.Where("campaign_id = ? AND status = ?", "camp-1", StatusPending).
		Find(&pendingRows).Error)
	require.Len(t, pendingRows, 1)
	require.Equal(t, float64(100), pendingRows[0].Amount)

	var releasedTotal float64
	require.NoError(t, db.Model(&Transaction{}).
		Where("campaign_id = ? AND status = ?", "camp-1", StatusReleased).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&releasedTotal).Error)
	require.Equal(t, float64(300), releasedTotal)
}

func TestReleaseRejectsDisabledPayouts(t *testing.T) {
	sc := &stubStripe{enabled: true, payoutsEnabled: false}
	svc, db := newTestService(t, sc)

	seedCampaignWithParticipants(t, db, "camp-1", 1000, "c1")
	_, err := svc.Verify(context.Background(), VerifyRequest{CampaignID: "camp-1", Amount: 200})
	require.NoError(t, err)
	_, err = svc.Settle(context.Background(), SettleRequest{CampaignID: "camp-1", CreatorID: "c1"})
	require.NoError(t, err)

	_, err = svc.Release(context.Background(), ReleaseRequest{
		CreatorID:       "c1",
		CampaignID:      "camp-1",
		StripeAccountID: "acct_1",
	})
	require.Error(t, err)
	require.Empty(t, sc.transfers)
}

func TestReleaseWithoutPendingFails(t *testing.T) {
	svc, db := newTestService(t, &stubStripe{})
	seedCampaignWithParticipants(t, db, "camp-1", 1000, "c1")

	_, err := svc.Release(context.Background(), ReleaseRequest{
		CreatorID:  "c1",
		CampaignID: "camp-1",
	})
	require.Error(t, err)
}
