package creator

import (
	"context"
	"testing"

	"influencer-connect/pkg/config"
	"influencer-connect/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &Creator{}, &Wallet{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Payout.DefaultMinThreshold = 50

	svc := NewService(ServiceParams{
		DB:     db,
		Node:   node,
		Config: cfg,
	})
	return svc, db
}

func TestRegisterCreatesWallet(t *testing.T) {
	svc, db := newTestService(t)

	created, err := svc.Register(context.Background(), RegisterRequest{
		UserID:   "user-1",
		Name:     "Emma Lifestyle",
		Handle:   "@emmalifestyle",
		Niche:    "lifestyle",
		Platform: "tiktok",
	})
	require.NoError(t, err)
	require.Equal(t, "emmalifestyle", created.Handle)

	var wallet Wallet
	require.NoError(t, db.Where("creator_id = ?", created.CreatorID).First(&wallet).Error)
	require.Equal(t, float64(50), wallet.MinPayoutThreshold)
	require.Zero(t, wallet.PendingEarnings)
	require.Equal(t, PayoutStatusNone, wallet.PayoutStatus)
}

func TestRegisterRejectsDuplicateHandle(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterRequest{Name: "A", Handle: "samehandle"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{Name: "B", Handle: "samehandle"})
	require.Error(t, err)
}

func TestGetWalletCreatesLazily(t *testing.T) {
	svc, db := newTestService(t)

	wallet, err := svc.GetWallet(context.Background(), "creator-without-wallet")
	require.NoError(t, err)
	require.Equal(t, float64(50), wallet.MinPayoutThreshold)

	var count int64
	require.NoError(t, db.Model(&Wallet{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	again, err := svc.GetWallet(context.Background(), "creator-without-wallet")
	require.NoError(t, err)
	require.Equal(t, wallet.WalletID, again.WalletID)
}
