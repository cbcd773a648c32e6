package waitlist

import (
	"context"
	"testing"

	"influencer-connect/pkg/resend"
	"influencer-connect/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubEnqueuer struct {
	tasks []*asynq.Task
}

func (s *stubEnqueuer) Enqueue(t *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, t)
	return &asynq.TaskInfo{}, nil
}

type stubMailer struct {
	enabled bool
	sent    []resend.Email
}

func (s *stubMailer) Enabled() bool { return s.enabled }

func (s *stubMailer) Send(_ context.Context, e resend.Email) (string, error) {
	s.sent = append(s.sent, e)
	return "email_test_1", nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *stubEnqueuer, *stubMailer) {
	t.Helper()

	db := testutil.NewTestDB(t, &Entry{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	enq := &stubEnqueuer{}
	mailer := &stubMailer{enabled: true}
	svc := NewService(ServiceParams{
		DB:       db,
		Node:     node,
		Enqueuer: enq,
		Mailer:   mailer,
	})
	return svc, db, enq, mailer
}

func TestSignupNewEntry(t *testing.T) {
	svc, db, enq, _ := newTestService(t)

	result, err := svc.Signup(context.Background(), SignupRequest{Email: "First@Example.Test"})
	require.NoError(t, err)
	require.Equal(t, OutcomeNew, result.Status)
	require.EqualValues(t, 1, result.Position)
	require.NotEmpty(t, result.ReferralCode)
	require.Empty(t, enq.tasks)

	// emails are stored lowercased
	var entry Entry
	require.NoError(t, db.Where("email = ?", "first@example.test").First(&entry).Error)
	require.False(t, entry.IsPriority)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, db, _, _ := newTestService(t)

	first, err := svc.Signup(context.Background(), SignupRequest{Email: "dupe@example.test"})
	require.NoError(t, err)

	second, err := svc.Signup(context.Background(), SignupRequest{Email: "DUPE@example.test"})
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyExists, second.Status)
	require.Equal(t, first.ReferralCode, second.ReferralCode)

	var count int64
	require.NoError(t, db.Model(&Entry{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestSignupPriorityUpgrade(t *testing.T) {
	svc, db, enq, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), SignupRequest{Email: "up@example.test"})
	require.NoError(t, err)

	result, err := svc.Signup(context.Background(), SignupRequest{
		Email:                 "up@example.test",
		IsPriority:            true,
		StripeCustomerID:      "cus_123",
		StripePaymentIntentID: "pi_456",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeUpgraded, result.Status)
	require.True(t, result.IsPriority)

	var entry Entry
	require.NoError(t, db.Where("email = ?", "up@example.test").First(&entry).Error)
	require.True(t, entry.IsPriority)
	require.Equal(t, "cus_123", entry.StripeCustomerID)
	require.Equal(t, "pi_456", entry.StripePaymentIntentID)

	require.Len(t, enq.tasks, 1)
}

func TestSignupPriorityEnqueuesWelcomeEmail(t *testing.T) {
	svc, _, enq, _ := newTestService(t)

	result, err := svc.Signup(context.Background(), SignupRequest{
		Email:      "vip@example.test",
		IsPriority: true,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeNew, result.Status)
	require.Len(t, enq.tasks, 1)
}

func TestSignupReferralIncrementsCount(t *testing.T) {
	svc, db, _, _ := newTestService(t)

	referrer, err := svc.Signup(context.Background(), SignupRequest{Email: "ref@example.test"})
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), SignupRequest{
		Email:      "friend@example.test",
		ReferredBy: referrer.ReferralCode,
	})
	require.NoError(t, err)

	var entry Entry
	require.NoError(t, db.Where("email = ?", "ref@example.test").First(&entry).Error)
	require.EqualValues(t, 1, entry.ReferralCount)
}

func TestSignupUnknownReferralStillSignsUp(t *testing.T) {
	svc, db, _, _ := newTestService(t)

	result, err := svc.Signup(context.Background(), SignupRequest{
		Email:      "lost@example.test",
		ReferredBy: "NOCODE99",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeNew, result.Status)

	var count int64
	require.NoError(t, db.Model(&Entry{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestSignupRejectsInvalidEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), SignupRequest{Email: "not-an-email"})
	require.Error(t, err)
}

func TestSendWelcomeEmail(t *testing.T) {
	svc, _, _, mailer := newTestService(t)

	require.NoError(t, svc.SendWelcomeEmail(context.Background(), "vip@example.test", "Emma"))
	require.Len(t, mailer.sent, 1)
	require.Equal(t, []string{"vip@example.test"}, mailer.sent[0].To)
	require.Contains(t, mailer.sent[0].HTML, "Emma")
}

func TestSendWelcomeEmailSkipsWhenDisabled(t *testing.T) {
	svc, _, _, mailer := newTestService(t)
	mailer.enabled = false

	require.NoError(t, svc.SendWelcomeEmail(context.Background(), "vip@example.test", ""))
	require.Empty(t, mailer.sent)
}
