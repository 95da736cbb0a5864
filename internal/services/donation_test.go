package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/givebridge-backend/internal/apperr"
	"github.com/yungbote/givebridge-backend/internal/clients/redis"
	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/payment"
	"github.com/yungbote/givebridge-backend/internal/repos"
	"github.com/yungbote/givebridge-backend/internal/types"
)

type testEnv struct {
	db           *gorm.DB
	service      DonationService
	campaignRepo repos.CachedCampaignRepo
	donationRepo repos.CachedDonationRepo
	userRepo     repos.UserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// A single connection keeps the in-memory database alive for the test.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&types.User{}, &types.Campaign{}, &types.Donation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cache := redis.NewMemoryCache()
	t.Cleanup(func() { cache.Close() })

	userRepo := repos.NewUserRepo(db, log)
	campaignRepo := repos.NewCachedCampaignRepo(repos.NewCampaignRepo(db, log), cache, time.Hour, log)
	donationRepo := repos.NewCachedDonationRepo(repos.NewDonationRepo(db, log), cache, time.Hour, log)

	registry := payment.NewRegistry()
	registry.Register(payment.NewMockProvider(log))

	notifier := NewEmailNotifier(log, nil)
	service := NewDonationService(db, log, registry, donationRepo, campaignRepo, userRepo, notifier)

	return &testEnv{
		db:           db,
		service:      service,
		campaignRepo: campaignRepo,
		donationRepo: donationRepo,
		userRepo:     userRepo,
	}
}

func (e *testEnv) createUser(t *testing.T, email string) *types.User {
	t.Helper()
	u := &types.User{FirstName: "Test", LastName: "Donor", Email: email, Password: "x", Role: types.UserRoleEmployee}
	if err := e.userRepo.Create(context.Background(), nil, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (e *testEnv) createActiveCampaign(t *testing.T, owner *types.User, goal int64) *types.Campaign {
	t.Helper()
	now := time.Now().UTC()
	c := &types.Campaign{
		UserID:     owner.ID,
		Title:      "Clean Water " + uuid.NewString()[:8],
		GoalAmount: decimal.NewFromInt(goal),
		StartDate:  now.Add(-24 * time.Hour),
		EndDate:    now.Add(30 * 24 * time.Hour),
		Status:     types.CampaignStatusActive,
	}
	if err := e.campaignRepo.Create(context.Background(), nil, c); err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return c
}

func (e *testEnv) donate(t *testing.T, donor *types.User, campaign *types.Campaign, amount int64) (*types.Donation, *payment.Result) {
	t.Helper()
	donation, result, err := e.service.CreateDonation(context.Background(), donor.ID, CreateDonationInput{
		CampaignID: campaign.ID,
		Amount:     decimal.NewFromInt(amount),
	})
	if err != nil {
		t.Fatalf("CreateDonation(%d): %v", amount, err)
	}
	return donation, result
}

func TestCreateDonation_CompletedUpdatesAggregates(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")
	campaign := env.createActiveCampaign(t, owner, 1000)

	d1, r1 := env.donate(t, alice, campaign, 400)
	if !r1.Success || d1.Status != types.DonationStatusCompleted {
		t.Fatalf("first donation not completed: %+v %+v", d1, r1)
	}
	d2, _ := env.donate(t, bob, campaign, 700)
	if d2.Status != types.DonationStatusCompleted {
		t.Fatalf("second donation not completed: %s", d2.Status)
	}

	fresh, err := env.campaignRepo.GetByID(context.Background(), nil, campaign.ID)
	if err != nil || fresh == nil {
		t.Fatalf("reload campaign: %v", err)
	}
	if !fresh.CurrentAmount.Equal(decimal.NewFromInt(1100)) {
		t.Fatalf("current_amount = %s, want 1100", fresh.CurrentAmount)
	}
	if fresh.DonorsCount != 2 {
		t.Fatalf("donors_count = %d, want 2", fresh.DonorsCount)
	}
	if !fresh.HasReachedGoal() {
		t.Fatalf("goal of 1000 should be reached at 1100")
	}

	donor, err := env.userRepo.GetByID(context.Background(), nil, alice.ID)
	if err != nil || donor == nil {
		t.Fatalf("reload donor: %v", err)
	}
	if !donor.TotalDonated.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("total_donated = %s, want 400", donor.TotalDonated)
	}
}

func TestCreateDonation_SameDonorCountsOnce(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	alice := env.createUser(t, "alice@example.com")
	campaign := env.createActiveCampaign(t, owner, 5000)

	env.donate(t, alice, campaign, 100)
	env.donate(t, alice, campaign, 200)

	fresh, _ := env.campaignRepo.GetByID(context.Background(), nil, campaign.ID)
	if fresh.DonorsCount != 1 {
		t.Fatalf("donors_count = %d, want 1 for repeat donor", fresh.DonorsCount)
	}
	if !fresh.CurrentAmount.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("current_amount = %s, want 300", fresh.CurrentAmount)
	}
}

func TestCreateDonation_DeclineLeavesLedgerUntouched(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	alice := env.createUser(t, "alice@example.com")
	campaign := env.createActiveCampaign(t, owner, 1000)

	donation, result, err := env.service.CreateDonation(context.Background(), alice.ID, CreateDonationInput{
		CampaignID: campaign.ID,
		Amount:     decimal.NewFromInt(666),
	})
	if err != nil {
		t.Fatalf("a decline is a terminal outcome, not an error: %v", err)
	}
	if result.Success {
		t.Fatalf("amount 666 should decline")
	}
	if donation.Status != types.DonationStatusFailed {
		t.Fatalf("status = %s, want failed", donation.Status)
	}
	if donation.FailureReason == nil || *donation.FailureReason != "Payment declined by bank" {
		t.Fatalf("failure reason = %v", donation.FailureReason)
	}

	fresh, _ := env.campaignRepo.GetByID(context.Background(), nil, campaign.ID)
	if !fresh.CurrentAmount.IsZero() || fresh.DonorsCount != 0 {
		t.Fatalf("failed donation leaked into aggregates: %s / %d", fresh.CurrentAmount, fresh.DonorsCount)
	}
	donor, _ := env.userRepo.GetByID(context.Background(), nil, alice.ID)
	if !donor.TotalDonated.IsZero() {
		t.Fatalf("failed donation leaked into donor total: %s", donor.TotalDonated)
	}
}

func TestCreateDonation_RejectsInactiveCampaign(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	alice := env.createUser(t, "alice@example.com")

	now := time.Now().UTC()
	ended := &types.Campaign{
		UserID:     owner.ID,
		Title:      "Ended Drive",
		GoalAmount: decimal.NewFromInt(1000),
		StartDate:  now.Add(-48 * time.Hour),
		EndDate:    now.Add(-24 * time.Hour),
		Status:     types.CampaignStatusActive,
	}
	if err := env.campaignRepo.Create(context.Background(), nil, ended); err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	_, _, err := env.service.CreateDonation(context.Background(), alice.ID, CreateDonationInput{
		CampaignID: ended.ID,
		Amount:     decimal.NewFromInt(100),
	})
	if !errors.Is(err, apperr.ErrCampaignUnavailable) {
		t.Fatalf("expected ErrCampaignUnavailable, got %v", err)
	}
}

func TestCreateDonation_UnknownProviderUnavailable(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	alice := env.createUser(t, "alice@example.com")
	campaign := env.createActiveCampaign(t, owner, 1000)

	_, _, err := env.service.CreateDonation(context.Background(), alice.ID, CreateDonationInput{
		CampaignID: campaign.ID,
		Amount:     decimal.NewFromInt(100),
		Provider:   "paypal",
	})
	if !errors.Is(err, apperr.ErrPaymentProviderUnavailable) {
		t.Fatalf("expected ErrPaymentProviderUnavailable, got %v", err)
	}
}

func TestCreateDonation_NumberShapeAndLookup(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	alice := env.createUser(t, "alice@example.com")
	campaign := env.createActiveCampaign(t, owner, 1000)

	donation, _ := env.donate(t, alice, campaign, 50)
	if !regexp.MustCompile(`^DON-\d{4}-\d{6}$`).MatchString(donation.DonationNumber) {
		t.Fatalf("donation number shape: %q", donation.DonationNumber)
	}
	byNumber, err := env.service.GetByNumber(context.Background(), donation.DonationNumber)
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if byNumber.ID != donation.ID {
		t.Fatalf("lookup returned wrong donation: %s != %s", byNumber.ID, donation.ID)
	}
}

func TestRefundDonation_PartialRefundDropsFullAmount(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")
	campaign := env.createActiveCampaign(t, owner, 5000)

	d1, _ := env.donate(t, alice, campaign, 500)
	env.donate(t, bob, campaign, 300)

	refunded, result, err := env.service.RefundDonation(context.Background(), d1.ID, decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("RefundDonation: %v", err)
	}
	if !result.Success {
		t.Fatalf("refund declined: %+v", result)
	}
	if refunded.Status != types.DonationStatusRefunded {
		t.Fatalf("status = %s, want refunded", refunded.Status)
	}
	if refunded.RefundedAmount == nil || !refunded.RefundedAmount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("refunded_amount = %v, want 200", refunded.RefundedAmount)
	}

	// The aggregate drops the donation's full 500 even for a partial refund.
	fresh, _ := env.campaignRepo.GetByID(context.Background(), nil, campaign.ID)
	if !fresh.CurrentAmount.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("current_amount = %s, want 300", fresh.CurrentAmount)
	}
	if fresh.DonorsCount != 1 {
		t.Fatalf("donors_count = %d, want 1", fresh.DonorsCount)
	}
}

func TestRefundDonation_RejectsExcessAmount(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	alice := env.createUser(t, "alice@example.com")
	campaign := env.createActiveCampaign(t, owner, 5000)

	d, _ := env.donate(t, alice, campaign, 500)
	_, _, err := env.service.RefundDonation(context.Background(), d.ID, decimal.NewFromInt(501))
	if !errors.Is(err, apperr.ErrRefundExceedsOriginal) {
		t.Fatalf("expected ErrRefundExceedsOriginal, got %v", err)
	}
	fresh, _ := env.donationRepo.GetByID(context.Background(), nil, d.ID)
	if fresh.Status != types.DonationStatusCompleted {
		t.Fatalf("rejected refund mutated status: %s", fresh.Status)
	}
}

func TestRefundDonation_DeclinedRefundIsAnError(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	alice := env.createUser(t, "alice@example.com")
	campaign := env.createActiveCampaign(t, owner, 5000)

	d, _ := env.donate(t, alice, campaign, 500)

	// A transaction id the provider no longer recognizes makes the
	// refund come back declined.
	if err := env.db.Model(&types.Donation{}).Where("id = ?", d.ID).UpdateColumn("transaction_id", "MOCK-lost").Error; err != nil {
		t.Fatalf("rewrite transaction id: %v", err)
	}
	env.donationRepo.Invalidate(context.Background(), d)

	_, result, err := env.service.RefundDonation(context.Background(), d.ID, decimal.NewFromInt(500))
	if !errors.Is(err, apperr.ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}
	if result == nil || result.Success {
		t.Fatalf("expected failed provider result, got %+v", result)
	}

	fresh, _ := env.donationRepo.GetByID(context.Background(), nil, d.ID)
	if fresh.Status != types.DonationStatusCompleted {
		t.Fatalf("declined refund mutated status: %s", fresh.Status)
	}
	aggregate, _ := env.campaignRepo.GetByID(context.Background(), nil, campaign.ID)
	if !aggregate.CurrentAmount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("declined refund touched the ledger: %s", aggregate.CurrentAmount)
	}
}

func TestRefundDonation_RequiresCompletedState(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	alice := env.createUser(t, "alice@example.com")
	campaign := env.createActiveCampaign(t, owner, 5000)

	donation, _, err := env.service.CreateDonation(context.Background(), alice.ID, CreateDonationInput{
		CampaignID: campaign.ID,
		Amount:     decimal.NewFromInt(666),
	})
	if err != nil {
		t.Fatalf("CreateDonation: %v", err)
	}
	_, _, err = env.service.RefundDonation(context.Background(), donation.ID, decimal.NewFromInt(100))
	if !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestCreateDonation_InvalidatesCachedCampaign(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	alice := env.createUser(t, "alice@example.com")
	campaign := env.createActiveCampaign(t, owner, 1000)

	// Warm the cache before the donation commits.
	warm, err := env.campaignRepo.GetByID(context.Background(), nil, campaign.ID)
	if err != nil || warm == nil {
		t.Fatalf("warm read: %v", err)
	}
	if !warm.CurrentAmount.IsZero() {
		t.Fatalf("warm read has unexpected total: %s", warm.CurrentAmount)
	}

	env.donate(t, alice, campaign, 250)

	fresh, err := env.campaignRepo.GetByID(context.Background(), nil, campaign.ID)
	if err != nil || fresh == nil {
		t.Fatalf("post-commit read: %v", err)
	}
	if !fresh.CurrentAmount.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("cache served stale total %s, want 250", fresh.CurrentAmount)
	}
}

func TestAvailableProviders_ListsRegisteredOnly(t *testing.T) {
	env := newTestEnv(t)
	infos := env.service.AvailableProviders()
	if len(infos) != 1 || infos[0].Name != "mock" {
		t.Fatalf("unexpected providers: %+v", infos)
	}
	if len(infos[0].SupportedMethods) == 0 {
		t.Fatalf("provider should advertise supported methods")
	}
}
