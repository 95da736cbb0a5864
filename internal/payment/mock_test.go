package payment

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestMockProcessPayment_DeclinesAmount666(t *testing.T) {
	p := NewMockProvider(testLogger(t))
	result, err := p.ProcessPayment(context.Background(), Request{Amount: decimal.NewFromInt(666)})
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if result.Success {
		t.Fatalf("amount 666 should decline")
	}
	if result.ErrorCode != "DECLINED" || result.Message != "Payment declined by bank" {
		t.Fatalf("unexpected decline result: %+v", result)
	}
}

func TestMockProcessPayment_RejectsOverLimit(t *testing.T) {
	p := NewMockProvider(testLogger(t))
	result, err := p.ProcessPayment(context.Background(), Request{Amount: decimal.NewFromInt(12000)})
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if result.Success {
		t.Fatalf("amount above 10000 should fail")
	}
	if result.ErrorCode != "LIMIT_EXCEEDED" {
		t.Fatalf("unexpected error code: %q", result.ErrorCode)
	}
}

func TestMockProcessPayment_SucceedsWithWellFormedID(t *testing.T) {
	p := NewMockProvider(testLogger(t))
	result, err := p.ProcessPayment(context.Background(), Request{
		Amount:     decimal.NewFromInt(500),
		DonationID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success: %+v", result)
	}
	if !regexp.MustCompile(`^MOCK-[A-Z0-9]{16}$`).MatchString(result.TransactionID) {
		t.Fatalf("transaction id shape: %q", result.TransactionID)
	}
	if result.Data["gateway"] != "mock" {
		t.Fatalf("expected gateway metadata, got %+v", result.Data)
	}
}

func TestMockVerifyPayment_ShapeOnly(t *testing.T) {
	p := NewMockProvider(testLogger(t))
	cases := []struct {
		id    string
		valid bool
	}{
		{"MOCK-ABCDEFGH12345678", true},
		{"REFUND-ABCDEFGH12345678", false},
		{"MOCK-short", false},
		{"mock-abcdefgh12345678", false},
		{"stripe_abc", false},
		{"", false},
	}
	for _, tc := range cases {
		v, err := p.VerifyPayment(context.Background(), tc.id, nil)
		if err != nil {
			t.Fatalf("VerifyPayment(%q): %v", tc.id, err)
		}
		if v.Valid != tc.valid {
			t.Fatalf("VerifyPayment(%q) valid=%v, want %v", tc.id, v.Valid, tc.valid)
		}
	}
}

func TestMockRefundPayment_MintsRefundID(t *testing.T) {
	p := NewMockProvider(testLogger(t))
	result, err := p.RefundPayment(context.Background(), "MOCK-ABCDEFGH12345678", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("RefundPayment: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected refund success: %+v", result)
	}
	if !regexp.MustCompile(`^REFUND-[A-Z0-9]{16}$`).MatchString(result.TransactionID) {
		t.Fatalf("refund id shape: %q", result.TransactionID)
	}
}

func TestMockRefundPayment_RejectsUnknownShape(t *testing.T) {
	p := NewMockProvider(testLogger(t))
	result, err := p.RefundPayment(context.Background(), "stripe_notours", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("RefundPayment: %v", err)
	}
	if result.Success || result.ErrorCode != "NOT_FOUND" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestMockCreatePaymentIntent_CarriesDonationMetadata(t *testing.T) {
	p := NewMockProvider(testLogger(t))
	donation := &types.Donation{
		ID:         uuid.New(),
		CampaignID: uuid.New(),
		Amount:     decimal.NewFromInt(250),
		Currency:   "USD",
	}
	intent, err := p.CreatePaymentIntent(context.Background(), donation)
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if intent.ClientSecret == "" || intent.ID == "" {
		t.Fatalf("intent missing handles: %+v", intent)
	}
	if intent.Metadata["donation_id"] != donation.ID.String() {
		t.Fatalf("intent metadata missing donation id: %+v", intent.Metadata)
	}
}
