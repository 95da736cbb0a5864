package payment

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/types"
)

const (
	mockTransactionPrefix = "MOCK-"
	mockRefundPrefix      = "REFUND-"
)

var (
	mockLimit   = decimal.NewFromInt(10000)
	mockDecline = decimal.NewFromInt(666)

	mockTransactionPattern = regexp.MustCompile(`^MOCK-[A-Z0-9]{16}$`)
)

// MockProvider simulates a gateway for local development and tests. Amounts
// over 10000 hit the simulated limit, exactly 666 is declined, everything
// else succeeds.
type MockProvider struct {
	log *logger.Logger
}

func NewMockProvider(baseLog *logger.Logger) *MockProvider {
	return &MockProvider{log: baseLog.With("provider", "mock")}
}

func (p *MockProvider) ProcessPayment(ctx context.Context, req Request) (*Result, error) {
	if req.Amount.GreaterThan(mockLimit) {
		return FailureResult("Transaction limit exceeded", "LIMIT_EXCEEDED"), nil
	}
	if req.Amount.Equal(mockDecline) {
		return FailureResult("Payment declined by bank", "DECLINED"), nil
	}

	transactionID := mockTransactionPrefix + randomToken(16)
	p.log.Debug("mock payment processed", "donation_id", req.DonationID, "transaction_id", transactionID)
	return SuccessResult(transactionID, "completed", map[string]any{
		"gateway":   "mock",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"reference": "REF-" + randomToken(8),
	}), nil
}

func (p *MockProvider) CreatePaymentIntent(ctx context.Context, donation *types.Donation) (*Intent, error) {
	if donation == nil {
		return nil, fmt.Errorf("donation required")
	}
	id := "mock_pi_" + randomToken(12)
	return &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + randomToken(12),
		Amount:       donation.Amount,
		Currency:     donation.Currency,
		Status:       "requires_payment_method",
		Metadata: map[string]string{
			"donation_id": donation.ID.String(),
			"campaign_id": donation.CampaignID.String(),
		},
	}, nil
}

// VerifyPayment validates the id shape only; no network involved.
func (p *MockProvider) VerifyPayment(ctx context.Context, transactionID string, data map[string]any) (*Verification, error) {
	if !mockTransactionPattern.MatchString(transactionID) {
		return &Verification{Valid: false, Data: data}, nil
	}
	return &Verification{
		Valid:         true,
		TransactionID: transactionID,
		Status:        "completed",
		Data:          data,
	}, nil
}

func (p *MockProvider) RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal) (*Result, error) {
	if !mockTransactionPattern.MatchString(transactionID) {
		return FailureResult("Transaction not found", "NOT_FOUND"), nil
	}
	refundID := mockRefundPrefix + randomToken(16)
	p.log.Debug("mock refund processed", "transaction_id", transactionID, "refund_id", refundID)
	return SuccessResult(refundID, "refunded", map[string]any{
		"original_transaction": transactionID,
		"refund_amount":        amount.String(),
		"refunded_at":          time.Now().UTC().Format(time.RFC3339),
	}), nil
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) SupportedMethods() []string {
	return []string{"credit_card", "debit_card", "paypal", "bank_transfer"}
}

func (p *MockProvider) TransactionPrefix() string { return mockTransactionPrefix }
