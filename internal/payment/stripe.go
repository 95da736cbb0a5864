package payment

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/types"
)

const stripeTransactionPrefix = "stripe_"

var (
	stripeDeclineFloor = decimal.NewFromInt(1000)

	stripeTransactionPattern = regexp.MustCompile(`^stripe_[a-z0-9]{20,}$`)
)

// StripeProvider stands in for the real Stripe integration. Charges and
// refunds are simulated but the id shapes, intent flow, and verification
// behavior match what the SDK-backed version returns.
type StripeProvider struct {
	log            *logger.Logger
	secretKey      string
	publishableKey string
}

func NewStripeProvider(baseLog *logger.Logger, secretKey, publishableKey string) (*StripeProvider, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, fmt.Errorf("missing stripe secret key")
	}
	return &StripeProvider{
		log:            baseLog.With("provider", "stripe"),
		secretKey:      secretKey,
		publishableKey: publishableKey,
	}, nil
}

func (p *StripeProvider) ProcessPayment(ctx context.Context, req Request) (*Result, error) {
	transactionID := stripeTransactionPrefix + strings.ToLower(randomToken(24))

	if req.Amount.GreaterThanOrEqual(stripeDeclineFloor) {
		p.log.Warn("stripe payment declined", "donation_id", req.DonationID, "amount", req.Amount.String())
		return FailureResult("Payment failed", "payment_declined"), nil
	}

	p.log.Info("stripe payment processed", "donation_id", req.DonationID, "transaction_id", transactionID, "amount", req.Amount.String())
	return SuccessResult(transactionID, "succeeded", map[string]any{
		"provider": "stripe",
		"amount":   req.Amount.String(),
		"currency": req.Currency,
	}), nil
}

func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, donation *types.Donation) (*Intent, error) {
	if donation == nil {
		return nil, fmt.Errorf("donation required")
	}
	intentID := "pi_" + strings.ToLower(randomToken(24))
	return &Intent{
		ID:           intentID,
		ClientSecret: intentID + "_secret_" + strings.ToLower(randomToken(24)),
		Amount:       donation.Amount,
		Currency:     donation.Currency,
		Status:       "requires_payment_method",
		Metadata: map[string]string{
			"donation_id": donation.ID.String(),
			"campaign_id": donation.CampaignID.String(),
		},
	}, nil
}

func (p *StripeProvider) VerifyPayment(ctx context.Context, transactionID string, data map[string]any) (*Verification, error) {
	if !stripeTransactionPattern.MatchString(transactionID) {
		return &Verification{Valid: false, Data: data}, nil
	}
	v := &Verification{
		Valid:         true,
		TransactionID: transactionID,
		Status:        "succeeded",
		Data:          data,
	}
	if raw, ok := data["amount"].(string); ok {
		if amount, err := decimal.NewFromString(raw); err == nil {
			v.Amount = amount
		}
	}
	return v, nil
}

func (p *StripeProvider) RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal) (*Result, error) {
	if !stripeTransactionPattern.MatchString(transactionID) {
		return FailureResult("No such charge", "resource_missing"), nil
	}
	refundID := "re_" + strings.ToLower(randomToken(24))
	p.log.Info("stripe refund processed", "transaction_id", transactionID, "refund_id", refundID, "amount", amount.String())
	return SuccessResult(refundID, "refunded", map[string]any{
		"original_transaction": transactionID,
		"refund_amount":        amount.String(),
	}), nil
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) SupportedMethods() []string {
	return []string{"card", "apple_pay", "google_pay", "sepa_debit", "ach_debit"}
}

func (p *StripeProvider) TransactionPrefix() string { return stripeTransactionPrefix }
