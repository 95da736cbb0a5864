// Package payment holds the provider contract the ledger workflow charges,
// verifies, and refunds through, plus the concrete drivers. Callers only
// interpret the normalized Result fields; provider-specific error codes stay
// inside each driver.
package payment

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/givebridge-backend/internal/types"
)

// Request is the transient charge request built by the orchestrator. Not
// persisted.
type Request struct {
	Amount     decimal.Decimal
	Currency   string
	DonationID uuid.UUID
	DonorID    uuid.UUID
	CampaignID uuid.UUID
	Method     string
	Metadata   map[string]string
}

// Result is the normalized outcome of a charge or refund.
type Result struct {
	Success       bool           `json:"success"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Status        string         `json:"status,omitempty"`
	Message       string         `json:"message,omitempty"`
	ErrorCode     string         `json:"error_code,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

func SuccessResult(transactionID, status string, data map[string]any) *Result {
	return &Result{Success: true, TransactionID: transactionID, Status: status, Data: data}
}

func FailureResult(message, errorCode string) *Result {
	return &Result{Success: false, Message: message, ErrorCode: errorCode}
}

// Intent is the optional pre-authorization handle for providers that need
// client-side confirmation. Best-effort; not every provider supports it.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Amount       decimal.Decimal   `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Verification is the outcome of validating an asynchronous confirmation.
type Verification struct {
	Valid         bool            `json:"valid"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Status        string          `json:"status,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Data          map[string]any  `json:"data,omitempty"`
}

// Provider is the uniform payment contract. ProcessPayment is called at most
// once per donation attempt; the orchestrator never re-invokes it after a
// terminal result. VerifyPayment must reject unrecognized transaction id
// shapes deterministically, without network calls.
type Provider interface {
	ProcessPayment(ctx context.Context, req Request) (*Result, error)
	CreatePaymentIntent(ctx context.Context, donation *types.Donation) (*Intent, error)
	VerifyPayment(ctx context.Context, transactionID string, data map[string]any) (*Verification, error)
	RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal) (*Result, error)
	Name() string
	SupportedMethods() []string
}

const tokenCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomToken(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(tokenCharset)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the process has bigger problems;
			// fall back to a uuid-derived byte.
			b[i] = tokenCharset[uuid.New()[i%16]%byte(len(tokenCharset))]
			continue
		}
		b[i] = tokenCharset[idx.Int64()]
	}
	return string(b)
}
