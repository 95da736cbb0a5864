package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/givebridge-backend/internal/apperr"
)

const (
	DonationStatusPending   = "pending"
	DonationStatusCompleted = "completed"
	DonationStatusFailed    = "failed"
	DonationStatusRefunded  = "refunded"
)

// donationTransitions is the full legal transition set. Failed attempts are
// retried by submitting a new donation, never by reviving this row.
var donationTransitions = map[string][]string{
	DonationStatusPending:   {DonationStatusCompleted, DonationStatusFailed},
	DonationStatusCompleted: {DonationStatusRefunded},
	DonationStatusFailed:    {},
	DonationStatusRefunded:  {},
}

type Donation struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	DonationNumber      string           `gorm:"column:donation_number;not null;uniqueIndex" json:"donation_number"`
	UserID              uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	User                *User            `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CampaignID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"campaign_id"`
	Campaign            *Campaign        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Amount              decimal.Decimal  `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency            string           `gorm:"column:currency;not null;default:USD" json:"currency"`
	Status              string           `gorm:"column:status;not null;default:pending;index" json:"status"`
	PaymentMethod       string           `gorm:"column:payment_method" json:"payment_method"`
	PaymentProvider     string           `gorm:"column:payment_provider" json:"payment_provider"`
	TransactionID       *string          `gorm:"column:transaction_id" json:"transaction_id,omitempty"`
	RefundTransactionID *string          `gorm:"column:refund_transaction_id" json:"refund_transaction_id,omitempty"`
	RefundedAmount      *decimal.Decimal `gorm:"column:refunded_amount;type:numeric(12,2)" json:"refunded_amount,omitempty"`
	PaymentDetails      datatypes.JSON   `gorm:"column:payment_details;type:jsonb" json:"payment_details,omitempty"`
	IsAnonymous         bool             `gorm:"column:is_anonymous;not null;default:false" json:"is_anonymous"`
	Message             string           `gorm:"column:message" json:"message"`
	FailureReason       *string          `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
	PaidAt              *time.Time       `gorm:"column:paid_at" json:"paid_at,omitempty"`
	FailedAt            *time.Time       `gorm:"column:failed_at" json:"failed_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

func (Donation) TableName() string { return "donation" }

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Donation) IsPending() bool   { return d.Status == DonationStatusPending }
func (d *Donation) IsCompleted() bool { return d.Status == DonationStatusCompleted }

// IsTerminal reports whether no further transition is legal except the
// modeled refund path.
func (d *Donation) IsTerminal() bool {
	return d.Status == DonationStatusFailed || d.Status == DonationStatusRefunded
}

// CanTransition reports whether moving to the target status is legal.
func (d *Donation) CanTransition(to string) bool {
	for _, allowed := range donationTransitions[d.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// MarkCompleted applies pending -> completed. The provider transaction id is
// required; the caller recomputes the campaign aggregate in the same
// transaction as the resulting row update.
func (d *Donation) MarkCompleted(transactionID string, details datatypes.JSON, now time.Time) error {
	if !d.CanTransition(DonationStatusCompleted) {
		return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidStateTransition, d.Status, DonationStatusCompleted)
	}
	if transactionID == "" {
		return fmt.Errorf("%w: completed requires a transaction id", apperr.ErrInvalidStateTransition)
	}
	d.Status = DonationStatusCompleted
	d.TransactionID = &transactionID
	d.PaymentDetails = details
	t := now.UTC()
	d.PaidAt = &t
	return nil
}

// MarkFailed applies pending -> failed with a required reason.
func (d *Donation) MarkFailed(reason string, now time.Time) error {
	if !d.CanTransition(DonationStatusFailed) {
		return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidStateTransition, d.Status, DonationStatusFailed)
	}
	if reason == "" {
		return fmt.Errorf("%w: failed requires a reason", apperr.ErrInvalidStateTransition)
	}
	d.Status = DonationStatusFailed
	d.FailureReason = &reason
	t := now.UTC()
	d.FailedAt = &t
	return nil
}

// MarkRefunded applies completed -> refunded. The refunded amount may be
// partial but never exceeds the original; at the aggregate level the whole
// donation is excluded regardless.
func (d *Donation) MarkRefunded(refundTransactionID string, amount decimal.Decimal) error {
	if !d.CanTransition(DonationStatusRefunded) {
		return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidStateTransition, d.Status, DonationStatusRefunded)
	}
	if refundTransactionID == "" {
		return fmt.Errorf("%w: refunded requires a refund transaction id", apperr.ErrInvalidStateTransition)
	}
	if amount.GreaterThan(d.Amount) {
		return apperr.ErrRefundExceedsOriginal
	}
	d.Status = DonationStatusRefunded
	d.RefundTransactionID = &refundTransactionID
	d.RefundedAmount = &amount
	return nil
}

// DonorName never surfaces the donor identity for anonymous donations.
func (d *Donation) DonorName() string {
	if d.IsAnonymous || d.User == nil {
		return "Anonymous Donor"
	}
	return d.User.FullName()
}
