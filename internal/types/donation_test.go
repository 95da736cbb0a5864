package types

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/yungbote/givebridge-backend/internal/apperr"
)

func TestCanTransition_FullMatrix(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{DonationStatusPending, DonationStatusCompleted, true},
		{DonationStatusPending, DonationStatusFailed, true},
		{DonationStatusPending, DonationStatusRefunded, false},
		{DonationStatusPending, DonationStatusPending, false},
		{DonationStatusCompleted, DonationStatusRefunded, true},
		{DonationStatusCompleted, DonationStatusFailed, false},
		{DonationStatusCompleted, DonationStatusPending, false},
		{DonationStatusFailed, DonationStatusCompleted, false},
		{DonationStatusFailed, DonationStatusPending, false},
		{DonationStatusFailed, DonationStatusRefunded, false},
		{DonationStatusRefunded, DonationStatusCompleted, false},
		{DonationStatusRefunded, DonationStatusPending, false},
	}
	for _, tc := range cases {
		d := &Donation{Status: tc.from}
		if got := d.CanTransition(tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestMarkCompleted_RequiresTransactionID(t *testing.T) {
	d := &Donation{Status: DonationStatusPending, Amount: decimal.NewFromInt(100)}
	err := d.MarkCompleted("", datatypes.JSON(nil), time.Now())
	if !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	if d.Status != DonationStatusPending {
		t.Fatalf("status mutated on rejected transition: %s", d.Status)
	}
}

func TestMarkCompleted_SetsPaidAtAndDetails(t *testing.T) {
	d := &Donation{Status: DonationStatusPending, Amount: decimal.NewFromInt(100)}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := d.MarkCompleted("MOCK-ABCDEFGH12345678", datatypes.JSON([]byte(`{"gateway":"mock"}`)), now); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if d.Status != DonationStatusCompleted {
		t.Fatalf("expected completed, got %s", d.Status)
	}
	if d.TransactionID == nil || *d.TransactionID != "MOCK-ABCDEFGH12345678" {
		t.Fatalf("transaction id not recorded: %v", d.TransactionID)
	}
	if d.PaidAt == nil || !d.PaidAt.Equal(now) {
		t.Fatalf("paid_at not recorded: %v", d.PaidAt)
	}
}

func TestMarkFailed_RequiresReason(t *testing.T) {
	d := &Donation{Status: DonationStatusPending}
	if err := d.MarkFailed("", time.Now()); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	if err := d.MarkFailed("Payment declined by bank", time.Now()); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if d.FailureReason == nil || *d.FailureReason != "Payment declined by bank" {
		t.Fatalf("failure reason not recorded: %v", d.FailureReason)
	}
	if d.FailedAt == nil {
		t.Fatalf("failed_at not recorded")
	}
}

func TestMarkFailed_TerminalStaysTerminal(t *testing.T) {
	d := &Donation{Status: DonationStatusPending}
	if err := d.MarkFailed("declined", time.Now()); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := d.MarkCompleted("MOCK-ABCDEFGH12345678", nil, time.Now()); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("failed donation accepted completion: %v", err)
	}
	if !d.IsTerminal() {
		t.Fatalf("failed donation should be terminal")
	}
}

func TestMarkRefunded_PartialAmountAllowed(t *testing.T) {
	d := &Donation{Status: DonationStatusCompleted, Amount: decimal.NewFromInt(500)}
	if err := d.MarkRefunded("REFUND-ABCDEFGH12345678", decimal.NewFromInt(200)); err != nil {
		t.Fatalf("MarkRefunded: %v", err)
	}
	if d.Status != DonationStatusRefunded {
		t.Fatalf("expected refunded, got %s", d.Status)
	}
	if d.RefundedAmount == nil || !d.RefundedAmount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("refunded amount not recorded: %v", d.RefundedAmount)
	}
}

func TestMarkRefunded_RejectsExcessAmount(t *testing.T) {
	d := &Donation{Status: DonationStatusCompleted, Amount: decimal.NewFromInt(500)}
	err := d.MarkRefunded("REFUND-ABCDEFGH12345678", decimal.NewFromInt(501))
	if !errors.Is(err, apperr.ErrRefundExceedsOriginal) {
		t.Fatalf("expected ErrRefundExceedsOriginal, got %v", err)
	}
	if d.Status != DonationStatusCompleted {
		t.Fatalf("status mutated on rejected refund: %s", d.Status)
	}
}

// TestTransitionSequences_InvariantsHold drives a donation through random
// transition attempts and checks the structural invariants after every step:
// transaction_id is set iff the row reached completed or refunded, and a
// terminal row never changes status again.
func TestTransitionSequences_InvariantsHold(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	ops := []func(d *Donation) error{
		func(d *Donation) error {
			return d.MarkCompleted("MOCK-ABCDEFGH12345678", nil, time.Now())
		},
		func(d *Donation) error { return d.MarkFailed("declined", time.Now()) },
		func(d *Donation) error {
			return d.MarkRefunded("REFUND-ABCDEFGH12345678", d.Amount)
		},
	}

	for seq := 0; seq < 200; seq++ {
		d := &Donation{Status: DonationStatusPending, Amount: decimal.NewFromInt(100)}
		for step := 0; step < 6; step++ {
			before := d.Status
			wasTerminal := d.IsTerminal()
			err := ops[rng.IntN(len(ops))](d)

			if wasTerminal && d.Status != before {
				t.Fatalf("seq %d step %d: terminal status %s mutated to %s", seq, step, before, d.Status)
			}
			if err != nil && d.Status != before {
				t.Fatalf("seq %d step %d: rejected transition mutated status %s -> %s", seq, step, before, d.Status)
			}
			hasTx := d.TransactionID != nil
			completedOrRefunded := d.Status == DonationStatusCompleted || d.Status == DonationStatusRefunded
			if hasTx != completedOrRefunded {
				t.Fatalf("seq %d step %d: transaction_id presence %v inconsistent with status %s", seq, step, hasTx, d.Status)
			}
		}
	}
}

func TestDonorName_AnonymousNeverLeaksIdentity(t *testing.T) {
	u := &User{FirstName: "Jane", LastName: "Doe"}
	d := &Donation{IsAnonymous: true, User: u}
	if got := d.DonorName(); got != "Anonymous Donor" {
		t.Fatalf("anonymous donation leaked donor name: %q", got)
	}
	d.IsAnonymous = false
	if got := d.DonorName(); got != "Jane Doe" {
		t.Fatalf("expected full name, got %q", got)
	}
	d.User = nil
	if got := d.DonorName(); got != "Anonymous Donor" {
		t.Fatalf("missing user should read anonymous, got %q", got)
	}
}
