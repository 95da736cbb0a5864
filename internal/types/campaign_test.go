package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Clean Water for All", "clean-water-for-all"},
		{"  Help!!  Now  ", "help-now"},
		{"100% Match Drive", "100-match-drive"},
		{"---", ""},
		{"Déjà Vu Fund", "d-j-vu-fund"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsActive_RespectsWindowAndStatus(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	base := Campaign{
		Status:    CampaignStatusActive,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(24 * time.Hour),
	}

	if !base.IsActive(now) {
		t.Fatalf("in-window active campaign should accept donations")
	}

	notStarted := base
	notStarted.StartDate = now.Add(time.Hour)
	if notStarted.IsActive(now) {
		t.Fatalf("campaign before start_date should not be active")
	}

	ended := base
	ended.EndDate = now.Add(-time.Hour)
	if ended.IsActive(now) {
		t.Fatalf("campaign past end_date should not be active")
	}

	pending := base
	pending.Status = CampaignStatusPending
	if pending.IsActive(now) {
		t.Fatalf("pending campaign should not be active")
	}
}

func TestProgressPercentage_CapsAtHundred(t *testing.T) {
	c := Campaign{GoalAmount: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(250)}
	if got := c.ProgressPercentage(); got != 25 {
		t.Fatalf("progress = %v, want 25", got)
	}
	c.CurrentAmount = decimal.NewFromInt(1500)
	if got := c.ProgressPercentage(); got != 100 {
		t.Fatalf("overfunded progress = %v, want capped 100", got)
	}
	c.GoalAmount = decimal.Zero
	if got := c.ProgressPercentage(); got != 0 {
		t.Fatalf("zero goal progress = %v, want 0", got)
	}
}

func TestDaysRemaining_NeverNegative(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	c := Campaign{EndDate: now.Add(-48 * time.Hour)}
	if got := c.DaysRemaining(now); got != 0 {
		t.Fatalf("ended campaign days remaining = %d, want 0", got)
	}
	c.EndDate = now.Add(72 * time.Hour)
	if got := c.DaysRemaining(now); got != 3 {
		t.Fatalf("days remaining = %d, want 3", got)
	}
}
