package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CampaignStatusDraft     = "draft"
	CampaignStatusPending   = "pending"
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusCancelled = "cancelled"
	CampaignStatusRejected  = "rejected"
)

type Campaign struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User             *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Title            string          `gorm:"column:title;not null" json:"title"`
	Slug             string          `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Description      string          `gorm:"column:description" json:"description"`
	ShortDescription string          `gorm:"column:short_description" json:"short_description"`
	Category         string          `gorm:"column:category;index" json:"category"`
	GoalAmount       decimal.Decimal `gorm:"column:goal_amount;type:numeric(12,2);not null" json:"goal_amount"`
	CurrentAmount    decimal.Decimal `gorm:"column:current_amount;type:numeric(12,2);not null;default:0" json:"current_amount"`
	DonorsCount      int             `gorm:"column:donors_count;not null;default:0" json:"donors_count"`
	StartDate        time.Time       `gorm:"column:start_date;not null" json:"start_date"`
	EndDate          time.Time       `gorm:"column:end_date;not null" json:"end_date"`
	Status           string          `gorm:"column:status;not null;default:draft;index" json:"status"`
	IsFeatured       bool            `gorm:"column:is_featured;not null;default:false" json:"is_featured"`
	ViewsCount       int             `gorm:"column:views_count;not null;default:0" json:"views_count"`
	ApprovedAt       *time.Time      `gorm:"column:approved_at" json:"approved_at,omitempty"`
	ApprovedBy       *uuid.UUID      `gorm:"column:approved_by;type:uuid" json:"approved_by,omitempty"`
	RejectionReason  *string         `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (Campaign) TableName() string { return "campaign" }

func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Title)
	}
	return nil
}

// IsActive reports whether the campaign currently accepts donations.
func (c *Campaign) IsActive(now time.Time) bool {
	return c.Status == CampaignStatusActive &&
		!c.StartDate.After(now) &&
		!c.EndDate.Before(now)
}

func (c *Campaign) HasEnded(now time.Time) bool {
	return c.EndDate.Before(now)
}

func (c *Campaign) HasReachedGoal() bool {
	return c.CurrentAmount.GreaterThanOrEqual(c.GoalAmount)
}

// ProgressPercentage is capped at 100 and rounded to two places.
func (c *Campaign) ProgressPercentage() float64 {
	if c.GoalAmount.IsZero() {
		return 0
	}
	pct := c.CurrentAmount.Div(c.GoalAmount).Mul(decimal.NewFromInt(100)).Round(2)
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	f, _ := pct.Float64()
	return f
}

func (c *Campaign) DaysRemaining(now time.Time) int {
	if c.HasEnded(now) {
		return 0
	}
	days := int(c.EndDate.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
