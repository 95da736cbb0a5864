package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/types"
)

type CampaignFilters struct {
	Category string
	Status   string
	UserID   uuid.UUID
	Featured *bool
}

type CampaignStatistics struct {
	TotalCampaigns  int64           `json:"total_campaigns"`
	ActiveCampaigns int64           `json:"active_campaigns"`
	TotalRaised     decimal.Decimal `json:"total_raised"`
	TotalDonors     int64           `json:"total_donors"`
}

type CampaignRepo interface {
	Create(ctx context.Context, tx *gorm.DB, campaign *types.Campaign) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Campaign, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Campaign, error)
	Update(ctx context.Context, tx *gorm.DB, campaign *types.Campaign) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListActive(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Campaign, error)
	ListFeatured(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Campaign, error)
	ListByCategory(ctx context.Context, tx *gorm.DB, category string, limit int) ([]*types.Campaign, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Campaign, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.Campaign, error)
	ListTrending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Campaign, error)
	ListEndingSoon(ctx context.Context, tx *gorm.DB, days, limit int) ([]*types.Campaign, error)
	Paginate(ctx context.Context, tx *gorm.DB, page, perPage int, filters CampaignFilters) ([]*types.Campaign, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters CampaignFilters) ([]*types.Campaign, error)
	IncrementViews(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	BulkUpdateStatus(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, status string, reason *string, approvedBy *uuid.UUID) (int64, error)
	RecomputeTotals(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Campaign, error)
	Statistics(ctx context.Context, tx *gorm.DB) (*CampaignStatistics, error)
}

type campaignRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCampaignRepo(db *gorm.DB, baseLog *logger.Logger) CampaignRepo {
	repoLog := baseLog.With("repo", "CampaignRepo")
	return &campaignRepo{db: db, log: repoLog}
}

func (cr *campaignRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return cr.db
}

func (cr *campaignRepo) Create(ctx context.Context, tx *gorm.DB, campaign *types.Campaign) error {
	return cr.conn(tx).WithContext(ctx).Create(campaign).Error
}

func (cr *campaignRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Campaign, error) {
	var result types.Campaign
	err := cr.conn(tx).WithContext(ctx).Where("id = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *campaignRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Campaign, error) {
	var result types.Campaign
	err := cr.conn(tx).WithContext(ctx).Where("slug = ?", slug).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *campaignRepo) Update(ctx context.Context, tx *gorm.DB, campaign *types.Campaign) error {
	return cr.conn(tx).WithContext(ctx).Save(campaign).Error
}

func (cr *campaignRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return cr.conn(tx).WithContext(ctx).Where("id = ?", id).Delete(&types.Campaign{}).Error
}

func (cr *campaignRepo) ListActive(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Campaign, error) {
	var results []*types.Campaign
	now := time.Now().UTC()
	q := cr.conn(tx).WithContext(ctx).
		Where("status = ?", types.CampaignStatusActive).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *campaignRepo) ListFeatured(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Campaign, error) {
	var results []*types.Campaign
	q := cr.conn(tx).WithContext(ctx).
		Where("is_featured = ?", true).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *campaignRepo) ListByCategory(ctx context.Context, tx *gorm.DB, category string, limit int) ([]*types.Campaign, error) {
	var results []*types.Campaign
	q := cr.conn(tx).WithContext(ctx).
		Where("category = ?", category).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *campaignRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Campaign, error) {
	var results []*types.Campaign
	if err := cr.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *campaignRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.Campaign, error) {
	var results []*types.Campaign
	if err := cr.conn(tx).WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *campaignRepo) ListTrending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Campaign, error) {
	var results []*types.Campaign
	now := time.Now().UTC()
	q := cr.conn(tx).WithContext(ctx).
		Where("status = ?", types.CampaignStatusActive).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Order("views_count DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *campaignRepo) ListEndingSoon(ctx context.Context, tx *gorm.DB, days, limit int) ([]*types.Campaign, error) {
	var results []*types.Campaign
	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, days)
	q := cr.conn(tx).WithContext(ctx).
		Where("status = ?", types.CampaignStatusActive).
		Where("end_date >= ? AND end_date <= ?", now, cutoff).
		Order("end_date ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *campaignRepo) applyFilters(q *gorm.DB, filters CampaignFilters) *gorm.DB {
	if filters.Category != "" {
		q = q.Where("category = ?", filters.Category)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.UserID != uuid.Nil {
		q = q.Where("user_id = ?", filters.UserID)
	}
	if filters.Featured != nil {
		q = q.Where("is_featured = ?", *filters.Featured)
	}
	return q
}

func (cr *campaignRepo) Paginate(ctx context.Context, tx *gorm.DB, page, perPage int, filters CampaignFilters) ([]*types.Campaign, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 12
	}
	var total int64
	base := cr.applyFilters(cr.conn(tx).WithContext(ctx).Model(&types.Campaign{}), filters)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var results []*types.Campaign
	if err := base.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (cr *campaignRepo) Search(ctx context.Context, tx *gorm.DB, query string, filters CampaignFilters) ([]*types.Campaign, error) {
	var results []*types.Campaign
	pattern := "%" + query + "%"
	q := cr.applyFilters(cr.conn(tx).WithContext(ctx).Model(&types.Campaign{}), filters).
		Where("title LIKE ? OR description LIKE ?", pattern, pattern).
		Order("created_at DESC")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *campaignRepo) IncrementViews(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return cr.conn(tx).WithContext(ctx).
		Model(&types.Campaign{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

func (cr *campaignRepo) BulkUpdateStatus(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, status string, reason *string, approvedBy *uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	updates := map[string]any{"status": status}
	if reason != nil {
		updates["rejection_reason"] = *reason
	}
	if approvedBy != nil {
		updates["approved_by"] = *approvedBy
		updates["approved_at"] = time.Now().UTC()
	}
	result := cr.conn(tx).WithContext(ctx).
		Model(&types.Campaign{}).
		Where("id IN ?", ids).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// RecomputeTotals rewrites current_amount and donors_count from the full set
// of completed donations. Idempotent under concurrent completions in either
// commit order; must run inside the same transaction as the donation-status
// write that triggered it.
func (cr *campaignRepo) RecomputeTotals(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Campaign, error) {
	conn := cr.conn(tx)
	var agg struct {
		Total  decimal.Decimal
		Donors int
	}
	if err := conn.WithContext(ctx).
		Model(&types.Donation{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(DISTINCT user_id) AS donors").
		Where("campaign_id = ? AND status = ?", id, types.DonationStatusCompleted).
		Scan(&agg).Error; err != nil {
		return nil, err
	}
	if err := conn.WithContext(ctx).
		Model(&types.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_amount": agg.Total,
			"donors_count":   agg.Donors,
		}).Error; err != nil {
		return nil, err
	}
	return cr.GetByID(ctx, tx, id)
}

func (cr *campaignRepo) Statistics(ctx context.Context, tx *gorm.DB) (*CampaignStatistics, error) {
	conn := cr.conn(tx).WithContext(ctx)
	stats := &CampaignStatistics{}
	if err := conn.Model(&types.Campaign{}).Count(&stats.TotalCampaigns).Error; err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := conn.Model(&types.Campaign{}).
		Where("status = ?", types.CampaignStatusActive).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Count(&stats.ActiveCampaigns).Error; err != nil {
		return nil, err
	}
	var agg struct {
		Total  decimal.Decimal
		Donors int64
	}
	if err := conn.Model(&types.Donation{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(DISTINCT user_id) AS donors").
		Where("status = ?", types.DonationStatusCompleted).
		Scan(&agg).Error; err != nil {
		return nil, err
	}
	stats.TotalRaised = agg.Total
	stats.TotalDonors = agg.Donors
	return stats, nil
}
