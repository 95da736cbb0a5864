package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/types"
)

type DonationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, donation *types.Donation) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Donation, error)
	GetByNumber(ctx context.Context, tx *gorm.DB, number string) (*types.Donation, error)
	Update(ctx context.Context, tx *gorm.DB, donation *types.Donation) error
	ListByCampaign(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) ([]*types.Donation, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Donation, error)
	ListRecentCompleted(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Donation, error)
}

type donationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDonationRepo(db *gorm.DB, baseLog *logger.Logger) DonationRepo {
	repoLog := baseLog.With("repo", "DonationRepo")
	return &donationRepo{db: db, log: repoLog}
}

func (dr *donationRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return dr.db
}

// Create surfaces unique-constraint violations as gorm.ErrDuplicatedKey so
// the orchestrator's donation-number retry loop can detect them.
func (dr *donationRepo) Create(ctx context.Context, tx *gorm.DB, donation *types.Donation) error {
	return dr.conn(tx).WithContext(ctx).Create(donation).Error
}

func (dr *donationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Donation, error) {
	var result types.Donation
	err := dr.conn(tx).WithContext(ctx).Where("id = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (dr *donationRepo) GetByNumber(ctx context.Context, tx *gorm.DB, number string) (*types.Donation, error) {
	var result types.Donation
	err := dr.conn(tx).WithContext(ctx).Where("donation_number = ?", number).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (dr *donationRepo) Update(ctx context.Context, tx *gorm.DB, donation *types.Donation) error {
	return dr.conn(tx).WithContext(ctx).Save(donation).Error
}

func (dr *donationRepo) ListByCampaign(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) ([]*types.Donation, error) {
	var results []*types.Donation
	if err := dr.conn(tx).WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *donationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Donation, error) {
	var results []*types.Donation
	if err := dr.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *donationRepo) ListRecentCompleted(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Donation, error) {
	var results []*types.Donation
	q := dr.conn(tx).WithContext(ctx).
		Where("status = ?", types.DonationStatusCompleted).
		Order("paid_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
