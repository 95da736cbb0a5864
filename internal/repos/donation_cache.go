package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/givebridge-backend/internal/clients/redis"
	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/types"
)

const donationListPrefix = "donations:"

// CachedDonationRepo mirrors the campaign decorator: read-through on entity
// and list lookups, bypass inside transactions, invalidate on every mutation.
type CachedDonationRepo interface {
	DonationRepo
	Invalidate(ctx context.Context, donation *types.Donation)
}

type cachedDonationRepo struct {
	DonationRepo
	cache redis.Cache
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedDonationRepo(inner DonationRepo, cache redis.Cache, ttl time.Duration, baseLog *logger.Logger) CachedDonationRepo {
	return &cachedDonationRepo{
		DonationRepo: inner,
		cache:        cache,
		ttl:          ttl,
		log:          baseLog.With("repo", "CachedDonationRepo"),
	}
}

func (cd *cachedDonationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Donation, error) {
	if tx != nil {
		return cd.DonationRepo.GetByID(ctx, tx, id)
	}
	key := fmt.Sprintf("donation:id:%s", id)
	var cached types.Donation
	if ok, err := cd.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}
	result, err := cd.DonationRepo.GetByID(ctx, nil, id)
	if err != nil || result == nil {
		return result, err
	}
	cd.set(ctx, key, result)
	return result, nil
}

func (cd *cachedDonationRepo) GetByNumber(ctx context.Context, tx *gorm.DB, number string) (*types.Donation, error) {
	if tx != nil {
		return cd.DonationRepo.GetByNumber(ctx, tx, number)
	}
	key := fmt.Sprintf("donation:number:%s", number)
	var cached types.Donation
	if ok, err := cd.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}
	result, err := cd.DonationRepo.GetByNumber(ctx, nil, number)
	if err != nil || result == nil {
		return result, err
	}
	cd.set(ctx, key, result)
	return result, nil
}

func (cd *cachedDonationRepo) ListByCampaign(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) ([]*types.Donation, error) {
	if tx != nil {
		return cd.DonationRepo.ListByCampaign(ctx, tx, campaignID)
	}
	key := fmt.Sprintf("donations:campaign:%s", campaignID)
	var cached []*types.Donation
	if ok, err := cd.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	results, err := cd.DonationRepo.ListByCampaign(ctx, nil, campaignID)
	if err != nil {
		return nil, err
	}
	cd.set(ctx, key, results)
	return results, nil
}

func (cd *cachedDonationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Donation, error) {
	if tx != nil {
		return cd.DonationRepo.ListByUser(ctx, tx, userID)
	}
	key := fmt.Sprintf("donations:user:%s", userID)
	var cached []*types.Donation
	if ok, err := cd.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	results, err := cd.DonationRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	cd.set(ctx, key, results)
	return results, nil
}

func (cd *cachedDonationRepo) ListRecentCompleted(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Donation, error) {
	if tx != nil {
		return cd.DonationRepo.ListRecentCompleted(ctx, tx, limit)
	}
	key := fmt.Sprintf("donations:recent:%d", limit)
	var cached []*types.Donation
	if ok, err := cd.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	results, err := cd.DonationRepo.ListRecentCompleted(ctx, nil, limit)
	if err != nil {
		return nil, err
	}
	cd.set(ctx, key, results)
	return results, nil
}

func (cd *cachedDonationRepo) Create(ctx context.Context, tx *gorm.DB, donation *types.Donation) error {
	if err := cd.DonationRepo.Create(ctx, tx, donation); err != nil {
		return err
	}
	if tx == nil {
		cd.Invalidate(ctx, donation)
	}
	return nil
}

func (cd *cachedDonationRepo) Update(ctx context.Context, tx *gorm.DB, donation *types.Donation) error {
	if err := cd.DonationRepo.Update(ctx, tx, donation); err != nil {
		return err
	}
	if tx == nil {
		cd.Invalidate(ctx, donation)
	}
	return nil
}

func (cd *cachedDonationRepo) Invalidate(ctx context.Context, donation *types.Donation) {
	if donation == nil {
		return
	}
	keys := []string{fmt.Sprintf("donation:id:%s", donation.ID)}
	if donation.DonationNumber != "" {
		keys = append(keys, fmt.Sprintf("donation:number:%s", donation.DonationNumber))
	}
	if err := cd.cache.Del(ctx, keys...); err != nil {
		cd.log.Warn("cache invalidation failed", "donation_id", donation.ID, "error", err)
	}
	if err := cd.cache.DelByPrefix(ctx, donationListPrefix); err != nil {
		cd.log.Warn("cache list invalidation failed", "donation_id", donation.ID, "error", err)
	}
}

func (cd *cachedDonationRepo) set(ctx context.Context, key string, val any) {
	if err := cd.cache.SetJSON(ctx, key, val, cd.ttl); err != nil {
		cd.log.Warn("cache set failed", "key", key, "error", err)
	}
}
