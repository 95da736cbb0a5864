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

const campaignListPrefix = "campaigns:"

// CachedCampaignRepo decorates CampaignRepo with a read-through cache.
// Lookups that run inside a transaction bypass the cache entirely so
// pre-commit data never gets populated into it.
type CachedCampaignRepo interface {
	CampaignRepo
	// Invalidate drops the campaign's entity keys and the whole list
	// namespace. Failures are logged and swallowed: a committed write is
	// never rolled back over the cache.
	Invalidate(ctx context.Context, id uuid.UUID, slug string)
}

type cachedCampaignRepo struct {
	CampaignRepo
	cache redis.Cache
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedCampaignRepo(inner CampaignRepo, cache redis.Cache, ttl time.Duration, baseLog *logger.Logger) CachedCampaignRepo {
	return &cachedCampaignRepo{
		CampaignRepo: inner,
		cache:        cache,
		ttl:          ttl,
		log:          baseLog.With("repo", "CachedCampaignRepo"),
	}
}

func (cc *cachedCampaignRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Campaign, error) {
	if tx != nil {
		return cc.CampaignRepo.GetByID(ctx, tx, id)
	}
	key := fmt.Sprintf("campaign:id:%s", id)
	var cached types.Campaign
	if ok, err := cc.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}
	result, err := cc.CampaignRepo.GetByID(ctx, nil, id)
	if err != nil || result == nil {
		return result, err
	}
	cc.set(ctx, key, result)
	return result, nil
}

func (cc *cachedCampaignRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Campaign, error) {
	if tx != nil {
		return cc.CampaignRepo.GetBySlug(ctx, tx, slug)
	}
	key := fmt.Sprintf("campaign:slug:%s", slug)
	var cached types.Campaign
	if ok, err := cc.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}
	result, err := cc.CampaignRepo.GetBySlug(ctx, nil, slug)
	if err != nil || result == nil {
		return result, err
	}
	cc.set(ctx, key, result)
	return result, nil
}

func (cc *cachedCampaignRepo) listThrough(ctx context.Context, key string, load func() ([]*types.Campaign, error)) ([]*types.Campaign, error) {
	var cached []*types.Campaign
	if ok, err := cc.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	results, err := load()
	if err != nil {
		return nil, err
	}
	cc.set(ctx, key, results)
	return results, nil
}

func (cc *cachedCampaignRepo) ListActive(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Campaign, error) {
	if tx != nil {
		return cc.CampaignRepo.ListActive(ctx, tx, limit)
	}
	key := fmt.Sprintf("campaigns:active:%d", limit)
	return cc.listThrough(ctx, key, func() ([]*types.Campaign, error) {
		return cc.CampaignRepo.ListActive(ctx, nil, limit)
	})
}

func (cc *cachedCampaignRepo) ListFeatured(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Campaign, error) {
	if tx != nil {
		return cc.CampaignRepo.ListFeatured(ctx, tx, limit)
	}
	key := fmt.Sprintf("campaigns:featured:%d", limit)
	return cc.listThrough(ctx, key, func() ([]*types.Campaign, error) {
		return cc.CampaignRepo.ListFeatured(ctx, nil, limit)
	})
}

func (cc *cachedCampaignRepo) ListByCategory(ctx context.Context, tx *gorm.DB, category string, limit int) ([]*types.Campaign, error) {
	if tx != nil {
		return cc.CampaignRepo.ListByCategory(ctx, tx, category, limit)
	}
	key := fmt.Sprintf("campaigns:category:%s:%d", category, limit)
	return cc.listThrough(ctx, key, func() ([]*types.Campaign, error) {
		return cc.CampaignRepo.ListByCategory(ctx, nil, category, limit)
	})
}

func (cc *cachedCampaignRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Campaign, error) {
	if tx != nil {
		return cc.CampaignRepo.ListByUser(ctx, tx, userID)
	}
	key := fmt.Sprintf("campaigns:user:%s", userID)
	return cc.listThrough(ctx, key, func() ([]*types.Campaign, error) {
		return cc.CampaignRepo.ListByUser(ctx, nil, userID)
	})
}

func (cc *cachedCampaignRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.Campaign, error) {
	if tx != nil {
		return cc.CampaignRepo.ListByStatus(ctx, tx, status)
	}
	key := fmt.Sprintf("campaigns:status:%s", status)
	return cc.listThrough(ctx, key, func() ([]*types.Campaign, error) {
		return cc.CampaignRepo.ListByStatus(ctx, nil, status)
	})
}

func (cc *cachedCampaignRepo) ListTrending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Campaign, error) {
	if tx != nil {
		return cc.CampaignRepo.ListTrending(ctx, tx, limit)
	}
	key := fmt.Sprintf("campaigns:trending:%d", limit)
	var cached []*types.Campaign
	if ok, err := cc.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	results, err := cc.CampaignRepo.ListTrending(ctx, nil, limit)
	if err != nil {
		return nil, err
	}
	// Trending churns with view counts, so it gets half the usual TTL.
	if err := cc.cache.SetJSON(ctx, key, results, cc.ttl/2); err != nil {
		cc.log.Warn("cache set failed", "key", key, "error", err)
	}
	return results, nil
}

func (cc *cachedCampaignRepo) ListEndingSoon(ctx context.Context, tx *gorm.DB, days, limit int) ([]*types.Campaign, error) {
	if tx != nil {
		return cc.CampaignRepo.ListEndingSoon(ctx, tx, days, limit)
	}
	key := fmt.Sprintf("campaigns:ending_soon:%d:%d", days, limit)
	var cached []*types.Campaign
	if ok, err := cc.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	results, err := cc.CampaignRepo.ListEndingSoon(ctx, nil, days, limit)
	if err != nil {
		return nil, err
	}
	if err := cc.cache.SetJSON(ctx, key, results, cc.ttl/2); err != nil {
		cc.log.Warn("cache set failed", "key", key, "error", err)
	}
	return results, nil
}

func (cc *cachedCampaignRepo) Statistics(ctx context.Context, tx *gorm.DB) (*CampaignStatistics, error) {
	if tx != nil {
		return cc.CampaignRepo.Statistics(ctx, tx)
	}
	key := "campaigns:statistics"
	var cached CampaignStatistics
	if ok, err := cc.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}
	stats, err := cc.CampaignRepo.Statistics(ctx, nil)
	if err != nil {
		return nil, err
	}
	cc.set(ctx, key, stats)
	return stats, nil
}

// Paginate and Search are never cached: their staleness window is
// unacceptable relative to their churn rate.

func (cc *cachedCampaignRepo) Create(ctx context.Context, tx *gorm.DB, campaign *types.Campaign) error {
	if err := cc.CampaignRepo.Create(ctx, tx, campaign); err != nil {
		return err
	}
	if tx == nil {
		cc.Invalidate(ctx, campaign.ID, campaign.Slug)
	}
	return nil
}

func (cc *cachedCampaignRepo) Update(ctx context.Context, tx *gorm.DB, campaign *types.Campaign) error {
	if err := cc.CampaignRepo.Update(ctx, tx, campaign); err != nil {
		return err
	}
	if tx == nil {
		cc.Invalidate(ctx, campaign.ID, campaign.Slug)
	}
	return nil
}

func (cc *cachedCampaignRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	existing, err := cc.CampaignRepo.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := cc.CampaignRepo.Delete(ctx, tx, id); err != nil {
		return err
	}
	if tx == nil {
		slug := ""
		if existing != nil {
			slug = existing.Slug
		}
		cc.Invalidate(ctx, id, slug)
	}
	return nil
}

func (cc *cachedCampaignRepo) BulkUpdateStatus(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, status string, reason *string, approvedBy *uuid.UUID) (int64, error) {
	n, err := cc.CampaignRepo.BulkUpdateStatus(ctx, tx, ids, status, reason, approvedBy)
	if err != nil {
		return n, err
	}
	if tx == nil {
		for _, id := range ids {
			// The slug key has to go too, so look the row back up for it.
			slug := ""
			if row, lerr := cc.CampaignRepo.GetByID(ctx, nil, id); lerr == nil && row != nil {
				slug = row.Slug
			}
			cc.Invalidate(ctx, id, slug)
		}
	}
	return n, nil
}

// IncrementViews deliberately skips invalidation: view counts are
// non-critical and invalidating on every read would thrash the cache.
func (cc *cachedCampaignRepo) IncrementViews(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return cc.CampaignRepo.IncrementViews(ctx, tx, id)
}

func (cc *cachedCampaignRepo) Invalidate(ctx context.Context, id uuid.UUID, slug string) {
	keys := []string{fmt.Sprintf("campaign:id:%s", id)}
	if slug != "" {
		keys = append(keys, fmt.Sprintf("campaign:slug:%s", slug))
	}
	if err := cc.cache.Del(ctx, keys...); err != nil {
		cc.log.Warn("cache invalidation failed", "campaign_id", id, "error", err)
	}
	if err := cc.cache.DelByPrefix(ctx, campaignListPrefix); err != nil {
		cc.log.Warn("cache list invalidation failed", "campaign_id", id, "error", err)
	}
}

func (cc *cachedCampaignRepo) set(ctx context.Context, key string, val any) {
	if err := cc.cache.SetJSON(ctx, key, val, cc.ttl); err != nil {
		cc.log.Warn("cache set failed", "key", key, "error", err)
	}
}
