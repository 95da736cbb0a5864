package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/givebridge-backend/internal/apperr"
	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/repos"
	"github.com/yungbote/givebridge-backend/internal/types"
)

type CreateCampaignInput struct {
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	ShortDescription string          `json:"short_description"`
	Category         string          `json:"category"`
	GoalAmount       decimal.Decimal `json:"goal_amount"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
}

type UpdateCampaignInput struct {
	Title            *string          `json:"title"`
	Description      *string          `json:"description"`
	ShortDescription *string          `json:"short_description"`
	Category         *string          `json:"category"`
	GoalAmount       *decimal.Decimal `json:"goal_amount"`
	StartDate        *time.Time       `json:"start_date"`
	EndDate          *time.Time       `json:"end_date"`
}

type CampaignService interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateCampaignInput) (*types.Campaign, error)
	Update(ctx context.Context, actorID uuid.UUID, id uuid.UUID, input UpdateCampaignInput) (*types.Campaign, error)
	Delete(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*types.Campaign, error)
	GetBySlug(ctx context.Context, slug string, countView bool) (*types.Campaign, error)
	ListActive(ctx context.Context, limit int) ([]*types.Campaign, error)
	ListFeatured(ctx context.Context, limit int) ([]*types.Campaign, error)
	ListByCategory(ctx context.Context, category string, limit int) ([]*types.Campaign, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Campaign, error)
	ListByStatus(ctx context.Context, status string) ([]*types.Campaign, error)
	ListTrending(ctx context.Context, limit int) ([]*types.Campaign, error)
	ListEndingSoon(ctx context.Context, days, limit int) ([]*types.Campaign, error)
	Browse(ctx context.Context, page, perPage int, filters repos.CampaignFilters) ([]*types.Campaign, int64, error)
	Search(ctx context.Context, query string, filters repos.CampaignFilters) ([]*types.Campaign, error)
	Approve(ctx context.Context, adminID uuid.UUID, id uuid.UUID) (*types.Campaign, error)
	Reject(ctx context.Context, adminID uuid.UUID, id uuid.UUID, reason string) (*types.Campaign, error)
	BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status string, reason *string, approvedBy *uuid.UUID) (int64, error)
	Statistics(ctx context.Context) (*repos.CampaignStatistics, error)
}

type campaignService struct {
	db           *gorm.DB
	log          *logger.Logger
	campaignRepo repos.CachedCampaignRepo
	userRepo     repos.UserRepo
	notifier     Notifier
}

func NewCampaignService(db *gorm.DB, baseLog *logger.Logger, campaignRepo repos.CachedCampaignRepo, userRepo repos.UserRepo, notifier Notifier) CampaignService {
	return &campaignService{
		db:           db,
		log:          baseLog.With("service", "CampaignService"),
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

func (cs *campaignService) Create(ctx context.Context, ownerID uuid.UUID, input CreateCampaignInput) (*types.Campaign, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing owner id", apperr.ErrInvalidArgument)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", apperr.ErrInvalidArgument)
	}
	if !input.GoalAmount.IsPositive() {
		return nil, fmt.Errorf("%w: goal amount must be positive", apperr.ErrInvalidArgument)
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", apperr.ErrInvalidArgument)
	}

	campaign := &types.Campaign{
		UserID:           ownerID,
		Title:            strings.TrimSpace(input.Title),
		Description:      input.Description,
		ShortDescription: input.ShortDescription,
		Category:         strings.ToLower(strings.TrimSpace(input.Category)),
		GoalAmount:       input.GoalAmount,
		CurrentAmount:    decimal.Zero,
		StartDate:        input.StartDate.UTC(),
		EndDate:          input.EndDate.UTC(),
		Status:           types.CampaignStatusPending,
	}
	if err := cs.campaignRepo.Create(ctx, nil, campaign); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return campaign, nil
}

func (cs *campaignService) Update(ctx context.Context, actorID uuid.UUID, id uuid.UUID, input UpdateCampaignInput) (*types.Campaign, error) {
	campaign, err := cs.campaignRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, apperr.ErrNotFound
	}
	if campaign.UserID != actorID {
		return nil, apperr.ErrUnauthorized
	}

	// Totals are system-owned; only the orchestrator writes them.
	if input.Title != nil {
		campaign.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		campaign.Description = *input.Description
	}
	if input.ShortDescription != nil {
		campaign.ShortDescription = *input.ShortDescription
	}
	if input.Category != nil {
		campaign.Category = strings.ToLower(strings.TrimSpace(*input.Category))
	}
	if input.GoalAmount != nil {
		if !input.GoalAmount.IsPositive() {
			return nil, fmt.Errorf("%w: goal amount must be positive", apperr.ErrInvalidArgument)
		}
		campaign.GoalAmount = *input.GoalAmount
	}
	if input.StartDate != nil {
		campaign.StartDate = input.StartDate.UTC()
	}
	if input.EndDate != nil {
		campaign.EndDate = input.EndDate.UTC()
	}
	if !campaign.EndDate.After(campaign.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", apperr.ErrInvalidArgument)
	}

	if err := cs.campaignRepo.Update(ctx, nil, campaign); err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	return campaign, nil
}

func (cs *campaignService) Delete(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	campaign, err := cs.campaignRepo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if campaign == nil {
		return apperr.ErrNotFound
	}
	if campaign.UserID != actorID {
		actor, aerr := cs.userRepo.GetByID(ctx, nil, actorID)
		if aerr != nil || actor == nil || !actor.IsAdmin() {
			return apperr.ErrUnauthorized
		}
	}
	return cs.campaignRepo.Delete(ctx, nil, id)
}

func (cs *campaignService) GetByID(ctx context.Context, id uuid.UUID) (*types.Campaign, error) {
	campaign, err := cs.campaignRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, apperr.ErrNotFound
	}
	return campaign, nil
}

// GetBySlug optionally counts the view. The increment deliberately bypasses
// cache invalidation; slightly stale view counts are fine.
func (cs *campaignService) GetBySlug(ctx context.Context, slug string, countView bool) (*types.Campaign, error) {
	campaign, err := cs.campaignRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, apperr.ErrNotFound
	}
	if countView {
		if err := cs.campaignRepo.IncrementViews(ctx, nil, campaign.ID); err != nil {
			cs.log.Warn("view increment failed", "campaign_id", campaign.ID, "error", err)
		}
	}
	return campaign, nil
}

func (cs *campaignService) ListActive(ctx context.Context, limit int) ([]*types.Campaign, error) {
	return cs.campaignRepo.ListActive(ctx, nil, limit)
}

func (cs *campaignService) ListFeatured(ctx context.Context, limit int) ([]*types.Campaign, error) {
	return cs.campaignRepo.ListFeatured(ctx, nil, limit)
}

func (cs *campaignService) ListByCategory(ctx context.Context, category string, limit int) ([]*types.Campaign, error) {
	return cs.campaignRepo.ListByCategory(ctx, nil, strings.ToLower(strings.TrimSpace(category)), limit)
}

func (cs *campaignService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Campaign, error) {
	return cs.campaignRepo.ListByUser(ctx, nil, userID)
}

func (cs *campaignService) ListByStatus(ctx context.Context, status string) ([]*types.Campaign, error) {
	return cs.campaignRepo.ListByStatus(ctx, nil, status)
}

func (cs *campaignService) ListTrending(ctx context.Context, limit int) ([]*types.Campaign, error) {
	return cs.campaignRepo.ListTrending(ctx, nil, limit)
}

func (cs *campaignService) ListEndingSoon(ctx context.Context, days, limit int) ([]*types.Campaign, error) {
	return cs.campaignRepo.ListEndingSoon(ctx, nil, days, limit)
}

func (cs *campaignService) Browse(ctx context.Context, page, perPage int, filters repos.CampaignFilters) ([]*types.Campaign, int64, error) {
	return cs.campaignRepo.Paginate(ctx, nil, page, perPage, filters)
}

func (cs *campaignService) Search(ctx context.Context, query string, filters repos.CampaignFilters) ([]*types.Campaign, error) {
	return cs.campaignRepo.Search(ctx, nil, query, filters)
}

func (cs *campaignService) Approve(ctx context.Context, adminID uuid.UUID, id uuid.UUID) (*types.Campaign, error) {
	campaign, err := cs.campaignRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, apperr.ErrNotFound
	}
	now := time.Now().UTC()
	campaign.Status = types.CampaignStatusActive
	campaign.ApprovedAt = &now
	campaign.ApprovedBy = &adminID
	campaign.RejectionReason = nil
	if err := cs.campaignRepo.Update(ctx, nil, campaign); err != nil {
		return nil, fmt.Errorf("approve campaign: %w", err)
	}
	if owner, oerr := cs.userRepo.GetByID(ctx, nil, campaign.UserID); oerr == nil && owner != nil {
		cs.notifier.CampaignApproved(campaign, owner)
	}
	return campaign, nil
}

func (cs *campaignService) Reject(ctx context.Context, adminID uuid.UUID, id uuid.UUID, reason string) (*types.Campaign, error) {
	campaign, err := cs.campaignRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, apperr.ErrNotFound
	}
	campaign.Status = types.CampaignStatusRejected
	if reason != "" {
		campaign.RejectionReason = &reason
	}
	if err := cs.campaignRepo.Update(ctx, nil, campaign); err != nil {
		return nil, fmt.Errorf("reject campaign: %w", err)
	}
	return campaign, nil
}

func (cs *campaignService) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status string, reason *string, approvedBy *uuid.UUID) (int64, error) {
	switch status {
	case types.CampaignStatusDraft, types.CampaignStatusPending, types.CampaignStatusActive,
		types.CampaignStatusCompleted, types.CampaignStatusCancelled, types.CampaignStatusRejected:
	default:
		return 0, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidArgument, status)
	}
	return cs.campaignRepo.BulkUpdateStatus(ctx, nil, ids, status, reason, approvedBy)
}

func (cs *campaignService) Statistics(ctx context.Context) (*repos.CampaignStatistics, error) {
	return cs.campaignRepo.Statistics(ctx, nil)
}
