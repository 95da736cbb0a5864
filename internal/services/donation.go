package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/givebridge-backend/internal/apperr"
	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/payment"
	"github.com/yungbote/givebridge-backend/internal/repos"
	"github.com/yungbote/givebridge-backend/internal/types"
)

const donationNumberPrefix = "DON"

// donationNumberAttempts bounds the unique-constraint retry loop when
// generating donation numbers.
const donationNumberAttempts = 5

type CreateDonationInput struct {
	CampaignID    uuid.UUID       `json:"campaign_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	Provider      string          `json:"provider"`
	IsAnonymous   bool            `json:"is_anonymous"`
	Message       string          `json:"message"`
}

type ProviderInfo struct {
	Name             string   `json:"name"`
	SupportedMethods []string `json:"supported_methods"`
}

// DonationService is the ledger orchestrator: it turns a donation request
// into a durable record, runs the charge through a payment provider, and
// keeps campaign totals consistent with the set of completed donations.
type DonationService interface {
	CreateDonation(ctx context.Context, donorID uuid.UUID, input CreateDonationInput) (*types.Donation, *payment.Result, error)
	CreatePaymentIntent(ctx context.Context, donationID uuid.UUID) (*payment.Intent, error)
	VerifyPayment(ctx context.Context, providerName, transactionID string, data map[string]any) (*payment.Verification, error)
	RefundDonation(ctx context.Context, donationID uuid.UUID, amount decimal.Decimal) (*types.Donation, *payment.Result, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Donation, error)
	GetByNumber(ctx context.Context, number string) (*types.Donation, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*types.Donation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Donation, error)
	AvailableProviders() []ProviderInfo
}

type donationService struct {
	db           *gorm.DB
	log          *logger.Logger
	tracer       trace.Tracer
	providers    *payment.Registry
	donationRepo repos.CachedDonationRepo
	campaignRepo repos.CachedCampaignRepo
	userRepo     repos.UserRepo
	notifier     Notifier
}

func NewDonationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	providers *payment.Registry,
	donationRepo repos.CachedDonationRepo,
	campaignRepo repos.CachedCampaignRepo,
	userRepo repos.UserRepo,
	notifier Notifier,
) DonationService {
	return &donationService{
		db:           db,
		log:          baseLog.With("service", "DonationService"),
		tracer:       otel.Tracer("givebridge-backend/donation"),
		providers:    providers,
		donationRepo: donationRepo,
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

// CreateDonation runs the full workflow: validate the campaign window,
// persist the pending row (durable before any network call), charge through
// the provider outside any transaction, then apply the transition and the
// aggregate recompute in a second transaction. Cache invalidation and
// notification happen only after that commit.
func (ds *donationService) CreateDonation(ctx context.Context, donorID uuid.UUID, input CreateDonationInput) (*types.Donation, *payment.Result, error) {
	ctx, span := ds.tracer.Start(ctx, "donation.create")
	defer span.End()

	if donorID == uuid.Nil {
		return nil, nil, fmt.Errorf("%w: missing donor id", apperr.ErrInvalidArgument)
	}
	if !input.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidArgument)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	campaign, err := ds.campaignRepo.GetByID(ctx, nil, input.CampaignID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch campaign: %w", err)
	}
	if campaign == nil || !campaign.IsActive(time.Now().UTC()) {
		return nil, nil, apperr.ErrCampaignUnavailable
	}

	provider := ds.resolveProvider(input.Provider)
	if provider == nil {
		ds.log.Error("no payment provider available", "requested_provider", input.Provider)
		return nil, nil, apperr.ErrPaymentProviderUnavailable
	}

	donation, err := ds.insertPending(ctx, donorID, campaign, provider.Name(), currency, input)
	if err != nil {
		return nil, nil, err
	}
	span.SetAttributes(
		attribute.String("donation.id", donation.ID.String()),
		attribute.String("donation.number", donation.DonationNumber),
		attribute.String("payment.provider", provider.Name()),
	)

	// The charge happens outside any held transaction: the pending row is
	// already durable and provider latency must not pin a db connection.
	result := ds.charge(ctx, provider, donation, campaign)

	donation, err = ds.applyResult(ctx, donation.ID, result)
	if err != nil {
		return nil, nil, err
	}

	ds.invalidateAfterCommit(ctx, donation, campaign)
	ds.notifyOutcome(ctx, donation, campaign)

	return donation, result, nil
}

func (ds *donationService) resolveProvider(name string) payment.Provider {
	if strings.TrimSpace(name) != "" {
		return ds.providers.Provider(name)
	}
	return ds.providers.Default()
}

func (ds *donationService) insertPending(ctx context.Context, donorID uuid.UUID, campaign *types.Campaign, providerName, currency string, input CreateDonationInput) (*types.Donation, error) {
	for attempt := 0; attempt < donationNumberAttempts; attempt++ {
		donation := &types.Donation{
			DonationNumber:  generateDonationNumber(),
			UserID:          donorID,
			CampaignID:      campaign.ID,
			Amount:          input.Amount,
			Currency:        currency,
			Status:          types.DonationStatusPending,
			PaymentMethod:   input.PaymentMethod,
			PaymentProvider: providerName,
			IsAnonymous:     input.IsAnonymous,
			Message:         input.Message,
		}
		err := ds.donationRepo.Create(ctx, nil, donation)
		if err == nil {
			return donation, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ds.log.Warn("donation number collision, regenerating", "number", donation.DonationNumber, "attempt", attempt+1)
			continue
		}
		return nil, fmt.Errorf("create donation: %w", err)
	}
	return nil, apperr.ErrNumberGenerationExhausted
}

func (ds *donationService) charge(ctx context.Context, provider payment.Provider, donation *types.Donation, campaign *types.Campaign) *payment.Result {
	ctx, span := ds.tracer.Start(ctx, "donation.process_payment")
	defer span.End()

	result, err := provider.ProcessPayment(ctx, payment.Request{
		Amount:     donation.Amount,
		Currency:   donation.Currency,
		DonationID: donation.ID,
		DonorID:    donation.UserID,
		CampaignID: donation.CampaignID,
		Method:     donation.PaymentMethod,
		Metadata: map[string]string{
			"donation_number": donation.DonationNumber,
			"campaign_title":  campaign.Title,
		},
	})
	if err != nil {
		// Network-shaped failures normalize to the same failed transition as
		// an explicit decline; the message is preserved on the row.
		ds.log.Error("payment provider call failed", "donation_id", donation.ID, "provider", provider.Name(), "error", err)
		return payment.FailureResult(fmt.Sprintf("payment processing error: %v", err), "PROCESSING_ERROR")
	}
	if result == nil {
		ds.log.Error("payment provider returned no result", "donation_id", donation.ID, "provider", provider.Name())
		return payment.FailureResult("payment processing error: empty provider result", "PROCESSING_ERROR")
	}
	if !result.Success {
		ds.log.Warn("donation payment failed",
			"donation_id", donation.ID,
			"provider", provider.Name(),
			"error", result.Message,
			"error_code", result.ErrorCode,
		)
	}
	return result
}

// applyResult runs the second transaction: state transition plus, on
// success, the full aggregate recompute and the donor running total. A crash
// between the status write and the recompute is impossible; they commit
// together or not at all.
func (ds *donationService) applyResult(ctx context.Context, donationID uuid.UUID, result *payment.Result) (*types.Donation, error) {
	var updated *types.Donation
	err := ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		donation, err := ds.donationRepo.GetByID(ctx, tx, donationID)
		if err != nil {
			return err
		}
		if donation == nil {
			return fmt.Errorf("donation %s: %w", donationID, apperr.ErrNotFound)
		}

		now := time.Now().UTC()
		if result.Success {
			details, derr := marshalPaymentDetails(result.Data)
			if derr != nil {
				return derr
			}
			if err := donation.MarkCompleted(result.TransactionID, details, now); err != nil {
				return err
			}
		} else {
			reason := result.Message
			if reason == "" {
				reason = "payment processing failed"
			}
			if err := donation.MarkFailed(reason, now); err != nil {
				return err
			}
		}

		if err := ds.donationRepo.Update(ctx, tx, donation); err != nil {
			return err
		}
		if donation.IsCompleted() {
			if _, err := ds.campaignRepo.RecomputeTotals(ctx, tx, donation.CampaignID); err != nil {
				return err
			}
			if err := ds.userRepo.AddToTotalDonated(ctx, tx, donation.UserID, donation.Amount); err != nil {
				return err
			}
		}
		updated = donation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (ds *donationService) CreatePaymentIntent(ctx context.Context, donationID uuid.UUID) (*payment.Intent, error) {
	donation, err := ds.donationRepo.GetByID(ctx, nil, donationID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, apperr.ErrNotFound
	}
	provider := ds.resolveProvider(donation.PaymentProvider)
	if provider == nil {
		return nil, apperr.ErrPaymentProviderUnavailable
	}
	return provider.CreatePaymentIntent(ctx, donation)
}

func (ds *donationService) VerifyPayment(ctx context.Context, providerName, transactionID string, data map[string]any) (*payment.Verification, error) {
	provider := ds.resolveProvider(providerName)
	if provider == nil {
		// Legacy rows carry no provider name; fall back to prefix matching.
		provider = ds.providers.ByTransactionID(transactionID)
	}
	if provider == nil {
		return nil, apperr.ErrPaymentProviderUnavailable
	}
	return provider.VerifyPayment(ctx, transactionID, data)
}

// RefundDonation issues a provider refund and applies completed -> refunded.
// At the aggregate level the refund is all-or-nothing: the recompute drops
// the donation's full amount even for a partial provider refund.
func (ds *donationService) RefundDonation(ctx context.Context, donationID uuid.UUID, amount decimal.Decimal) (*types.Donation, *payment.Result, error) {
	ctx, span := ds.tracer.Start(ctx, "donation.refund")
	defer span.End()

	donation, err := ds.donationRepo.GetByID(ctx, nil, donationID)
	if err != nil {
		return nil, nil, err
	}
	if donation == nil {
		return nil, nil, apperr.ErrNotFound
	}
	if !donation.IsCompleted() || donation.TransactionID == nil {
		return nil, nil, fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidStateTransition, donation.Status, types.DonationStatusRefunded)
	}
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: refund amount must be positive", apperr.ErrInvalidArgument)
	}
	if amount.GreaterThan(donation.Amount) {
		return nil, nil, apperr.ErrRefundExceedsOriginal
	}

	provider := ds.resolveProvider(donation.PaymentProvider)
	if provider == nil {
		provider = ds.providers.ByTransactionID(*donation.TransactionID)
	}
	if provider == nil {
		ds.log.Error("cannot determine payment provider for refund", "donation_id", donation.ID, "transaction_id", *donation.TransactionID)
		return nil, nil, apperr.ErrPaymentProviderUnavailable
	}

	result, err := provider.RefundPayment(ctx, *donation.TransactionID, amount)
	if err != nil {
		ds.log.Error("refund provider call failed", "donation_id", donation.ID, "provider", provider.Name(), "error", err)
		return nil, nil, fmt.Errorf("refund payment: %w", err)
	}
	if !result.Success {
		ds.log.Warn("refund declined", "donation_id", donation.ID, "provider", provider.Name(), "error_code", result.ErrorCode)
		return nil, result, fmt.Errorf("%w: %s", apperr.ErrPaymentDeclined, result.ErrorCode)
	}

	var updated *types.Donation
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh, err := ds.donationRepo.GetByID(ctx, tx, donationID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return apperr.ErrNotFound
		}
		if err := fresh.MarkRefunded(result.TransactionID, amount); err != nil {
			return err
		}
		if err := ds.donationRepo.Update(ctx, tx, fresh); err != nil {
			return err
		}
		if _, err := ds.campaignRepo.RecomputeTotals(ctx, tx, fresh.CampaignID); err != nil {
			return err
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	campaign, cerr := ds.campaignRepo.GetByID(ctx, nil, updated.CampaignID)
	if cerr != nil {
		campaign = nil
	}
	ds.invalidateAfterCommit(ctx, updated, campaign)
	if campaign != nil {
		if donor, derr := ds.userRepo.GetByID(ctx, nil, updated.UserID); derr == nil && donor != nil {
			ds.notifier.DonationRefunded(updated, donor, campaign)
		}
	}

	return updated, result, nil
}

func (ds *donationService) GetByID(ctx context.Context, id uuid.UUID) (*types.Donation, error) {
	donation, err := ds.donationRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, apperr.ErrNotFound
	}
	return donation, nil
}

func (ds *donationService) GetByNumber(ctx context.Context, number string) (*types.Donation, error) {
	donation, err := ds.donationRepo.GetByNumber(ctx, nil, number)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, apperr.ErrNotFound
	}
	return donation, nil
}

func (ds *donationService) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*types.Donation, error) {
	return ds.donationRepo.ListByCampaign(ctx, nil, campaignID)
}

func (ds *donationService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Donation, error) {
	return ds.donationRepo.ListByUser(ctx, nil, userID)
}

func (ds *donationService) AvailableProviders() []ProviderInfo {
	names := ds.providers.Names()
	infos := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		p := ds.providers.Provider(name)
		if p == nil {
			continue
		}
		infos = append(infos, ProviderInfo{Name: p.Name(), SupportedMethods: p.SupportedMethods()})
	}
	return infos
}

// invalidateAfterCommit drops every cache entry that could now be stale.
// Runs strictly after the owning transaction committed so a racing reader
// cannot repopulate the cache with pre-commit data. Failures are logged,
// never propagated: the ledger record stands.
func (ds *donationService) invalidateAfterCommit(ctx context.Context, donation *types.Donation, campaign *types.Campaign) {
	ds.donationRepo.Invalidate(ctx, donation)
	if campaign != nil {
		ds.campaignRepo.Invalidate(ctx, campaign.ID, campaign.Slug)
	} else {
		ds.campaignRepo.Invalidate(ctx, donation.CampaignID, "")
	}
}

func (ds *donationService) notifyOutcome(ctx context.Context, donation *types.Donation, campaign *types.Campaign) {
	donor, err := ds.userRepo.GetByID(ctx, nil, donation.UserID)
	if err != nil || donor == nil {
		ds.log.Warn("skipping notification, donor lookup failed", "donation_id", donation.ID, "error", err)
		return
	}
	switch donation.Status {
	case types.DonationStatusCompleted:
		ds.notifier.DonationCompleted(donation, donor, campaign)
	case types.DonationStatusFailed:
		ds.notifier.DonationFailed(donation, donor, campaign)
	}
}

func generateDonationNumber() string {
	return fmt.Sprintf("%s-%d-%06d", donationNumberPrefix, time.Now().UTC().Year(), rand.IntN(1000000))
}

func marshalPaymentDetails(data map[string]any) (datatypes.JSON, error) {
	if len(data) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal payment details: %w", err)
	}
	return datatypes.JSON(raw), nil
}
