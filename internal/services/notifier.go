package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/givebridge-backend/internal/clients/sendgrid"
	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/types"
)

// Notifier is fire-and-forget: the ledger workflow never awaits delivery and
// a delivery failure never rolls back financial state.
type Notifier interface {
	DonationCompleted(donation *types.Donation, donor *types.User, campaign *types.Campaign)
	DonationFailed(donation *types.Donation, donor *types.User, campaign *types.Campaign)
	DonationRefunded(donation *types.Donation, donor *types.User, campaign *types.Campaign)
	CampaignApproved(campaign *types.Campaign, owner *types.User)
}

type emailNotifier struct {
	log  *logger.Logger
	mail sendgrid.Client
}

// NewEmailNotifier degrades to a logging no-op when no mail client is
// configured, so local setups run without sendgrid credentials.
func NewEmailNotifier(baseLog *logger.Logger, mail sendgrid.Client) Notifier {
	return &emailNotifier{
		log:  baseLog.With("service", "EmailNotifier"),
		mail: mail,
	}
}

func (n *emailNotifier) DonationCompleted(donation *types.Donation, donor *types.User, campaign *types.Campaign) {
	if donation == nil || donor == nil || campaign == nil {
		return
	}
	subject := fmt.Sprintf("Thank you for your donation to %s", campaign.Title)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour donation %s of %s %s to %q has been received.\n\nThank you for giving!",
		donor.FirstName, donation.DonationNumber, donation.Amount.StringFixed(2), donation.Currency, campaign.Title,
	)
	n.send(donor, subject, body, "donation_completed", donation.DonationNumber)
}

func (n *emailNotifier) DonationFailed(donation *types.Donation, donor *types.User, campaign *types.Campaign) {
	if donation == nil || donor == nil || campaign == nil {
		return
	}
	subject := "Your donation could not be processed"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour donation %s to %q could not be processed. No charge was made.\nYou can try again at any time.",
		donor.FirstName, donation.DonationNumber, campaign.Title,
	)
	n.send(donor, subject, body, "donation_failed", donation.DonationNumber)
}

func (n *emailNotifier) DonationRefunded(donation *types.Donation, donor *types.User, campaign *types.Campaign) {
	if donation == nil || donor == nil || campaign == nil {
		return
	}
	subject := fmt.Sprintf("Your donation to %s has been refunded", campaign.Title)
	amount := donation.Amount
	if donation.RefundedAmount != nil {
		amount = *donation.RefundedAmount
	}
	body := fmt.Sprintf(
		"Hi %s,\n\nA refund of %s %s has been issued for donation %s.",
		donor.FirstName, amount.StringFixed(2), donation.Currency, donation.DonationNumber,
	)
	n.send(donor, subject, body, "donation_refunded", donation.DonationNumber)
}

func (n *emailNotifier) CampaignApproved(campaign *types.Campaign, owner *types.User) {
	if campaign == nil || owner == nil {
		return
	}
	subject := fmt.Sprintf("Your campaign %q is live", campaign.Title)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour campaign %q has been approved and is now accepting donations.",
		owner.FirstName, campaign.Title,
	)
	n.send(owner, subject, body, "campaign_approved", campaign.Slug)
}

func (n *emailNotifier) send(to *types.User, subject, body, kind, ref string) {
	if n.mail == nil {
		n.log.Debug("notification skipped, no mail client", "kind", kind, "ref", ref)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err := n.mail.Send(ctx, sendgrid.SendEmailRequest{
			To:      []sendgrid.EmailAddress{{Email: to.Email, Name: to.FullName()}},
			Subject: subject,
			Text:    body,
		})
		if err != nil {
			n.log.Warn("notification delivery failed", "kind", kind, "ref", ref, "error", err)
			return
		}
		n.log.Debug("notification sent", "kind", kind, "ref", ref)
	}()
}
