package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/givebridge-backend/internal/middleware"
	"github.com/yungbote/givebridge-backend/internal/services"
)

type DonationHandler struct {
	donationService services.DonationService
}

func NewDonationHandler(donationService services.DonationService) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

// Create runs the full donate flow. Declined payments come back as a 201 with
// the failed donation record so the client can show the terminal state; the
// provider's raw decline message never leaves the service layer.
func (dh *DonationHandler) Create(c *gin.Context) {
	var input services.CreateDonationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	donation, result, err := dh.donationService.CreateDonation(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"donation": donation,
		"success":  result.Success,
	})
}

func (dh *DonationHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	donation, err := dh.donationService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"donation": donation})
}

func (dh *DonationHandler) GetByNumber(c *gin.Context) {
	donation, err := dh.donationService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"donation": donation})
}

func (dh *DonationHandler) ListByCampaign(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	donations, err := dh.donationService.ListByCampaign(c.Request.Context(), campaignID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"donations": donations})
}

func (dh *DonationHandler) ListMine(c *gin.Context) {
	donations, err := dh.donationService.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"donations": donations})
}

func (dh *DonationHandler) CreateIntent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	intent, err := dh.donationService.CreatePaymentIntent(c.Request.Context(), id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"intent": intent})
}

func (dh *DonationHandler) VerifyPayment(c *gin.Context) {
	var body struct {
		Provider      string         `json:"provider"`
		TransactionID string         `json:"transaction_id"`
		Data          map[string]any `json:"data"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	verification, err := dh.donationService.VerifyPayment(c.Request.Context(), body.Provider, body.TransactionID, body.Data)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"verification": verification})
}

func (dh *DonationHandler) Refund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	donation, result, err := dh.donationService.RefundDonation(c.Request.Context(), id, body.Amount)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"donation": donation,
		"success":  result.Success,
	})
}

func (dh *DonationHandler) ListProviders(c *gin.Context) {
	RespondOK(c, gin.H{"providers": dh.donationService.AvailableProviders()})
}
