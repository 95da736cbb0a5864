package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/givebridge-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondAppError maps the service error taxonomy onto HTTP statuses.
func RespondAppError(c *gin.Context, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperr.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, apperr.ErrInvalidArgument):
		RespondError(c, http.StatusUnprocessableEntity, "invalid_argument", err)
	case errors.Is(err, apperr.ErrCampaignUnavailable):
		RespondError(c, http.StatusUnprocessableEntity, "campaign_unavailable", err)
	case errors.Is(err, apperr.ErrInvalidStateTransition):
		RespondError(c, http.StatusConflict, "invalid_state_transition", err)
	case errors.Is(err, apperr.ErrRefundExceedsOriginal):
		RespondError(c, http.StatusUnprocessableEntity, "refund_exceeds_original", err)
	case errors.Is(err, apperr.ErrPaymentProviderUnavailable):
		RespondError(c, http.StatusBadGateway, "payment_provider_unavailable", err)
	case errors.Is(err, apperr.ErrPaymentDeclined):
		RespondError(c, http.StatusUnprocessableEntity, "payment_declined", errors.New("payment failed"))
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
