package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCampaignUnavailable means the target campaign does not exist or is
	// outside its active window.
	ErrCampaignUnavailable = errors.New("campaign is not available for donations")
	// ErrInvalidStateTransition means a donation was asked to move between
	// statuses outside the legal set.
	ErrInvalidStateTransition = errors.New("invalid donation state transition")
	// ErrNumberGenerationExhausted means donation number generation kept
	// colliding with the unique constraint.
	ErrNumberGenerationExhausted = errors.New("donation number generation exhausted")
	// ErrPaymentProviderUnavailable means no provider could be resolved for
	// the request.
	ErrPaymentProviderUnavailable = errors.New("payment provider not available")
	// ErrPaymentDeclined is the normalized provider failure surfaced to
	// callers; provider diagnostics stay in the logs.
	ErrPaymentDeclined = errors.New("payment failed")
	// ErrRefundExceedsOriginal means a refund amount was larger than the
	// donation it refunds.
	ErrRefundExceedsOriginal = errors.New("refund exceeds original amount")
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
