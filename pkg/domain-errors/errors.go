// Package domainerrors provides coded domain errors.
//
// Services return these so transports can map failures to responses without
// string matching, and so tests can assert on the violated condition rather
// than on message text. Store layers return pkg/platform/sentinel errors;
// services translate them into coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the violated condition.
type Code string

const (
	// Generic infrastructure and input codes.
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"

	// Escrow engine codes. One per guard in the operation surface.
	CodeAlreadyInitialized    Code = "already_initialized"
	CodeInvalidGoal           Code = "invalid_goal"
	CodeInvalidMatchingRatio  Code = "invalid_matching_ratio"
	CodeInvalidDuration       Code = "invalid_duration"
	CodeTitleTooLong          Code = "title_too_long"
	CodeDescriptionTooLong    Code = "description_too_long"
	CodeInsufficientFunds     Code = "insufficient_funds"
	CodeInvalidDonationAmount Code = "invalid_donation_amount"
	CodeInvalidAmount         Code = "invalid_amount"
	CodeCampaignInactive      Code = "campaign_inactive"
	CodeCampaignExpired       Code = "campaign_expired"
	CodeGoalNotReached        Code = "goal_not_reached"
	CodeAlreadyWithdrawn      Code = "already_withdrawn"
	CodeArithmeticOverflow    Code = "arithmetic_overflow"
)

// Error is a coded domain error. The message is operator/caller facing; the
// code is the contract.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is shorthand for HasCode, matching how handlers branch on codes.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so transports never leak raw failure detail.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-facing message from err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a code to its transport status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput,
		CodeInvalidGoal, CodeInvalidMatchingRatio, CodeInvalidDuration,
		CodeTitleTooLong, CodeDescriptionTooLong,
		CodeInvalidDonationAmount, CodeInvalidAmount:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyInitialized, CodeAlreadyWithdrawn,
		CodeCampaignInactive, CodeCampaignExpired, CodeGoalNotReached:
		return http.StatusConflict
	case CodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case CodeArithmeticOverflow:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
