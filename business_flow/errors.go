// Package businessflow contains the core business logic of the conversion funnel
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Campaign-related errors
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrFormNotConfigured    = errors.New("campaign has no form configured")
	ErrNotRegistrationType  = errors.New("campaign is not a registration campaign")
	ErrNotSurveyType        = errors.New("campaign is not a survey campaign")
	ErrCampaignAccessDenied = errors.New("campaign access denied")

	// Submission validation errors
	ErrNameRequired  = errors.New("name is required")
	ErrPhoneRequired = errors.New("phone is required")
	ErrPhoneInvalid  = errors.New("phone must contain at least one digit")

	// Pipeline errors
	ErrSequenceContention        = errors.New("sequence number allocation lost a concurrent update")
	ErrConfirmationCodeExhausted = errors.New("could not generate a unique confirmation code")

	// Visit errors
	ErrSessionIDRequired = errors.New("session id is required")

	// Marketing link errors
	ErrMarketingLinkNotFound = errors.New("marketing link not found")
	ErrLinkNameRequired      = errors.New("marketing link name is required")
	ErrInvalidChannel        = errors.New("unknown marketing channel")
	ErrInvalidLinkStatus     = errors.New("invalid marketing link status")
	ErrCIDConflict           = errors.New("cid already used by an active link")
	ErrCIDExhausted          = errors.New("could not generate a unique cid")

	// Stats errors
	ErrInvalidDateRange = errors.New("invalid date range")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsFormNotConfigured(err error) bool {
	return errors.Is(err, ErrFormNotConfigured)
}

func IsNotRegistrationType(err error) bool {
	return errors.Is(err, ErrNotRegistrationType)
}

func IsNotSurveyType(err error) bool {
	return errors.Is(err, ErrNotSurveyType)
}

func IsCampaignAccessDenied(err error) bool {
	return errors.Is(err, ErrCampaignAccessDenied)
}

// IsSubmissionValidation reports whether err is one of the submitter input errors
func IsSubmissionValidation(err error) bool {
	return errors.Is(err, ErrNameRequired) || errors.Is(err, ErrPhoneRequired) || errors.Is(err, ErrPhoneInvalid)
}

func IsSequenceContention(err error) bool {
	return errors.Is(err, ErrSequenceContention)
}

func IsConfirmationCodeExhausted(err error) bool {
	return errors.Is(err, ErrConfirmationCodeExhausted)
}

func IsSessionIDRequired(err error) bool {
	return errors.Is(err, ErrSessionIDRequired)
}

func IsMarketingLinkNotFound(err error) bool {
	return errors.Is(err, ErrMarketingLinkNotFound)
}

func IsLinkNameRequired(err error) bool {
	return errors.Is(err, ErrLinkNameRequired)
}

func IsInvalidChannel(err error) bool {
	return errors.Is(err, ErrInvalidChannel)
}

func IsInvalidLinkStatus(err error) bool {
	return errors.Is(err, ErrInvalidLinkStatus)
}

func IsCIDConflict(err error) bool {
	return errors.Is(err, ErrCIDConflict)
}

func IsCIDExhausted(err error) bool {
	return errors.Is(err, ErrCIDExhausted)
}

func IsInvalidDateRange(err error) bool {
	return errors.Is(err, ErrInvalidDateRange)
}
