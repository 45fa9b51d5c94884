package service

import "errors"

// Scratch card errors
var (
	ErrCardInvalid       = errors.New("invalid card parameters")
	ErrCardNotFound      = errors.New("card not found")
	ErrCardFetchFailed   = errors.New("failed to fetch cards")
	ErrCardCreateFailed  = errors.New("failed to create cards")
	ErrCardUpdateFailed  = errors.New("failed to update card")
	ErrBatchCreateFailed = errors.New("failed to create card batch")
	ErrPinSpaceExhausted = errors.New("unable to generate unique pins")
)

// Redemption errors
var (
	ErrInvalidPin      = errors.New("invalid pin")
	ErrCardDeactivated = errors.New("card deactivated")
	ErrCardExhausted   = errors.New("card exhausted")
	ErrStudentNotFound = errors.New("student not found")
	ErrResultNotFound  = errors.New("result not published")
	ErrRedeemFailed    = errors.New("redemption failed")
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrAuthFailed         = errors.New("authentication failed")
)

// Email errors
var (
	ErrEmailDisabled   = errors.New("email sending disabled")
	ErrEmailSendFailed = errors.New("failed to send email")
)
