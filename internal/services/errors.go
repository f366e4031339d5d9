package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation wraps all malformed-input failures; handlers map it to 400.
	ErrValidation = errors.New("validation failed")

	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("user already exists with this email")

	ErrNoOTP      = errors.New("no OTP found")
	ErrInvalidOTP = errors.New("invalid OTP")
	ErrOTPExpired = errors.New("OTP expired")

	ErrOTPQuotaExceeded = errors.New("daily OTP limit reached")

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	ErrNoteNotFound = errors.New("note not found")
)

// OTPCooldownError reports how long the caller must wait before the next
// explicit OTP request. Handlers surface the remaining seconds to the client.
type OTPCooldownError struct {
	RetryAfterSeconds int
}

func (e *OTPCooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting another OTP", e.RetryAfterSeconds)
}
