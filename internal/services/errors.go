package services

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedInput      = errors.New("malformed input")
	ErrMissingField        = errors.New("missing required field")
	ErrAccountExists       = errors.New("account already exists")
	ErrAccountDeleted      = errors.New("account has been deleted")
	ErrAccountNotFound     = errors.New("account not found")
	ErrPasswordMismatch    = errors.New("password does not match")
	ErrProviderRejected    = errors.New("identity provider rejected the request")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrProfileFieldMissing = errors.New("email is missing from the provider profile")
	ErrStoreFailure        = errors.New("account store failure")
	ErrConfiguration       = errors.New("identity provider is not configured")
)

// MissingFieldError names the required field that was empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return e.Field + " is required"
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// ProviderRejectedError is a well-formed error answer from the provider.
// Code is the OAuth error (e.g. invalid_grant) or the Kakao API code;
// ProviderCode carries Kakao's own KOE identifier when present.
type ProviderRejectedError struct {
	Code         string
	ProviderCode string
	Description  string
}

func (e *ProviderRejectedError) Error() string {
	msg := ErrProviderRejected.Error() + ": " + e.Code
	if e.ProviderCode != "" {
		msg += " (" + e.ProviderCode + ")"
	}
	return msg
}

func (e *ProviderRejectedError) Is(target error) bool {
	return target == ErrProviderRejected
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}

func storeFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreFailure, err)
}

// Outcome turns an error from this package into a metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, ErrAccountExists):
		return "exists"
	case errors.Is(err, ErrAccountDeleted):
		return "deleted"
	case errors.Is(err, ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, ErrPasswordMismatch):
		return "password_mismatch"
	case errors.Is(err, ErrProviderRejected):
		return "provider_rejected"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, ErrProfileFieldMissing):
		return "profile_field_missing"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrStoreFailure):
		return "store_failure"
	}
	return "error"
}
