package domain

import "errors"

var (
	ErrAccountNotFound          = errors.New("account not found")
	ErrSecretNotFound           = errors.New("secret not found")
	ErrRefreshUnavailable       = errors.New("refresh token unavailable")
	ErrRefreshRejected          = errors.New("refresh token rejected")
	ErrRefreshFailed            = errors.New("refresh request failed")
	ErrIdentityResolutionFailed = errors.New("identity resolution failed")
	ErrFeeScheduleUnavailable   = errors.New("fee schedule unavailable")
	ErrShippingEstimateFailed   = errors.New("shipping estimate failed")
	ErrShippingInputsMissing    = errors.New("shipping inputs missing")
	ErrPriceInfeasible          = errors.New("price infeasible")
	ErrPersistenceWriteFailed   = errors.New("persistence write failed")
	ErrCredentialConflict       = errors.New("credential changed concurrently")
	ErrInvalidRequest           = errors.New("invalid pricing request")
)
