package vesting

import "errors"

var (
	ErrNilState             = errors.New("vesting engine: state not configured")
	ErrNilVault             = errors.New("vesting engine: vault not configured")
	ErrGrantNotFound        = errors.New("vesting engine: grant not found")
	ErrEmptyGrantID         = errors.New("vesting engine: grant id must not be empty")
	ErrZeroBeneficiary      = errors.New("vesting engine: beneficiary must not be the null identity")
	ErrZeroDuration         = errors.New("vesting engine: duration must be positive")
	ErrCliffExceedsDuration = errors.New("vesting engine: cliff offset exceeds duration")
	ErrAlreadyElapsed       = errors.New("vesting engine: schedule already fully elapsed")
	ErrNothingDue           = errors.New("vesting engine: no tokens are due for release")
	ErrNotRevocable         = errors.New("vesting engine: grant is not revocable")
	ErrAlreadyRevoked       = errors.New("vesting engine: grant already revoked for token")
	ErrUnauthorized         = errors.New("vesting engine: caller is not the administrator")
)
