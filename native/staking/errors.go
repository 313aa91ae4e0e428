package staking

import "errors"

var (
	ErrNilState            = errors.New("staking engine: state not configured")
	ErrNilVault            = errors.New("staking engine: vault not configured")
	ErrInvalidAmount       = errors.New("staking engine: amount must be positive and within balance")
	ErrInsufficientFunding = errors.New("staking engine: reward rate exceeds funded balance")
	ErrActivePeriod        = errors.New("staking engine: reward period still active")
	ErrInvalidDuration     = errors.New("staking engine: rewards duration must be positive")
)
