package farming

import "errors"

var (
	ErrNilState         = errors.New("farming engine: state not configured")
	ErrNilVault         = errors.New("farming engine: vault not configured")
	ErrNilMinter        = errors.New("farming engine: minter not configured")
	ErrInvalidAmount    = errors.New("farming engine: amount must be positive and within principal")
	ErrScheduleMismatch = errors.New("farming engine: schedule does not exhaust reserved supply")
	ErrEmptySchedule    = errors.New("farming engine: schedule needs at least one non-empty phase")
	ErrNegativeRate     = errors.New("farming engine: phase rates cannot be negative")
)
