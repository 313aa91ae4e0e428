package events

import (
	"math/big"

	"rewardvault/core/types"
)

const (
	TypeVestingReleased = "vesting.released"
	TypeVestingRevoked  = "vesting.revoked"
)

type VestingReleased struct {
	GrantID     string
	Beneficiary types.Address
	Token       string
	Amount      *big.Int
	Time        uint64
}

func (VestingReleased) EventType() string { return TypeVestingReleased }

func (e VestingReleased) Event() *types.Event {
	return &types.Event{
		Type: TypeVestingReleased,
		Attributes: map[string]string{
			"grant":       e.GrantID,
			"beneficiary": e.Beneficiary.String(),
			"token":       e.Token,
			"amount":      formatAmount(e.Amount),
			"time":        uintToString(e.Time),
		},
	}
}

type VestingRevoked struct {
	GrantID   string
	Token     string
	Refunded  *big.Int
	Emergency bool
	Time      uint64
}

func (VestingRevoked) EventType() string { return TypeVestingRevoked }

func (e VestingRevoked) Event() *types.Event {
	attrs := map[string]string{
		"grant":    e.GrantID,
		"token":    e.Token,
		"refunded": formatAmount(e.Refunded),
		"time":     uintToString(e.Time),
	}
	if e.Emergency {
		attrs["emergency"] = "true"
	}
	return &types.Event{Type: TypeVestingRevoked, Attributes: attrs}
}
