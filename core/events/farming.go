package events

import (
	"math/big"

	"rewardvault/core/types"
)

const (
	TypeFarmingDeposited   = "farming.deposited"
	TypeFarmingWithdrawn   = "farming.withdrawn"
	TypeFarmingCompounded  = "farming.compounded"
	TypeFarmingMintSkipped = "farming.mintSkipped"
)

type FarmingDeposited struct {
	Account types.Address
	Amount  *big.Int
	Folded  *big.Int
	Height  uint64
}

func (FarmingDeposited) EventType() string { return TypeFarmingDeposited }

func (e FarmingDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmingDeposited,
		Attributes: map[string]string{
			"account": e.Account.String(),
			"amount":  formatAmount(e.Amount),
			"folded":  formatAmount(e.Folded),
			"height":  uintToString(e.Height),
		},
	}
}

type FarmingWithdrawn struct {
	Account types.Address
	Amount  *big.Int
	Folded  *big.Int
	Height  uint64
}

func (FarmingWithdrawn) EventType() string { return TypeFarmingWithdrawn }

func (e FarmingWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmingWithdrawn,
		Attributes: map[string]string{
			"account": e.Account.String(),
			"amount":  formatAmount(e.Amount),
			"folded":  formatAmount(e.Folded),
			"height":  uintToString(e.Height),
		},
	}
}

type FarmingCompounded struct {
	Account types.Address
	Folded  *big.Int
	Height  uint64
}

func (FarmingCompounded) EventType() string { return TypeFarmingCompounded }

func (e FarmingCompounded) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmingCompounded,
		Attributes: map[string]string{
			"account": e.Account.String(),
			"folded":  formatAmount(e.Folded),
			"height":  uintToString(e.Height),
		},
	}
}

// FarmingMintSkipped records an emission increment whose mint was refused by
// the supply cap. The accumulator update for the increment is skipped.
type FarmingMintSkipped struct {
	Amount *big.Int
	Height uint64
	Reason string
}

func (FarmingMintSkipped) EventType() string { return TypeFarmingMintSkipped }

func (e FarmingMintSkipped) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmingMintSkipped,
		Attributes: map[string]string{
			"amount": formatAmount(e.Amount),
			"height": uintToString(e.Height),
			"reason": e.Reason,
		},
	}
}
