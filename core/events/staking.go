package events

import (
	"math/big"

	"rewardvault/core/types"
)

const (
	TypeStakingStaked      = "staking.staked"
	TypeStakingWithdrawn   = "staking.withdrawn"
	TypeStakingRewardPaid  = "staking.rewardPaid"
	TypeStakingRewardAdded = "staking.rewardAdded"
)

type StakingStaked struct {
	Account types.Address
	Amount  *big.Int
	Time    uint64
}

func (StakingStaked) EventType() string { return TypeStakingStaked }

func (e StakingStaked) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingStaked,
		Attributes: map[string]string{
			"account": e.Account.String(),
			"amount":  formatAmount(e.Amount),
			"time":    uintToString(e.Time),
		},
	}
}

type StakingWithdrawn struct {
	Account types.Address
	Amount  *big.Int
	Time    uint64
}

func (StakingWithdrawn) EventType() string { return TypeStakingWithdrawn }

func (e StakingWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingWithdrawn,
		Attributes: map[string]string{
			"account": e.Account.String(),
			"amount":  formatAmount(e.Amount),
			"time":    uintToString(e.Time),
		},
	}
}

type StakingRewardPaid struct {
	Account types.Address
	Amount  *big.Int
	Time    uint64
}

func (StakingRewardPaid) EventType() string { return TypeStakingRewardPaid }

func (e StakingRewardPaid) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingRewardPaid,
		Attributes: map[string]string{
			"account": e.Account.String(),
			"amount":  formatAmount(e.Amount),
			"time":    uintToString(e.Time),
		},
	}
}

type StakingRewardAdded struct {
	Amount       *big.Int
	RewardRate   *big.Int
	PeriodFinish uint64
}

func (StakingRewardAdded) EventType() string { return TypeStakingRewardAdded }

func (e StakingRewardAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingRewardAdded,
		Attributes: map[string]string{
			"amount":       formatAmount(e.Amount),
			"rewardRate":   formatAmount(e.RewardRate),
			"periodFinish": uintToString(e.PeriodFinish),
		},
	}
}
