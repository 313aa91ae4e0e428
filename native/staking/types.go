package staking

import (
	"math/big"

	"rewardvault/core/types"
)

// Precision is the fixed-point scale applied to RewardPerTokenStored.
var Precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Pool is the global state of the time-rate reward pool. The reward rate is
// expressed in reward tokens per second and is recomputed on every funding
// event.
type Pool struct {
	RewardsDuration      uint64
	PeriodFinish         uint64
	RewardRate           *big.Int
	LastUpdateTime       uint64
	RewardPerTokenStored *big.Int
	TotalStaked          *big.Int
}

// NewPool initialises an empty pool with the supplied rewards duration.
func NewPool(duration uint64) *Pool {
	return &Pool{
		RewardsDuration:      duration,
		RewardRate:           big.NewInt(0),
		RewardPerTokenStored: big.NewInt(0),
		TotalStaked:          big.NewInt(0),
	}
}

func (p *Pool) normalize() {
	if p.RewardRate == nil {
		p.RewardRate = big.NewInt(0)
	}
	if p.RewardPerTokenStored == nil {
		p.RewardPerTokenStored = big.NewInt(0)
	}
	if p.TotalStaked == nil {
		p.TotalStaked = big.NewInt(0)
	}
}

// Clone produces a deep copy to protect internal references.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.RewardRate = cloneBigInt(p.RewardRate)
	clone.RewardPerTokenStored = cloneBigInt(p.RewardPerTokenStored)
	clone.TotalStaked = cloneBigInt(p.TotalStaked)
	return &clone
}

// Position is the per-participant accounting record. RewardPerTokenPaid is the
// accumulator value observed at the participant's last settlement and Accrued
// holds settled-but-unclaimed reward.
type Position struct {
	Address            types.Address
	Balance            *big.Int
	RewardPerTokenPaid *big.Int
	Accrued            *big.Int
}

// NewPosition returns a zeroed position for addr.
func NewPosition(addr types.Address) *Position {
	return &Position{
		Address:            addr,
		Balance:            big.NewInt(0),
		RewardPerTokenPaid: big.NewInt(0),
		Accrued:            big.NewInt(0),
	}
}

func (p *Position) normalize() {
	if p.Balance == nil {
		p.Balance = big.NewInt(0)
	}
	if p.RewardPerTokenPaid == nil {
		p.RewardPerTokenPaid = big.NewInt(0)
	}
	if p.Accrued == nil {
		p.Accrued = big.NewInt(0)
	}
}

// Clone produces a deep copy to protect internal references.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Balance = cloneBigInt(p.Balance)
	clone.RewardPerTokenPaid = cloneBigInt(p.RewardPerTokenPaid)
	clone.Accrued = cloneBigInt(p.Accrued)
	return &clone
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
