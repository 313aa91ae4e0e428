package farming

import (
	"math/big"

	"rewardvault/core/types"
)

// Precision is the fixed-point scale applied to AccPerShare.
var Precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil)

// Pool is the global state of the phased emission pool.
type Pool struct {
	LastRewardBlock uint64
	PhaseIndex      uint32
	AccPerShare     *big.Int
	TotalStaked     *big.Int
	OtherMinted     *big.Int
}

// NewPool returns a pool whose watermark sits at the schedule start.
func NewPool(startBlock uint64) *Pool {
	return &Pool{
		LastRewardBlock: startBlock,
		AccPerShare:     big.NewInt(0),
		TotalStaked:     big.NewInt(0),
		OtherMinted:     big.NewInt(0),
	}
}

func (p *Pool) normalize() {
	if p.AccPerShare == nil {
		p.AccPerShare = big.NewInt(0)
	}
	if p.TotalStaked == nil {
		p.TotalStaked = big.NewInt(0)
	}
	if p.OtherMinted == nil {
		p.OtherMinted = big.NewInt(0)
	}
}

// Clone produces a deep copy to protect internal references.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.AccPerShare = cloneBigInt(p.AccPerShare)
	clone.TotalStaked = cloneBigInt(p.TotalStaked)
	clone.OtherMinted = cloneBigInt(p.OtherMinted)
	return &clone
}

// Position is the per-participant record. RewardDebt is Principal×AccPerShare
// (scaled) at the last settlement.
type Position struct {
	Address    types.Address
	Principal  *big.Int
	RewardDebt *big.Int
}

// NewPosition returns a zeroed position for addr.
func NewPosition(addr types.Address) *Position {
	return &Position{Address: addr, Principal: big.NewInt(0), RewardDebt: big.NewInt(0)}
}

func (p *Position) normalize() {
	if p.Principal == nil {
		p.Principal = big.NewInt(0)
	}
	if p.RewardDebt == nil {
		p.RewardDebt = big.NewInt(0)
	}
}

// Clone produces a deep copy to protect internal references.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Principal = cloneBigInt(p.Principal)
	clone.RewardDebt = cloneBigInt(p.RewardDebt)
	return &clone
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
