package vesting

import (
	"math/big"

	"rewardvault/core/types"
)

// Terms are the immutable parameters of a grant. Cliff and the vesting end are
// stored as absolute unix times.
type Terms struct {
	Beneficiary types.Address
	Start       uint64
	Cliff       uint64
	Duration    uint64
	Revocable   bool
}

// Grant is one vesting schedule plus its mutable per-token bookkeeping.
// Released and Revoked are keyed by token symbol; a revoked token's vested
// amount is frozen while the vested-but-unclaimed remainder stays releasable.
type Grant struct {
	ID       string
	Terms    Terms
	Released map[string]*big.Int
	Revoked  map[string]bool
}

// NewGrant validates terms and returns a fresh grant. cliffOffset is relative
// to start; now rejects schedules that would already be fully elapsed.
func NewGrant(id string, beneficiary types.Address, start, cliffOffset, duration uint64, revocable bool, now uint64) (*Grant, error) {
	if id == "" {
		return nil, ErrEmptyGrantID
	}
	if beneficiary.IsZero() {
		return nil, ErrZeroBeneficiary
	}
	if duration == 0 {
		return nil, ErrZeroDuration
	}
	if cliffOffset > duration {
		return nil, ErrCliffExceedsDuration
	}
	if start+duration <= now {
		return nil, ErrAlreadyElapsed
	}
	return &Grant{
		ID: id,
		Terms: Terms{
			Beneficiary: beneficiary,
			Start:       start,
			Cliff:       start + cliffOffset,
			Duration:    duration,
			Revocable:   revocable,
		},
		Released: make(map[string]*big.Int),
		Revoked:  make(map[string]bool),
	}, nil
}

func (g *Grant) normalize() {
	if g.Released == nil {
		g.Released = make(map[string]*big.Int)
	}
	if g.Revoked == nil {
		g.Revoked = make(map[string]bool)
	}
}

// ReleasedFor returns the amount already released for token.
func (g *Grant) ReleasedFor(token string) *big.Int {
	if g == nil || g.Released == nil {
		return big.NewInt(0)
	}
	amt, ok := g.Released[token]
	if !ok || amt == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(amt)
}

// IsRevoked reports whether vesting was terminated for token.
func (g *Grant) IsRevoked(token string) bool {
	if g == nil || g.Revoked == nil {
		return false
	}
	return g.Revoked[token]
}

// End returns the time at which the schedule fully vests.
func (g *Grant) End() uint64 { return g.Terms.Start + g.Terms.Duration }

// Clone produces a deep copy to protect internal references.
func (g *Grant) Clone() *Grant {
	if g == nil {
		return nil
	}
	clone := &Grant{
		ID:       g.ID,
		Terms:    g.Terms,
		Released: make(map[string]*big.Int, len(g.Released)),
		Revoked:  make(map[string]bool, len(g.Revoked)),
	}
	for token, amt := range g.Released {
		if amt == nil {
			clone.Released[token] = big.NewInt(0)
			continue
		}
		clone.Released[token] = new(big.Int).Set(amt)
	}
	for token, revoked := range g.Revoked {
		clone.Revoked[token] = revoked
	}
	return clone
}
