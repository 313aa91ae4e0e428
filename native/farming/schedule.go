package farming

import "math/big"

// Phase is one contiguous emission span: fixed per-block rates for the staking
// pool and for the side allocation, over a block count.
type Phase struct {
	StakingRate *big.Int
	OtherRate   *big.Int
	Blocks      uint64
}

// Schedule is the immutable emission table. Construction enforces that the
// full schedule exactly exhausts the reserved supply.
type Schedule struct {
	startBlock uint64
	phases     []Phase
	ends       []uint64
}

// NewSchedule validates and freezes an emission table. The sum of
// (stakingRate+otherRate)*blocks across phases must equal reserved.
func NewSchedule(startBlock uint64, phases []Phase, reserved *big.Int) (*Schedule, error) {
	if len(phases) == 0 {
		return nil, ErrEmptySchedule
	}
	total := big.NewInt(0)
	ends := make([]uint64, len(phases))
	cursor := startBlock
	frozen := make([]Phase, len(phases))
	for i, phase := range phases {
		if phase.Blocks == 0 {
			return nil, ErrEmptySchedule
		}
		staking := cloneBigInt(phase.StakingRate)
		other := cloneBigInt(phase.OtherRate)
		if staking.Sign() < 0 || other.Sign() < 0 {
			return nil, ErrNegativeRate
		}
		blocks := new(big.Int).SetUint64(phase.Blocks)
		perBlock := new(big.Int).Add(staking, other)
		total.Add(total, perBlock.Mul(perBlock, blocks))
		cursor += phase.Blocks
		ends[i] = cursor
		frozen[i] = Phase{StakingRate: staking, OtherRate: other, Blocks: phase.Blocks}
	}
	if reserved == nil || total.Cmp(reserved) != 0 {
		return nil, ErrScheduleMismatch
	}
	return &Schedule{startBlock: startBlock, phases: frozen, ends: ends}, nil
}

// StartBlock returns the first block of phase 0.
func (s *Schedule) StartBlock() uint64 { return s.startBlock }

// EndBlock returns the block at which emission is exhausted.
func (s *Schedule) EndBlock() uint64 { return s.ends[len(s.ends)-1] }

// Phases returns a defensive copy of the phase table.
func (s *Schedule) Phases() []Phase {
	out := make([]Phase, len(s.phases))
	for i, p := range s.phases {
		out[i] = Phase{
			StakingRate: cloneBigInt(p.StakingRate),
			OtherRate:   cloneBigInt(p.OtherRate),
			Blocks:      p.Blocks,
		}
	}
	return out
}

// Cursor marks a position in the schedule: the accrual watermark and the
// phase it falls in.
type Cursor struct {
	Block uint64
	Phase int
}

// Clamp snaps a cursor below the schedule start up to the start.
func (s *Schedule) Clamp(c Cursor) Cursor {
	if c.Block < s.startBlock {
		c.Block = s.startBlock
	}
	if c.Phase < 0 {
		c.Phase = 0
	}
	return c
}

// Accrue advances the cursor to the target block, splitting the span at every
// phase boundary it crosses, and returns the new cursor plus the staking and
// other reward emitted over the span. Pure: neither the schedule nor the input
// cursor is mutated. Beyond the final phase the cursor saturates at EndBlock
// and the rates are zero.
func (s *Schedule) Accrue(c Cursor, to uint64) (Cursor, *big.Int, *big.Int) {
	c = s.Clamp(c)
	staking := big.NewInt(0)
	other := big.NewInt(0)
	if to > s.EndBlock() {
		to = s.EndBlock()
	}
	for c.Phase < len(s.phases) && c.Block < to {
		phaseEnd := s.ends[c.Phase]
		spanEnd := to
		if phaseEnd < spanEnd {
			spanEnd = phaseEnd
		}
		span := new(big.Int).SetUint64(spanEnd - c.Block)
		phase := s.phases[c.Phase]
		staking.Add(staking, new(big.Int).Mul(span, phase.StakingRate))
		other.Add(other, new(big.Int).Mul(span, phase.OtherRate))
		c.Block = spanEnd
		if c.Block == phaseEnd {
			c.Phase++
		}
	}
	if c.Block < to {
		c.Block = to
	}
	return c, staking, other
}
