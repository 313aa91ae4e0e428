package farming

import (
	"math/big"

	"rewardvault/core/events"
	"rewardvault/core/types"
	nativecommon "rewardvault/native/common"
)

const moduleName = "farming"

type engineState interface {
	FarmingPool() (*Pool, error)
	PutFarmingPool(*Pool) error
	FarmingPosition(addr types.Address) (*Position, error)
	PutFarmingPosition(*Position) error
}

type vault interface {
	Transfer(token string, from, to types.Address, amount *big.Int) error
}

// minter is the bounded-mint capability. A refused mint is reported, never
// assumed: the engine skips the corresponding accumulator update so funds are
// never promised beyond the cap.
type minter interface {
	Mint(token string, to types.Address, amount *big.Int) error
}

// Engine implements the phased block pool: emission follows an immutable phase
// table and pending rewards compound into principal on every interaction.
// Operations take the current block height explicitly.
type Engine struct {
	schedule     *Schedule
	state        engineState
	vault        vault
	minter       minter
	emitter      events.Emitter
	guard        nativecommon.OpGuard
	pauses       nativecommon.PauseView
	poolAddress  types.Address
	otherAddress types.Address
	token        string
}

// NewEngine constructs a farming engine over the supplied schedule. Staked
// principal and compounded rewards live at poolAddr; the side allocation is
// minted to otherAddr.
func NewEngine(schedule *Schedule, poolAddr, otherAddr types.Address, token string) *Engine {
	return &Engine{
		schedule:     schedule,
		emitter:      events.NoopEmitter{},
		poolAddress:  poolAddr,
		otherAddress: otherAddr,
		token:        token,
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetVault wires the engine to the value-transfer backend.
func (e *Engine) SetVault(v vault) { e.vault = v }

// SetMinter wires the engine to the bounded-mint backend.
func (e *Engine) SetMinter(m minter) { e.minter = m }

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Schedule returns the immutable emission table.
func (e *Engine) Schedule() *Schedule { return e.schedule }

// PoolAddress returns the address holding principal and staking emission.
func (e *Engine) PoolAddress() types.Address { return e.poolAddress }

func (e *Engine) emit(evt events.Typed) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) loadPool() (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.state.FarmingPool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = NewPool(e.schedule.StartBlock())
	}
	pool.normalize()
	return pool, nil
}

func (e *Engine) loadPosition(addr types.Address) (*Position, error) {
	pos, err := e.state.FarmingPosition(addr)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = NewPosition(addr)
	}
	pos.normalize()
	return pos, nil
}

// updatePool folds emission since the watermark into the pool. With nothing
// staked the watermark still advances, so the skipped span is never re-emitted.
// A refused staking mint skips the accumulator update for that increment while
// the watermark moves on; the pool can never lock up behind the cap. Calls at
// or beyond schedule exhaustion are no-ops.
func (e *Engine) updatePool(height uint64, pool *Pool) error {
	if height <= pool.LastRewardBlock {
		return nil
	}
	cursor := Cursor{Block: pool.LastRewardBlock, Phase: int(pool.PhaseIndex)}
	next, stakingReward, otherReward := e.schedule.Accrue(cursor, height)

	if pool.TotalStaked.Sign() > 0 {
		if e.minter == nil {
			return ErrNilMinter
		}
		if otherReward.Sign() > 0 {
			if err := e.minter.Mint(e.token, e.otherAddress, otherReward); err != nil {
				e.emit(events.FarmingMintSkipped{Amount: cloneBigInt(otherReward), Height: height, Reason: err.Error()})
			} else {
				pool.OtherMinted = new(big.Int).Add(pool.OtherMinted, otherReward)
			}
		}
		if stakingReward.Sign() > 0 {
			if err := e.minter.Mint(e.token, e.poolAddress, stakingReward); err != nil {
				e.emit(events.FarmingMintSkipped{Amount: cloneBigInt(stakingReward), Height: height, Reason: err.Error()})
			} else {
				increment := new(big.Int).Mul(stakingReward, Precision)
				increment.Quo(increment, pool.TotalStaked)
				pool.AccPerShare = new(big.Int).Add(pool.AccPerShare, increment)
			}
		}
	}

	pool.LastRewardBlock = next.Block
	pool.PhaseIndex = uint32(next.Phase)
	return nil
}

// pendingOf computes the unsettled reward for pos against an updated pool.
func pendingOf(pool *Pool, pos *Position) *big.Int {
	if pos.Principal.Sign() == 0 {
		return big.NewInt(0)
	}
	owed := new(big.Int).Mul(pos.Principal, pool.AccPerShare)
	owed.Quo(owed, Precision)
	owed.Sub(owed, pos.RewardDebt)
	if owed.Sign() < 0 {
		return big.NewInt(0)
	}
	return owed
}

func settleDebt(pool *Pool, pos *Position) {
	debt := new(big.Int).Mul(pos.Principal, pool.AccPerShare)
	pos.RewardDebt = debt.Quo(debt, Precision)
}

// CalculatePendingRewards projects the reward an update-and-settle at height
// would credit to addr, without mutating state.
func (e *Engine) CalculatePendingRewards(height uint64, addr types.Address) (*big.Int, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	pos, err := e.loadPosition(addr)
	if err != nil {
		return nil, err
	}
	if pool.TotalStaked.Sign() > 0 && height > pool.LastRewardBlock {
		cursor := Cursor{Block: pool.LastRewardBlock, Phase: int(pool.PhaseIndex)}
		_, stakingReward, _ := e.schedule.Accrue(cursor, height)
		if stakingReward.Sign() > 0 {
			increment := new(big.Int).Mul(stakingReward, Precision)
			increment.Quo(increment, pool.TotalStaked)
			pool.AccPerShare = new(big.Int).Add(pool.AccPerShare, increment)
		}
	}
	return pendingOf(pool, pos), nil
}

// Pool returns a copy of the pool state as of height, after folding pending
// emission. Read-only projection for queries.
func (e *Engine) Pool(height uint64) (*Pool, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if pool.TotalStaked.Sign() > 0 && height > pool.LastRewardBlock {
		cursor := Cursor{Block: pool.LastRewardBlock, Phase: int(pool.PhaseIndex)}
		next, stakingReward, _ := e.schedule.Accrue(cursor, height)
		if stakingReward.Sign() > 0 {
			increment := new(big.Int).Mul(stakingReward, Precision)
			increment.Quo(increment, pool.TotalStaked)
			pool.AccPerShare = new(big.Int).Add(pool.AccPerShare, increment)
		}
		pool.LastRewardBlock = next.Block
		pool.PhaseIndex = uint32(next.Phase)
	}
	return pool, nil
}

// Deposit stakes amount for addr, auto-compounding any pending reward into
// principal first.
func (e *Engine) Deposit(height uint64, addr types.Address, amount *big.Int) error {
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if e.vault == nil {
		return ErrNilVault
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	pos, err := e.loadPosition(addr)
	if err != nil {
		return err
	}
	if err := e.updatePool(height, pool); err != nil {
		return err
	}
	pending := pendingOf(pool, pos)

	if err := e.vault.Transfer(e.token, addr, e.poolAddress, amount); err != nil {
		return err
	}

	added := new(big.Int).Add(amount, pending)
	pos.Principal = new(big.Int).Add(pos.Principal, added)
	settleDebt(pool, pos)
	pool.TotalStaked = new(big.Int).Add(pool.TotalStaked, added)

	if err := e.state.PutFarmingPosition(pos); err != nil {
		return err
	}
	if err := e.state.PutFarmingPool(pool); err != nil {
		return err
	}
	e.emit(events.FarmingDeposited{Account: addr, Amount: cloneBigInt(amount), Folded: pending, Height: height})
	return nil
}

// HarvestAndCompound folds the pending reward into principal. Zero pending is
// an intentional no-op so automation can call it routinely.
func (e *Engine) HarvestAndCompound(height uint64, addr types.Address) error {
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	pos, err := e.loadPosition(addr)
	if err != nil {
		return err
	}
	if err := e.updatePool(height, pool); err != nil {
		return err
	}
	pending := pendingOf(pool, pos)
	if pending.Sign() == 0 {
		// Persist the advanced watermark even when there is nothing to fold.
		return e.state.PutFarmingPool(pool)
	}

	pos.Principal = new(big.Int).Add(pos.Principal, pending)
	settleDebt(pool, pos)
	pool.TotalStaked = new(big.Int).Add(pool.TotalStaked, pending)

	if err := e.state.PutFarmingPosition(pos); err != nil {
		return err
	}
	if err := e.state.PutFarmingPool(pool); err != nil {
		return err
	}
	e.emit(events.FarmingCompounded{Account: addr, Folded: pending, Height: height})
	return nil
}

// Withdraw returns amount of principal to addr after folding pending reward,
// so net principal becomes oldPrincipal + pending - amount.
func (e *Engine) Withdraw(height uint64, addr types.Address, amount *big.Int) error {
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if e.vault == nil {
		return ErrNilVault
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	pos, err := e.loadPosition(addr)
	if err != nil {
		return err
	}
	if amount.Cmp(pos.Principal) > 0 {
		return ErrInvalidAmount
	}
	if err := e.updatePool(height, pool); err != nil {
		return err
	}
	pending := pendingOf(pool, pos)

	if err := e.vault.Transfer(e.token, e.poolAddress, addr, amount); err != nil {
		return err
	}

	pos.Principal = new(big.Int).Add(pos.Principal, pending)
	pos.Principal.Sub(pos.Principal, amount)
	settleDebt(pool, pos)
	pool.TotalStaked = new(big.Int).Add(pool.TotalStaked, pending)
	pool.TotalStaked.Sub(pool.TotalStaked, amount)

	if err := e.state.PutFarmingPosition(pos); err != nil {
		return err
	}
	if err := e.state.PutFarmingPool(pool); err != nil {
		return err
	}
	e.emit(events.FarmingWithdrawn{Account: addr, Amount: cloneBigInt(amount), Folded: pending, Height: height})
	return nil
}

// WithdrawAll pays out the full principal plus pending reward and zeroes the
// participant's position.
func (e *Engine) WithdrawAll(height uint64, addr types.Address) (*big.Int, error) {
	if err := e.guard.Enter(); err != nil {
		return nil, err
	}
	defer e.guard.Exit()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if e.vault == nil {
		return nil, ErrNilVault
	}

	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	pos, err := e.loadPosition(addr)
	if err != nil {
		return nil, err
	}
	if err := e.updatePool(height, pool); err != nil {
		return nil, err
	}
	pending := pendingOf(pool, pos)
	principal := new(big.Int).Set(pos.Principal)
	payout := new(big.Int).Add(principal, pending)

	if payout.Sign() > 0 {
		if err := e.vault.Transfer(e.token, e.poolAddress, addr, payout); err != nil {
			return nil, err
		}
	}

	pos.Principal = big.NewInt(0)
	pos.RewardDebt = big.NewInt(0)
	pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, principal)
	if pool.TotalStaked.Sign() < 0 {
		pool.TotalStaked = big.NewInt(0)
	}

	if err := e.state.PutFarmingPosition(pos); err != nil {
		return nil, err
	}
	if err := e.state.PutFarmingPool(pool); err != nil {
		return nil, err
	}
	e.emit(events.FarmingWithdrawn{Account: addr, Amount: payout, Folded: pending, Height: height})
	return payout, nil
}
