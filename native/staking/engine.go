package staking

import (
	"math/big"

	"rewardvault/core/events"
	"rewardvault/core/types"
	nativecommon "rewardvault/native/common"
)

const moduleName = "staking"

type engineState interface {
	StakingPool() (*Pool, error)
	PutStakingPool(*Pool) error
	StakingPosition(addr types.Address) (*Position, error)
	PutStakingPosition(*Position) error
}

// vault is the value-transfer capability consumed by the engine. A transfer
// failure aborts the enclosing operation before any state is persisted.
type vault interface {
	Transfer(token string, from, to types.Address, amount *big.Int) error
	BalanceOf(token string, holder types.Address) (*big.Int, error)
}

// Engine implements the time-rate reward pool: a fixed reward amount streamed
// linearly over a duration, settled through the rewardPerToken accumulator.
// Every operation takes the current unix time explicitly so the engine stays
// deterministic and clock-free.
type Engine struct {
	state       engineState
	vault       vault
	emitter     events.Emitter
	guard       nativecommon.OpGuard
	pauses      nativecommon.PauseView
	poolAddress types.Address
	stakeToken  string
	rewardToken string
}

// NewEngine constructs a staking engine holding pool funds at poolAddr.
func NewEngine(poolAddr types.Address, stakeToken, rewardToken string) *Engine {
	return &Engine{
		emitter:     events.NoopEmitter{},
		poolAddress: poolAddr,
		stakeToken:  stakeToken,
		rewardToken: rewardToken,
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetVault wires the engine to the value-transfer backend.
func (e *Engine) SetVault(v vault) { e.vault = v }

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

// PoolAddress returns the address holding staked principal and reward funds.
func (e *Engine) PoolAddress() types.Address { return e.poolAddress }

func (e *Engine) emit(evt events.Typed) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

// lastTimeRewardApplicable clamps now to the end of the reward period.
func lastTimeRewardApplicable(pool *Pool, now uint64) uint64 {
	if now > pool.PeriodFinish {
		return pool.PeriodFinish
	}
	return now
}

// rewardPerToken computes the accumulator value at now without mutating the
// pool. With nothing staked the stored value is returned unchanged.
func rewardPerToken(pool *Pool, now uint64) *big.Int {
	if pool.TotalStaked.Sign() == 0 {
		return new(big.Int).Set(pool.RewardPerTokenStored)
	}
	applicable := lastTimeRewardApplicable(pool, now)
	if applicable <= pool.LastUpdateTime {
		return new(big.Int).Set(pool.RewardPerTokenStored)
	}
	elapsed := new(big.Int).SetUint64(applicable - pool.LastUpdateTime)
	increment := new(big.Int).Mul(elapsed, pool.RewardRate)
	increment.Mul(increment, Precision)
	increment.Quo(increment, pool.TotalStaked)
	return new(big.Int).Add(pool.RewardPerTokenStored, increment)
}

// earned computes the settled-plus-unsettled reward owed to pos at now.
func earned(pool *Pool, pos *Position, now uint64) *big.Int {
	delta := new(big.Int).Sub(rewardPerToken(pool, now), pos.RewardPerTokenPaid)
	if delta.Sign() < 0 {
		delta = big.NewInt(0)
	}
	owed := new(big.Int).Mul(pos.Balance, delta)
	owed.Quo(owed, Precision)
	return owed.Add(owed, pos.Accrued)
}

// settle folds elapsed accrual into the pool accumulator and, when pos is not
// nil, into the participant's accrued ledger. Idempotent within a time instant
// and always runs strictly before any balance mutation.
func settle(pool *Pool, pos *Position, now uint64) {
	rpt := rewardPerToken(pool, now)
	pool.RewardPerTokenStored = rpt
	pool.LastUpdateTime = lastTimeRewardApplicable(pool, now)
	if pos != nil {
		pos.Accrued = earned(pool, pos, now)
		pos.RewardPerTokenPaid = new(big.Int).Set(rpt)
	}
}

func (e *Engine) loadPool() (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.state.StakingPool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = NewPool(0)
	}
	pool.normalize()
	return pool, nil
}

func (e *Engine) loadPosition(addr types.Address) (*Position, error) {
	pos, err := e.state.StakingPosition(addr)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = NewPosition(addr)
	}
	pos.normalize()
	return pos, nil
}

// RewardPerToken returns the accumulator value at now. Pure view.
func (e *Engine) RewardPerToken(now uint64) (*big.Int, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	return rewardPerToken(pool, now), nil
}

// Earned returns the reward claimable by addr at now. Pure view.
func (e *Engine) Earned(now uint64, addr types.Address) (*big.Int, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	pos, err := e.loadPosition(addr)
	if err != nil {
		return nil, err
	}
	return earned(pool, pos, now), nil
}

// Stake moves amount of the stake token from addr into the pool.
func (e *Engine) Stake(now uint64, addr types.Address, amount *big.Int) error {
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

	settle(pool, pos, now)

	if err := e.vault.Transfer(e.stakeToken, addr, e.poolAddress, amount); err != nil {
		return err
	}

	pos.Balance = new(big.Int).Add(pos.Balance, amount)
	pool.TotalStaked = new(big.Int).Add(pool.TotalStaked, amount)

	if err := e.state.PutStakingPosition(pos); err != nil {
		return err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}
	e.emit(events.StakingStaked{Account: addr, Amount: cloneBigInt(amount), Time: now})
	return nil
}

// Withdraw returns amount of staked principal to addr.
func (e *Engine) Withdraw(now uint64, addr types.Address, amount *big.Int) error {
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()
	return e.withdrawLocked(now, addr, amount)
}

func (e *Engine) withdrawLocked(now uint64, addr types.Address, amount *big.Int) error {
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
	if amount.Cmp(pos.Balance) > 0 {
		return ErrInvalidAmount
	}

	settle(pool, pos, now)

	if err := e.vault.Transfer(e.stakeToken, e.poolAddress, addr, amount); err != nil {
		return err
	}

	pos.Balance = new(big.Int).Sub(pos.Balance, amount)
	pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, amount)

	if err := e.state.PutStakingPosition(pos); err != nil {
		return err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}
	e.emit(events.StakingWithdrawn{Account: addr, Amount: cloneBigInt(amount), Time: now})
	return nil
}

// ClaimReward pays out the settled reward owed to addr. A zero claim is a
// no-op, not a failure, so routine claiming automation never errors.
func (e *Engine) ClaimReward(now uint64, addr types.Address) (*big.Int, error) {
	if err := e.guard.Enter(); err != nil {
		return nil, err
	}
	defer e.guard.Exit()
	return e.claimLocked(now, addr)
}

func (e *Engine) claimLocked(now uint64, addr types.Address) (*big.Int, error) {
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

	settle(pool, pos, now)

	reward := new(big.Int).Set(pos.Accrued)
	if reward.Sign() > 0 {
		if err := e.vault.Transfer(e.rewardToken, e.poolAddress, addr, reward); err != nil {
			return nil, err
		}
		pos.Accrued = big.NewInt(0)
	}

	if err := e.state.PutStakingPosition(pos); err != nil {
		return nil, err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return nil, err
	}
	if reward.Sign() > 0 {
		e.emit(events.StakingRewardPaid{Account: addr, Amount: cloneBigInt(reward), Time: now})
	}
	return reward, nil
}

// Exit withdraws the full principal and claims any outstanding reward.
func (e *Engine) Exit(now uint64, addr types.Address) (*big.Int, error) {
	if err := e.guard.Enter(); err != nil {
		return nil, err
	}
	defer e.guard.Exit()

	pos, err := e.loadPosition(addr)
	if err != nil {
		return nil, err
	}
	if pos.Balance.Sign() > 0 {
		if err := e.withdrawLocked(now, addr, pos.Balance); err != nil {
			return nil, err
		}
	}
	return e.claimLocked(now, addr)
}

// NotifyRewardAmount funds a new reward period, rolling any unallocated
// remainder of an active period into the recomputed rate. The resulting rate
// must be coverable by the reward balance already held at the pool address.
func (e *Engine) NotifyRewardAmount(now uint64, reward *big.Int) error {
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
	if reward == nil || reward.Sign() <= 0 {
		return ErrInvalidAmount
	}

	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if pool.RewardsDuration == 0 {
		return ErrInvalidDuration
	}

	settle(pool, nil, now)

	duration := new(big.Int).SetUint64(pool.RewardsDuration)
	if now >= pool.PeriodFinish {
		pool.RewardRate = new(big.Int).Quo(reward, duration)
	} else {
		remaining := new(big.Int).SetUint64(pool.PeriodFinish - now)
		leftover := remaining.Mul(remaining, pool.RewardRate)
		total := new(big.Int).Add(reward, leftover)
		pool.RewardRate = total.Quo(total, duration)
	}

	funded, err := e.vault.BalanceOf(e.rewardToken, e.poolAddress)
	if err != nil {
		return err
	}
	promised := new(big.Int).Mul(pool.RewardRate, duration)
	if promised.Cmp(funded) > 0 {
		return ErrInsufficientFunding
	}

	pool.LastUpdateTime = now
	pool.PeriodFinish = now + pool.RewardsDuration

	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}
	e.emit(events.StakingRewardAdded{
		Amount:       cloneBigInt(reward),
		RewardRate:   cloneBigInt(pool.RewardRate),
		PeriodFinish: pool.PeriodFinish,
	})
	return nil
}

// SetRewardsDuration changes the emission duration for subsequent periods.
// Rejected while a period is active.
func (e *Engine) SetRewardsDuration(now uint64, duration uint64) error {
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if duration == 0 {
		return ErrInvalidDuration
	}

	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if now <= pool.PeriodFinish {
		return ErrActivePeriod
	}
	pool.RewardsDuration = duration
	return e.state.PutStakingPool(pool)
}
