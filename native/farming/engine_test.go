package farming

import (
	"errors"
	"math/big"
	"testing"

	"rewardvault/core/types"
)

const farmToken = "RVT"

type fakeState struct {
	pool      *Pool
	positions map[types.Address]*Position
}

func newFakeState() *fakeState {
	return &fakeState{positions: make(map[types.Address]*Position)}
}

func (s *fakeState) FarmingPool() (*Pool, error)  { return s.pool.Clone(), nil }
func (s *fakeState) PutFarmingPool(p *Pool) error { s.pool = p.Clone(); return nil }
func (s *fakeState) FarmingPosition(addr types.Address) (*Position, error) {
	pos, ok := s.positions[addr]
	if !ok {
		return nil, nil
	}
	return pos.Clone(), nil
}
func (s *fakeState) PutFarmingPosition(p *Position) error {
	s.positions[p.Address] = p.Clone()
	return nil
}

type fakeBank struct {
	balances map[types.Address]*big.Int
	minted   *big.Int
	mintCap  *big.Int
}

func newFakeBank() *fakeBank {
	return &fakeBank{balances: make(map[types.Address]*big.Int), minted: big.NewInt(0)}
}

func (b *fakeBank) balance(addr types.Address) *big.Int {
	bal, ok := b.balances[addr]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

func (b *fakeBank) credit(addr types.Address, amount *big.Int) {
	b.balances[addr] = new(big.Int).Add(b.balance(addr), amount)
}

func (b *fakeBank) Transfer(token string, from, to types.Address, amount *big.Int) error {
	if b.balance(from).Cmp(amount) < 0 {
		return errors.New("bank: insufficient balance")
	}
	b.balances[from] = new(big.Int).Sub(b.balance(from), amount)
	b.balances[to] = new(big.Int).Add(b.balance(to), amount)
	return nil
}

func (b *fakeBank) Mint(token string, to types.Address, amount *big.Int) error {
	if b.mintCap != nil {
		next := new(big.Int).Add(b.minted, amount)
		if next.Cmp(b.mintCap) > 0 {
			return errors.New("bank: mint cap exceeded")
		}
	}
	b.minted = new(big.Int).Add(b.minted, amount)
	b.credit(to, amount)
	return nil
}

func addr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func e18(v int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return new(big.Int).Mul(big.NewInt(v), scale)
}

// newTestEngine builds an engine over a single 11-block phase emitting
// 1e18/block to stakers, starting at block 0.
func newTestEngine(t *testing.T) (*Engine, *fakeState, *fakeBank) {
	t.Helper()
	schedule, err := NewSchedule(0, []Phase{
		{StakingRate: e18(1), OtherRate: bi(0), Blocks: 11},
	}, e18(11))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	state := newFakeState()
	bank := newFakeBank()
	engine := NewEngine(schedule, addr(0xAA), addr(0xBB), farmToken)
	engine.SetState(state)
	engine.SetVault(bank)
	engine.SetMinter(bank)
	return engine, state, bank
}

func TestDepositRejectsZero(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	if err := engine.Deposit(1, addr(1), big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := engine.Withdraw(1, addr(1), nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount on nil withdraw, got %v", err)
	}
	if state.pool != nil && state.pool.TotalStaked.Sign() != 0 {
		t.Fatalf("state mutated by rejected call")
	}
}

func TestPhaseBoundaryPending(t *testing.T) {
	engine, _, bank := newTestEngine(t)
	bank.credit(addr(1), e18(100))
	bank.credit(addr(2), e18(100))

	if err := engine.Deposit(7, addr(1), e18(100)); err != nil {
		t.Fatalf("deposit 1: %v", err)
	}
	if err := engine.Deposit(9, addr(2), e18(100)); err != nil {
		t.Fatalf("deposit 2: %v", err)
	}
	pending, err := engine.CalculatePendingRewards(9, addr(1))
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	// Two blocks of sole-staker accrual before the second deposit.
	if pending.Cmp(e18(2)) != 0 {
		t.Fatalf("pending mismatch: got %s want %s", pending, e18(2))
	}
}

func TestPendingMatchesUpdateThenSettle(t *testing.T) {
	engine, state, bank := newTestEngine(t)
	bank.credit(addr(1), e18(10))
	if err := engine.Deposit(2, addr(1), e18(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	projected, err := engine.CalculatePendingRewards(8, addr(1))
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if err := engine.HarvestAndCompound(8, addr(1)); err != nil {
		t.Fatalf("compound: %v", err)
	}
	folded := new(big.Int).Sub(state.positions[addr(1)].Principal, e18(10))
	if folded.Cmp(projected) != 0 {
		t.Fatalf("projection diverged: projected %s folded %s", projected, folded)
	}
}

func TestCompoundingEquivalence(t *testing.T) {
	run := func(compoundFirst bool) *big.Int {
		engine, _, bank := newTestEngine(t)
		bank.credit(addr(1), e18(10))
		if err := engine.Deposit(0, addr(1), e18(10)); err != nil {
			t.Fatalf("deposit: %v", err)
		}
		if compoundFirst {
			if err := engine.HarvestAndCompound(6, addr(1)); err != nil {
				t.Fatalf("compound: %v", err)
			}
		}
		payout, err := engine.WithdrawAll(6, addr(1))
		if err != nil {
			t.Fatalf("withdrawAll: %v", err)
		}
		return payout
	}
	direct := run(false)
	compounded := run(true)
	if direct.Cmp(compounded) != 0 {
		t.Fatalf("compound-then-withdraw %s != direct withdraw %s", compounded, direct)
	}
}

func TestCompoundZeroPendingIsNoop(t *testing.T) {
	engine, state, bank := newTestEngine(t)
	bank.credit(addr(1), e18(10))
	if err := engine.Deposit(3, addr(1), e18(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	// Same height, nothing accrued: must not error.
	if err := engine.HarvestAndCompound(3, addr(1)); err != nil {
		t.Fatalf("zero-pending compound errored: %v", err)
	}
	if state.positions[addr(1)].Principal.Cmp(e18(10)) != 0 {
		t.Fatalf("principal changed on no-op compound")
	}
}

func TestWithdrawFoldsPending(t *testing.T) {
	engine, state, bank := newTestEngine(t)
	bank.credit(addr(1), e18(10))
	if err := engine.Deposit(0, addr(1), e18(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	// 4 blocks sole staker: pending 4e18. Withdraw 6e18: net 10+4-6 = 8e18.
	if err := engine.Withdraw(4, addr(1), e18(6)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	pos := state.positions[addr(1)]
	if pos.Principal.Cmp(e18(8)) != 0 {
		t.Fatalf("principal after folded withdraw: got %s want %s", pos.Principal, e18(8))
	}
	if state.pool.TotalStaked.Cmp(e18(8)) != 0 {
		t.Fatalf("pool total after folded withdraw: %s", state.pool.TotalStaked)
	}
	if bank.balance(addr(1)).Cmp(e18(6)) != 0 {
		t.Fatalf("payout mismatch: %s", bank.balance(addr(1)))
	}
	if err := engine.Withdraw(5, addr(1), e18(100)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("over-principal withdraw: got %v", err)
	}
}

func TestWithdrawAllZeroesPosition(t *testing.T) {
	engine, state, bank := newTestEngine(t)
	bank.credit(addr(1), e18(10))
	if err := engine.Deposit(0, addr(1), e18(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	payout, err := engine.WithdrawAll(5, addr(1))
	if err != nil {
		t.Fatalf("withdrawAll: %v", err)
	}
	if payout.Cmp(e18(15)) != 0 {
		t.Fatalf("payout: got %s want %s", payout, e18(15))
	}
	pos := state.positions[addr(1)]
	if pos.Principal.Sign() != 0 || pos.RewardDebt.Sign() != 0 {
		t.Fatalf("position not zeroed: %+v", pos)
	}
	if state.pool.TotalStaked.Sign() != 0 {
		t.Fatalf("pool total not zeroed: %s", state.pool.TotalStaked)
	}
}

func TestZeroStakedAdvancesWatermarkWithoutMinting(t *testing.T) {
	engine, state, bank := newTestEngine(t)
	bank.credit(addr(1), e18(1))
	if err := engine.Deposit(5, addr(1), e18(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if state.pool.LastRewardBlock != 5 {
		t.Fatalf("watermark not advanced through empty span: %d", state.pool.LastRewardBlock)
	}
	if bank.minted.Sign() != 0 {
		t.Fatalf("minted during empty span: %s", bank.minted)
	}
	if state.pool.AccPerShare.Sign() != 0 {
		t.Fatalf("accumulator moved during empty span")
	}
}

func TestMintCapSkipsAccumulator(t *testing.T) {
	engine, state, bank := newTestEngine(t)
	bank.mintCap = big.NewInt(0)
	bank.credit(addr(1), e18(10))
	if err := engine.Deposit(0, addr(1), e18(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	// Accrual spans 3 blocks but every mint is refused by the cap.
	if err := engine.HarvestAndCompound(3, addr(1)); err != nil {
		t.Fatalf("compound with refused mint errored: %v", err)
	}
	if state.pool.AccPerShare.Sign() != 0 {
		t.Fatalf("accumulator credited despite refused mint")
	}
	if state.pool.LastRewardBlock != 3 {
		t.Fatalf("watermark stalled on refused mint: %d", state.pool.LastRewardBlock)
	}
}

func TestExhaustedScheduleIsNoop(t *testing.T) {
	engine, state, bank := newTestEngine(t)
	bank.credit(addr(1), e18(10))
	if err := engine.Deposit(0, addr(1), e18(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := engine.HarvestAndCompound(50, addr(1)); err != nil {
		t.Fatalf("compound past end: %v", err)
	}
	if state.pool.LastRewardBlock != engine.Schedule().EndBlock() {
		t.Fatalf("watermark overshot schedule end: %d", state.pool.LastRewardBlock)
	}
	before := state.pool.AccPerShare
	if err := engine.HarvestAndCompound(100, addr(1)); err != nil {
		t.Fatalf("post-exhaustion call errored: %v", err)
	}
	if state.pool.AccPerShare.Cmp(before) != 0 {
		t.Fatalf("accumulator moved after exhaustion")
	}
	pending, err := engine.CalculatePendingRewards(100, addr(1))
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending.Sign() != 0 {
		t.Fatalf("pending after full compound at exhaustion: %s", pending)
	}
}

func TestConservationAcrossParticipants(t *testing.T) {
	engine, _, bank := newTestEngine(t)
	bank.credit(addr(1), e18(30))
	bank.credit(addr(2), e18(70))

	if err := engine.Deposit(0, addr(1), e18(30)); err != nil {
		t.Fatalf("deposit 1: %v", err)
	}
	if err := engine.Deposit(4, addr(2), e18(70)); err != nil {
		t.Fatalf("deposit 2: %v", err)
	}
	payout1, err := engine.WithdrawAll(11, addr(1))
	if err != nil {
		t.Fatalf("withdraw 1: %v", err)
	}
	payout2, err := engine.WithdrawAll(11, addr(2))
	if err != nil {
		t.Fatalf("withdraw 2: %v", err)
	}
	rewards := new(big.Int).Add(payout1, payout2)
	rewards.Sub(rewards, e18(100))
	// Everything minted for stakers is paid out, within accumulator dust.
	diff := new(big.Int).Sub(bank.minted, rewards)
	if diff.Sign() < 0 {
		t.Fatalf("paid out more than minted: minted %s paid %s", bank.minted, rewards)
	}
	if diff.Cmp(big.NewInt(1_000_000)) > 0 {
		t.Fatalf("conservation dust too large: %s", diff)
	}
	if pending, _ := engine.CalculatePendingRewards(11, addr(1)); pending.Sign() != 0 {
		t.Fatalf("negative/residual pending after exit: %s", pending)
	}
}

func TestAccumulatorMonotonic(t *testing.T) {
	engine, state, bank := newTestEngine(t)
	bank.credit(addr(1), e18(50))
	last := big.NewInt(0)
	check := func() {
		if state.pool == nil {
			return
		}
		if state.pool.AccPerShare.Cmp(last) < 0 {
			t.Fatalf("accumulator decreased: %s < %s", state.pool.AccPerShare, last)
		}
		last = new(big.Int).Set(state.pool.AccPerShare)
	}
	_ = engine.Deposit(1, addr(1), e18(10))
	check()
	_ = engine.Deposit(3, addr(1), e18(5))
	check()
	_ = engine.HarvestAndCompound(5, addr(1))
	check()
	_ = engine.Withdraw(7, addr(1), e18(2))
	check()
	_, _ = engine.WithdrawAll(11, addr(1))
	check()
}
