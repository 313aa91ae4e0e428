package vesting

import (
	"errors"
	"math/big"
	"testing"

	"rewardvault/core/types"
)

const vestToken = "RVT"

type fakeState struct {
	grants map[string]*Grant
}

func newFakeState() *fakeState { return &fakeState{grants: make(map[string]*Grant)} }

func (s *fakeState) VestingGrant(id string) (*Grant, error) {
	grant, ok := s.grants[id]
	if !ok {
		return nil, nil
	}
	return grant.Clone(), nil
}

func (s *fakeState) PutVestingGrant(g *Grant) error {
	s.grants[g.ID] = g.Clone()
	return nil
}

type fakeVault struct {
	balances map[types.Address]*big.Int
}

func newFakeVault() *fakeVault { return &fakeVault{balances: make(map[types.Address]*big.Int)} }

func (v *fakeVault) balance(addr types.Address) *big.Int {
	bal, ok := v.balances[addr]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

func (v *fakeVault) credit(addr types.Address, amount int64) {
	v.balances[addr] = new(big.Int).Add(v.balance(addr), big.NewInt(amount))
}

func (v *fakeVault) Transfer(token string, from, to types.Address, amount *big.Int) error {
	if v.balance(from).Cmp(amount) < 0 {
		return errors.New("vault: insufficient balance")
	}
	v.balances[from] = new(big.Int).Sub(v.balance(from), amount)
	v.balances[to] = new(big.Int).Add(v.balance(to), amount)
	return nil
}

func (v *fakeVault) BalanceOf(token string, holder types.Address) (*big.Int, error) {
	return v.balance(holder), nil
}

func addr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

var (
	adminAddr = addr(0xAD)
	benefAddr = addr(0x01)
)

// newFundedGrant builds the reference schedule: start=1, cliff at t=1000,
// duration=4000, 4000 tokens held at the grant address.
func newFundedGrant(t *testing.T, revocable bool) (*Engine, *fakeState, *fakeVault) {
	t.Helper()
	state := newFakeState()
	vault := newFakeVault()
	engine := NewEngine(adminAddr)
	engine.SetState(state)
	engine.SetVault(vault)
	if _, err := engine.CreateGrant(0, "team", benefAddr, 1, 999, 4000, revocable); err != nil {
		t.Fatalf("create grant: %v", err)
	}
	vault.credit(GrantAddress("team"), 4000)
	return engine, state, vault
}

func TestCreateGrantValidation(t *testing.T) {
	engine := NewEngine(adminAddr)
	engine.SetState(newFakeState())
	engine.SetVault(newFakeVault())

	cases := []struct {
		name        string
		id          string
		beneficiary types.Address
		start       uint64
		cliff       uint64
		duration    uint64
		now         uint64
		want        error
	}{
		{"zero beneficiary", "g1", types.Address{}, 100, 0, 100, 0, ErrZeroBeneficiary},
		{"zero duration", "g2", benefAddr, 100, 0, 0, 0, ErrZeroDuration},
		{"cliff past end", "g3", benefAddr, 100, 101, 100, 0, ErrCliffExceedsDuration},
		{"already elapsed", "g4", benefAddr, 100, 0, 100, 200, ErrAlreadyElapsed},
		{"empty id", "", benefAddr, 100, 0, 100, 0, ErrEmptyGrantID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.CreateGrant(tc.now, tc.id, tc.beneficiary, tc.start, tc.cliff, tc.duration, true)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
		})
	}
}

func TestVestedAmountRoundTrip(t *testing.T) {
	engine, _, _ := newFundedGrant(t, false)

	cases := []struct {
		now  uint64
		want int64
	}{
		{999, 0},
		{1000, 999},  // floor(4000*999/4000) right after the cliff
		{2001, 2000}, // linear midpoint-ish: 4000*2000/4000
		{4001, 4000}, // fully vested at start+duration
		{9999, 4000},
	}
	for _, tc := range cases {
		vested, err := engine.VestedAmount(tc.now, "team", vestToken)
		if err != nil {
			t.Fatalf("vested at %d: %v", tc.now, err)
		}
		if vested.Int64() != tc.want {
			t.Fatalf("vested at %d: got %s want %d", tc.now, vested, tc.want)
		}
	}
}

func TestReleaseBeforeCliffNothingDue(t *testing.T) {
	engine, _, _ := newFundedGrant(t, false)
	if _, err := engine.Release(999, "team", vestToken); !errors.Is(err, ErrNothingDue) {
		t.Fatalf("expected ErrNothingDue, got %v", err)
	}
}

func TestReleaseTransfersAndRecords(t *testing.T) {
	engine, state, vault := newFundedGrant(t, false)
	released, err := engine.Release(2001, "team", vestToken)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released.Int64() != 2000 {
		t.Fatalf("released: got %s want 2000", released)
	}
	if vault.balance(benefAddr).Int64() != 2000 {
		t.Fatalf("beneficiary balance: %s", vault.balance(benefAddr))
	}
	if state.grants["team"].ReleasedFor(vestToken).Int64() != 2000 {
		t.Fatalf("released not recorded")
	}
	// Immediately again: nothing new has vested.
	if _, err := engine.Release(2001, "team", vestToken); !errors.Is(err, ErrNothingDue) {
		t.Fatalf("expected ErrNothingDue on repeat, got %v", err)
	}
	// Tail release collects the remainder.
	released, err = engine.Release(4001, "team", vestToken)
	if err != nil {
		t.Fatalf("tail release: %v", err)
	}
	if released.Int64() != 2000 {
		t.Fatalf("tail release: got %s want 2000", released)
	}
	if vault.balance(GrantAddress("team")).Sign() != 0 {
		t.Fatalf("grant address not drained")
	}
}

func TestTopUpInflatesVesting(t *testing.T) {
	engine, _, vault := newFundedGrant(t, false)
	// Deposits after start vest on the same line; documented caller risk.
	vault.credit(GrantAddress("team"), 4000)
	vested, err := engine.VestedAmount(2001, "team", vestToken)
	if err != nil {
		t.Fatalf("vested: %v", err)
	}
	if vested.Int64() != 4000 {
		t.Fatalf("top-up vesting: got %s want 4000", vested)
	}
}

func TestRevokeSplitsVestedAndUnvested(t *testing.T) {
	engine, state, vault := newFundedGrant(t, true)
	refund, err := engine.Revoke(2001, adminAddr, "team", vestToken)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if refund.Int64() != 2000 {
		t.Fatalf("refund: got %s want 2000", refund)
	}
	if vault.balance(adminAddr).Int64() != 2000 {
		t.Fatalf("admin refund not delivered")
	}
	if !state.grants["team"].IsRevoked(vestToken) {
		t.Fatalf("grant not marked revoked")
	}
	// Vested-but-unclaimed portion stays releasable after revocation.
	released, err := engine.Release(9999, "team", vestToken)
	if err != nil {
		t.Fatalf("post-revoke release: %v", err)
	}
	if released.Int64() != 2000 {
		t.Fatalf("post-revoke release: got %s want 2000", released)
	}
	// Vesting is frozen: nothing further accrues.
	if _, err := engine.Release(99999, "team", vestToken); !errors.Is(err, ErrNothingDue) {
		t.Fatalf("expected ErrNothingDue after frozen release, got %v", err)
	}
}

func TestRevokeFinality(t *testing.T) {
	engine, _, _ := newFundedGrant(t, true)
	if _, err := engine.Revoke(2001, adminAddr, "team", vestToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := engine.Revoke(3000, adminAddr, "team", vestToken); !errors.Is(err, ErrAlreadyRevoked) {
		t.Fatalf("expected ErrAlreadyRevoked, got %v", err)
	}
	if _, err := engine.EmergencyRevoke(3000, adminAddr, "team", vestToken); !errors.Is(err, ErrAlreadyRevoked) {
		t.Fatalf("expected ErrAlreadyRevoked for emergency, got %v", err)
	}
}

func TestRevokeGuards(t *testing.T) {
	engine, _, _ := newFundedGrant(t, false)
	if _, err := engine.Revoke(2001, adminAddr, "team", vestToken); !errors.Is(err, ErrNotRevocable) {
		t.Fatalf("expected ErrNotRevocable, got %v", err)
	}
	revocable, _, _ := newFundedGrant(t, true)
	if _, err := revocable.Revoke(2001, benefAddr, "team", vestToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestEmergencyRevokeForfeitsEverything(t *testing.T) {
	engine, _, vault := newFundedGrant(t, true)
	refund, err := engine.EmergencyRevoke(2001, adminAddr, "team", vestToken)
	if err != nil {
		t.Fatalf("emergency revoke: %v", err)
	}
	if refund.Int64() != 4000 {
		t.Fatalf("emergency refund: got %s want 4000", refund)
	}
	if vault.balance(GrantAddress("team")).Sign() != 0 {
		t.Fatalf("grant address not fully drained")
	}
	if _, err := engine.Release(9999, "team", vestToken); !errors.Is(err, ErrNothingDue) {
		t.Fatalf("beneficiary can still release after emergency revoke: %v", err)
	}
}
