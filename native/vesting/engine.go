package vesting

import (
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"rewardvault/core/events"
	"rewardvault/core/types"
	nativecommon "rewardvault/native/common"
)

const moduleName = "vesting"

type engineState interface {
	VestingGrant(id string) (*Grant, error)
	PutVestingGrant(*Grant) error
}

type vault interface {
	Transfer(token string, from, to types.Address, amount *big.Int) error
	BalanceOf(token string, holder types.Address) (*big.Int, error)
}

// Engine implements linear vesting over funded grant accounts. Each grant owns
// a derived address holding its allocation; release moves vested funds to the
// beneficiary, revocation refunds the administrator.
type Engine struct {
	state   engineState
	vault   vault
	emitter events.Emitter
	guard   nativecommon.OpGuard
	pauses  nativecommon.PauseView
	admin   types.Address
}

// NewEngine constructs a vesting engine administered by admin.
func NewEngine(admin types.Address) *Engine {
	return &Engine{emitter: events.NoopEmitter{}, admin: admin}
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

// Admin returns the administrator identity.
func (e *Engine) Admin() types.Address { return e.admin }

// GrantAddress derives the ledger address holding a grant's allocation.
func GrantAddress(id string) types.Address {
	digest := ethcrypto.Keccak256([]byte("vesting/grant/" + id))
	return types.BytesToAddress(digest[12:])
}

func (e *Engine) emit(evt events.Typed) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) loadGrant(id string) (*Grant, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	grant, err := e.state.VestingGrant(id)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, ErrGrantNotFound
	}
	grant.normalize()
	return grant, nil
}

// CreateGrant validates and persists a new grant.
func (e *Engine) CreateGrant(now uint64, id string, beneficiary types.Address, start, cliffOffset, duration uint64, revocable bool) (*Grant, error) {
	if err := e.guard.Enter(); err != nil {
		return nil, err
	}
	defer e.guard.Exit()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	grant, err := NewGrant(id, beneficiary, start, cliffOffset, duration, revocable, now)
	if err != nil {
		return nil, err
	}
	if err := e.state.PutVestingGrant(grant); err != nil {
		return nil, err
	}
	return grant.Clone(), nil
}

// vestedAmount computes the vested total for token at now. The total derives
// from the balance currently held at the grant address plus what was already
// released: tokens topped up after start vest on the same line. Callers own
// that consequence; the engine does not distinguish the original allocation
// from later deposits.
func (e *Engine) vestedAmount(now uint64, grant *Grant, token string) (*big.Int, error) {
	held, err := e.vault.BalanceOf(token, GrantAddress(grant.ID))
	if err != nil {
		return nil, err
	}
	released := grant.ReleasedFor(token)
	total := new(big.Int).Add(held, released)

	switch {
	case now < grant.Terms.Cliff:
		return big.NewInt(0), nil
	case now >= grant.End() || grant.IsRevoked(token):
		return total, nil
	default:
		elapsed := new(big.Int).SetUint64(now - grant.Terms.Start)
		vested := new(big.Int).Mul(total, elapsed)
		return vested.Quo(vested, new(big.Int).SetUint64(grant.Terms.Duration)), nil
	}
}

func releasableOf(vested, released *big.Int) *big.Int {
	due := new(big.Int).Sub(vested, released)
	if due.Sign() < 0 {
		return big.NewInt(0)
	}
	return due
}

// VestedAmount returns the vested total for token at now. Pure view.
func (e *Engine) VestedAmount(now uint64, id, token string) (*big.Int, error) {
	if e.vault == nil {
		return nil, ErrNilVault
	}
	grant, err := e.loadGrant(id)
	if err != nil {
		return nil, err
	}
	return e.vestedAmount(now, grant, token)
}

// Releasable returns the vested-but-unreleased amount for token at now.
func (e *Engine) Releasable(now uint64, id, token string) (*big.Int, error) {
	if e.vault == nil {
		return nil, ErrNilVault
	}
	grant, err := e.loadGrant(id)
	if err != nil {
		return nil, err
	}
	vested, err := e.vestedAmount(now, grant, token)
	if err != nil {
		return nil, err
	}
	return releasableOf(vested, grant.ReleasedFor(token)), nil
}

// Release transfers the releasable amount for token to the beneficiary.
func (e *Engine) Release(now uint64, id, token string) (*big.Int, error) {
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

	grant, err := e.loadGrant(id)
	if err != nil {
		return nil, err
	}
	vested, err := e.vestedAmount(now, grant, token)
	if err != nil {
		return nil, err
	}
	released := grant.ReleasedFor(token)
	due := releasableOf(vested, released)
	if due.Sign() == 0 {
		return nil, ErrNothingDue
	}

	if err := e.vault.Transfer(token, GrantAddress(id), grant.Terms.Beneficiary, due); err != nil {
		return nil, err
	}

	grant.Released[token] = released.Add(released, due)
	if err := e.state.PutVestingGrant(grant); err != nil {
		return nil, err
	}
	e.emit(events.VestingReleased{
		GrantID:     id,
		Beneficiary: grant.Terms.Beneficiary,
		Token:       token,
		Amount:      new(big.Int).Set(due),
		Time:        now,
	})
	return due, nil
}

// Revoke terminates future vesting for token. The unvested remainder is
// refunded to the administrator; the vested-but-unclaimed portion stays
// releasable by the beneficiary.
func (e *Engine) Revoke(now uint64, caller types.Address, id, token string) (*big.Int, error) {
	return e.revoke(now, caller, id, token, false)
}

// EmergencyRevoke refunds the entire held balance, vested or not, to the
// administrator. Intended for lost-key recovery; the beneficiary forfeits the
// unclaimed remainder.
func (e *Engine) EmergencyRevoke(now uint64, caller types.Address, id, token string) (*big.Int, error) {
	return e.revoke(now, caller, id, token, true)
}

func (e *Engine) revoke(now uint64, caller types.Address, id, token string, emergency bool) (*big.Int, error) {
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
	if caller != e.admin {
		return nil, ErrUnauthorized
	}

	grant, err := e.loadGrant(id)
	if err != nil {
		return nil, err
	}
	if !grant.Terms.Revocable {
		return nil, ErrNotRevocable
	}
	if grant.IsRevoked(token) {
		return nil, ErrAlreadyRevoked
	}

	held, err := e.vault.BalanceOf(token, GrantAddress(id))
	if err != nil {
		return nil, err
	}

	refund := new(big.Int).Set(held)
	if !emergency {
		vested, err := e.vestedAmount(now, grant, token)
		if err != nil {
			return nil, err
		}
		unclaimed := releasableOf(vested, grant.ReleasedFor(token))
		refund.Sub(refund, unclaimed)
		if refund.Sign() < 0 {
			refund = big.NewInt(0)
		}
	}

	if refund.Sign() > 0 {
		if err := e.vault.Transfer(token, GrantAddress(id), e.admin, refund); err != nil {
			return nil, err
		}
	}

	grant.Revoked[token] = true
	if err := e.state.PutVestingGrant(grant); err != nil {
		return nil, err
	}
	e.emit(events.VestingRevoked{
		GrantID:   id,
		Token:     token,
		Refunded:  new(big.Int).Set(refund),
		Emergency: emergency,
		Time:      now,
	})
	return refund, nil
}
