package state

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"rewardvault/core/types"
	"rewardvault/native/farming"
	"rewardvault/native/staking"
	"rewardvault/native/vesting"
	"rewardvault/storage"
)

var (
	ErrInvalidAmount       = errors.New("state: amount must be positive")
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	ErrMintCapExceeded     = errors.New("state: mint cap exceeded")
)

var (
	keyStakingPool = []byte("staking/pool")
	keyFarmingPool = []byte("farm/pool")
)

func accountKey(addr types.Address) []byte {
	return append([]byte("acct/"), addr.Bytes()...)
}

func stakingPositionKey(addr types.Address) []byte {
	return append([]byte("staking/pos/"), addr.Bytes()...)
}

func farmingPositionKey(addr types.Address) []byte {
	return append([]byte("farm/pos/"), addr.Bytes()...)
}

func grantKey(id string) []byte {
	return []byte("vesting/grant/" + id)
}

func mintedKey(token string) []byte {
	return []byte("mint/minted/" + token)
}

// Manager is the persistence and value-transfer backend shared by the three
// accounting engines. Records are RLP-encoded into a key-value store; balances
// live on accounts keyed by address and move only through Transfer and Mint.
type Manager struct {
	mu       sync.RWMutex
	db       storage.Database
	mintCaps map[string]*big.Int
	paused   map[string]bool
}

// NewManager wraps db. mintCaps bounds lifetime minting per token symbol; a
// token without an entry cannot be minted at all.
func NewManager(db storage.Database, mintCaps map[string]*big.Int) *Manager {
	caps := make(map[string]*big.Int, len(mintCaps))
	for token, limit := range mintCaps {
		if limit != nil {
			caps[token] = new(big.Int).Set(limit)
		}
	}
	return &Manager{db: db, mintCaps: caps, paused: make(map[string]bool)}
}

// SetPaused toggles the pause flag for a module name.
func (m *Manager) SetPaused(module string, paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused[module] = paused
}

// IsPaused reports the pause flag for a module name.
func (m *Manager) IsPaused(module string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused[module]
}

func (m *Manager) getRLP(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putRLP(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, raw)
}

// Account loads the ledger record for addr. Missing accounts read as empty.
func (m *Manager) Account(addr types.Address) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.account(addr)
}

func (m *Manager) account(addr types.Address) (*types.Account, error) {
	var stored storedAccount
	ok, err := m.getRLP(accountKey(addr), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.NewAccount(), nil
	}
	return stored.toAccount(), nil
}

func (m *Manager) putAccount(addr types.Address, acct *types.Account) error {
	return m.putRLP(accountKey(addr), accountToStored(acct))
}

// PutAccount persists the ledger record for addr.
func (m *Manager) PutAccount(addr types.Address, acct *types.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putAccount(addr, acct)
}

// BalanceOf returns the token balance held by holder.
func (m *Manager) BalanceOf(token string, holder types.Address) (*big.Int, error) {
	acct, err := m.Account(holder)
	if err != nil {
		return nil, err
	}
	return acct.Balance(token), nil
}

// Transfer moves amount of token between accounts. The debit is checked before
// anything is written so a failed transfer leaves both accounts untouched.
func (m *Manager) Transfer(token string, from, to types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sender, err := m.account(from)
	if err != nil {
		return err
	}
	if sender.Balance(token).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	receiver, err := m.account(to)
	if err != nil {
		return err
	}

	sender.Debit(token, amount)
	receiver.Credit(token, amount)
	if err := m.putAccount(from, sender); err != nil {
		return err
	}
	return m.putAccount(to, receiver)
}

// Minted returns the lifetime minted total for token.
func (m *Manager) Minted(token string) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.minted(token)
}

func (m *Manager) minted(token string) (*big.Int, error) {
	var total big.Int
	ok, err := m.getRLP(mintedKey(token), &total)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return &total, nil
}

// Mint credits newly issued token to an account, bounded by the configured
// lifetime cap. A mint that would exceed the cap is refused whole.
func (m *Manager) Mint(token string, to types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	limit, ok := m.mintCaps[token]
	if !ok {
		return ErrMintCapExceeded
	}
	total, err := m.minted(token)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(total, amount)
	if next.Cmp(limit) > 0 {
		return ErrMintCapExceeded
	}

	acct, err := m.account(to)
	if err != nil {
		return err
	}
	acct.Credit(token, amount)
	if err := m.putAccount(to, acct); err != nil {
		return err
	}
	return m.putRLP(mintedKey(token), next)
}

// StakingPool loads the time-rate pool record, nil when absent.
func (m *Manager) StakingPool() (*staking.Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedStakingPool
	ok, err := m.getRLP(keyStakingPool, &stored)
	if err != nil || !ok {
		return nil, err
	}
	return stored.toPool(), nil
}

// PutStakingPool persists the time-rate pool record.
func (m *Manager) PutStakingPool(pool *staking.Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putRLP(keyStakingPool, stakingPoolToStored(pool))
}

// StakingPosition loads the record for addr, nil when absent.
func (m *Manager) StakingPosition(addr types.Address) (*staking.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedStakingPosition
	ok, err := m.getRLP(stakingPositionKey(addr), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return stored.toPosition(), nil
}

// PutStakingPosition persists the record under the position's address.
func (m *Manager) PutStakingPosition(pos *staking.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putRLP(stakingPositionKey(pos.Address), stakingPositionToStored(pos))
}

// FarmingPool loads the phased pool record, nil when absent.
func (m *Manager) FarmingPool() (*farming.Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedFarmingPool
	ok, err := m.getRLP(keyFarmingPool, &stored)
	if err != nil || !ok {
		return nil, err
	}
	return stored.toPool(), nil
}

// PutFarmingPool persists the phased pool record.
func (m *Manager) PutFarmingPool(pool *farming.Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putRLP(keyFarmingPool, farmingPoolToStored(pool))
}

// FarmingPosition loads the record for addr, nil when absent.
func (m *Manager) FarmingPosition(addr types.Address) (*farming.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedFarmingPosition
	ok, err := m.getRLP(farmingPositionKey(addr), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return stored.toPosition(), nil
}

// PutFarmingPosition persists the record under the position's address.
func (m *Manager) PutFarmingPosition(pos *farming.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putRLP(farmingPositionKey(pos.Address), farmingPositionToStored(pos))
}

// VestingGrant loads a grant by id, nil when absent.
func (m *Manager) VestingGrant(id string) (*vesting.Grant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedGrant
	ok, err := m.getRLP(grantKey(id), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return stored.toGrant(), nil
}

// PutVestingGrant persists the grant under its id.
func (m *Manager) PutVestingGrant(grant *vesting.Grant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putRLP(grantKey(grant.ID), grantToStored(grant))
}
