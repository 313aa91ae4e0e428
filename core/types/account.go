package types

import "math/big"

// Account is the ledger record for a single address. Balances are tracked per
// token symbol.
type Account struct {
	Nonce    uint64              `json:"nonce"`
	Balances map[string]*big.Int `json:"balances"`
}

// NewAccount returns an account with an empty balance map.
func NewAccount() *Account {
	return &Account{Balances: make(map[string]*big.Int)}
}

// Balance returns the balance held for token. Missing entries read as zero.
func (a *Account) Balance(token string) *big.Int {
	if a == nil || a.Balances == nil {
		return big.NewInt(0)
	}
	bal, ok := a.Balances[token]
	if !ok || bal == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

// Credit adds amount to the token balance.
func (a *Account) Credit(token string, amount *big.Int) {
	if a == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	a.Balances[token] = new(big.Int).Add(a.Balance(token), amount)
}

// Debit subtracts amount from the token balance. The caller must have checked
// sufficiency; Debit clamps at zero to preserve the no-negative invariant.
func (a *Account) Debit(token string, amount *big.Int) {
	if a == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	next := new(big.Int).Sub(a.Balance(token), amount)
	if next.Sign() < 0 {
		next = big.NewInt(0)
	}
	a.Balances[token] = next
}

// Clone produces a deep copy to protect internal references.
func (a *Account) Clone() *Account {
	if a == nil {
		return NewAccount()
	}
	clone := &Account{Nonce: a.Nonce, Balances: make(map[string]*big.Int, len(a.Balances))}
	for token, bal := range a.Balances {
		if bal == nil {
			clone.Balances[token] = big.NewInt(0)
			continue
		}
		clone.Balances[token] = new(big.Int).Set(bal)
	}
	return clone
}

// Event is the generic attribute bag emitted by the accounting engines.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
