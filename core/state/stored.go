package state

import (
	"math/big"
	"sort"

	"rewardvault/core/types"
	"rewardvault/native/farming"
	"rewardvault/native/staking"
	"rewardvault/native/vesting"
)

// RLP cannot encode maps, so every persisted record is mirrored by a stored
// struct using sorted slices. Sorting keeps the encoding deterministic.

type storedBalance struct {
	Token  string
	Amount *big.Int
}

func balancesToStored(balances map[string]*big.Int) []storedBalance {
	tokens := make([]string, 0, len(balances))
	for token := range balances {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	out := make([]storedBalance, 0, len(tokens))
	for _, token := range tokens {
		amt := balances[token]
		if amt == nil {
			amt = big.NewInt(0)
		}
		out = append(out, storedBalance{Token: token, Amount: new(big.Int).Set(amt)})
	}
	return out
}

func storedToBalances(stored []storedBalance) map[string]*big.Int {
	out := make(map[string]*big.Int, len(stored))
	for _, entry := range stored {
		amt := entry.Amount
		if amt == nil {
			amt = big.NewInt(0)
		}
		out[entry.Token] = new(big.Int).Set(amt)
	}
	return out
}

type storedAccount struct {
	Nonce    uint64
	Balances []storedBalance
}

func accountToStored(acct *types.Account) storedAccount {
	return storedAccount{Nonce: acct.Nonce, Balances: balancesToStored(acct.Balances)}
}

func (s storedAccount) toAccount() *types.Account {
	return &types.Account{Nonce: s.Nonce, Balances: storedToBalances(s.Balances)}
}

type storedStakingPool struct {
	RewardsDuration      uint64
	PeriodFinish         uint64
	RewardRate           *big.Int
	LastUpdateTime       uint64
	RewardPerTokenStored *big.Int
	TotalStaked          *big.Int
}

func stakingPoolToStored(p *staking.Pool) storedStakingPool {
	return storedStakingPool{
		RewardsDuration:      p.RewardsDuration,
		PeriodFinish:         p.PeriodFinish,
		RewardRate:           nonNil(p.RewardRate),
		LastUpdateTime:       p.LastUpdateTime,
		RewardPerTokenStored: nonNil(p.RewardPerTokenStored),
		TotalStaked:          nonNil(p.TotalStaked),
	}
}

func (s storedStakingPool) toPool() *staking.Pool {
	return &staking.Pool{
		RewardsDuration:      s.RewardsDuration,
		PeriodFinish:         s.PeriodFinish,
		RewardRate:           nonNil(s.RewardRate),
		LastUpdateTime:       s.LastUpdateTime,
		RewardPerTokenStored: nonNil(s.RewardPerTokenStored),
		TotalStaked:          nonNil(s.TotalStaked),
	}
}

type storedStakingPosition struct {
	Address            types.Address
	Balance            *big.Int
	RewardPerTokenPaid *big.Int
	Accrued            *big.Int
}

func stakingPositionToStored(p *staking.Position) storedStakingPosition {
	return storedStakingPosition{
		Address:            p.Address,
		Balance:            nonNil(p.Balance),
		RewardPerTokenPaid: nonNil(p.RewardPerTokenPaid),
		Accrued:            nonNil(p.Accrued),
	}
}

func (s storedStakingPosition) toPosition() *staking.Position {
	return &staking.Position{
		Address:            s.Address,
		Balance:            nonNil(s.Balance),
		RewardPerTokenPaid: nonNil(s.RewardPerTokenPaid),
		Accrued:            nonNil(s.Accrued),
	}
}

type storedFarmingPool struct {
	LastRewardBlock uint64
	PhaseIndex      uint32
	AccPerShare     *big.Int
	TotalStaked     *big.Int
	OtherMinted     *big.Int
}

func farmingPoolToStored(p *farming.Pool) storedFarmingPool {
	return storedFarmingPool{
		LastRewardBlock: p.LastRewardBlock,
		PhaseIndex:      p.PhaseIndex,
		AccPerShare:     nonNil(p.AccPerShare),
		TotalStaked:     nonNil(p.TotalStaked),
		OtherMinted:     nonNil(p.OtherMinted),
	}
}

func (s storedFarmingPool) toPool() *farming.Pool {
	return &farming.Pool{
		LastRewardBlock: s.LastRewardBlock,
		PhaseIndex:      s.PhaseIndex,
		AccPerShare:     nonNil(s.AccPerShare),
		TotalStaked:     nonNil(s.TotalStaked),
		OtherMinted:     nonNil(s.OtherMinted),
	}
}

type storedFarmingPosition struct {
	Address    types.Address
	Principal  *big.Int
	RewardDebt *big.Int
}

func farmingPositionToStored(p *farming.Position) storedFarmingPosition {
	return storedFarmingPosition{Address: p.Address, Principal: nonNil(p.Principal), RewardDebt: nonNil(p.RewardDebt)}
}

func (s storedFarmingPosition) toPosition() *farming.Position {
	return &farming.Position{Address: s.Address, Principal: nonNil(s.Principal), RewardDebt: nonNil(s.RewardDebt)}
}

type storedGrant struct {
	ID          string
	Beneficiary types.Address
	Start       uint64
	Cliff       uint64
	Duration    uint64
	Revocable   bool
	Released    []storedBalance
	Revoked     []string
}

func grantToStored(g *vesting.Grant) storedGrant {
	revoked := make([]string, 0, len(g.Revoked))
	for token, flag := range g.Revoked {
		if flag {
			revoked = append(revoked, token)
		}
	}
	sort.Strings(revoked)
	return storedGrant{
		ID:          g.ID,
		Beneficiary: g.Terms.Beneficiary,
		Start:       g.Terms.Start,
		Cliff:       g.Terms.Cliff,
		Duration:    g.Terms.Duration,
		Revocable:   g.Terms.Revocable,
		Released:    balancesToStored(g.Released),
		Revoked:     revoked,
	}
}

func (s storedGrant) toGrant() *vesting.Grant {
	revoked := make(map[string]bool, len(s.Revoked))
	for _, token := range s.Revoked {
		revoked[token] = true
	}
	return &vesting.Grant{
		ID: s.ID,
		Terms: vesting.Terms{
			Beneficiary: s.Beneficiary,
			Start:       s.Start,
			Cliff:       s.Cliff,
			Duration:    s.Duration,
			Revocable:   s.Revocable,
		},
		Released: storedToBalances(s.Released),
		Revoked:  revoked,
	}
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
