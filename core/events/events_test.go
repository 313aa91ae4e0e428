package events

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"rewardvault/core/types"
)

func evAddr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func TestStakingEventAttributes(t *testing.T) {
	evt := StakingStaked{Account: evAddr(1), Amount: big.NewInt(500), Time: 42}
	require.Equal(t, TypeStakingStaked, evt.EventType())

	payload := evt.Event()
	require.Equal(t, TypeStakingStaked, payload.Type)
	require.Equal(t, "500", payload.Attributes["amount"])
	require.Equal(t, "42", payload.Attributes["time"])
	require.Equal(t, evAddr(1).String(), payload.Attributes["account"])
}

func TestRewardAddedCarriesRate(t *testing.T) {
	evt := StakingRewardAdded{Amount: big.NewInt(1000), RewardRate: big.NewInt(10), PeriodFinish: 900}
	payload := evt.Event()
	require.Equal(t, "1000", payload.Attributes["amount"])
	require.Equal(t, "10", payload.Attributes["rewardRate"])
	require.Equal(t, "900", payload.Attributes["periodFinish"])
}

func TestMintSkippedCarriesReason(t *testing.T) {
	evt := FarmingMintSkipped{Amount: big.NewInt(7), Height: 100, Reason: "cap exhausted"}
	payload := evt.Event()
	require.Equal(t, TypeFarmingMintSkipped, payload.Type)
	require.Equal(t, "cap exhausted", payload.Attributes["reason"])
}

func TestVestingRevokedEmergencyFlag(t *testing.T) {
	normal := VestingRevoked{GrantID: "team", Token: "RVT", Refunded: big.NewInt(5), Time: 1}
	require.NotContains(t, normal.Event().Attributes, "emergency")

	emergency := VestingRevoked{GrantID: "team", Token: "RVT", Refunded: big.NewInt(5), Emergency: true, Time: 1}
	require.Equal(t, "true", emergency.Event().Attributes["emergency"])
}

func TestNilAmountsFormatAsZero(t *testing.T) {
	evt := FarmingDeposited{Account: evAddr(2), Height: 3}
	payload := evt.Event()
	require.Equal(t, "0", payload.Attributes["amount"])
	require.Equal(t, "0", payload.Attributes["folded"])
}

func TestNoopEmitterDiscards(t *testing.T) {
	var emitter NoopEmitter
	require.NotPanics(t, func() {
		emitter.Emit(StakingStaked{Account: evAddr(3), Amount: big.NewInt(1), Time: 1})
	})
}
