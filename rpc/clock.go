package rpc

import "time"

// Clock supplies the explicit time and height arguments fed to the accounting
// engines. Engines never read wall time themselves.
type Clock interface {
	Now() uint64
	Height() uint64
}

// ChainClock derives a block height from wall time against a fixed genesis and
// block interval. Deployments that follow a real chain can substitute their own
// Clock.
type ChainClock struct {
	genesis      uint64
	blockSeconds uint64
	now          func() time.Time
}

// NewChainClock returns a clock anchored at genesis with blockSeconds per block.
func NewChainClock(genesis, blockSeconds uint64) *ChainClock {
	if blockSeconds == 0 {
		blockSeconds = 1
	}
	return &ChainClock{genesis: genesis, blockSeconds: blockSeconds, now: time.Now}
}

func (c *ChainClock) Now() uint64 {
	return uint64(c.now().Unix())
}

func (c *ChainClock) Height() uint64 {
	now := c.Now()
	if now <= c.genesis {
		return 0
	}
	return (now - c.genesis) / c.blockSeconds
}

// FixedClock pins time and height, used in tests and replay tooling.
type FixedClock struct {
	Time  uint64
	Block uint64
}

func (c FixedClock) Now() uint64    { return c.Time }
func (c FixedClock) Height() uint64 { return c.Block }
