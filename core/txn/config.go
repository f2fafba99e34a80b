package txn

import (
	"math/big"

	"github.com/ethcore/levm/core/vm"
)

// ChainConfig describes the fork schedule of a chain: forks up to London
// activate by block number, the Merge and later forks by timestamp. Only the forks relevant to single-transaction execution are
// tracked; block-level consensus parameters (difficulty bombs, terminal
// total difficulty, etc.) live outside this package's scope.
type ChainConfig struct {
	ChainID *big.Int

	HomesteadBlock      *big.Int
	EIP150Block         *big.Int // Tangerine Whistle
	EIP158Block         *big.Int // Spurious Dragon
	ByzantiumBlock      *big.Int
	ConstantinopleBlock *big.Int
	IstanbulBlock       *big.Int
	BerlinBlock         *big.Int
	LondonBlock         *big.Int

	MergeTime     *uint64
	ShanghaiTime  *uint64
	CancunTime    *uint64
	PragueTime    *uint64
}

func blockActive(activation *big.Int, blockNumber *big.Int) bool {
	if activation == nil || blockNumber == nil {
		return activation == nil
	}
	return blockNumber.Cmp(activation) >= 0
}

func timeActive(activation *uint64, headerTime uint64) bool {
	return activation != nil && headerTime >= *activation
}

func (c *ChainConfig) IsHomestead(blockNumber *big.Int) bool {
	return c != nil && blockActive(c.HomesteadBlock, blockNumber)
}

func (c *ChainConfig) IsEIP150(blockNumber *big.Int) bool {
	return c != nil && blockActive(c.EIP150Block, blockNumber)
}

func (c *ChainConfig) IsEIP158(blockNumber *big.Int) bool {
	return c != nil && blockActive(c.EIP158Block, blockNumber)
}

func (c *ChainConfig) IsByzantium(blockNumber *big.Int) bool {
	return c != nil && blockActive(c.ByzantiumBlock, blockNumber)
}

func (c *ChainConfig) IsConstantinople(blockNumber *big.Int) bool {
	return c != nil && blockActive(c.ConstantinopleBlock, blockNumber)
}

func (c *ChainConfig) IsIstanbul(blockNumber *big.Int) bool {
	return c != nil && blockActive(c.IstanbulBlock, blockNumber)
}

func (c *ChainConfig) IsBerlin(blockNumber *big.Int) bool {
	return c != nil && blockActive(c.BerlinBlock, blockNumber)
}

func (c *ChainConfig) IsLondon(blockNumber *big.Int) bool {
	return c != nil && blockActive(c.LondonBlock, blockNumber)
}

func (c *ChainConfig) IsMerge(headerTime uint64) bool {
	return c != nil && timeActive(c.MergeTime, headerTime)
}

func (c *ChainConfig) IsShanghai(headerTime uint64) bool {
	return c != nil && timeActive(c.ShanghaiTime, headerTime)
}

func (c *ChainConfig) IsCancun(headerTime uint64) bool {
	return c != nil && timeActive(c.CancunTime, headerTime)
}

func (c *ChainConfig) IsPrague(headerTime uint64) bool {
	return c != nil && timeActive(c.PragueTime, headerTime)
}

// Rules derives the vm.ForkRules active at the given block number and time.
func (c *ChainConfig) Rules(blockNumber *big.Int, headerTime uint64) vm.ForkRules {
	return vm.ForkRules{
		IsHomestead:      c.IsHomestead(blockNumber),
		IsByzantium:      c.IsByzantium(blockNumber),
		IsConstantinople: c.IsConstantinople(blockNumber),
		IsIstanbul:       c.IsIstanbul(blockNumber),
		IsBerlin:         c.IsBerlin(blockNumber),
		IsLondon:         c.IsLondon(blockNumber),
		IsEIP158:         c.IsEIP158(blockNumber),
		IsMerge:          c.IsMerge(headerTime),
		IsShanghai:       c.IsShanghai(headerTime),
		IsCancun:         c.IsCancun(headerTime),
		IsPrague:         c.IsPrague(headerTime),
	}
}

// MainnetChainConfig is a ready-to-use configuration with every fork active
// from genesis, suitable for tests and standalone execution.
var MainnetChainConfig = &ChainConfig{
	ChainID:             big.NewInt(1),
	HomesteadBlock:      big.NewInt(0),
	EIP150Block:         big.NewInt(0),
	EIP158Block:         big.NewInt(0),
	ByzantiumBlock:      big.NewInt(0),
	ConstantinopleBlock: big.NewInt(0),
	IstanbulBlock:       big.NewInt(0),
	BerlinBlock:         big.NewInt(0),
	LondonBlock:         big.NewInt(0),
	MergeTime:           new(uint64),
	ShanghaiTime:        new(uint64),
	CancunTime:          new(uint64),
	PragueTime:          new(uint64),
}
