package txn

import (
	"math/big"

	"github.com/ethcore/levm/core/types"
)

// TestConfig is the chain configuration used by this package's test suite:
// every fork live from genesis.
var TestConfig = MainnetChainConfig

// newTestHeader returns a minimal block environment for tests that don't
// care about the specific header values.
func newTestHeader() *Header {
	return &Header{
		Number:   big.NewInt(1),
		GasLimit: 10_000_000,
		Time:     1000,
		BaseFee:  big.NewInt(1),
		Coinbase: types.HexToAddress("0xfee"),
	}
}
