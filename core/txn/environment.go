package txn

import (
	"math/big"

	"github.com/ethcore/levm/core/types"
)

// Header carries the block-level environment a transaction executes
// against. It deliberately holds only the fields the EVM and gas-accounting
// layers consult -- full consensus header validation is out of scope here.
type Header struct {
	Number      *big.Int
	Time        uint64
	Coinbase    types.Address
	GasLimit    uint64
	BaseFee     *big.Int
	PrevRandao  types.Hash
	BlobBaseFee *big.Int
	SlotNumber  uint64
	GetHash     func(uint64) types.Hash
}
