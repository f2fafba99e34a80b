package txn

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/ethcore/levm/core/types"
)

// Intrinsic gas constants (Yellow Paper Appendix G, as amended by
// EIP-2028, EIP-2930, EIP-3860 and EIP-7702).
const (
	TxGas                      uint64 = 21000
	TxCreateGas                uint64 = 53000
	TxDataZeroGas              uint64 = 4
	TxDataNonZeroGasFrontier   uint64 = 68
	TxDataNonZeroGasEIP2028    uint64 = 16
	TxDataNonZeroGas           uint64 = TxDataNonZeroGasFrontier
	TxAccessListAddressGas     uint64 = 2400
	TxAccessListStorageKeyGas  uint64 = 1900
	InitCodeWordGas            uint64 = 2
	PerAuthBaseCost            uint64 = 25000 // EIP-7702: gas per authorization tuple
	TotalCostFloorPerToken     uint64 = 10    // EIP-7623: calldata floor per token
)

var ErrGasUintOverflow = errors.New("gas uint64 overflow")
var ErrIntrinsicGasTooLow = errors.New("intrinsic gas too low")

// toWordSize returns the number of 32-byte words needed to hold size bytes.
func toWordSize(size uint64) uint64 {
	if size > math.MaxUint64-31 {
		return math.MaxUint64/32 + 1
	}
	return (size + 31) / 32
}

// calldataTokens computes the EIP-7623 token count for calldata: 1 per zero
// byte, 4 per non-zero byte.
func calldataTokens(data []byte) uint64 {
	z := uint64(bytes.Count(data, []byte{0}))
	nz := uint64(len(data)) - z
	return z + nz*4
}

// accessListDataTokens is reserved for EIP-2930 access-list-aware floor gas
// variants; the currently supported forks do not fold access-list entries
// into the calldata floor, so this always returns zero.
func accessListDataTokens(accessList types.AccessList) uint64 {
	return 0
}

// IntrinsicGas computes the intrinsic gas of a message: the gas charged
// before any EVM execution begins, covering the base transaction cost,
// calldata, access-list entries, init-code word cost (EIP-3860) and EIP-7702
// authorization tuples.
func IntrinsicGas(data []byte, accessList types.AccessList, authList []types.Authorization, isContractCreation, isHomestead, isEIP2028, isEIP3860 bool) (uint64, error) {
	var gas uint64
	if isContractCreation && isHomestead {
		gas = TxCreateGas
	} else {
		gas = TxGas
	}

	dataLen := uint64(len(data))
	if dataLen > 0 {
		z := uint64(bytes.Count(data, []byte{0}))
		nz := dataLen - z

		nonZeroGas := TxDataNonZeroGasFrontier
		if isEIP2028 {
			nonZeroGas = TxDataNonZeroGasEIP2028
		}
		if (math.MaxUint64-gas)/nonZeroGas < nz {
			return 0, ErrGasUintOverflow
		}
		gas += nz * nonZeroGas

		if (math.MaxUint64-gas)/TxDataZeroGas < z {
			return 0, ErrGasUintOverflow
		}
		gas += z * TxDataZeroGas

		if isContractCreation && isEIP3860 {
			lenWords := toWordSize(dataLen)
			if (math.MaxUint64-gas)/InitCodeWordGas < lenWords {
				return 0, ErrGasUintOverflow
			}
			gas += lenWords * InitCodeWordGas
		}
	}

	if accessList != nil {
		gas += uint64(len(accessList)) * TxAccessListAddressGas
		var storageKeys uint64
		for _, tuple := range accessList {
			storageKeys += uint64(len(tuple.StorageKeys))
		}
		gas += storageKeys * TxAccessListStorageKeyGas
	}

	if authList != nil {
		gas += uint64(len(authList)) * PerAuthBaseCost
	}

	return gas, nil
}

// intrinsicGas computes the intrinsic gas for a message given a caller-supplied
// count of EIP-7702 authorization tuples and how many of their authorities do
// not yet exist in state. Unlike IntrinsicGas, this variant folds in the
// authority-existence pre-scan that only the caller (which has statedb
// access) can perform.
func intrinsicGas(data []byte, isCreate, isEIP2028 bool, numAuths, numEmptyAccounts uint64) uint64 {
	var gas uint64
	if isCreate {
		gas = TxCreateGas
	} else {
		gas = TxGas
	}

	z := uint64(bytes.Count(data, []byte{0}))
	nz := uint64(len(data)) - z

	nonZeroGas := TxDataNonZeroGasFrontier
	if isEIP2028 {
		nonZeroGas = TxDataNonZeroGasEIP2028
	}
	gas += nz*nonZeroGas + z*TxDataZeroGas

	gas += numAuths * PerAuthBaseCost
	gas += numEmptyAccounts * PerEmptyAccountCost
	return gas
}

// GasPool tracks the gas available within a block. A transaction's gas
// limit is subtracted from the pool before execution and any unused gas is
// returned afterward.
type GasPool uint64

// AddGas makes gas available for execution.
func (gp *GasPool) AddGas(amount uint64) *GasPool {
	if uint64(*gp)+amount < uint64(*gp) {
		panic("gas pool pushed above uint64")
	}
	*(*uint64)(gp) += amount
	return gp
}

// SubGas deducts the given amount from the pool. It errors if the gas
// amount is greater than the amount of gas remaining in the pool.
func (gp *GasPool) SubGas(amount uint64) error {
	if uint64(*gp) < amount {
		return fmt.Errorf("%w: have %d, want %d", ErrGasLimitReached, *gp, amount)
	}
	*(*uint64)(gp) -= amount
	return nil
}

// Gas returns the amount of gas remaining in the pool.
func (gp *GasPool) Gas() uint64 {
	return uint64(*gp)
}

var ErrGasLimitReached = errors.New("gas limit reached")
