package txn

import (
	"github.com/ethcore/levm/core/state"
	"github.com/ethcore/levm/core/vm"
)

// Execute is the execution core's single entry point: given the chain
// configuration, a block environment, a state database, and a message
// derived from a transaction, it runs the transaction to completion and
// returns its report. Callers driving a whole block share one GasPool
// across every transaction in it; a one-shot caller (eth_call,
// estimateGas, a replaying prover) should pass a GasPool sized to
// msg.GasLimit alone.
//
// EVM halts, reverts and an intrinsic-gas shortfall come back inside the
// returned ExecutionResult. A nonce mismatch, an insufficient balance, an
// exhausted GasPool and internal engine failures are returned as the
// second value with a nil result and must never be treated as a
// transaction revert.
func Execute(config *ChainConfig, getHash vm.GetHashFunc, statedb state.StateDB, header *Header, msg *Message, gp *GasPool) (*ExecutionResult, error) {
	return applyMessage(config, getHash, statedb, header, msg, gp)
}
