package txn

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethcore/levm/core/state"
	"github.com/ethcore/levm/core/types"
	"github.com/ethcore/levm/core/vm"
)

var (
	ErrNonceMismatch       = errors.New("sender nonce does not match message nonce")
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")
)

// effectiveGasPrice returns the gas price actually paid per unit of gas,
// following EIP-1559 tip/fee-cap semantics when the message carries a fee
// cap, and falling back to the plain gas price for legacy messages.
func effectiveGasPrice(msg *Message, baseFee *big.Int) *big.Int {
	if msg.GasFeeCap == nil {
		if msg.GasPrice != nil {
			return new(big.Int).Set(msg.GasPrice)
		}
		return new(big.Int)
	}
	if baseFee == nil {
		return new(big.Int).Set(msg.GasFeeCap)
	}
	tip := new(big.Int).Sub(msg.GasFeeCap, baseFee)
	if tip.Sign() < 0 {
		tip = new(big.Int)
	}
	if msg.GasTipCap != nil && tip.Cmp(msg.GasTipCap) > 0 {
		tip = new(big.Int).Set(msg.GasTipCap)
	}
	return new(big.Int).Add(baseFee, tip)
}

// countEmptyAuthorities recovers the authority of each authorization tuple
// and reports how many do not yet exist in state. Tuples whose signature
// cannot be recovered are counted as empty: intrinsic gas is charged as if
// the account were new, and processOneAuthorization will simply skip them
// later.
func countEmptyAuthorities(statedb state.StateDB, authList []types.Authorization) uint64 {
	var empty uint64
	for i := range authList {
		addr, err := RecoverAuthority(&authList[i])
		if err != nil || !statedb.Exist(addr) {
			empty++
		}
	}
	return empty
}

// blockContext adapts a Header into the vm package's BlockContext.
func blockContext(header *Header, getHash vm.GetHashFunc) vm.BlockContext {
	return vm.BlockContext{
		GetHash:     getHash,
		BlockNumber: header.Number,
		Time:        header.Time,
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BaseFee:     header.BaseFee,
		PrevRandao:  header.PrevRandao,
		BlobBaseFee: header.BlobBaseFee,
		SlotNumber:  header.SlotNumber,
	}
}

// applyMessage executes a single transaction message against statedb and
// returns its outcome. It performs intrinsic-gas accounting, EIP-7702
// authorization processing, EVM dispatch, and EIP-3529/EIP-7623 gas
// finalization -- the full body of the top-level execute() entry point
// minus transaction-pool-level validation (nonce/signature checks against
// the pending pool), which belongs to the caller.
func applyMessage(config *ChainConfig, getHash vm.GetHashFunc, statedb state.StateDB, header *Header, msg *Message, gp *GasPool) (*ExecutionResult, error) {
	rules := config.Rules(header.Number, header.Time)
	isContractCreation := msg.To == nil

	// Pre-scan EIP-7702 authority existence so intrinsic gas reflects the
	// real per-tuple cost before any state mutation happens.
	var numEmptyAuthorities uint64
	if msg.TxType == types.SetCodeTxType && len(msg.AuthList) > 0 {
		numEmptyAuthorities = countEmptyAuthorities(statedb, msg.AuthList)
	}

	baseGas, err := IntrinsicGas(msg.Data, msg.AccessList, nil, isContractCreation, rules.IsHomestead, rules.IsIstanbul, rules.IsShanghai)
	if err != nil {
		return nil, err
	}
	requiredGas := baseGas + uint64(len(msg.AuthList))*PerAuthBaseCost + numEmptyAuthorities*PerEmptyAccountCost

	if err := gp.SubGas(msg.GasLimit); err != nil {
		return nil, err
	}

	if msg.GasLimit < requiredGas {
		gp.AddGas(msg.GasLimit)
		txnLog.Debug("intrinsic gas too low", "from", msg.From.Hex(), "gasLimit", msg.GasLimit, "required", requiredGas)
		return &ExecutionResult{
			UsedGas:      msg.GasLimit,
			BlockGasUsed: msg.GasLimit,
			Err:          ErrIntrinsicGasTooLow,
		}, nil
	}

	gasPrice := effectiveGasPrice(msg, header.BaseFee)
	gasCost := new(big.Int).Mul(new(big.Int).SetUint64(msg.GasLimit), gasPrice)
	if statedb.GetBalance(msg.From).Cmp(gasCost) < 0 {
		gp.AddGas(msg.GasLimit)
		return nil, fmt.Errorf("%w: address %s", ErrInsufficientBalance, msg.From.Hex())
	}
	statedb.SubBalance(msg.From, gasCost)

	if statedb.GetNonce(msg.From) != msg.Nonce {
		gp.AddGas(msg.GasLimit)
		statedb.AddBalance(msg.From, gasCost)
		return nil, fmt.Errorf("%w: have %d, want %d", ErrNonceMismatch, statedb.GetNonce(msg.From), msg.Nonce)
	}
	// A message call consumes the sender's nonce directly; a contract
	// creation's nonce bump happens inside evm.Create, which also derives
	// the new contract's address from it.
	if !isContractCreation {
		statedb.SetNonce(msg.From, msg.Nonce+1)
	}

	snapshot := statedb.Snapshot()
	gasRemaining := msg.GasLimit - requiredGas

	if msg.TxType == types.SetCodeTxType {
		if err := ProcessAuthorizations(statedb, msg.AuthList, config.ChainID); err != nil {
			return nil, err
		}
	}

	blockCtx := blockContext(header, getHash)
	txCtx := vm.TxContext{
		Origin:     msg.From,
		GasPrice:   gasPrice,
		BlobHashes: msg.BlobHashes,
	}
	evm := vm.NewEVMWithState(blockCtx, txCtx, vm.Config{}, statedb)
	evm.SetForkRules(rules)
	evm.SetJumpTable(vm.SelectJumpTable(rules))
	evm.SetPrecompiles(vm.SelectPrecompiles(rules))

	result := &ExecutionResult{}

	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}

	var (
		ret          []byte
		leftOverGas  uint64
		vmErr        error
		contractAddr types.Address
	)
	if isContractCreation {
		ret, contractAddr, leftOverGas, vmErr = evm.Create(msg.From, msg.Data, gasRemaining, value)
		result.ContractAddress = contractAddr
	} else {
		ret, leftOverGas, vmErr = evm.Call(msg.From, *msg.To, msg.Data, gasRemaining, value)
	}

	if vmErr != nil {
		if !errors.Is(vmErr, vm.ErrExecutionReverted) {
			statedb.RevertToSnapshot(snapshot)
			txnLog.Warn("execution halted, reverting snapshot", "from", msg.From.Hex(), "err", vmErr)
		}
		result.Err = vmErr
	}
	result.ReturnData = ret

	gasUsedByExecution := requiredGas + (gasRemaining - leftOverGas)
	finalGas, _, _ := RefundWithFloor(gasUsedByExecution, statedb.GetRefund(), msg.Data, msg.AccessList, isContractCreation, config, header.Time)

	refund := new(big.Int).Mul(new(big.Int).SetUint64(msg.GasLimit-finalGas), gasPrice)
	statedb.AddBalance(msg.From, refund)
	gp.AddGas(msg.GasLimit - finalGas)

	result.UsedGas = finalGas
	result.BlockGasUsed = finalGas
	return result, nil
}
