package vm

import "github.com/ethcore/levm/core/types"

// PrecompiledContractsPrague contains the Prague precompile set: the Cancun
// set plus the EIP-2537 BLS12-381 operations at addresses 0x0b-0x11.
var PrecompiledContractsPrague = map[types.Address]PrecompiledContract{
	types.BytesToAddress([]byte{1}):    &ecrecover{},
	types.BytesToAddress([]byte{2}):    &sha256hash{},
	types.BytesToAddress([]byte{3}):    &ripemd160hash{},
	types.BytesToAddress([]byte{4}):    &dataCopy{},
	types.BytesToAddress([]byte{5}):    &bigModExp{},
	types.BytesToAddress([]byte{6}):    &bn256Add{},
	types.BytesToAddress([]byte{7}):    &bn256ScalarMul{},
	types.BytesToAddress([]byte{8}):    &bn256Pairing{},
	types.BytesToAddress([]byte{9}):    &blake2F{},
	types.BytesToAddress([]byte{0x0a}): &kzgPointEvaluation{},
	types.BytesToAddress([]byte{0x0b}): &bls12G1Add{},
	types.BytesToAddress([]byte{0x0c}): &bls12G1Mul{},
	types.BytesToAddress([]byte{0x0d}): &bls12G1MSM{},
	types.BytesToAddress([]byte{0x0e}): &bls12G2Add{},
	types.BytesToAddress([]byte{0x0f}): &bls12G2Mul{},
	types.BytesToAddress([]byte{0x10}): &bls12G2MSM{},
	types.BytesToAddress([]byte{0x11}): &bls12Pairing{},
	types.BytesToAddress([]byte{0x12}): &bls12MapFpToG1{},
	types.BytesToAddress([]byte{0x13}): &bls12MapFp2ToG2{},
}
