// Package vm implements the Ethereum Virtual Machine.
//
// This file implements EIP-7610: Revert creation in case of non-empty storage.
// EIP-7610 extends the existing CREATE/CREATE2 collision check to also reject
// deployment to addresses that have non-empty storage, in addition to the
// pre-existing checks for non-zero nonce and non-empty code.
//
// Spec: https://eips.ethereum.org/EIPS/eip-7610
package vm

import (
	"errors"

	"github.com/ethcore/levm/core/types"
)

// ErrContractCreationCollision is returned when a CREATE or CREATE2 targets
// an address that already has a non-zero nonce, non-empty code, or (per
// EIP-7610) non-empty storage.
var ErrContractCreationCollision = errors.New("contract creation collision: address already in use")

// CollisionCheck7610 performs EIP-7610 contract creation collision checks.
type CollisionCheck7610 struct {
	// Enabled controls whether the EIP-7610 storage check is active.
	// When false, only the legacy nonce/code checks are performed.
	Enabled bool
}

// NewCollisionCheck7610 returns a CollisionCheck7610 with the given
// enabled state.
func NewCollisionCheck7610(enabled bool) *CollisionCheck7610 {
	return &CollisionCheck7610{Enabled: enabled}
}

// CheckCreateCollision checks whether deploying a contract at addr would
// collide with existing state. It returns ErrContractCreationCollision if
// the address has:
//   - a non-zero nonce, OR
//   - non-empty code (code hash differs from the empty code hash), OR
//   - non-empty storage (EIP-7610, only when c.Enabled is true)
//
// An address that only has a non-zero balance is acceptable per EIP-7610
// and returns nil. Storage non-emptiness is answered by StateDB.HasStorage,
// which enumerates the account's actually-written slots rather than
// probing a fixed set of low indices — a slot can live at any of 2^256
// keys, so no finite probe set would be sound.
func (c *CollisionCheck7610) CheckCreateCollision(stateDB StateDB, addr types.Address) error {
	if stateDB.GetNonce(addr) != 0 {
		return ErrContractCreationCollision
	}

	codeHash := stateDB.GetCodeHash(addr)
	if codeHash != (types.Hash{}) && codeHash != types.EmptyCodeHash {
		return ErrContractCreationCollision
	}

	if c.Enabled && stateDB.HasStorage(addr) {
		return ErrContractCreationCollision
	}

	return nil
}
