// Package rlp implements the Ethereum Recursive Length Prefix encoding used
// throughout core/types and core/state for canonical transaction and trie
// serialization.
package rlp

import "errors"

var (
	// ErrExpectedString is returned when a list is found where a string was expected.
	ErrExpectedString = errors.New("rlp: expected string, got list")
	// ErrExpectedList is returned when a string is found where a list was expected.
	ErrExpectedList = errors.New("rlp: expected list, got string")
	// ErrElemTooLarge is returned when a length prefix claims more data than remains.
	ErrElemTooLarge = errors.New("rlp: element larger than containing list")
	// ErrCanonSize is returned when a length prefix is not in canonical (minimal) form.
	ErrCanonSize = errors.New("rlp: non-canonical size information")
	// ErrNotAtEOL is returned by ListEnd when no list is open.
	ErrNotAtEOL = errors.New("rlp: call of ListEnd outside of list")
)
