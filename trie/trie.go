// Package trie implements a Merkle Patricia Trie over an in-memory node
// set, used by core/state to derive account and storage roots. It only
// supports building a trie from scratch and hashing it: proofs,
// iteration, pruning and persistence are out of scope for a single
// transaction's execution report.
package trie

import (
	"github.com/ethcore/levm/core/types"
	"github.com/ethcore/levm/crypto"
	"github.com/ethcore/levm/rlp"
)

// Trie is a Merkle Patricia Trie built up by repeated Put calls and
// finalized with Hash. It is not safe for concurrent use.
type Trie struct {
	root node
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{}
}

// Put inserts or overwrites the value stored at key.
func (t *Trie) Put(key, value []byte) {
	t.root = insert(t.root, keybytesToHex(key), valueNode(value))
}

// Hash returns the trie's root hash. An empty trie hashes to the
// keccak256 of the RLP encoding of an empty string, matching the
// convention used for empty account storage roots.
func (t *Trie) Hash() types.Hash {
	if t.root == nil {
		empty, _ := rlp.EncodeToBytes([]byte{})
		return crypto.Keccak256Hash(empty)
	}
	return crypto.Keccak256Hash(encodeNode(t.root))
}

// insert walks n along key, returning the (possibly new) node that
// replaces it. fullNode branches are copied rather than mutated so that
// earlier Hash results (if any were taken) stay valid.
func insert(n node, key []byte, value node) node {
	if fn, ok := n.(*fullNode); ok {
		cpy := &fullNode{Children: fn.Children}
		if len(key) == 0 {
			cpy.Children[16] = value
		} else {
			cpy.Children[key[0]] = insert(fn.Children[key[0]], key[1:], value)
		}
		return cpy
	}
	if len(key) == 0 {
		return value
	}
	switch n := n.(type) {
	case nil:
		return &shortNode{Key: append([]byte{}, key...), Val: value}
	case *shortNode:
		match := prefixLen(key, n.Key)
		if match == len(n.Key) {
			return &shortNode{Key: n.Key, Val: insert(n.Val, key[match:], value)}
		}
		branch := &fullNode{}
		setBranchChild(branch, n.Key[match:], n.Val)
		setBranchChild(branch, key[match:], value)
		if match == 0 {
			return branch
		}
		return &shortNode{Key: append([]byte{}, key[:match]...), Val: branch}
	default:
		panic("trie: invalid node type")
	}
}

// setBranchChild places val at the position within branch that remKey
// (a suffix, possibly empty) describes.
func setBranchChild(branch *fullNode, remKey []byte, val node) {
	if len(remKey) == 0 {
		branch.Children[16] = val
		return
	}
	branch.Children[remKey[0]] = insert(nil, remKey[1:], val)
}

// encodeNode returns n's own RLP representation, the bytes that get
// keccak256-hashed to become its parent's reference to it.
func encodeNode(n node) []byte {
	switch n := n.(type) {
	case valueNode:
		enc, _ := rlp.EncodeToBytes([]byte(n))
		return enc
	case *shortNode:
		keyEnc, _ := rlp.EncodeToBytes(hexToCompact(n.Key))
		payload := append(append([]byte{}, keyEnc...), childReference(n.Val)...)
		return rlp.WrapList(payload)
	case *fullNode:
		var payload []byte
		for i := 0; i < 16; i++ {
			payload = append(payload, childReference(n.Children[i])...)
		}
		if v, ok := n.Children[16].(valueNode); ok {
			enc, _ := rlp.EncodeToBytes([]byte(v))
			payload = append(payload, enc...)
		} else {
			empty, _ := rlp.EncodeToBytes([]byte{})
			payload = append(payload, empty...)
		}
		return rlp.WrapList(payload)
	default:
		empty, _ := rlp.EncodeToBytes([]byte{})
		return empty
	}
}

// childReference returns how a parent node refers to child: a value is
// embedded directly, an absent child is the empty string, and any
// structural child is referenced by its keccak256 hash. Real state tries
// additionally inline small (<32-byte) subtrees directly; this trie
// always hashes, so a trie holding such small subtrees gets a different
// root than the standard Ethereum trie gives for the same keys and values.
func childReference(child node) []byte {
	switch child := child.(type) {
	case nil:
		empty, _ := rlp.EncodeToBytes([]byte{})
		return empty
	case valueNode:
		enc, _ := rlp.EncodeToBytes([]byte(child))
		return enc
	default:
		hash := crypto.Keccak256Hash(encodeNode(child))
		enc, _ := rlp.EncodeToBytes(hash[:])
		return enc
	}
}
