package crypto

import (
	stdecdsa "crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	dcecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethcore/levm/core/types"
)

// s256 is the secp256k1 curve, exposed as a standard library elliptic.Curve
// for callers that need to interoperate with crypto/ecdsa public keys.
var s256 = secp256k1.S256()

// secp256k1N is the order of the secp256k1 curve.
var secp256k1N = secp256k1.S256().N

// secp256k1halfN is half the order, used for the Homestead low-S check.
var secp256k1halfN = new(big.Int).Rsh(secp256k1N, 1)

// GenerateKey generates a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return stdecdsa.GenerateKey(s256, rand.Reader)
}

// Sign calculates an ECDSA signature in the 65-byte [R || S || V] format used
// by Ethereum transactions and EIP-7702 authorizations. V is the recovery ID
// (0 or 1), recovered by trying both candidates against the public key.
func Sign(hash []byte, prv *stdecdsa.PrivateKey) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errors.New("crypto: hash must be 32 bytes")
	}
	priv := secp256k1.NewPrivateKey(new(secp256k1.ModNScalar).SetByteSlice(prv.D.Bytes()))
	sig, err := dcecdsa.SignCompact(priv, hash, false)
	if err != nil {
		return nil, err
	}
	// dcecdsa.SignCompact returns [V || R || S] with V in [27, 30]; Ethereum
	// wants [R || S || V] with V in [0, 1].
	out := make([]byte, 65)
	copy(out[0:64], sig[1:65])
	out[64] = (sig[0] - 27) & 1
	return out, nil
}

// Ecrecover recovers the 65-byte uncompressed public key from hash and a
// 65-byte [R || S || V] signature.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	pub, err := SigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	return FromECDSAPub(pub), nil
}

// SigToPub recovers the public key from hash and a 65-byte [R || S || V]
// signature, using the real secp256k1 recovery algorithm.
func SigToPub(hash, sig []byte) (*stdecdsa.PublicKey, error) {
	if len(sig) != 65 {
		return nil, errors.New("crypto: signature must be 65 bytes [R || S || V]")
	}
	if len(hash) != 32 {
		return nil, errors.New("crypto: hash must be 32 bytes")
	}
	v := sig[64]
	if v > 3 {
		return nil, errors.New("crypto: invalid recovery id")
	}
	// dcecdsa expects [V || R || S] with V in [27, 34].
	compact := make([]byte, 65)
	compact[0] = 27 + v
	copy(compact[1:], sig[:64])

	pub, _, err := dcecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, err
	}
	return pub.ToECDSA(), nil
}

// ValidateSignature verifies that the given 64-byte signature (no V) is
// valid for the provided 65-byte uncompressed public key and 32-byte hash.
func ValidateSignature(pubkey, hash, sig []byte) bool {
	if len(sig) != 64 || len(hash) != 32 {
		return false
	}
	if len(pubkey) != 65 || pubkey[0] != 0x04 {
		return false
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	x := new(big.Int).SetBytes(pubkey[1:33])
	y := new(big.Int).SetBytes(pubkey[33:65])
	pub := &stdecdsa.PublicKey{Curve: s256, X: x, Y: y}
	return stdecdsa.Verify(pub, hash, r, s)
}

// ValidateSignatureValues checks r, s, v for validity per Homestead rules.
// If homestead is true, s must be in the lower half of the curve order
// (EIP-2: malleability protection).
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if r == nil || s == nil {
		return false
	}
	if v > 1 {
		return false
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	if r.Cmp(secp256k1N) >= 0 || s.Cmp(secp256k1N) >= 0 {
		return false
	}
	if homestead && s.Cmp(secp256k1halfN) > 0 {
		return false
	}
	return true
}

// PubkeyToAddress derives the Ethereum address from a public key:
// Address = Keccak256(pubkey[1:])[12:].
func PubkeyToAddress(p stdecdsa.PublicKey) types.Address {
	pubBytes := FromECDSAPub(&p)
	if pubBytes == nil {
		return types.Address{}
	}
	hash := Keccak256(pubBytes[1:])
	return types.BytesToAddress(hash[12:])
}

// CompressPubkey compresses a 65-byte uncompressed public key to 33 bytes.
func CompressPubkey(pubkey *stdecdsa.PublicKey) []byte {
	if pubkey == nil || pubkey.X == nil || pubkey.Y == nil {
		return nil
	}
	return elliptic.MarshalCompressed(s256, pubkey.X, pubkey.Y)
}

// DecompressPubkey decompresses a 33-byte compressed public key.
func DecompressPubkey(pubkey []byte) (*stdecdsa.PublicKey, error) {
	if len(pubkey) != 33 {
		return nil, errors.New("crypto: invalid compressed public key length")
	}
	x, y := elliptic.UnmarshalCompressed(s256, pubkey)
	if x == nil {
		return nil, errors.New("crypto: invalid compressed public key")
	}
	return &stdecdsa.PublicKey{Curve: s256, X: x, Y: y}, nil
}

// FromECDSAPub marshals a public key to 65-byte uncompressed format.
func FromECDSAPub(pub *stdecdsa.PublicKey) []byte {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	return elliptic.Marshal(pub.Curve, pub.X, pub.Y)
}
