package rlp

import (
	"fmt"
	"math/big"
	"reflect"
)

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// EncodeToBytes returns the RLP encoding of val.
//
// Supported kinds: unsigned integers, *big.Int, []byte and fixed-size byte
// arrays (encoded as raw strings, never trimmed), slices (encoded as lists
// of their elements' encodings), structs (encoded as lists of their
// exported fields' encodings, in field order), and pointers (dereferenced;
// a nil pointer of any type, *big.Int included, encodes as the empty
// string 0x80).
func EncodeToBytes(val interface{}) ([]byte, error) {
	return encodeValue(reflect.ValueOf(val))
}

// WrapList wraps an already-encoded sequence of RLP items (the
// concatenation of each list element's own encoding) in a list header.
// Callers that build list payloads by hand (rather than via reflection on
// a struct) use this to finish the encoding.
func WrapList(payload []byte) []byte {
	return encodeListHeader(payload)
}

func encodeValue(v reflect.Value) ([]byte, error) {
	if !v.IsValid() {
		return encodeBytes(nil), nil
	}
	switch v.Kind() {
	case reflect.Ptr:
		if v.Type() == bigIntType {
			return encodeBigInt(v.Interface().(*big.Int)), nil
		}
		if v.IsNil() {
			return encodeBytes(nil), nil
		}
		return encodeValue(v.Elem())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return encodeUint64(v.Uint()), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return encodeBytes(v.Bytes()), nil
		}
		return encodeList(v)
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return encodeBytes(b), nil
		}
		return encodeList(v)
	case reflect.Struct:
		return encodeList(v)
	case reflect.String:
		return encodeBytes([]byte(v.String())), nil
	case reflect.Bool:
		if v.Bool() {
			return encodeBytes([]byte{1}), nil
		}
		return encodeBytes(nil), nil
	default:
		return nil, fmt.Errorf("rlp: unsupported type %s", v.Type())
	}
}

// encodeList encodes v's elements (struct fields, slice/array entries) as
// a single RLP list.
func encodeList(v reflect.Value) ([]byte, error) {
	var payload []byte
	var n int
	if v.Kind() == reflect.Struct {
		n = v.NumField()
	} else {
		n = v.Len()
	}
	for i := 0; i < n; i++ {
		var elem reflect.Value
		if v.Kind() == reflect.Struct {
			if v.Type().Field(i).PkgPath != "" {
				continue // unexported field
			}
			elem = v.Field(i)
		} else {
			elem = v.Index(i)
		}
		enc, err := encodeValue(elem)
		if err != nil {
			return nil, err
		}
		payload = append(payload, enc...)
	}
	return encodeListHeader(payload), nil
}

func encodeUint64(n uint64) []byte {
	if n == 0 {
		return encodeBytes(nil)
	}
	var b [8]byte
	b[0] = byte(n >> 56)
	b[1] = byte(n >> 48)
	b[2] = byte(n >> 40)
	b[3] = byte(n >> 32)
	b[4] = byte(n >> 24)
	b[5] = byte(n >> 16)
	b[6] = byte(n >> 8)
	b[7] = byte(n)
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return encodeBytes(b[i:])
}

func encodeBigInt(bi *big.Int) []byte {
	if bi == nil || bi.Sign() == 0 {
		return encodeBytes(nil)
	}
	return encodeBytes(bi.Bytes())
}

// encodeBytes returns the RLP string encoding of b.
func encodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return []byte{b[0]}
	}
	if len(b) <= 55 {
		out := make([]byte, 0, 1+len(b))
		out = append(out, 0x80+byte(len(b)))
		return append(out, b...)
	}
	lenBytes := encodeLength(uint64(len(b)))
	out := make([]byte, 0, 1+len(lenBytes)+len(b))
	out = append(out, 0xB7+byte(len(lenBytes)))
	out = append(out, lenBytes...)
	return append(out, b...)
}

// encodeListHeader prefixes payload with an RLP list header.
func encodeListHeader(payload []byte) []byte {
	if len(payload) <= 55 {
		out := make([]byte, 0, 1+len(payload))
		out = append(out, 0xC0+byte(len(payload)))
		return append(out, payload...)
	}
	lenBytes := encodeLength(uint64(len(payload)))
	out := make([]byte, 0, 1+len(lenBytes)+len(payload))
	out = append(out, 0xF7+byte(len(lenBytes)))
	out = append(out, lenBytes...)
	return append(out, payload...)
}

// encodeLength returns the minimal big-endian encoding of n, used as the
// "length of the length" field for strings/lists over 55 bytes.
func encodeLength(n uint64) []byte {
	var b [8]byte
	b[0] = byte(n >> 56)
	b[1] = byte(n >> 48)
	b[2] = byte(n >> 40)
	b[3] = byte(n >> 32)
	b[4] = byte(n >> 24)
	b[5] = byte(n >> 16)
	b[6] = byte(n >> 8)
	b[7] = byte(n)
	i := 0
	for i < len(b)-1 && b[i] == 0 {
		i++
	}
	return b[i:]
}
