package rlp

import (
	"fmt"
	"io"
	"math/big"
	"reflect"
)

// Kind identifies the shape of the RLP item a Stream is currently
// positioned at.
type Kind int

const (
	Byte Kind = iota
	String
	List
)

// Stream provides low-level, cursor-based decoding over an in-memory RLP
// buffer: enter and leave lists explicitly, or pull the next string item.
// Every core/types RLP decoder that needs to walk sibling fields one at a
// time (rather than decode a whole struct in one call) drives a Stream
// directly.
type Stream struct {
	buf   []byte
	pos   int
	stack []int // end offsets (exclusive) of currently open lists
}

// NewStreamFromBytes returns a Stream reading from b.
func NewStreamFromBytes(b []byte) *Stream {
	return &Stream{buf: b}
}

func (s *Stream) boundary() int {
	if len(s.stack) > 0 {
		return s.stack[len(s.stack)-1]
	}
	return len(s.buf)
}

// AtListEnd reports whether the stream has consumed every item of the
// innermost list it is inside (or, at the top level, the whole buffer).
func (s *Stream) AtListEnd() bool {
	return s.pos >= s.boundary()
}

// readItemHeader inspects (without consuming) the item at s.pos and
// returns its kind, the offset its content starts at, and the content's
// length.
func (s *Stream) readItemHeader() (kind Kind, contentStart, size int, err error) {
	end := s.boundary()
	if s.pos >= end {
		return 0, 0, 0, io.EOF
	}
	b := s.buf[s.pos]
	switch {
	case b < 0x80:
		return Byte, s.pos, 1, nil
	case b <= 0xB7:
		l := int(b - 0x80)
		return String, s.pos + 1, l, nil
	case b <= 0xBF:
		lenOfLen := int(b - 0xB7)
		if s.pos+1+lenOfLen > end {
			return 0, 0, 0, ErrElemTooLarge
		}
		l := int(decodeLength(s.buf[s.pos+1 : s.pos+1+lenOfLen]))
		return String, s.pos + 1 + lenOfLen, l, nil
	case b <= 0xF7:
		l := int(b - 0xC0)
		return List, s.pos + 1, l, nil
	default:
		lenOfLen := int(b - 0xF7)
		if s.pos+1+lenOfLen > end {
			return 0, 0, 0, ErrElemTooLarge
		}
		l := int(decodeLength(s.buf[s.pos+1 : s.pos+1+lenOfLen]))
		return List, s.pos + 1 + lenOfLen, l, nil
	}
}

func decodeLength(b []byte) uint64 {
	var n uint64
	for _, x := range b {
		n = n<<8 | uint64(x)
	}
	return n
}

// Bytes reads and returns the next string item.
func (s *Stream) Bytes() ([]byte, error) {
	kind, start, size, err := s.readItemHeader()
	if err != nil {
		return nil, err
	}
	if kind == List {
		return nil, ErrExpectedString
	}
	if kind == Byte {
		v := s.buf[s.pos]
		s.pos++
		return []byte{v}, nil
	}
	end := s.boundary()
	if start+size > end {
		return nil, ErrElemTooLarge
	}
	b := s.buf[start : start+size]
	s.pos = start + size
	return b, nil
}

// Uint64 reads the next string item as a big-endian unsigned integer.
func (s *Stream) Uint64() (uint64, error) {
	b, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	return decodeLength(b), nil
}

// BigInt reads the next string item as a big-endian unsigned integer.
func (s *Stream) BigInt() (*big.Int, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// List enters the next list item, returning its payload size in bytes.
// Subsequent reads are scoped to the list until ListEnd is called.
func (s *Stream) List() (size uint64, err error) {
	kind, start, contentSize, err := s.readItemHeader()
	if err != nil {
		return 0, err
	}
	if kind != List {
		return 0, ErrExpectedList
	}
	end := s.boundary()
	if start+contentSize > end {
		return 0, ErrElemTooLarge
	}
	s.stack = append(s.stack, start+contentSize)
	s.pos = start
	return uint64(contentSize), nil
}

// ListEnd leaves the list entered by the matching List call, skipping any
// trailing items the caller did not read.
func (s *Stream) ListEnd() error {
	if len(s.stack) == 0 {
		return ErrNotAtEOL
	}
	s.pos = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

// Decode reads the next item into val, which must be a non-nil pointer.
func (s *Stream) Decode(val interface{}) error {
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("rlp: Decode requires a non-nil pointer, got %T", val)
	}
	return s.decodeValue(rv.Elem())
}

func (s *Stream) decodeValue(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Ptr:
		if v.Type() == bigIntType {
			bi, err := s.BigInt()
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(bi))
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return s.decodeValue(v.Elem())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := s.Uint64()
		if err != nil {
			return err
		}
		v.SetUint(n)
		return nil
	case reflect.String:
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		v.SetString(string(b))
		return nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			cp := make([]byte, len(b))
			copy(cp, b)
			v.SetBytes(cp)
			return nil
		}
		if _, err := s.List(); err != nil {
			return err
		}
		elems := reflect.MakeSlice(v.Type(), 0, 0)
		for !s.AtListEnd() {
			elem := reflect.New(v.Type().Elem()).Elem()
			if err := s.decodeValue(elem); err != nil {
				return err
			}
			elems = reflect.Append(elems, elem)
		}
		if err := s.ListEnd(); err != nil {
			return err
		}
		v.Set(elems)
		return nil
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			if len(b) > v.Len() {
				return fmt.Errorf("rlp: byte array too long: %d > %d", len(b), v.Len())
			}
			for i := 0; i < v.Len(); i++ {
				v.Index(i).SetUint(0)
			}
			offset := v.Len() - len(b)
			for i, bb := range b {
				v.Index(offset + i).SetUint(uint64(bb))
			}
			return nil
		}
		return fmt.Errorf("rlp: unsupported array element kind %s", v.Type().Elem().Kind())
	case reflect.Struct:
		if _, err := s.List(); err != nil {
			return err
		}
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if !f.CanSet() {
				continue
			}
			if err := s.decodeValue(f); err != nil {
				return err
			}
		}
		return s.ListEnd()
	case reflect.Bool:
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		v.SetBool(len(b) > 0 && b[0] != 0)
		return nil
	default:
		return fmt.Errorf("rlp: unsupported type %s", v.Type())
	}
}

// DecodeBytes parses RLP-encoded data and stores the result into the
// value pointed to by val, which must not be nil.
func DecodeBytes(data []byte, val interface{}) error {
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("rlp: DecodeBytes requires a non-nil pointer, got %T", val)
	}
	s := NewStreamFromBytes(data)
	if err := s.decodeValue(rv.Elem()); err != nil {
		return err
	}
	if !s.AtListEnd() {
		return fmt.Errorf("rlp: %d trailing bytes after decoded value", len(data)-s.pos)
	}
	return nil
}
