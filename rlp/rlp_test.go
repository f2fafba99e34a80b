package rlp

import (
	"bytes"
	"math/big"
	"testing"
)

func TestEncodeBytesShort(t *testing.T) {
	enc, err := EncodeToBytes([]byte("dog"))
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x83, 'd', 'o', 'g'}
	if !bytes.Equal(enc, want) {
		t.Fatalf("got %x, want %x", enc, want)
	}
}

func TestEncodeSingleByte(t *testing.T) {
	enc, err := EncodeToBytes([]byte{0x01})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enc, []byte{0x01}) {
		t.Fatalf("got %x", enc)
	}
}

func TestEncodeUint64Zero(t *testing.T) {
	enc, err := EncodeToBytes(uint64(0))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enc, []byte{0x80}) {
		t.Fatalf("got %x", enc)
	}
}

func TestEncodeDecodeStruct(t *testing.T) {
	type inner struct {
		Nonce uint64
		Value *big.Int
		Data  []byte
	}
	in := inner{Nonce: 9, Value: big.NewInt(1000), Data: []byte("hello")}
	enc, err := EncodeToBytes(in)
	if err != nil {
		t.Fatal(err)
	}
	var out inner
	if err := DecodeBytes(enc, &out); err != nil {
		t.Fatal(err)
	}
	if out.Nonce != in.Nonce || out.Value.Cmp(in.Value) != 0 || !bytes.Equal(out.Data, in.Data) {
		t.Fatalf("roundtrip mismatch: got %+v", out)
	}
}

func TestEncodeDecodeSliceOfStructs(t *testing.T) {
	type tuple struct {
		Addr [20]byte
		Keys [][32]byte
	}
	in := []tuple{
		{Addr: [20]byte{1, 2, 3}, Keys: [][32]byte{{4, 5}}},
		{Addr: [20]byte{9}, Keys: nil},
	}
	enc, err := EncodeToBytes(in)
	if err != nil {
		t.Fatal(err)
	}
	var out []tuple
	if err := DecodeBytes(enc, &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].Addr != in[0].Addr || out[0].Keys[0] != in[0].Keys[0] {
		t.Fatalf("roundtrip mismatch: got %+v", out)
	}
}

func TestStreamListWalk(t *testing.T) {
	payload, _ := EncodeToBytes([]byte("a"))
	payload2, _ := EncodeToBytes([]byte("b"))
	list := WrapList(append(payload, payload2...))

	s := NewStreamFromBytes(list)
	if _, err := s.List(); err != nil {
		t.Fatal(err)
	}
	var got []string
	for !s.AtListEnd() {
		b, err := s.Bytes()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, string(b))
	}
	if err := s.ListEnd(); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v", got)
	}
}

func TestEncodeLongString(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 100)
	enc, err := EncodeToBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	var out []byte
	if err := DecodeBytes(enc, &out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("roundtrip mismatch for long string")
	}
}
