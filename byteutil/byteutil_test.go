package byteutil

import (
	"bytes"
	"testing"
)

func TestHexToBinSeparators(t *testing.T) {
	got, err := HexToBin("01:02 0A0b")
	if err != nil {
		t.Fatalf("HexToBin: %v", err)
	}
	want := []byte{0x01, 0x02, 0x0A, 0x0B}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %X, want %X", got, want)
	}
}

func TestHexRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		{0xFF, 0x00, 0x7F},
		{0x3B, 0xF7, 0x11, 0x00, 0x00, 0x81, 0x31, 0xFE, 0x45},
	}
	for _, b := range cases {
		got, err := HexToBin(BinToHex(b))
		if err != nil {
			t.Fatalf("HexToBin(BinToHex(%X)): %v", b, err)
		}
		if !bytes.Equal(got, b) && !(len(got) == 0 && len(b) == 0) {
			t.Fatalf("round-trip mismatch: got %X, want %X", got, b)
		}
	}
}

func TestBEUint32RoundTrip(t *testing.T) {
	for _, x := range []uint32{0, 1, 255, 65536, 0xFFFFFFFF} {
		if got := ParseBEUint32(BEUint32(x)); got != x {
			t.Fatalf("ParseBEUint32(BEUint32(%d)) = %d", x, got)
		}
	}
}

func TestHexToBinOddLength(t *testing.T) {
	if _, err := HexToBin("0A0"); err == nil {
		t.Fatal("expected error for odd-length hex string")
	}
}

func TestEqual(t *testing.T) {
	if !Equal([]byte{1, 2, 3}, []byte{1, 2, 3}) {
		t.Fatal("expected equal")
	}
	if Equal([]byte{1, 2}, []byte{1, 2, 3}) {
		t.Fatal("expected not equal (length)")
	}
	if Equal([]byte{1, 2, 3}, []byte{1, 2, 4}) {
		t.Fatal("expected not equal (value)")
	}
}
