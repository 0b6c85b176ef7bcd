// Package pin implements the PIN subsystem of spec.md §4.I/§4.J:
// encoding, length validation, verify/change/unblock, and the bounded
// PIN cache state machine.
package pin

import (
	"github.com/opencard/pkcs15mw/ckerr"
	"github.com/opencard/pkcs15mw/pkcs15"
)

// Encode renders plaintext per info's encoding and padding rules,
// producing the bytes verify_pin/change_pin place in the command
// data block (spec.md §4.I).
func Encode(info *pkcs15.AuthInfo, plaintext string) ([]byte, error) {
	var raw []byte
	switch info.Encoding {
	case pkcs15.EncodingBCD:
		raw = encodeBCD(plaintext)
	case pkcs15.EncodingHalfNibbleBCD:
		raw = encodeHalfNibbleBCD(plaintext)
	case pkcs15.EncodingASCIINumeric, pkcs15.EncodingISO9564_1:
		raw = []byte(plaintext)
	case pkcs15.EncodingUTF8:
		raw = []byte(plaintext)
	default:
		return nil, ckerr.New(ckerr.NotSupported, "pin: unknown encoding %v", info.Encoding)
	}

	if info.Encoding == pkcs15.EncodingISO9564_1 {
		return encodeISO9564_1(plaintext), nil
	}

	if info.Flags&pkcs15.PinFlagNeedsPadding != 0 {
		pad := info.PadChar
		if !info.HasPad {
			pad = 0xFF
		}
		target := info.StoredLength
		if target == 0 {
			target = len(raw)
		}
		for len(raw) < target {
			raw = append(raw, pad)
		}
	}
	return raw, nil
}

func encodeBCD(s string) []byte {
	out := make([]byte, 0, (len(s)+1)/2)
	for i := 0; i < len(s); i += 2 {
		hi := digit(s[i])
		lo := byte(0x0F)
		if i+1 < len(s) {
			lo = digit(s[i+1])
		}
		out = append(out, hi<<4|lo)
	}
	return out
}

func encodeHalfNibbleBCD(s string) []byte {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = digit(s[i])
	}
	return out
}

// encodeISO9564_1 builds an ISO 9564-1 format-2 PIN block: control
// nibble 0x2, length nibble, BCD digits, 0xF filler, with no PAN or
// key XOR applied.
func encodeISO9564_1(s string) []byte {
	block := make([]byte, 8)
	block[0] = 0x20 | byte(len(s))
	for i := 0; i < 14; i++ {
		nibble := byte(0x0F)
		if i < len(s) {
			nibble = digit(s[i])
		}
		pos := 1 + i/2
		if i%2 == 0 {
			block[pos] = nibble << 4
		} else {
			block[pos] |= nibble
		}
	}
	return block
}

func digit(c byte) byte {
	if c >= '0' && c <= '9' {
		return c - '0'
	}
	return 0x0F
}
