// Package apdu builds, serializes and classifies ISO/IEC 7816-4
// command/response APDUs, per spec.md §4.E. Encoding follows the
// four-case APDU taxonomy and produces bytes bit-identical to the
// reference for short and extended length forms.
package apdu

import (
	"fmt"

	"github.com/opencard/pkcs15mw/ckerr"
)

// Case is the ISO 7816-4 APDU case tag.
type Case int

const (
	Case1    Case = iota // no data in, no data out
	Case2Short           // no data in, Le out (short)
	Case3Short           // Lc data in, no data out (short)
	Case4Short           // Lc data in, Le out (short)
	Case2Ext             // no data in, Le out (extended)
	Case3Ext             // Lc data in, no data out (extended)
	Case4Ext             // Lc data in, Le out (extended)
)

// maxShort is the largest Lc representable in the short APDU form; a
// short Le reaches one further, 256, encoded as 0x00.
const maxShort = 255

// Command is an outbound APDU: header plus an optional data field and
// an optional expected response length (Le).
type Command struct {
	CLA, INS, P1, P2 byte
	Data             []byte
	Le               int  // expected response length; only sent when HasLe is set
	HasLe            bool
}

// CaseOf classifies c by ISO 7816-4 case, choosing the extended form
// only when Data or Le overflows the short-form ceiling.
func (c Command) CaseOf() Case {
	extended := len(c.Data) > maxShort || c.Le > maxShort+1
	switch {
	case len(c.Data) == 0 && !c.HasLe:
		return Case1
	case len(c.Data) == 0 && c.HasLe:
		if extended {
			return Case2Ext
		}
		return Case2Short
	case len(c.Data) > 0 && !c.HasLe:
		if extended {
			return Case3Ext
		}
		return Case3Short
	default:
		if extended {
			return Case4Ext
		}
		return Case4Short
	}
}

// Bytes serializes c into the wire form for its case.
func (c Command) Bytes() ([]byte, error) {
	switch c.CaseOf() {
	case Case1:
		return []byte{c.CLA, c.INS, c.P1, c.P2}, nil

	case Case2Short:
		le := byte(c.Le)
		if c.Le == 256 {
			le = 0x00
		}
		return []byte{c.CLA, c.INS, c.P1, c.P2, le}, nil

	case Case3Short:
		out := make([]byte, 0, 5+len(c.Data))
		out = append(out, c.CLA, c.INS, c.P1, c.P2, byte(len(c.Data)))
		out = append(out, c.Data...)
		return out, nil

	case Case4Short:
		out := make([]byte, 0, 6+len(c.Data))
		out = append(out, c.CLA, c.INS, c.P1, c.P2, byte(len(c.Data)))
		out = append(out, c.Data...)
		le := byte(c.Le)
		if c.Le == 256 {
			le = 0x00
		}
		out = append(out, le)
		return out, nil

	case Case2Ext:
		le := c.Le
		if le == 65536 {
			le = 0
		}
		return []byte{c.CLA, c.INS, c.P1, c.P2, 0x00, byte(le >> 8), byte(le)}, nil

	case Case3Ext:
		if len(c.Data) > 65535 {
			return nil, ckerr.New(ckerr.CmdTooLong, "data length %d exceeds extended Lc", len(c.Data))
		}
		out := make([]byte, 0, 7+len(c.Data))
		out = append(out, c.CLA, c.INS, c.P1, c.P2, 0x00, byte(len(c.Data)>>8), byte(len(c.Data)))
		out = append(out, c.Data...)
		return out, nil

	case Case4Ext:
		if len(c.Data) > 65535 {
			return nil, ckerr.New(ckerr.CmdTooLong, "data length %d exceeds extended Lc", len(c.Data))
		}
		out := make([]byte, 0, 9+len(c.Data))
		out = append(out, c.CLA, c.INS, c.P1, c.P2, 0x00, byte(len(c.Data)>>8), byte(len(c.Data)))
		out = append(out, c.Data...)
		le := c.Le
		if le == 65536 {
			le = 0
		}
		out = append(out, byte(le>>8), byte(le))
		return out, nil
	}
	return nil, fmt.Errorf("apdu: unreachable case")
}

// Response is a decoded card response: trailer-stripped data plus the
// two status-word bytes.
type Response struct {
	Data []byte
	SW1  byte
	SW2  byte
}

// SW returns the 16-bit status word.
func (r Response) SW() uint16 { return uint16(r.SW1)<<8 | uint16(r.SW2) }

// ParseResponse splits raw transmission bytes into data and trailer.
func ParseResponse(raw []byte) (Response, error) {
	if len(raw) < 2 {
		return Response{}, ckerr.New(ckerr.TransmitFailed, "response too short: %d bytes", len(raw))
	}
	return Response{Data: raw[:len(raw)-2], SW1: raw[len(raw)-2], SW2: raw[len(raw)-1]}, nil
}

// HasMoreData reports SW1=0x61 ("xx bytes available via GET RESPONSE").
func (r Response) HasMoreData() bool { return r.SW1 == 0x61 }

// NeedsLeRetry reports SW1=0x6C ("wrong Le, retry with SW2").
func (r Response) NeedsLeRetry() bool { return r.SW1 == 0x6C }

// IsOK reports SW=9000.
func (r Response) IsOK() bool { return r.SW1 == 0x90 && r.SW2 == 0x00 }
