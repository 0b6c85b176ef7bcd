// Package iso7816 implements the card command set of spec.md §4.F:
// SELECT FILE with FCI parsing, READ/WRITE/UPDATE BINARY and RECORD,
// VERIFY, CHANGE REFERENCE DATA, RESET RETRY COUNTER, MANAGE SECURITY
// ENVIRONMENT, PSO sign/decipher, GET CHALLENGE, CREATE/DELETE FILE.
//
// Every operation here issues one or more apdu.Command through an
// apdu.Transmitter and classifies the result with apdu.Classify.
package iso7816

import (
	"github.com/opencard/pkcs15mw/apdu"
	"github.com/opencard/pkcs15mw/ckerr"
	"github.com/opencard/pkcs15mw/file"
	pth "github.com/opencard/pkcs15mw/path"
)

// Instruction bytes used by this package.
const (
	insSelect            = 0xA4
	insReadBinary        = 0xB0
	insUpdateBinary      = 0xD6
	insWriteBinary       = 0xD0
	insReadRecord        = 0xB2
	insUpdateRecord      = 0xDC
	insVerify            = 0x20
	insChangeRefData     = 0x24
	insResetRetryCounter = 0x2C
	insMSE               = 0x22
	insPSO               = 0x2A
	insGetChallenge      = 0x84
	insCreateFile        = 0xE0
	insDeleteFile        = 0xE4
)

// Card bundles a Transmitter with the CLA byte this driver issues
// commands under (0x00 for plain ISO 7816, overridable by quirk
// drivers that need a vendor class byte).
type Card struct {
	T   apdu.Transmitter
	CLA byte
}

func (c Card) cla() byte {
	if c.CLA == 0 {
		return 0x00
	}
	return c.CLA
}

// selectP1 chooses SELECT's P1 per the path kind, per spec.md §3/§4.F:
// FILE_ID/PATH select "by identifier" (P1=0x00 for a single 2-byte
// id reachable from the current DF, 0x08 for a multi-component path
// from the MF), DF_NAME selects "by AID" (P1=0x04).
func selectP1(p pth.Path) byte {
	switch p.Kind {
	case pth.DFName:
		return 0x04
	case pth.FilePath:
		if p.Len() > 2 {
			return 0x08
		}
		return 0x00
	default:
		return 0x00
	}
}

// Select issues SELECT FILE for p and parses the returned FCI into a
// *file.File. Per S3, a PATH whose leading component is the MF
// (3F00) has that prefix stripped before transmission: the MF is the
// implicit root of every absolute path.
func (c Card) Select(p pth.Path) (*file.File, error) {
	data := p.Value
	p1 := selectP1(p)
	if p.Kind == pth.FilePath && len(data) >= 2 && data[0] == 0x3F && data[1] == 0x00 {
		data = data[2:]
	}

	cmd := apdu.Command{CLA: c.cla(), INS: insSelect, P1: p1, P2: 0x02, Data: data, HasLe: true, Le: 256}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return nil, err
	}
	if err := apdu.Classify(resp.SW()); err != nil {
		return nil, err
	}
	return ParseFCI(resp.Data)
}

// ParseFCI decodes a SELECT FILE response's FCI/FCP TLV into a File,
// per spec.md §3. Unrecognized tags are ignored; recognized-but-empty
// attribute tags leave the corresponding File field at its zero value.
func ParseFCI(data []byte) (*file.File, error) {
	f := file.New()
	pos := 0
	// An FCI/FCP is itself a constructed TLV (tag 0x62 or 0x6F); if
	// present, descend into its value before reading child tags.
	if len(data) >= 2 && (data[0] == 0x62 || data[0] == 0x6F) {
		tag, val, _, err := readTLV(data, 0)
		if err == nil && tag == data[0] {
			data = val
			pos = 0
		}
	}

	for pos < len(data) {
		tag, val, next, err := readTLV(data, pos)
		if err != nil {
			break
		}
		switch tag {
		case 0x83: // file identifier
			if len(val) == 2 {
				f.ID = uint16(val[0])<<8 | uint16(val[1])
			}
		case 0x80, 0x81: // byte size (data or including structural info)
			f.Size = beUint16(val)
		case 0x82: // file descriptor byte(s)
			f.TypeAttr = append([]byte(nil), val...)
			if len(val) > 0 {
				decodeDescriptor(val[0], f)
			}
			if len(val) >= 5 {
				f.RecordLength = beUint16(val[3:5])
			}
			if len(val) >= 3 && f.EFStructure != 0 && f.EFStructure != file.StructTransparent {
				f.RecordLength = uint16(val[2])
			}
		case 0x84: // DF name / AID
			f.DFName = append([]byte(nil), val...)
		case 0x85, 0xA5: // proprietary information
			f.ProprietaryAttr = append([]byte(nil), val...)
		case 0x86: // security attribute, compact/expanded form (opaque)
			f.SecurityAttr = append([]byte(nil), val...)
		case 0x8A: // life cycle status byte
			if len(val) == 1 {
				f.Status = val[0]
			}
		}
		pos = next
	}
	return f, nil
}

// decodeDescriptor splits the FCI descriptor byte into its two
// independent fields per spec.md §4.F ("bits 3-5 = type, bits 0-2 =
// EF structure, bit 6 = shareable"), rather than matching on the
// combined byte value.
func decodeDescriptor(b byte, f *file.File) {
	f.Type = typeFromBits((b >> 3) & 0x07)
	f.EFStructure = structureFromBits(b & 0x07)
	f.Shareable = b&0x40 != 0
}

// typeFromBits maps the descriptor byte's bits 3-5 to a file
// category, per ISO/IEC 7816-4's file descriptor byte table: 000 is
// a working EF, 111 is a DF, anything else a card-specific or
// internal EF.
func typeFromBits(t byte) file.Type {
	switch t {
	case 0x00:
		return file.TypeWorkingEF
	case 0x07:
		return file.TypeDF
	default:
		return file.TypeInternalEF
	}
}

// structureFromBits maps the descriptor byte's bits 0-2 to an EF
// structure, per ISO/IEC 7816-4's table: 000/001 are both transparent
// (no-information-given is conventionally transparent on real
// cards), 010/011 linear fixed, 100/101 linear variable, 110/111
// cyclic; the "each record is TLV" variants (odd codes) collapse to
// the same EFStructure since this model doesn't distinguish them.
func structureFromBits(s byte) file.EFStructure {
	switch s {
	case 0x00, 0x01:
		return file.StructTransparent
	case 0x02, 0x03:
		return file.StructLinearFixed
	case 0x04, 0x05:
		return file.StructLinearVariable
	case 0x06, 0x07:
		return file.StructCyclic
	default:
		return file.StructUnknown
	}
}

func beUint16(b []byte) uint16 {
	switch len(b) {
	case 1:
		return uint16(b[0])
	case 2:
		return uint16(b[0])<<8 | uint16(b[1])
	default:
		return 0
	}
}

// readTLV reads one BER-TLV element (single-byte tag, ISO 7816
// short/long-form length) starting at pos, returning its tag, value
// and the offset of the next element.
func readTLV(data []byte, pos int) (tag byte, value []byte, next int, err error) {
	if pos >= len(data) {
		return 0, nil, pos, ckerr.New(ckerr.WrongLength, "tlv: truncated tag")
	}
	tag = data[pos]
	pos++
	if pos >= len(data) {
		return 0, nil, pos, ckerr.New(ckerr.WrongLength, "tlv: truncated length")
	}
	l := int(data[pos])
	pos++
	if l&0x80 != 0 {
		n := l & 0x7F
		if n == 0 || pos+n > len(data) {
			return 0, nil, pos, ckerr.New(ckerr.WrongLength, "tlv: bad long length")
		}
		l = 0
		for i := 0; i < n; i++ {
			l = l<<8 | int(data[pos+i])
		}
		pos += n
	}
	if pos+l > len(data) {
		return 0, nil, pos, ckerr.New(ckerr.WrongLength, "tlv: value overruns buffer")
	}
	return tag, data[pos : pos+l], pos + l, nil
}
