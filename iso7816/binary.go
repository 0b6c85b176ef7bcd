package iso7816

import (
	"github.com/opencard/pkcs15mw/apdu"
)

// ReadBinary reads up to len(buf) bytes from the currently selected
// transparent EF starting at offset, returning the number of bytes
// actually placed in buf. A partial read (file shorter than
// requested) is reported as success with the partial count, per
// spec.md §5 ("Partial writes are reported by returning the bytes
// actually transmitted").
func (c Card) ReadBinary(offset uint16, buf []byte) (int, error) {
	cmd := apdu.Command{CLA: c.cla(), INS: insReadBinary, P1: byte(offset >> 8), P2: byte(offset), HasLe: true, Le: len(buf)}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return 0, err
	}
	if err := apdu.Classify(resp.SW()); err != nil {
		if resp.SW() == apdu.SWWrongLength && len(resp.Data) > 0 {
			n := copy(buf, resp.Data)
			return n, nil
		}
		return 0, err
	}
	return copy(buf, resp.Data), nil
}

// UpdateBinary overwrites len(data) bytes of the currently selected
// transparent EF at offset.
func (c Card) UpdateBinary(offset uint16, data []byte) error {
	cmd := apdu.Command{CLA: c.cla(), INS: insUpdateBinary, P1: byte(offset >> 8), P2: byte(offset), Data: data}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return err
	}
	return apdu.Classify(resp.SW())
}

// WriteBinary writes len(data) bytes to the currently selected
// transparent EF at offset using WRITE BINARY (0xD0), which (unlike
// UPDATE BINARY) may only set bits, not clear them, on cards that
// distinguish the two.
func (c Card) WriteBinary(offset uint16, data []byte) error {
	cmd := apdu.Command{CLA: c.cla(), INS: insWriteBinary, P1: byte(offset >> 8), P2: byte(offset), Data: data}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return err
	}
	return apdu.Classify(resp.SW())
}

// RecordMode selects READ RECORD / UPDATE RECORD addressing, per the
// low 3 bits of P2.
type RecordMode byte

const (
	RecordFirst    RecordMode = 0x00
	RecordLast     RecordMode = 0x01
	RecordNext     RecordMode = 0x02
	RecordPrevious RecordMode = 0x03
	RecordAbsolute RecordMode = 0x04
)

// recordP2 packs an SFI and a RecordMode into P2 as ISO 7816-4 §7.3
// defines it: bits 8-4 carry the short EF identifier (0 means "the
// currently selected EF", letting callers keep addressing by prior
// SELECT), bits 3-1 carry the mode.
func recordP2(sfi byte, mode RecordMode) byte {
	return sfi<<3 | byte(mode)&0x07
}

// ReadRecord reads recordNum (ignored when mode != RecordAbsolute)
// into buf, returning the number of bytes placed. sfi selects a
// short-identified EF without a prior SELECT; pass 0 to address the
// currently selected EF.
func (c Card) ReadRecord(sfi byte, recordNum byte, mode RecordMode, buf []byte) (int, error) {
	cmd := apdu.Command{CLA: c.cla(), INS: insReadRecord, P1: recordNum, P2: recordP2(sfi, mode), HasLe: true, Le: len(buf)}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return 0, err
	}
	if err := apdu.Classify(resp.SW()); err != nil {
		return 0, err
	}
	return copy(buf, resp.Data), nil
}

// UpdateRecord overwrites recordNum with data. sfi selects a
// short-identified EF without a prior SELECT; pass 0 to address the
// currently selected EF.
func (c Card) UpdateRecord(sfi byte, recordNum byte, mode RecordMode, data []byte) error {
	cmd := apdu.Command{CLA: c.cla(), INS: insUpdateRecord, P1: recordNum, P2: recordP2(sfi, mode), Data: data}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return err
	}
	return apdu.Classify(resp.SW())
}
