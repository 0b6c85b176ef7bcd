// Package atr decodes ISO/IEC 7816-3 Answer-to-Reset byte strings,
// per spec.md §4.D.
package atr

import "fmt"

// fiTable and fMaxTable are indexed by the FI nibble (high nibble of
// TA1). fMaxTable is in tenths of a megahertz so the 7.5 MHz entry
// stays integral. -1 marks an RFU (reserved) slot.
var fiTable = [16]int{372, 372, 558, 744, 1116, 1488, 1860, -1, 512, 768, 1024, 1536, 2048, -1, -1, -1}
var fMaxTable = [16]int{40, 50, 60, 80, 120, 160, 200, -1, 50, 75, 100, 150, 200, -1, -1, -1}

// diTable is indexed by the DI nibble (low nibble of TA1).
var diTable = [16]int{-1, 1, 2, 4, 8, 16, 32, 64, 12, 20, -1, -1, -1, -1, -1, -1}

// InterfaceBytes holds the TA/TB/TC bytes read for one interface-byte
// group, plus whether a TD followed (carrying the next group's
// presence mask and, after the first group, the negotiated protocol).
type InterfaceBytes struct {
	TA, HasTA byte
	TB, HasTB byte
	TC, HasTC byte
	TD        byte
	HasTD     bool
}

// ATR is the decoded form of a raw Answer-to-Reset byte string.
type ATR struct {
	Raw []byte

	TS byte
	T0 byte

	// Groups holds one InterfaceBytes per TD-chained round, 1-indexed
	// conceptually but stored 0-indexed here (Groups[0] is round 1).
	Groups []InterfaceBytes

	// Protocols lists every T=x protocol announced by a TD byte
	// (T=0 is implicit if no TD ever appears).
	Protocols []int

	HistoricalBytes []byte
	TCK             *byte

	Fi, Di int
	FMax   int // tenths of a megahertz, or -1 if RFU/absent
}

// Decode parses raw per spec.md §4.D: n_hist = p[1]&0x0F, presence
// mask x = p[1]>>4, then TA/TB/TC/TD are consumed in that order for
// each group while the previous TD's high nibble is nonzero. ISO
// 7816-3 numbers interface-byte groups 1, 2, 3, ...; TD(i) carries
// the presence mask for group i+1 in its high nibble and, from group
// 2 onward, the negotiated protocol T in its low nibble.
func Decode(raw []byte) (*ATR, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("atr: empty or truncated ATR")
	}
	ts := raw[0]
	if ts != 0x3B && ts != 0x3F {
		return nil, fmt.Errorf("atr: invalid TS byte 0x%02X", ts)
	}

	a := &ATR{Raw: raw, TS: ts, T0: raw[1]}
	histLen := int(raw[1] & 0x0F)
	presence := raw[1] >> 4
	pos := 2

	for presence != 0 {
		var grp InterfaceBytes
		if presence&0x1 != 0 {
			if pos >= len(raw) {
				return nil, fmt.Errorf("atr: truncated before TA%d", len(a.Groups)+1)
			}
			grp.HasTA, grp.TA = 1, raw[pos]
			pos++
		}
		if presence&0x2 != 0 {
			if pos >= len(raw) {
				return nil, fmt.Errorf("atr: truncated before TB%d", len(a.Groups)+1)
			}
			grp.HasTB, grp.TB = 1, raw[pos]
			pos++
		}
		if presence&0x4 != 0 {
			if pos >= len(raw) {
				return nil, fmt.Errorf("atr: truncated before TC%d", len(a.Groups)+1)
			}
			grp.HasTC, grp.TC = 1, raw[pos]
			pos++
		}
		if presence&0x8 != 0 {
			if pos >= len(raw) {
				return nil, fmt.Errorf("atr: truncated before TD%d", len(a.Groups)+1)
			}
			grp.HasTD = true
			grp.TD = raw[pos]
			pos++
			if len(a.Groups) > 0 {
				a.Protocols = append(a.Protocols, int(grp.TD&0x0F))
			}
			presence = grp.TD >> 4
		} else {
			presence = 0
		}
		a.Groups = append(a.Groups, grp)
	}
	if len(a.Protocols) == 0 {
		a.Protocols = []int{0}
	}

	if pos+histLen > len(raw) {
		return nil, fmt.Errorf("atr: historical byte count %d exceeds remaining length", histLen)
	}
	a.HistoricalBytes = raw[pos : pos+histLen]
	pos += histLen

	if needsTCK(a.Protocols) {
		if pos >= len(raw) {
			return nil, fmt.Errorf("atr: missing TCK for T!=0")
		}
		tck := raw[pos]
		a.TCK = &tck
		pos++
	}

	a.interpret()
	return a, nil
}

func needsTCK(protocols []int) bool {
	for _, p := range protocols {
		if p != 0 {
			return true
		}
	}
	return false
}

func (a *ATR) interpret() {
	a.FMax = -1
	if len(a.Groups) == 0 || a.Groups[0].HasTA == 0 {
		return
	}
	ta1 := a.Groups[0].TA
	fi := ta1 >> 4
	di := ta1 & 0x0F
	a.Fi = fiTable[fi]
	a.Di = diTable[di]
	a.FMax = fMaxTable[fi]
}

// TA returns group i's TA byte (1-indexed) and whether it was present.
func (a *ATR) TA(i int) (byte, bool) { return groupByte(a, i, 0) }

// TB returns group i's TB byte (1-indexed) and whether it was present.
func (a *ATR) TB(i int) (byte, bool) { return groupByte(a, i, 1) }

// TC returns group i's TC byte (1-indexed) and whether it was present.
func (a *ATR) TC(i int) (byte, bool) { return groupByte(a, i, 2) }

func groupByte(a *ATR, i, which int) (byte, bool) {
	if i < 1 || i > len(a.Groups) {
		return 0, false
	}
	g := a.Groups[i-1]
	switch which {
	case 0:
		return g.TA, g.HasTA != 0
	case 1:
		return g.TB, g.HasTB != 0
	case 2:
		return g.TC, g.HasTC != 0
	}
	return 0, false
}
