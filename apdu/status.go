package apdu

import "github.com/opencard/pkcs15mw/ckerr"

// Well-known status words, per spec.md §4.E/§7.
const (
	SWOK                       uint16 = 0x9000
	SWFileNotFound             uint16 = 0x6A82
	SWRecordNotFound           uint16 = 0x6A83
	SWWrongLength              uint16 = 0x6700
	SWSecurityNotSatisfied     uint16 = 0x6982
	SWAuthMethodBlocked        uint16 = 0x6983
	SWRefDataNotFound          uint16 = 0x6A88
	SWConditionsNotSatisfied   uint16 = 0x6985
	SWWrongP1P2                uint16 = 0x6A86
	SWInsNotSupported          uint16 = 0x6D00
	SWClaNotSupported          uint16 = 0x6E00
)

// Classify converts a status word into a ckerr error, or nil for
// success. SW=61xx/6Cxx are not terminal outcomes — callers handle
// them via GET RESPONSE / Le-retry before calling Classify.
//
// Per spec.md S4/S8: 0x63,0xCn (n=0..15) always reports PIN_INCORRECT
// with tries_left=n, even at n=0; only the distinct status word 0x6983
// reports AUTH_METHOD_BLOCKED.
func Classify(sw uint16) error {
	if sw == SWOK {
		return nil
	}
	sw1 := byte(sw >> 8)
	sw2 := byte(sw)

	switch sw {
	case SWFileNotFound:
		return ckerr.New(ckerr.FileNotFound, "SW=%04X", sw)
	case SWRecordNotFound:
		return ckerr.New(ckerr.RecordNotFound, "SW=%04X", sw)
	case SWWrongLength:
		return ckerr.New(ckerr.WrongLength, "SW=%04X", sw)
	case SWSecurityNotSatisfied:
		return ckerr.New(ckerr.SecurityStatusNotSatisfied, "SW=%04X", sw)
	case SWAuthMethodBlocked:
		return ckerr.New(ckerr.AuthMethodBlocked, "SW=%04X", sw)
	case SWConditionsNotSatisfied:
		return ckerr.New(ckerr.SecurityStatusNotSatisfied, "SW=%04X conditions of use not satisfied", sw)
	case SWWrongP1P2:
		return ckerr.New(ckerr.InvalidArguments, "SW=%04X incorrect P1/P2", sw)
	case SWInsNotSupported, SWClaNotSupported:
		return ckerr.New(ckerr.NotSupported, "SW=%04X", sw)
	}

	if sw1 == 0x63 && sw2&0xF0 == 0xC0 {
		return ckerr.PINError(int(sw2 & 0x0F))
	}
	if sw1 == 0x6A && sw2 == 0x88 {
		return ckerr.New(ckerr.RefDataNotFound, "SW=%04X reference data not found", sw)
	}
	return ckerr.New(ckerr.UnknownReply, "SW=%04X", sw)
}
