package pin

import (
	"github.com/opencard/pkcs15mw/ckerr"
	"github.com/opencard/pkcs15mw/pkcs15"
)

// Validate implements _validate_pin of spec.md §4.I.
func Validate(info *pkcs15.AuthInfo, pinLen int, readerIsPINPad bool) error {
	if info.AuthMethod != pkcs15.AuthMethodCHV {
		return nil
	}
	if info.StoredLength > pkcs15.CardMaxPINSize {
		return ckerr.New(ckerr.BufferTooSmall, "pin: stored_length %d exceeds max %d", info.StoredLength, pkcs15.CardMaxPINSize)
	}
	if readerIsPINPad {
		return nil
	}
	max := info.MaxLength
	if max == 0 {
		max = pkcs15.CardMaxPINSize
	}
	if pinLen < info.MinLength || pinLen > max {
		return ckerr.New(ckerr.InvalidArguments, "pin: length %d outside [%d,%d]", pinLen, info.MinLength, max)
	}
	return nil
}
