package pin

import (
	"errors"

	"github.com/opencard/pkcs15mw/ckerr"
	"github.com/opencard/pkcs15mw/file"
	"github.com/opencard/pkcs15mw/path"
	"github.com/opencard/pkcs15mw/pkcs15"
)

// CardOps is the slice of the card command layer the PIN subsystem
// needs: select the object's own path (if any) and issue the three
// PIN-management commands. iso7816.Card satisfies this directly.
type CardOps interface {
	Select(p path.Path) (*file.File, error)
	Verify(keyRef byte, data []byte) error
	ChangeReferenceData(keyRef byte, oldData, newData []byte) error
	ResetRetryCounter(keyRef byte, puk, newData []byte) error
}

// ErrUsePINPad is returned by VerifyPIN when the caller passed an empty PIN against a PIN-pad-capable reader: the
// caller must prompt the cardholder on the pad itself (spec.md §4.I,
// "set USE_PINPAD and a prompt") rather than transmit a plaintext PIN.
var ErrUsePINPad = errors.New("pin: prompt on reader PIN-pad")

func selectIfNeeded(c CardOps, p path.Path) error {
	if p.Len() == 0 {
		return nil
	}
	_, err := c.Select(p)
	return err
}

// VerifyPIN implements verify_pin of spec.md §4.I: select the PIN
// object's path if it has one, validate and encode the plaintext,
// issue VERIFY, and on success record the cache entry.
func VerifyPIN(c CardOps, info *pkcs15.AuthInfo, plaintext string, readerIsPINPad bool, cache *Cache) error {
	if plaintext == "" {
		if readerIsPINPad {
			return ErrUsePINPad
		}
		return ckerr.New(ckerr.InvalidArguments, "pin: empty pin requires a PIN-pad reader")
	}
	if err := Validate(info, len(plaintext), readerIsPINPad); err != nil {
		return err
	}
	if err := selectIfNeeded(c, info.Path); err != nil {
		return err
	}
	data, err := Encode(info, plaintext)
	if err != nil {
		return err
	}
	if err := c.Verify(byte(info.Reference), data); err != nil {
		if cache != nil {
			cache.Clear()
		}
		return err
	}
	if cache != nil && cache.Eligible(readerIsPINPad, false) {
		cache.MarkVerified(data)
	}
	return nil
}

// ChangePIN implements change_pin: select if needed, encode old/new,
// issue CHANGE REFERENCE DATA.
func ChangePIN(c CardOps, info *pkcs15.AuthInfo, oldPlaintext, newPlaintext string, readerIsPINPad bool, cache *Cache) error {
	if err := Validate(info, len(newPlaintext), readerIsPINPad); err != nil {
		return err
	}
	if err := selectIfNeeded(c, info.Path); err != nil {
		return err
	}
	oldData, err := Encode(info, oldPlaintext)
	if err != nil {
		return err
	}
	newData, err := Encode(info, newPlaintext)
	if err != nil {
		return err
	}
	if err := c.ChangeReferenceData(byte(info.Reference), oldData, newData); err != nil {
		if cache != nil {
			cache.Clear()
		}
		return err
	}
	if cache != nil {
		cache.MarkVerified(newData)
	}
	return nil
}

// UnblockPIN implements unblock_pin: locate the PUK object that
// protects info via its auth_id; if none exists, fall back to info's
// own attributes for the PUK half, per spec.md §4.I.
func UnblockPIN(c CardOps, objects *pkcs15.Graph, info *pkcs15.AuthInfo, pukPlaintext, newPlaintext string, readerIsPINPad bool, cache *Cache) error {
	pukInfo := info
	if objects != nil {
		if pukObj := objects.FindPINByAuthID(info.AuthID); pukObj != nil {
			if ai, ok := pukObj.Payload.(*pkcs15.AuthInfo); ok {
				pukInfo = ai
			}
		}
	}

	if err := Validate(info, len(newPlaintext), readerIsPINPad); err != nil {
		return err
	}
	if err := selectIfNeeded(c, info.Path); err != nil {
		return err
	}
	pukData, err := Encode(pukInfo, pukPlaintext)
	if err != nil {
		return err
	}
	newData, err := Encode(info, newPlaintext)
	if err != nil {
		return err
	}
	if err := c.ResetRetryCounter(byte(info.Reference), pukData, newData); err != nil {
		if cache != nil {
			cache.Clear()
		}
		return err
	}
	if cache != nil {
		cache.MarkVerified(newData)
	}
	return nil
}

// Credential pairs one PIN level's decoded attributes with the
// plaintext to present for it, for use with VerifyAndCache.
type Credential struct {
	Info      *pkcs15.AuthInfo
	Plaintext string

	// Optional marks a level whose failure should not abort the
	// cascade, mirroring the teacher's verifyADMKeys: ADM1 and ADM2
	// are each tried and a failure on either just means the
	// corresponding protected files stay inaccessible, not that the
	// whole login attempt fails.
	Optional bool
}

// VerifyAndCache verifies an ordered cascade of PIN levels — e.g. an
// SO-PIN followed by the user PIN it unlocks administrative access
// alongside — the way the teacher's cmd/root.go verifyADMKeys
// verifies ADM1 then ADM2 against the same reader session. The first
// non-optional level that fails stops the cascade and its error is
// returned; a failed optional level is skipped so later levels still
// get a chance. Every level that verifies successfully is cached via
// cache exactly as a standalone VerifyPIN call would.
func VerifyAndCache(c CardOps, levels []Credential, readerIsPINPad bool, cache *Cache) error {
	for _, lvl := range levels {
		if err := VerifyPIN(c, lvl.Info, lvl.Plaintext, readerIsPINPad, cache); err != nil {
			if lvl.Optional {
				continue
			}
			return err
		}
	}
	return nil
}
