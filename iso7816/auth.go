package iso7816

import (
	"github.com/opencard/pkcs15mw/apdu"
	"github.com/opencard/pkcs15mw/ckerr"
)

// Verify issues VERIFY for reference keyRef with the given
// verification data. An empty data slice queries PIN status without
// consuming a retry attempt on cards that support it (ISO 7816-4
// Lc=0 semantics); the classified error (if any) still carries the
// tries-left count from a 63Cn status word.
func (c Card) Verify(keyRef byte, data []byte) error {
	cmd := apdu.Command{CLA: c.cla(), INS: insVerify, P1: 0x00, P2: keyRef, Data: data}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return err
	}
	return apdu.Classify(resp.SW())
}

// referenceDataP1 chooses CHANGE REFERENCE DATA / RESET RETRY
// COUNTER's P1 from the (oldEmpty, newEmpty) matrix of spec.md §4.F:
// both present -> 0x00 (replace), old absent -> 0x01 (unblock-style,
// verify-then-replace not required), new absent -> query-only is not
// meaningful for these commands so falls back to 0x00.
func referenceDataP1(oldEmpty, newEmpty bool) byte {
	if oldEmpty && !newEmpty {
		return 0x01
	}
	return 0x00
}

// ChangeReferenceData issues CHANGE REFERENCE DATA (0x24) to replace
// the keyRef PIN/key, concatenating old‖new per spec.md §4.F.
func (c Card) ChangeReferenceData(keyRef byte, oldData, newData []byte) error {
	if len(newData) == 0 {
		return ckerr.New(ckerr.InvalidArguments, "change reference data: new value required")
	}
	p1 := referenceDataP1(len(oldData) == 0, len(newData) == 0)
	data := append(append([]byte(nil), oldData...), newData...)
	cmd := apdu.Command{CLA: c.cla(), INS: insChangeRefData, P1: p1, P2: keyRef, Data: data}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return err
	}
	return apdu.Classify(resp.SW())
}

// ResetRetryCounter issues RESET RETRY COUNTER (0x2C) to unblock
// keyRef, concatenating puk‖newPIN. If newPIN is empty, the counter
// is reset without changing the reference value (P1=0x01); otherwise
// P1 follows the same matrix as ChangeReferenceData.
func (c Card) ResetRetryCounter(keyRef byte, puk, newPIN []byte) error {
	p1 := referenceDataP1(len(puk) == 0, len(newPIN) == 0)
	if len(puk) > 0 && len(newPIN) == 0 {
		p1 = 0x01
	}
	data := append(append([]byte(nil), puk...), newPIN...)
	cmd := apdu.Command{CLA: c.cla(), INS: insResetRetryCounter, P1: p1, P2: keyRef, Data: data}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return err
	}
	return apdu.Classify(resp.SW())
}
