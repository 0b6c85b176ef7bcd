package iso7816

import (
	"github.com/opencard/pkcs15mw/apdu"
)

// SE P1/P2 values for MANAGE SECURITY ENVIRONMENT, per spec.md §4.F.
const (
	mseP1P2Decipher = 0x41B8
	mseP1P2Sign     = 0x81B6
)

// mseTLV builds the 0x80/0x81/0x83/0x84 TLV block MSE SET expects.
func mseTLV(algRef byte, fileRef []byte, keyRef byte, asymmetric bool) []byte {
	var out []byte
	if algRef != 0 {
		out = append(out, 0x80, 0x01, algRef)
	}
	if len(fileRef) > 0 {
		out = append(out, 0x81, byte(len(fileRef)))
		out = append(out, fileRef...)
	}
	if asymmetric {
		out = append(out, 0x84, 0x01, keyRef)
	} else {
		out = append(out, 0x83, 0x01, keyRef)
	}
	return out
}

// setSE issues MSE SET SE (P1=0xF2) to select a previously stored
// security environment number, used when the caller supplies one; the
// TLV-built MSE SET still follows it.
func (c Card) setSE(seNum byte) error {
	cmd := apdu.Command{CLA: c.cla(), INS: insMSE, P1: 0xF2, P2: seNum}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return err
	}
	return apdu.Classify(resp.SW())
}

// ManageSecurityEnvironment prepares the security environment for a
// subsequent PSO operation. If seNum >= 0, a SET SE (P1=0xF2) APDU is
// sent first; the caller holds the reader lock across both APDUs and
// the following PSO call (spec.md §5, "ordering guarantees").
func (c Card) ManageSecurityEnvironment(sign bool, seNum int, algRef byte, fileRef []byte, keyRef byte, asymmetric bool) error {
	if seNum >= 0 {
		if err := c.setSE(byte(seNum)); err != nil {
			return err
		}
	}
	p1p2 := mseP1P2Decipher
	if sign {
		p1p2 = mseP1P2Sign
	}
	cmd := apdu.Command{
		CLA: c.cla(), INS: insMSE,
		P1: byte(p1p2 >> 8), P2: byte(p1p2),
		Data: mseTLV(algRef, fileRef, keyRef, asymmetric),
	}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return err
	}
	return apdu.Classify(resp.SW())
}

// PSOSign issues PSO: COMPUTE DIGITAL SIGNATURE (P1=0x9E, P2=0x9A)
// with the pre-hashed digest, returning the signature bytes.
func (c Card) PSOSign(digest []byte, outMax int) ([]byte, error) {
	cmd := apdu.Command{CLA: c.cla(), INS: insPSO, P1: 0x9E, P2: 0x9A, Data: digest, HasLe: true, Le: 256}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return nil, err
	}
	if err := apdu.Classify(resp.SW()); err != nil {
		return nil, err
	}
	out := resp.Data
	if outMax > 0 && len(out) > outMax {
		out = out[:outMax]
	}
	return out, nil
}

// PSODecipher issues PSO: DECIPHER (P1=0x80, P2=0x86) with a leading
// 0x00 padding-indicator byte prepended to ciphertext, per spec.md
// §4.F, returning the recovered plaintext.
func (c Card) PSODecipher(ciphertext []byte) ([]byte, error) {
	data := append([]byte{0x00}, ciphertext...)
	cmd := apdu.Command{CLA: c.cla(), INS: insPSO, P1: 0x80, P2: 0x86, Data: data, HasLe: true, Le: 256}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return nil, err
	}
	if err := apdu.Classify(resp.SW()); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetChallenge fills buf with random bytes from the card, issuing
// GET CHALLENGE (0x84) in 8-byte chunks until buf is full, per
// spec.md §4.F.
func (c Card) GetChallenge(buf []byte) error {
	for filled := 0; filled < len(buf); {
		want := len(buf) - filled
		if want > 8 {
			want = 8
		}
		cmd := apdu.Command{CLA: c.cla(), INS: insGetChallenge, HasLe: true, Le: want}
		resp, err := apdu.Transmit(c.T, cmd)
		if err != nil {
			return err
		}
		if err := apdu.Classify(resp.SW()); err != nil {
			return err
		}
		n := copy(buf[filled:], resp.Data)
		if n == 0 {
			break
		}
		filled += n
	}
	return nil
}

// CreateFile issues CREATE FILE (0xE0) with a caller-constructed FCI.
func (c Card) CreateFile(fci []byte) error {
	cmd := apdu.Command{CLA: c.cla(), INS: insCreateFile, Data: fci}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return err
	}
	return apdu.Classify(resp.SW())
}

// DeleteFile issues DELETE FILE (0xE4) for the file identified by id
// (2-byte short file ID), selected-by-current-DF when id is empty.
func (c Card) DeleteFile(id []byte) error {
	cmd := apdu.Command{CLA: c.cla(), INS: insDeleteFile, Data: id}
	resp, err := apdu.Transmit(c.T, cmd)
	if err != nil {
		return err
	}
	return apdu.Classify(resp.SW())
}
