package pkcs15

import (
	"encoding/asn1"

	"github.com/opencard/pkcs15mw/ckerr"
	"github.com/opencard/pkcs15mw/path"
)

// Key usage bits, per PKCS#15's KeyUsageFlags BIT STRING.
const (
	KeyUsageEncrypt uint32 = 1 << iota
	KeyUsageDecrypt
	KeyUsageSign
	KeyUsageSignRecover
	KeyUsageWrap
	KeyUsageUnwrap
	KeyUsageVerify
	KeyUsageVerifyRecover
	KeyUsageDerive
	KeyUsageNonRepudiation
)

// wireCommonObjectAttributes is PKCS#15's CommonObjectAttributes,
// shared by every DF entry type (spec.md §3's "PKCS#15 object"). It
// is the one piece of template common to AODF/PrKDF/PuKDF/CDF/DODF;
// auth.go inlines its own smaller subset (AuthID only) because the
// worked AODF example only needed that field, but key/cert/data
// entries need Label/Flags/UserConsent too.
type wireCommonObjectAttributes struct {
	Label       string         `asn1:"optional,utf8"`
	Flags       asn1.BitString `asn1:"optional"`
	AuthID      []byte         `asn1:"optional"`
	UserConsent int            `asn1:"optional,default:0"`
}

// wireObjectValue is PKCS#15's ObjectValue CHOICE, restricted to the
// indirect (path-referenced) and direct (inline DER) alternatives
// this middleware needs; key, cert and data entries may use either.
// Direct carries context tag [0] so the two alternatives stay
// distinguishable on decode.
type wireObjectValue struct {
	Indirect []byte `asn1:"optional"`       // path bytes, when the value lives in an EF
	Direct   []byte `asn1:"optional,tag:0"` // inline DER, when carried in the entry itself
}

type wireCommonKeyAttributes struct {
	ID           []byte
	Usage        asn1.BitString
	Native       bool           `asn1:"optional,default:1"`
	AccessFlags  asn1.BitString `asn1:"optional"`
	KeyReference int            `asn1:"optional,tag:0"`
}

type wireRSAKeyAttributes struct {
	Value         wireObjectValue `asn1:"explicit,tag:1"`
	ModulusLength int             `asn1:"optional"`
}

type wireKeyEntry struct {
	Common   wireCommonObjectAttributes
	KeyAttrs wireCommonKeyAttributes `asn1:"tag:0,explicit"`
	RSAAttrs wireRSAKeyAttributes    `asn1:"tag:1,explicit"`
}

func usageFromBitString(bs asn1.BitString) uint32 {
	var u uint32
	for i, b := range bs.Bytes {
		u |= uint32(b) << (8 * uint(i))
	}
	return u
}

func bitStringFromUsage(u uint32) asn1.BitString {
	return asn1.BitString{Bytes: []byte{byte(u), byte(u >> 8)}, BitLength: 16}
}

// decodeKeyEntry decodes one PrKDF or PuKDF entry (the two share a
// wire shape; only the ODF tag and resulting ObjectType differ), per
// spec.md §4.H. The key's own value is held by Path when Indirect is
// present; a Direct (inline) value, for either key type, replaces
// Content instead.
func decodeKeyEntry(der []byte, appDF path.Path) (*Object, error) {
	var w wireKeyEntry
	rest, err := asn1.Unmarshal(der, &w)
	if err != nil {
		return nil, ckerr.Wrap(ckerr.Internal, err, "keydf: decode")
	}
	if len(rest) != 0 {
		return nil, ckerr.New(ckerr.Internal, "keydf: %d trailing bytes", len(rest))
	}

	obj := &Object{
		Label:  w.Common.Label,
		AuthID: w.Common.AuthID,
		Content: der,
	}
	obj.Flags = objectFlagsFromBitString(w.Common.Flags)
	obj.UserConsent = w.Common.UserConsent

	info := &KeyInfo{
		ID:           w.KeyAttrs.ID,
		Usage:        usageFromBitString(w.KeyAttrs.Usage),
		Native:       w.KeyAttrs.Native,
		KeyReference: w.KeyAttrs.KeyReference,
		ModulusBits:  w.RSAAttrs.ModulusLength,
	}
	if len(w.KeyAttrs.AccessFlags.Bytes) > 0 {
		info.AccessFlags = w.KeyAttrs.AccessFlags.Bytes[0]
	}
	obj.Payload = info

	if len(w.RSAAttrs.Value.Indirect) > 0 {
		p, err := path.New(path.FilePath, w.RSAAttrs.Value.Indirect)
		if err != nil {
			return nil, ckerr.Wrap(ckerr.Internal, err, "keydf: value path")
		}
		obj.Path = p
	} else if len(w.RSAAttrs.Value.Direct) > 0 {
		obj.Content = w.RSAAttrs.Value.Direct
	}
	return obj, nil
}

// encodeKeyEntry is the inverse of decodeKeyEntry, used by the round
// trip property of spec.md §8.
func encodeKeyEntry(obj *Object) ([]byte, error) {
	info, _ := obj.Payload.(*KeyInfo)
	if info == nil {
		return nil, ckerr.New(ckerr.InvalidArguments, "keydf: object has no KeyInfo payload")
	}
	w := wireKeyEntry{
		Common: wireCommonObjectAttributes{
			Label:       obj.Label,
			Flags:       bitStringFromObjectFlags(obj.Flags),
			AuthID:      obj.AuthID,
			UserConsent: obj.UserConsent,
		},
		KeyAttrs: wireCommonKeyAttributes{
			ID:           info.ID,
			Usage:        bitStringFromUsage(info.Usage),
			Native:       info.Native,
			KeyReference: info.KeyReference,
		},
		RSAAttrs: wireRSAKeyAttributes{ModulusLength: info.ModulusBits},
	}
	if info.AccessFlags != 0 {
		w.KeyAttrs.AccessFlags = asn1.BitString{Bytes: []byte{info.AccessFlags}, BitLength: 8}
	}
	if obj.Path.Len() > 0 {
		w.RSAAttrs.Value.Indirect = obj.Path.Value
	} else {
		w.RSAAttrs.Value.Direct = obj.Content
	}
	der, err := asn1.Marshal(w)
	if err != nil {
		return nil, ckerr.Wrap(ckerr.Internal, err, "keydf: encode")
	}
	return der, nil
}

func objectFlagsFromBitString(bs asn1.BitString) ObjectFlags {
	var f ObjectFlags
	for i, b := range bs.Bytes {
		f |= ObjectFlags(b) << (8 * uint(i))
	}
	return f
}

func bitStringFromObjectFlags(f ObjectFlags) asn1.BitString {
	if f == 0 {
		return asn1.BitString{}
	}
	return asn1.BitString{Bytes: []byte{byte(f)}, BitLength: 8}
}
