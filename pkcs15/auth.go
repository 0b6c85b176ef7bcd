package pkcs15

import (
	"encoding/asn1"

	"github.com/opencard/pkcs15mw/ckerr"
	"github.com/opencard/pkcs15mw/path"
)

// PinFlags are the PIN-variant flags of spec.md §3's authentication
// info union.
type PinFlags uint16

const (
	PinFlagLocal PinFlags = 1 << iota
	PinFlagSOPin
	PinFlagCaseSensitive
	PinFlagNeedsPadding
	PinFlagChangeDisabled
	PinFlagUnblockDisabled
	PinFlagInitUnblocked
	PinFlagDisabled
	PinFlagIntegrityProtected
	PinFlagConfidentialityProtected
	PinFlagExchangeRefData
)

// PinEncoding is the on-card PIN representation, per spec.md §3.
type PinEncoding int

const (
	EncodingBCD PinEncoding = iota
	EncodingASCIINumeric
	EncodingUTF8
	EncodingHalfNibbleBCD
	EncodingISO9564_1
)

// AuthMethod distinguishes the authentication-info union's variants.
// Only CHV is populated by the ASN.1 codec; Biometric and AuthKey
// exist so callers can discriminate Payload without a type switch
// leaking pkcs15-internal types.
type AuthMethod int

const (
	AuthMethodCHV AuthMethod = iota
	AuthMethodBiometric
	AuthMethodAuthKey
)

// AuthInfo is the decoded form of an AODF PIN entry, per spec.md
// §3/§4.H.
type AuthInfo struct {
	AuthMethod AuthMethod
	AuthID     []byte

	Flags    PinFlags
	Encoding PinEncoding

	MinLength    int
	StoredLength int
	MaxLength    int

	Reference int
	PadChar   byte
	HasPad    bool

	Path path.Path

	TriesLeft int // runtime state, not part of the ASN.1 entry
}

// CardMaxPINSize mirrors SC_MAX_PIN_SIZE in spec.md §4.I.
const CardMaxPINSize = 256

// Normalize applies the two post-decode fixups of spec.md §4.H:
//   - a negative reference (legacy encoder bug) is adjusted by +256.
//   - max_length defaults from cardMax if given, else 2*stored_length
//     for BCD-family encodings, else stored_length, else 8 — per
//     spec.md §3 and the Open Question resolving it literally against
//     the stated heuristic rather than PKCS#15 v1.1 §6.7.5's narrower
//     rule (see DESIGN.md).
func (a *AuthInfo) Normalize(cardMax int) {
	if a.Reference < 0 {
		a.Reference += 256
	}
	if a.MaxLength != 0 {
		return
	}
	switch {
	case cardMax > 0:
		a.MaxLength = cardMax
	case a.Encoding == EncodingBCD || a.Encoding == EncodingHalfNibbleBCD:
		a.MaxLength = 2 * a.StoredLength
	case a.StoredLength > 0:
		a.MaxLength = a.StoredLength
	default:
		a.MaxLength = 8
	}
}

// wirePinAttributes is the ASN.1 SEQUENCE template for a PKCS#15
// PinAttributes block, decoded/encoded with the standard library's
// encoding/asn1 per the BER/DER template style of the corpus's
// PKCS#5/PKCS#8 decoders (no ecosystem BER library in this module's
// dependency set is a grounded fit for hand-templated PKCS#15
// entries, so this is the one deliberate stdlib exception; see
// DESIGN.md).
type wirePinAttributes struct {
	Flags        asn1.BitString
	Type         int
	MinLength    int
	StoredLength int
	MaxLength    int `asn1:"optional"`
	Reference    int `asn1:"optional,tag:0"`
	PadChar      []byte `asn1:"optional"`
}

type wireCommonAuthObjectAttributes struct {
	AuthID []byte
}

type wireAODFEntry struct {
	Common    wireCommonAuthObjectAttributes
	PinAttrs  wirePinAttributes `asn1:"tag:1,explicit"`
	PathBytes []byte            `asn1:"optional"`
}

func bitStringFromFlags(f PinFlags) asn1.BitString {
	b := []byte{byte(f), byte(f >> 8)}
	return asn1.BitString{Bytes: b, BitLength: 16}
}

func flagsFromBitString(bs asn1.BitString) PinFlags {
	var f PinFlags
	for i, b := range bs.Bytes {
		f |= PinFlags(b) << (8 * uint(i))
	}
	return f
}

// DecodeAODFEntry parses one AODF entry's DER bytes into an AuthInfo,
// applying the normalizations of spec.md §4.H: reference +256 fixup,
// AuthMethod forced to CHV, and (for local PINs with an empty path)
// inheritance of appDF from the caller.
func DecodeAODFEntry(der []byte, appDF path.Path, cardMax int) (*AuthInfo, error) {
	var w wireAODFEntry
	rest, err := asn1.Unmarshal(der, &w)
	if err != nil {
		return nil, ckerr.Wrap(ckerr.Internal, err, "aodf: decode")
	}
	if len(rest) != 0 {
		return nil, ckerr.New(ckerr.Internal, "aodf: %d trailing bytes", len(rest))
	}

	info := &AuthInfo{
		AuthMethod:   AuthMethodCHV,
		AuthID:       w.Common.AuthID,
		Flags:        flagsFromBitString(w.PinAttrs.Flags),
		Encoding:     PinEncoding(w.PinAttrs.Type),
		MinLength:    w.PinAttrs.MinLength,
		StoredLength: w.PinAttrs.StoredLength,
		MaxLength:    w.PinAttrs.MaxLength,
		Reference:    w.PinAttrs.Reference,
	}
	if len(w.PinAttrs.PadChar) > 0 {
		info.HasPad = true
		info.PadChar = w.PinAttrs.PadChar[0]
	}
	if len(w.PathBytes) > 0 {
		p, err := path.New(path.FilePath, w.PathBytes)
		if err != nil {
			return nil, ckerr.Wrap(ckerr.Internal, err, "aodf: path")
		}
		info.Path = p
	} else if info.Flags&PinFlagLocal != 0 {
		info.Path = appDF
	}

	info.Normalize(cardMax)
	return info, nil
}

// EncodeAODFEntry re-serializes an AuthInfo the way DecodeAODFEntry
// would have produced it from the card, for the round-trip property
// of spec.md §8 law S6. The reference is written as info holds it;
// since Normalize turns a legacy-negative reference positive, an
// entry that carried one does not round-trip byte-identically.
func EncodeAODFEntry(info *AuthInfo) ([]byte, error) {
	w := wireAODFEntry{
		Common: wireCommonAuthObjectAttributes{AuthID: info.AuthID},
		PinAttrs: wirePinAttributes{
			Flags:        bitStringFromFlags(info.Flags),
			Type:         int(info.Encoding),
			MinLength:    info.MinLength,
			StoredLength: info.StoredLength,
			MaxLength:    info.MaxLength,
			Reference:    info.Reference,
		},
	}
	if info.HasPad {
		w.PinAttrs.PadChar = []byte{info.PadChar}
	}
	if info.Path.Len() > 0 {
		w.PathBytes = info.Path.Value
	}
	der, err := asn1.Marshal(w)
	if err != nil {
		return nil, ckerr.Wrap(ckerr.Internal, err, "aodf: encode")
	}
	return der, nil
}
