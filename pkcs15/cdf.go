package pkcs15

import (
	"encoding/asn1"

	"github.com/opencard/pkcs15mw/ckerr"
	"github.com/opencard/pkcs15mw/path"
)

// wireCommonCertificateAttributes is PKCS#15's
// CommonCertificateAttributes: the identifier shared with the key it
// certifies, plus the authority/trust bits a CDF entry carries beyond
// CommonObjectAttributes.
type wireCommonCertificateAttributes struct {
	ID        []byte
	Authority bool   `asn1:"optional,default:0"`
}

type wireX509CertificateAttributes struct {
	Value wireObjectValue `asn1:"explicit,tag:1"`
}

type wireCDFEntry struct {
	Common    wireCommonObjectAttributes
	CertAttrs wireCommonCertificateAttributes `asn1:"tag:0,explicit"`
	X509Attrs wireX509CertificateAttributes   `asn1:"tag:1,explicit"`
}

// decodeCDFEntry decodes one certificate directory file entry, per
// spec.md §4.H/§4.G. The certificate's DER lives either inline
// (Direct) or via Path (Indirect); CertInfo.Value only holds the
// inline case, matching spec.md §3's "content blob (cached DER)"
// distinction between an object's own content and a separately
// addressed file.
func decodeCDFEntry(der []byte, appDF path.Path) (*Object, error) {
	var w wireCDFEntry
	rest, err := asn1.Unmarshal(der, &w)
	if err != nil {
		return nil, ckerr.Wrap(ckerr.Internal, err, "cdf: decode")
	}
	if len(rest) != 0 {
		return nil, ckerr.New(ckerr.Internal, "cdf: %d trailing bytes", len(rest))
	}

	obj := &Object{
		Label:   w.Common.Label,
		AuthID:  w.Common.AuthID,
		Content: der,
	}
	obj.Flags = objectFlagsFromBitString(w.Common.Flags)
	obj.UserConsent = w.Common.UserConsent

	info := &CertInfo{ID: w.CertAttrs.ID}
	if len(w.X509Attrs.Value.Indirect) > 0 {
		p, err := path.New(path.FilePath, w.X509Attrs.Value.Indirect)
		if err != nil {
			return nil, ckerr.Wrap(ckerr.Internal, err, "cdf: value path")
		}
		obj.Path = p
	} else if len(w.X509Attrs.Value.Direct) > 0 {
		info.Value = w.X509Attrs.Value.Direct
	}
	obj.Payload = info
	return obj, nil
}

// encodeCDFEntry is the inverse of decodeCDFEntry.
func encodeCDFEntry(obj *Object) ([]byte, error) {
	info, _ := obj.Payload.(*CertInfo)
	if info == nil {
		return nil, ckerr.New(ckerr.InvalidArguments, "cdf: object has no CertInfo payload")
	}
	w := wireCDFEntry{
		Common: wireCommonObjectAttributes{
			Label:       obj.Label,
			Flags:       bitStringFromObjectFlags(obj.Flags),
			AuthID:      obj.AuthID,
			UserConsent: obj.UserConsent,
		},
		CertAttrs: wireCommonCertificateAttributes{ID: info.ID},
	}
	if obj.Path.Len() > 0 {
		w.X509Attrs.Value.Indirect = obj.Path.Value
	} else {
		w.X509Attrs.Value.Direct = info.Value
	}
	der, err := asn1.Marshal(w)
	if err != nil {
		return nil, ckerr.Wrap(ckerr.Internal, err, "cdf: encode")
	}
	return der, nil
}
