package pkcs15

import (
	"encoding/asn1"

	"github.com/opencard/pkcs15mw/ckerr"
	"github.com/opencard/pkcs15mw/path"
)

// wireCommonDataObjectAttributes is PKCS#15's
// CommonDataObjectAttributes: the OID/label pair that names the
// application a DODF entry belongs to, distinct from the entry's own
// CommonObjectAttributes.Label.
type wireCommonDataObjectAttributes struct {
	AppName []byte                `asn1:"optional"`
	AppOID  asn1.ObjectIdentifier `asn1:"optional"`
}

type wireDataAttributes struct {
	Value wireObjectValue `asn1:"explicit,tag:1"`
}

type wireDODFEntry struct {
	Common     wireCommonObjectAttributes
	DataAttrs0 wireCommonDataObjectAttributes `asn1:"tag:0,explicit"`
	DataAttrs1 wireDataAttributes             `asn1:"tag:1,explicit"`
}

// decodeDODFEntry decodes one data-object directory file entry, per
// spec.md §4.H/§4.G.
func decodeDODFEntry(der []byte, appDF path.Path) (*Object, error) {
	var w wireDODFEntry
	rest, err := asn1.Unmarshal(der, &w)
	if err != nil {
		return nil, ckerr.Wrap(ckerr.Internal, err, "dodf: decode")
	}
	if len(rest) != 0 {
		return nil, ckerr.New(ckerr.Internal, "dodf: %d trailing bytes", len(rest))
	}

	obj := &Object{
		Label:   w.Common.Label,
		AuthID:  w.Common.AuthID,
		Content: der,
	}
	obj.Flags = objectFlagsFromBitString(w.Common.Flags)
	obj.UserConsent = w.Common.UserConsent

	info := &DataInfo{
		AppOID:   []int(w.DataAttrs0.AppOID),
		AppLabel: string(w.DataAttrs0.AppName),
	}
	if len(w.DataAttrs1.Value.Indirect) > 0 {
		p, err := path.New(path.FilePath, w.DataAttrs1.Value.Indirect)
		if err != nil {
			return nil, ckerr.Wrap(ckerr.Internal, err, "dodf: value path")
		}
		obj.Path = p
	} else if len(w.DataAttrs1.Value.Direct) > 0 {
		obj.Content = w.DataAttrs1.Value.Direct
	}
	obj.Payload = info
	return obj, nil
}

// encodeDODFEntry is the inverse of decodeDODFEntry.
func encodeDODFEntry(obj *Object) ([]byte, error) {
	info, _ := obj.Payload.(*DataInfo)
	if info == nil {
		return nil, ckerr.New(ckerr.InvalidArguments, "dodf: object has no DataInfo payload")
	}
	w := wireDODFEntry{
		Common: wireCommonObjectAttributes{
			Label:       obj.Label,
			Flags:       bitStringFromObjectFlags(obj.Flags),
			AuthID:      obj.AuthID,
			UserConsent: obj.UserConsent,
		},
		DataAttrs0: wireCommonDataObjectAttributes{
			AppName: []byte(info.AppLabel),
			AppOID:  asn1.ObjectIdentifier(info.AppOID),
		},
	}
	if obj.Path.Len() > 0 {
		w.DataAttrs1.Value.Indirect = obj.Path.Value
	} else {
		w.DataAttrs1.Value.Direct = obj.Content
	}
	der, err := asn1.Marshal(w)
	if err != nil {
		return nil, ckerr.Wrap(ckerr.Internal, err, "dodf: encode")
	}
	return der, nil
}
