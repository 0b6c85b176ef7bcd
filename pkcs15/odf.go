package pkcs15

import (
	"encoding/asn1"

	"github.com/opencard/pkcs15mw/ckerr"
	"github.com/opencard/pkcs15mw/path"
)

// odfTag maps an ODF context tag to the DF type it names, mirroring
// PKCS#15's PKCS15Objects CHOICE.
var odfTag = map[int]ObjectType{
	0: TypePrivateKey,
	1: TypePublicKey,
	4: TypeCertificate,
	7: TypeDataObject,
	8: TypeAuthPIN,
}

var odfTagByType = func() map[ObjectType]int {
	m := make(map[ObjectType]int, len(odfTag))
	for tag, t := range odfTag {
		m[t] = tag
	}
	return m
}()

// parseODF decodes a sequence of context-tagged DF path records, per
// spec.md §4.G ("reads ODF to enumerate DF descriptors by type").
func parseODF(raw []byte) ([]DFDescriptor, error) {
	var entries []asn1.RawValue
	rest, err := asn1.Unmarshal(raw, &entries)
	if err != nil || len(rest) != 0 {
		return nil, ckerr.New(ckerr.Internal, "odf: malformed directory file")
	}

	var out []DFDescriptor
	for _, e := range entries {
		t, ok := odfTag[e.Tag]
		if !ok {
			continue // unrecognized DF type; skip rather than fail the whole bind
		}
		var pathBytes []byte
		if _, err := asn1.Unmarshal(e.Bytes, &pathBytes); err != nil {
			return nil, ckerr.Wrap(ckerr.Internal, err, "odf: entry path")
		}
		p, err := path.New(path.FilePath, pathBytes)
		if err != nil {
			return nil, ckerr.Wrap(ckerr.Internal, err, "odf: entry path")
		}
		out = append(out, DFDescriptor{Type: t, Path: p})
	}
	return out, nil
}

// EncodeODF is the inverse of parseODF, used by tests and by a future
// personalization path; not part of the read-only middleware's own
// call graph.
func EncodeODF(descs []DFDescriptor) ([]byte, error) {
	var entries []asn1.RawValue
	for _, d := range descs {
		tag, ok := odfTagByType[d.Type]
		if !ok {
			continue
		}
		pathDER, err := asn1.Marshal(d.Path.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: tag, IsCompound: true, Bytes: pathDER})
	}
	return asn1.Marshal(entries)
}

// splitSequenceOfEntries splits a DF's raw bytes (a BER SEQUENCE OF
// PKCS15Object) into each member object's own encoded bytes.
func splitSequenceOfEntries(raw []byte) ([][]byte, error) {
	var entries []asn1.RawValue
	rest, err := asn1.Unmarshal(raw, &entries)
	if err != nil || len(rest) != 0 {
		return nil, ckerr.New(ckerr.Internal, "directory file: malformed entry list")
	}
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.FullBytes
	}
	return out, nil
}
