package pkcs15

import (
	"github.com/opencard/pkcs15mw/ckerr"
	"github.com/opencard/pkcs15mw/file"
	"github.com/opencard/pkcs15mw/path"
)

// Options are the recognized configuration knobs of spec.md §6.
type Options struct {
	UseFileCache    bool
	UsePinCache     bool
	PinCacheCounter int
}

// TokenInfo mirrors PKCS#15's TokenInfo EF: identifying information
// about the token, read once at bind time.
type TokenInfo struct {
	Version      int
	SerialNumber []byte
	Label        string
	Manufacturer string
	Flags        uint32
}

// DFDescriptor is one entry read from the ODF: which directory-file
// type it names and where to find it.
type DFDescriptor struct {
	Type ObjectType
	Path path.Path
}

// FileReader is the capability Card needs from the command layer:
// select a path and read a transparent EF's full contents.
// iso7816.Card satisfies this.
type FileReader interface {
	SelectAndReadBinary(p path.Path) (*file.File, []byte, error)
}

// Card is the PKCS#15 root aggregate of spec.md §3: the three
// well-known file handles, the DF list, the object graph, token info,
// the unused-space list, and options. Unlike the source, there is no
// magic field — a *Card obtained from Bind is valid for as long as
// it's referenced (spec.md §9).
type Card struct {
	Reader FileReader

	AppDF     path.Path
	TokenInfo path.Path
	ODF       path.Path

	DFs []DFDescriptor

	Objects *Graph
	Info    TokenInfo

	UnusedSpace []path.Path // free byte ranges available for new objects

	Options Options
}

// Bind constructs a Card rooted at appDF and reads the ODF at odf to
// enumerate DF descriptors by type. Both paths come from the caller:
// Bind does not look up EF(DIR) or an AID, and does not select appDF.
// Directory files named by the ODF are NOT read here — Card.Load does
// that lazily, on first access to objects of that type.
func Bind(r FileReader, appDF path.Path, odf path.Path, opts Options) (*Card, error) {
	if opts.UseFileCache {
		r = FileCache{Reader: r}
	}
	c := &Card{
		Reader:  r,
		AppDF:   appDF,
		ODF:     odf,
		Objects: NewGraph(),
		Options: opts,
	}
	_, raw, err := r.SelectAndReadBinary(odf)
	if err != nil {
		return nil, err
	}
	dfs, err := parseODF(raw)
	if err != nil {
		return nil, err
	}
	c.DFs = dfs
	return c, nil
}

// Load reads and parses every DF descriptor of the given type and adds
// their entries to c.Objects; if c.Objects already holds an object of
// that type, Load returns without reading anything. Per spec.md §4.G,
// "then reads/parses each DF on demand" — this is the lazy step.
func (c *Card) Load(t ObjectType) error {
	loaded := false
	c.Objects.Walk(func(_ int, obj *Object) bool {
		loaded = obj.Type == t
		return !loaded
	})
	if loaded {
		return nil
	}
	for _, df := range c.DFs {
		if df.Type != t {
			continue
		}
		_, raw, err := c.Reader.SelectAndReadBinary(df.Path)
		if err != nil {
			return err
		}
		entries, err := splitSequenceOfEntries(raw)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			obj, err := decodeEntry(t, entry, c.AppDF)
			if err != nil {
				return err
			}
			c.Objects.Add(*obj)
		}
	}
	return nil
}

// decodeEntry dispatches a single DF entry's DER bytes to the
// type-appropriate ASN.1 decoder, producing the Object the graph
// stores, per spec.md §4.H's per-type template list (AODF/PrKDF/
// PuKDF/CDF/DODF).
func decodeEntry(t ObjectType, der []byte, appDF path.Path) (*Object, error) {
	switch t {
	case TypeAuthPIN:
		info, err := DecodeAODFEntry(der, appDF, CardMaxPINSize)
		if err != nil {
			return nil, err
		}
		return &Object{Type: TypeAuthPIN, AuthID: info.AuthID, Content: der, Payload: info, Path: info.Path}, nil
	case TypePrivateKey, TypePublicKey:
		obj, err := decodeKeyEntry(der, appDF)
		if err != nil {
			return nil, err
		}
		obj.Type = t
		return obj, nil
	case TypeCertificate:
		obj, err := decodeCDFEntry(der, appDF)
		if err != nil {
			return nil, err
		}
		obj.Type = t
		return obj, nil
	case TypeDataObject:
		obj, err := decodeDODFEntry(der, appDF)
		if err != nil {
			return nil, err
		}
		obj.Type = t
		return obj, nil
	default:
		return &Object{Type: t, Content: der}, nil
	}
}

// EncodeEntry is the inverse of decodeEntry, re-serializing an
// already-decoded Object the way it would have come off the card.
// Used by the round-trip property of spec.md §8 and by a future
// personalization path.
func EncodeEntry(obj *Object) ([]byte, error) {
	switch obj.Type {
	case TypeAuthPIN:
		info, _ := obj.Payload.(*AuthInfo)
		if info == nil {
			return nil, ckerr.New(ckerr.InvalidArguments, "aodf: object has no AuthInfo payload")
		}
		return EncodeAODFEntry(info)
	case TypePrivateKey, TypePublicKey:
		return encodeKeyEntry(obj)
	case TypeCertificate:
		return encodeCDFEntry(obj)
	case TypeDataObject:
		return encodeDODFEntry(obj)
	default:
		return obj.Content, nil
	}
}
