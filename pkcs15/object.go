// Package pkcs15 implements the cryptographic token object model of
// spec.md §4.G/§4.H: directory files, the in-memory object graph,
// search, and the ASN.1 entry codec for AODF/PrKDF/PuKDF/CDF/DODF
// entries.
package pkcs15

import "github.com/opencard/pkcs15mw/path"

// ObjectType discriminates the PKCS#15 object kinds a directory file
// entry can describe.
type ObjectType int

const (
	TypePrivateKey ObjectType = iota
	TypePublicKey
	TypeCertificate
	TypeDataObject
	TypeAuthPIN
)

// ObjectFlags are the common object attribute bits of spec.md §3.
type ObjectFlags uint8

const (
	FlagPrivate ObjectFlags = 1 << iota
	FlagModifiable
	FlagSeen
)

// AccessRule pairs an access-method reference with the access mode it
// grants, per PKCS#15's AccessControlRule.
type AccessRule struct {
	Reference  byte
	AccessMode byte
}

const maxAccessRules = 8

// Object is a discriminated PKCS#15 entity, per spec.md §3. It is
// held in a Graph's arena and referenced by index; Prev/Next are
// arena indices forming the doubly-linked object list, with -1
// marking an absent link.
type Object struct {
	Type ObjectType

	Label string // up to 255 bytes, not necessarily zero-terminated in memory here
	Flags ObjectFlags

	AuthID []byte // empty if this object needs no authentication

	AccessRules   [maxAccessRules]AccessRule
	NumAccessRules int

	UserConsent int

	Content []byte // cached DER for this object's own encoding
	Path    path.Path

	// Payload carries the type-specific decoded attributes: *AuthInfo
	// for TypeAuthPIN, *KeyInfo for the two key types, *CertInfo for
	// TypeCertificate, *DataInfo for TypeDataObject.
	Payload any

	prev, next int
	removed    bool
}

// KeyInfo holds the type-specific attributes PrKDF/PuKDF entries
// carry beyond the common object attributes.
type KeyInfo struct {
	ID        []byte
	Usage     uint32
	Native    bool
	AccessFlags uint8
	KeyReference int
	ModulusBits  int
}

// CertInfo holds the type-specific attributes a CDF entry carries.
type CertInfo struct {
	ID    []byte
	Value []byte // inline DER, when not stored via Path
}

// DataInfo holds the type-specific attributes a DODF entry carries.
type DataInfo struct {
	AppOID    []int
	AppLabel  string
}
