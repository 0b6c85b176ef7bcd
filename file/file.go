// Package file models a card file after SELECT, per spec.md §3
// ("File (FCI)"): identifier, type, EF structure, size, record
// layout, DF name, opaque attribute blobs, and the per-operation
// ACL array.
//
// The source guards File lifetime with a magic word checked on every
// use, to catch use-after-free in a language with manual memory
// management. In Go, ownership is enforced by the type system and
// the garbage collector instead (spec.md §9, "Magic-field 'validity'
// checks"): a *File obtained from Select is valid for as long as the
// caller holds a reference to it, full stop. There is no Free and no
// magic field here.
package file

import "github.com/opencard/pkcs15mw/acl"

// Type distinguishes the three file categories the FCI descriptor
// byte (tag 0x82) can report.
type Type int

const (
	TypeDF Type = iota
	TypeWorkingEF
	TypeInternalEF
)

// EFStructure is the elementary-file organization (transparent,
// linear-fixed, cyclic, …), taken from the low 3 bits of the FCI
// descriptor byte.
type EFStructure int

const (
	StructUnknown EFStructure = iota
	StructTransparent
	StructLinearFixed
	StructLinearVariable
	StructCyclic
)

// File is the in-memory representation of a card file built from a
// SELECT response's FCI TLV.
type File struct {
	ID          uint16
	Type        Type
	EFStructure EFStructure
	Shareable   bool

	Size         uint16
	RecordLength uint16
	RecordCount  uint16

	DFName []byte // up to 16 bytes

	SecurityAttr    []byte // tag 0x86, opaque
	ProprietaryAttr []byte // tag 0x85/0xA5, opaque
	TypeAttr        []byte // raw descriptor bytes (tag 0x82), opaque

	Status byte

	ACL acl.Array
}

// New returns a File with every ACL slot Unknown, matching a freshly
// allocated FCI before SELECT's response has been parsed into it.
func New() *File {
	return &File{ACL: acl.NewArray()}
}

// IsDF reports whether this file is a dedicated file (directory).
func (f *File) IsDF() bool { return f.Type == TypeDF }

// Dup returns a deep copy of f. Per spec.md §4.B ("dup(file)"): if
// this ever needs to report partial-allocation failure the contract
// is to collapse to returning nil, but in Go the only sub-allocations
// are slice copies, which cannot themselves fail short of OOM (which
// Go reports by panicking, not by a recoverable error) — so Dup
// always succeeds.
func (f *File) Dup() *File {
	if f == nil {
		return nil
	}
	cp := *f
	cp.DFName = append([]byte(nil), f.DFName...)
	cp.SecurityAttr = append([]byte(nil), f.SecurityAttr...)
	cp.ProprietaryAttr = append([]byte(nil), f.ProprietaryAttr...)
	cp.TypeAttr = append([]byte(nil), f.TypeAttr...)
	return &cp
}
