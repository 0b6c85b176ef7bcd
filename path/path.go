// Package path implements the card file identifier model of spec.md
// §3 ("Path") and §4.B: a tagged FILE_ID/DF_NAME/PATH value, textual
// parsing/printing, concatenation, and prefix comparison.
package path

import (
	"fmt"
	"strings"

	"github.com/opencard/pkcs15mw/byteutil"
)

// Kind tags which of the three path encodings Value holds.
type Kind int

const (
	// FileID is a bare 2-byte short file identifier.
	FileID Kind = iota
	// DFName is up to 16 bytes of an application identifier (AID).
	DFName
	// FilePath is a concatenation of 2-byte file IDs from the MF down.
	FilePath
)

func (k Kind) String() string {
	switch k {
	case FileID:
		return "FILE_ID"
	case DFName:
		return "DF_NAME"
	case FilePath:
		return "PATH"
	default:
		return "UNKNOWN"
	}
}

// MaxLen is the ISO 7816 path length ceiling (§3 invariant).
const MaxLen = 16

// Path is the tagged card file identifier of spec.md §3. AID carries
// an optional application-identifier prefix for PKCS#15 applications
// not rooted at 3F00; Index/Count are ranged-read hints and are not
// part of path identity.
type Path struct {
	Kind  Kind
	Value []byte
	AID   []byte

	HasIndexCount bool
	Index         int
	Count         int
}

// New builds a Path of the given kind, cloning value so the Path does
// not alias caller-owned memory.
func New(kind Kind, value []byte) (Path, error) {
	p := Path{Kind: kind, Value: byteutil.Clone(value)}
	if err := p.validate(); err != nil {
		return Path{}, err
	}
	return p, nil
}

func (p Path) validate() error {
	switch p.Kind {
	case FileID:
		if len(p.Value) != 2 {
			return fmt.Errorf("path: FILE_ID must be 2 bytes, got %d", len(p.Value))
		}
	case DFName:
		if len(p.Value) == 0 || len(p.Value) > MaxLen {
			return fmt.Errorf("path: DF_NAME must be 1..%d bytes, got %d", MaxLen, len(p.Value))
		}
	case FilePath:
		if len(p.Value)%2 != 0 {
			return fmt.Errorf("path: PATH must be an even number of bytes, got %d", len(p.Value))
		}
		if len(p.Value) > MaxLen {
			return fmt.Errorf("path: PATH exceeds %d bytes (%d)", MaxLen, len(p.Value))
		}
	default:
		return fmt.Errorf("path: unknown kind %d", p.Kind)
	}
	return nil
}

// Len returns the byte length of Value (AID is not counted — it is a
// separate selection prefix, not part of the path's own length bound).
func (p Path) Len() int { return len(p.Value) }

// WithAID returns a copy of p carrying the given AID prefix.
func (p Path) WithAID(aid []byte) Path {
	p.AID = byteutil.Clone(aid)
	return p
}

// WithRange returns a copy of p carrying an index/count read-range hint.
func (p Path) WithRange(index, count int) Path {
	p.HasIndexCount = true
	p.Index = index
	p.Count = count
	return p
}

// Equal compares two paths by value: kind, bytes, and AID must match.
// Index/Count hints are not part of identity.
func Equal(a, b Path) bool {
	return a.Kind == b.Kind && byteutil.Equal(a.Value, b.Value) && byteutil.Equal(a.AID, b.AID)
}

// Concat appends q's file-ID bytes onto p, per spec.md §3/§8 law 3:
// concatenating with an empty q is the identity; concatenation fails
// if either side is DF_NAME, or if the combined length exceeds
// MaxLen.
func Concat(p, q Path) (Path, error) {
	if q.Len() == 0 {
		return p, nil
	}
	if p.Kind == DFName || q.Kind == DFName {
		return Path{}, fmt.Errorf("path: cannot concatenate a DF_NAME path")
	}
	if p.Len()+q.Len() > MaxLen {
		return Path{}, fmt.Errorf("path: concatenation exceeds %d bytes (%d+%d)", MaxLen, p.Len(), q.Len())
	}
	out := Path{Kind: FilePath, AID: p.AID}
	out.Value = append(append([]byte{}, p.Value...), q.Value...)
	return out, nil
}

// ComparePrefix reports whether prefix's bytes are a leading prefix of
// path's bytes. The AID is not considered, matching §4.B exactly.
func ComparePrefix(prefix, p Path) bool {
	if prefix.Len() > p.Len() {
		return false
	}
	return byteutil.Equal(prefix.Value, p.Value[:prefix.Len()])
}

// Parse accepts the textual path format of §4.B: an optional leading
// 'i'/'I' marks FILE_ID, followed by hex digits with optional ':' or
// space separators. Without the marker the result is a PATH (or a
// FILE_ID if exactly 2 bytes decode, to match common single-file
// shorthand).
func Parse(s string) (Path, error) {
	forceFileID := false
	if len(s) > 0 && (s[0] == 'i' || s[0] == 'I') {
		forceFileID = true
		s = s[1:]
	}
	raw, err := byteutil.HexToBin(s)
	if err != nil {
		return Path{}, fmt.Errorf("path: parse %q: %w", s, err)
	}
	if len(raw) == 0 {
		return Path{}, fmt.Errorf("path: empty path")
	}
	if forceFileID || len(raw) == 2 {
		return New(FileID, raw)
	}
	return New(FilePath, raw)
}

// Print renders a path as "aid::hex" when an AID prefix is present,
// or "hex" otherwise — with a trailing "::" for a bare DF_NAME, per
// §4.B.
func Print(p Path) string {
	hex := strings.ToLower(byteutil.BinToHex(p.Value))
	if len(p.AID) > 0 {
		return strings.ToLower(byteutil.BinToHex(p.AID)) + "::" + hex
	}
	if p.Kind == DFName {
		return hex + "::"
	}
	return hex
}

func (p Path) String() string { return Print(p) }
