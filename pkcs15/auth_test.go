package pkcs15

import (
	"bytes"
	"testing"

	"github.com/opencard/pkcs15mw/path"
)

func TestAODFRoundTrip(t *testing.T) {
	p, err := path.New(path.FilePath, []byte{0x3F, 0x00, 0x50, 0x15})
	if err != nil {
		t.Fatalf("path.New: %v", err)
	}
	original := &AuthInfo{
		AuthMethod:   AuthMethodCHV,
		AuthID:       []byte{0x01},
		Flags:        PinFlagLocal | PinFlagCaseSensitive,
		Encoding:     EncodingASCIINumeric,
		MinLength:    4,
		StoredLength: 8,
		MaxLength:    8,
		Reference:    1,
		HasPad:       true,
		PadChar:      0xFF,
		Path:         p,
	}

	der, err := EncodeAODFEntry(original)
	if err != nil {
		t.Fatalf("EncodeAODFEntry: %v", err)
	}
	decoded, err := DecodeAODFEntry(der, path.Path{}, 0)
	if err != nil {
		t.Fatalf("DecodeAODFEntry: %v", err)
	}

	if decoded.AuthMethod != AuthMethodCHV {
		t.Fatalf("AuthMethod = %v, want CHV", decoded.AuthMethod)
	}
	if !bytes.Equal(decoded.AuthID, original.AuthID) {
		t.Fatalf("AuthID = % X, want % X", decoded.AuthID, original.AuthID)
	}
	if decoded.Flags != original.Flags {
		t.Fatalf("Flags = %v, want %v", decoded.Flags, original.Flags)
	}
	if decoded.MinLength != 4 || decoded.StoredLength != 8 || decoded.MaxLength != 8 {
		t.Fatalf("lengths mismatch: %+v", decoded)
	}
	if decoded.Reference != 1 {
		t.Fatalf("Reference = %d, want 1", decoded.Reference)
	}
	if !decoded.HasPad || decoded.PadChar != 0xFF {
		t.Fatalf("pad mismatch: %+v", decoded)
	}
	if !path.Equal(decoded.Path, original.Path) {
		t.Fatalf("Path = %v, want %v", decoded.Path, original.Path)
	}
}

func TestNormalizeNegativeReference(t *testing.T) {
	a := &AuthInfo{Reference: -1}
	a.Normalize(0)
	if a.Reference != 255 {
		t.Fatalf("Reference = %d, want 255", a.Reference)
	}
}

func TestNormalizeMaxLengthDefaults(t *testing.T) {
	bcd := &AuthInfo{Encoding: EncodingBCD, StoredLength: 4}
	bcd.Normalize(0)
	if bcd.MaxLength != 8 {
		t.Fatalf("BCD default MaxLength = %d, want 8 (2x stored)", bcd.MaxLength)
	}

	ascii := &AuthInfo{Encoding: EncodingASCIINumeric, StoredLength: 6}
	ascii.Normalize(0)
	if ascii.MaxLength != 6 {
		t.Fatalf("ASCII default MaxLength = %d, want 6 (stored)", ascii.MaxLength)
	}

	none := &AuthInfo{Encoding: EncodingASCIINumeric}
	none.Normalize(0)
	if none.MaxLength != 8 {
		t.Fatalf("fallback default MaxLength = %d, want 8", none.MaxLength)
	}

	withCardMax := &AuthInfo{Encoding: EncodingBCD, StoredLength: 4}
	withCardMax.Normalize(32)
	if withCardMax.MaxLength != 32 {
		t.Fatalf("card max should win, got %d", withCardMax.MaxLength)
	}
}
