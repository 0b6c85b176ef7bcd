package pkcs15

import (
	"testing"

	"github.com/opencard/pkcs15mw/path"
)

func TestODFRoundTrip(t *testing.T) {
	p1, _ := path.New(path.FilePath, []byte{0x50, 0x10})
	p2, _ := path.New(path.FilePath, []byte{0x50, 0x11})
	descs := []DFDescriptor{
		{Type: TypeAuthPIN, Path: p1},
		{Type: TypePrivateKey, Path: p2},
	}

	der, err := EncodeODF(descs)
	if err != nil {
		t.Fatalf("EncodeODF: %v", err)
	}
	got, err := parseODF(der)
	if err != nil {
		t.Fatalf("parseODF: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d descriptors, want 2", len(got))
	}
	if got[0].Type != TypeAuthPIN || !path.Equal(got[0].Path, p1) {
		t.Fatalf("descriptor 0 mismatch: %+v", got[0])
	}
	if got[1].Type != TypePrivateKey || !path.Equal(got[1].Path, p2) {
		t.Fatalf("descriptor 1 mismatch: %+v", got[1])
	}
}
