package pkcs15

import (
	"bytes"
	"testing"

	"github.com/opencard/pkcs15mw/path"
)

func TestCertificateEntryRoundTrip(t *testing.T) {
	p, err := path.New(path.FilePath, []byte{0x3F, 0x00, 0x41, 0x00, 0x43, 0x11})
	if err != nil {
		t.Fatalf("path.New: %v", err)
	}
	original := &Object{
		Type:  TypeCertificate,
		Label: "Authentication Certificate",
		Path:  p,
		Payload: &CertInfo{
			ID: []byte{0x45},
		},
	}

	der, err := encodeCDFEntry(original)
	if err != nil {
		t.Fatalf("encodeCDFEntry: %v", err)
	}
	decoded, err := decodeCDFEntry(der, path.Path{})
	if err != nil {
		t.Fatalf("decodeCDFEntry: %v", err)
	}
	if decoded.Label != original.Label {
		t.Fatalf("Label = %q, want %q", decoded.Label, original.Label)
	}
	if !path.Equal(decoded.Path, original.Path) {
		t.Fatalf("Path = %v, want %v", decoded.Path, original.Path)
	}
	info := decoded.Payload.(*CertInfo)
	if !bytes.Equal(info.ID, []byte{0x45}) {
		t.Fatalf("ID = % X, want 45", info.ID)
	}
}

func TestCertificateEntryInlineValue(t *testing.T) {
	der, err := encodeCDFEntry(&Object{
		Payload: &CertInfo{ID: []byte{0x01}, Value: []byte{0x30, 0x03, 0x02, 0x01, 0x01}},
	})
	if err != nil {
		t.Fatalf("encodeCDFEntry: %v", err)
	}
	decoded, err := decodeCDFEntry(der, path.Path{})
	if err != nil {
		t.Fatalf("decodeCDFEntry: %v", err)
	}
	info := decoded.Payload.(*CertInfo)
	if !bytes.Equal(info.Value, []byte{0x30, 0x03, 0x02, 0x01, 0x01}) {
		t.Fatalf("Value = % X, want inline DER", info.Value)
	}
}

func TestDataObjectEntryRoundTrip(t *testing.T) {
	original := &Object{
		Type:    TypeDataObject,
		Label:   "applet cache",
		Content: []byte{0xDE, 0xAD, 0xBE, 0xEF},
		Payload: &DataInfo{
			AppOID:   []int{1, 2, 840, 113549, 1, 1, 1},
			AppLabel: "OpenSC",
		},
	}

	der, err := encodeDODFEntry(original)
	if err != nil {
		t.Fatalf("encodeDODFEntry: %v", err)
	}
	decoded, err := decodeDODFEntry(der, path.Path{})
	if err != nil {
		t.Fatalf("decodeDODFEntry: %v", err)
	}
	if decoded.Label != original.Label {
		t.Fatalf("Label = %q, want %q", decoded.Label, original.Label)
	}
	info := decoded.Payload.(*DataInfo)
	if info.AppLabel != "OpenSC" {
		t.Fatalf("AppLabel = %q, want OpenSC", info.AppLabel)
	}
	want := []int{1, 2, 840, 113549, 1, 1, 1}
	if len(info.AppOID) != len(want) {
		t.Fatalf("AppOID = %v, want %v", info.AppOID, want)
	}
	for i := range want {
		if info.AppOID[i] != want[i] {
			t.Fatalf("AppOID = %v, want %v", info.AppOID, want)
		}
	}
	if !bytes.Equal(decoded.Content, original.Content) {
		t.Fatalf("Content = % X, want % X", decoded.Content, original.Content)
	}
}
