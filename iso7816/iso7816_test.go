package iso7816

import (
	"bytes"
	"testing"

	"github.com/opencard/pkcs15mw/file"
	pth "github.com/opencard/pkcs15mw/path"
)

type fakeTransmitter struct {
	responses [][]byte
	calls     [][]byte
}

func (f *fakeTransmitter) Transmit(cmd []byte) ([]byte, error) {
	f.calls = append(f.calls, append([]byte(nil), cmd...))
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r, nil
}

func TestPSOSignWireBytes(t *testing.T) {
	hash := bytes.Repeat([]byte{0xAB}, 20)
	sig := bytes.Repeat([]byte{0xCD}, 128)
	ft := &fakeTransmitter{responses: [][]byte{append(append([]byte(nil), sig...), 0x90, 0x00)}}

	c := Card{T: ft}
	got, err := c.PSOSign(hash, 0)
	if err != nil {
		t.Fatalf("PSOSign: %v", err)
	}
	if !bytes.Equal(got, sig) {
		t.Fatalf("signature mismatch")
	}
	wantHeader := []byte{0x00, 0x2A, 0x9E, 0x9A, 0x14}
	if !bytes.Equal(ft.calls[0][:5], wantHeader) {
		t.Fatalf("got header % X, want % X", ft.calls[0][:5], wantHeader)
	}
	if !bytes.Equal(ft.calls[0][5:25], hash) {
		t.Fatal("hash not embedded verbatim")
	}
}

func TestSelectStripsMFPrefix(t *testing.T) {
	ft := &fakeTransmitter{responses: [][]byte{{0x90, 0x00}}}
	c := Card{T: ft}
	p, err := pth.New(pth.FilePath, []byte{0x3F, 0x00, 0x50, 0x15})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Select(p); err != nil {
		t.Fatalf("Select: %v", err)
	}
	want := []byte{0x00, 0xA4, 0x08, 0x02, 0x02, 0x50, 0x15, 0x00}
	if !bytes.Equal(ft.calls[0], want) {
		t.Fatalf("got % X, want % X", ft.calls[0], want)
	}
}

func TestParseFCIBasic(t *testing.T) {
	// Constructed FCI (tag 0x62): file id 5015, working transparent EF, size 128.
	fci := []byte{
		0x62, 0x0B,
		0x80, 0x02, 0x00, 0x80,
		0x82, 0x01, 0x00,
		0x83, 0x02, 0x50, 0x15,
	}
	f, err := ParseFCI(fci)
	if err != nil {
		t.Fatalf("ParseFCI: %v", err)
	}
	if f.ID != 0x5015 {
		t.Fatalf("got ID %04X, want 5015", f.ID)
	}
	if f.Type != file.TypeWorkingEF || f.EFStructure != file.StructTransparent {
		t.Fatalf("got type=%v struct=%v", f.Type, f.EFStructure)
	}
	if f.Size != 0x0080 {
		t.Fatalf("got size %d, want 128", f.Size)
	}
}

func TestDecodeDescriptorIndependentFields(t *testing.T) {
	cases := []struct {
		b         byte
		wantType  file.Type
		wantStruct file.EFStructure
	}{
		// type=working EF (000), structure=linear fixed (010): the
		// type bits alone used to decide StructTransparent by falling
		// into the old combined-byte default case.
		{0x02, file.TypeWorkingEF, file.StructLinearFixed},
		// type=working EF (000), structure=cyclic (110).
		{0x06, file.TypeWorkingEF, file.StructCyclic},
		// type=internal EF (001), structure=transparent (001):
		// shareable bit also set.
		{0x49, file.TypeInternalEF, file.StructTransparent},
		// type=DF (111), structure bits irrelevant but must not be
		// clobbered by the type decode.
		{0x39, file.TypeDF, file.StructTransparent},
	}
	for _, tc := range cases {
		f := file.New()
		decodeDescriptor(tc.b, f)
		if f.Type != tc.wantType || f.EFStructure != tc.wantStruct {
			t.Fatalf("decodeDescriptor(%#02x) = type=%v struct=%v, want type=%v struct=%v",
				tc.b, f.Type, f.EFStructure, tc.wantType, tc.wantStruct)
		}
	}
}

func TestReadRecordEncodesSFIIntoP2(t *testing.T) {
	ft := &fakeTransmitter{responses: [][]byte{{0x01, 0x02, 0x03, 0x90, 0x00}}}
	c := Card{T: ft}
	buf := make([]byte, 3)
	n, err := c.ReadRecord(0x05, 1, RecordAbsolute, buf)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	wantP2 := byte(0x05<<3 | byte(RecordAbsolute))
	if ft.calls[0][3] != wantP2 {
		t.Fatalf("P2 = %#02x, want %#02x", ft.calls[0][3], wantP2)
	}
}

func TestReadRecordZeroSFIAddressesCurrentEF(t *testing.T) {
	ft := &fakeTransmitter{responses: [][]byte{{0x90, 0x00}}}
	c := Card{T: ft}
	if err := c.UpdateRecord(0, 1, RecordFirst, []byte{0xAA}); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if ft.calls[0][3] != byte(RecordFirst) {
		t.Fatalf("P2 = %#02x, want %#02x", ft.calls[0][3], byte(RecordFirst))
	}
}
