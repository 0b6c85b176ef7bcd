package path

import "testing"

func TestParseFileIDMarker(t *testing.T) {
	p, err := Parse("i3F00")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Kind != FileID {
		t.Fatalf("got kind %v, want FILE_ID", p.Kind)
	}
}

func TestParseSeparators(t *testing.T) {
	p, err := Parse("3F:00 50:15")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Kind != FilePath || p.Len() != 4 {
		t.Fatalf("got kind=%v len=%d, want PATH len=4", p.Kind, p.Len())
	}
}

func TestConcatIdentity(t *testing.T) {
	p, _ := New(FilePath, []byte{0x3F, 0x00})
	empty := Path{Kind: FilePath}
	r, err := Concat(p, empty)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if !Equal(r, p) {
		t.Fatalf("Concat(p, empty) != p")
	}
}

func TestConcatRejectsDFName(t *testing.T) {
	a, _ := New(DFName, []byte{0xA0, 0x00})
	b, _ := New(FilePath, []byte{0x50, 0x15})
	if _, err := Concat(a, b); err == nil {
		t.Fatal("expected error concatenating DF_NAME")
	}
}

func TestConcatRejectsOverlong(t *testing.T) {
	a, _ := New(FilePath, make([]byte, 14))
	b, _ := New(FilePath, []byte{0x00, 0x01, 0x00, 0x02})
	if _, err := Concat(a, b); err == nil {
		t.Fatal("expected error for >16 byte concatenation")
	}
}

func TestComparePrefix(t *testing.T) {
	mf, _ := New(FilePath, []byte{0x3F, 0x00})
	full, err := Concat(mf, mustPath(t, FilePath, []byte{0x50, 0x15}))
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if !ComparePrefix(mf, full) {
		t.Fatal("expected mf to prefix full")
	}
	if ComparePrefix(full, mf) {
		t.Fatal("full should not prefix mf")
	}
}

func TestPrintPath(t *testing.T) {
	p, _ := New(FilePath, []byte{0x3F, 0x00, 0x50, 0x15})
	if got, want := Print(p), "3f005015"; got != want {
		t.Fatalf("Print = %q, want %q", got, want)
	}

	df, _ := New(DFName, []byte{0xA0, 0x00})
	if got, want := Print(df), "a000::"; got != want {
		t.Fatalf("Print(DF_NAME) = %q, want %q", got, want)
	}

	withAID := p.WithAID([]byte{0xA0, 0x01})
	if got, want := Print(withAID), "a001::3f005015"; got != want {
		t.Fatalf("Print(with AID) = %q, want %q", got, want)
	}
}

func mustPath(t *testing.T, k Kind, v []byte) Path {
	t.Helper()
	p, err := New(k, v)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}
