package secure

import "testing"

func TestClearScrubs(t *testing.T) {
	b := New([]byte{1, 2, 3, 4})
	raw := b.Bytes()
	b.Clear()
	for i, c := range raw {
		if c != 0 {
			t.Fatalf("byte %d not scrubbed: %x", i, c)
		}
	}
	if b.Bytes() != nil {
		t.Fatal("expected nil buffer after Clear")
	}
}

func TestClearIdempotent(t *testing.T) {
	b := New([]byte{1, 2, 3})
	b.Clear()
	b.Clear() // must not panic
}

func TestClearNilReceiver(t *testing.T) {
	var b *Bytes
	b.Clear() // must not panic
}

func TestWipe(t *testing.T) {
	buf := []byte{1, 2, 3}
	Wipe(buf)
	for _, c := range buf {
		if c != 0 {
			t.Fatal("Wipe left nonzero byte")
		}
	}
}
