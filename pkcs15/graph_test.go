package pkcs15

import "testing"

func TestGraphAddRemoveInvariants(t *testing.T) {
	g := NewGraph()
	a := g.Add(Object{Type: TypeDataObject, Label: "a"})
	b := g.Add(Object{Type: TypeDataObject, Label: "b"})
	c := g.Add(Object{Type: TypeDataObject, Label: "c"})

	if g.At(a).next != b || g.At(b).prev != a || g.At(b).next != c || g.At(c).prev != b {
		t.Fatal("doubly-linked invariants broken after Add")
	}

	g.Remove(b)
	if g.At(a).next != c || g.At(c).prev != a {
		t.Fatal("doubly-linked invariants broken after Remove")
	}
	if g.At(b) != nil {
		t.Fatal("removed object still visible via At")
	}

	var seen []string
	g.Walk(func(idx int, obj *Object) bool {
		seen = append(seen, obj.Label)
		return true
	})
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "c" {
		t.Fatalf("Walk order = %v, want [a c]", seen)
	}
}

func TestSearchByID(t *testing.T) {
	g := NewGraph()
	g.Add(Object{Type: TypePrivateKey, Payload: &KeyInfo{ID: []byte{0x01}, Usage: 0x02}})
	g.Add(Object{Type: TypePrivateKey, Payload: &KeyInfo{ID: []byte{0x02}, Usage: 0x04}})

	obj := g.ByID([]byte{0x02})
	if obj == nil {
		t.Fatal("expected to find object with id 02")
	}
	ki := obj.Payload.(*KeyInfo)
	if ki.Usage != 0x04 {
		t.Fatalf("got usage %x, want 4", ki.Usage)
	}

	if g.ByID([]byte{0xFF}) != nil {
		t.Fatal("expected nil for unknown id")
	}
}

func TestFindPINByAuthID(t *testing.T) {
	g := NewGraph()
	g.Add(Object{Type: TypeAuthPIN, AuthID: []byte{0x01}, Payload: &AuthInfo{Flags: PinFlagSOPin}})
	g.Add(Object{Type: TypeAuthPIN, AuthID: []byte{0x02}})

	so := g.FindSOPIN()
	if so == nil || !idEqual(so.AuthID, []byte{0x01}) {
		t.Fatalf("FindSOPIN = %+v, want auth_id=01", so)
	}

	pin := g.FindPINByAuthID([]byte{0x02})
	if pin == nil {
		t.Fatal("expected to find pin with auth_id=02")
	}
}
