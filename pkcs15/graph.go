package pkcs15

import "github.com/opencard/pkcs15mw/path"

const none = -1

// Graph is the arena-indexed object graph of spec.md §9: rather than
// weaving raw parent/child pointers, every cross-reference (the
// object list's prev/next) is a stable index into arena. The PKCS#15 card aggregate owns one Graph.
type Graph struct {
	arena []Object
	head  int
	tail  int
}

// NewGraph returns an empty object graph.
func NewGraph() *Graph {
	return &Graph{head: none, tail: none}
}

// Len returns the number of live objects.
func (g *Graph) Len() int {
	n := 0
	for i := range g.arena {
		if !g.arena[i].removed {
			n++
		}
	}
	return n
}

// Add appends obj to the object list, returning its stable index.
// Preserves the invariant obj.prev.next == obj && obj.next.prev ==
// obj (spec.md §3 invariants) by construction: the new tail's next
// is always none.
func (g *Graph) Add(obj Object) int {
	obj.prev, obj.next = g.tail, none
	idx := len(g.arena)
	g.arena = append(g.arena, obj)
	if g.tail != none {
		g.arena[g.tail].next = idx
	} else {
		g.head = idx
	}
	g.tail = idx
	return idx
}

// Remove unlinks the object at idx from the list. The arena slot
// itself is left in place (indices must stay stable for other
// objects' links) but is marked removed so Walk and Search skip it.
func (g *Graph) Remove(idx int) {
	if idx < 0 || idx >= len(g.arena) {
		return
	}
	obj := &g.arena[idx]
	if obj.removed {
		return
	}
	if obj.prev != none {
		g.arena[obj.prev].next = obj.next
	} else {
		g.head = obj.next
	}
	if obj.next != none {
		g.arena[obj.next].prev = obj.prev
	} else {
		g.tail = obj.prev
	}
	obj.removed = true
}

// At returns a pointer to the object at idx, or nil if idx is out of
// range or the object has been removed.
func (g *Graph) At(idx int) *Object {
	if idx < 0 || idx >= len(g.arena) || g.arena[idx].removed {
		return nil
	}
	return &g.arena[idx]
}

// Walk calls fn for every live object in list order, stopping early
// if fn returns false.
func (g *Graph) Walk(fn func(idx int, obj *Object) bool) {
	for i := g.head; i != none; {
		obj := &g.arena[i]
		next := obj.next
		if !obj.removed && !fn(i, obj) {
			return
		}
		i = next
	}
}

// SearchKey filters Search; a zero-value field in a mask means "don't
// filter on this dimension", matching spec.md §4.G's search_objects.
type SearchKey struct {
	TypeMask    []ObjectType // nil = any type
	ID          []byte       // nil = any id
	Path        *path.Path   // nil = any path
	UsageMask   uint32
	UsageValue  uint32
	FlagsMask   ObjectFlags
	FlagsValue  ObjectFlags
	Reference   *byte
	Label       string
	AppLabel    string
}

// Search returns up to capacity indices of objects matching key.
// capacity <= 0 means unbounded.
func (g *Graph) Search(key SearchKey, capacity int) []int {
	var out []int
	g.Walk(func(idx int, obj *Object) bool {
		if !matches(key, obj) {
			return true
		}
		out = append(out, idx)
		return capacity <= 0 || len(out) < capacity
	})
	return out
}

func matches(key SearchKey, obj *Object) bool {
	if key.TypeMask != nil {
		found := false
		for _, t := range key.TypeMask {
			if t == obj.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if key.ID != nil && !idEqual(key.ID, objectID(obj)) {
		return false
	}
	if key.Path != nil && !path.Equal(*key.Path, obj.Path) {
		return false
	}
	if key.FlagsMask != 0 && obj.Flags&key.FlagsMask != key.FlagsValue {
		return false
	}
	if key.UsageMask != 0 {
		if ki, ok := obj.Payload.(*KeyInfo); ok {
			if ki.Usage&key.UsageMask != key.UsageValue {
				return false
			}
		} else {
			return false
		}
	}
	if key.Reference != nil {
		if ki, ok := obj.Payload.(*KeyInfo); !ok || ki.KeyReference != int(*key.Reference) {
			return false
		}
	}
	if key.Label != "" && obj.Label != key.Label {
		return false
	}
	if key.AppLabel != "" {
		di, ok := obj.Payload.(*DataInfo)
		if !ok || di.AppLabel != key.AppLabel {
			return false
		}
	}
	return true
}

func objectID(obj *Object) []byte {
	switch p := obj.Payload.(type) {
	case *KeyInfo:
		return p.ID
	case *CertInfo:
		return p.ID
	}
	return nil
}

func idEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ByID is the convenience lookup of spec.md §4.G.
func (g *Graph) ByID(id []byte) *Object {
	idxs := g.Search(SearchKey{ID: id}, 1)
	if len(idxs) == 0 {
		return nil
	}
	return g.At(idxs[0])
}

// ByIDAndUsage narrows ByID to keys usable for the given usage bit(s).
func (g *Graph) ByIDAndUsage(id []byte, usageMask uint32) *Object {
	idxs := g.Search(SearchKey{ID: id, UsageMask: usageMask, UsageValue: usageMask}, 1)
	if len(idxs) == 0 {
		return nil
	}
	return g.At(idxs[0])
}

// ByReference finds a key object by its card key reference.
func (g *Graph) ByReference(ref byte) *Object {
	idxs := g.Search(SearchKey{Reference: &ref}, 1)
	if len(idxs) == 0 {
		return nil
	}
	return g.At(idxs[0])
}

// FindSOPIN returns the first AuthPIN object flagged as a Security
// Officer PIN (its AuthInfo.Flags carries SOPin).
func (g *Graph) FindSOPIN() *Object {
	var found *Object
	g.Walk(func(idx int, obj *Object) bool {
		if obj.Type != TypeAuthPIN {
			return true
		}
		ai, ok := obj.Payload.(*AuthInfo)
		if ok && ai.Flags&PinFlagSOPin != 0 {
			found = obj
			return false
		}
		return true
	})
	return found
}

// FindPINByAuthID returns the AuthPIN object whose AuthID equals id.
func (g *Graph) FindPINByAuthID(id []byte) *Object {
	var found *Object
	g.Walk(func(idx int, obj *Object) bool {
		if obj.Type != TypeAuthPIN {
			return true
		}
		if idEqual(obj.AuthID, id) {
			found = obj
			return false
		}
		return true
	})
	return found
}
