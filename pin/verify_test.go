package pin

import (
	"bytes"
	"errors"
	"testing"

	"github.com/opencard/pkcs15mw/file"
	"github.com/opencard/pkcs15mw/path"
	"github.com/opencard/pkcs15mw/pkcs15"
)

type fakeCard struct {
	selected    path.Path
	verifyData  []byte
	verifyErr   error
	changeOld   []byte
	changeNew   []byte
	resetPuk    []byte
	resetNew    []byte
}

func (f *fakeCard) Select(p path.Path) (*file.File, error) {
	f.selected = p
	return file.New(), nil
}

func (f *fakeCard) Verify(keyRef byte, data []byte) error {
	f.verifyData = data
	return f.verifyErr
}

func (f *fakeCard) ChangeReferenceData(keyRef byte, oldData, newData []byte) error {
	f.changeOld, f.changeNew = oldData, newData
	return nil
}

func (f *fakeCard) ResetRetryCounter(keyRef byte, puk, newData []byte) error {
	f.resetPuk, f.resetNew = puk, newData
	return nil
}

func TestVerifyPINSuccess(t *testing.T) {
	info := &pkcs15.AuthInfo{
		AuthMethod: pkcs15.AuthMethodCHV, Encoding: pkcs15.EncodingASCIINumeric,
		MinLength: 4, MaxLength: 8, Reference: 1,
	}
	card := &fakeCard{}
	cache := NewCache(3)
	if err := VerifyPIN(card, info, "1234", false, cache); err != nil {
		t.Fatalf("VerifyPIN: %v", err)
	}
	if !bytes.Equal(card.verifyData, []byte("1234")) {
		t.Fatalf("verify data = %q", card.verifyData)
	}
	if data, ok := cache.Reuse(); !ok || string(data) != "1234" {
		t.Fatal("expected cache populated after successful verify")
	}
}

func TestVerifyPINEmptyRequiresPINPad(t *testing.T) {
	info := &pkcs15.AuthInfo{AuthMethod: pkcs15.AuthMethodCHV, MinLength: 4, MaxLength: 8}
	card := &fakeCard{}
	if err := VerifyPIN(card, info, "", false, nil); err == nil {
		t.Fatal("expected error for empty pin without pin-pad")
	}
	if err := VerifyPIN(card, info, "", true, nil); !errors.Is(err, ErrUsePINPad) {
		t.Fatalf("got %v, want ErrUsePINPad", err)
	}
}

func TestVerifyPINFailureClearsCache(t *testing.T) {
	info := &pkcs15.AuthInfo{AuthMethod: pkcs15.AuthMethodCHV, MinLength: 4, MaxLength: 8}
	card := &fakeCard{verifyErr: errors.New("wrong pin")}
	cache := NewCache(3)
	cache.MarkVerified([]byte("9999"))
	if err := VerifyPIN(card, info, "1234", false, cache); err == nil {
		t.Fatal("expected verify failure to propagate")
	}
	if _, ok := cache.Reuse(); ok {
		t.Fatal("expected cache cleared after verify failure")
	}
}

func TestUnblockFallsBackToOwnAttributes(t *testing.T) {
	info := &pkcs15.AuthInfo{
		AuthMethod: pkcs15.AuthMethodCHV, Encoding: pkcs15.EncodingASCIINumeric,
		MinLength: 4, MaxLength: 8, Reference: 1, AuthID: []byte{0x01},
	}
	card := &fakeCard{}
	graph := pkcs15.NewGraph() // no PUK object registered
	if err := UnblockPIN(card, graph, info, "00000000", "4321", false, nil); err != nil {
		t.Fatalf("UnblockPIN: %v", err)
	}
	if !bytes.Equal(card.resetPuk, []byte("00000000")) {
		t.Fatalf("puk data = %q", card.resetPuk)
	}
	if !bytes.Equal(card.resetNew, []byte("4321")) {
		t.Fatalf("new pin data = %q", card.resetNew)
	}
}

func TestVerifyAndCacheSkipsOptionalFailure(t *testing.T) {
	so := &pkcs15.AuthInfo{AuthMethod: pkcs15.AuthMethodCHV, Encoding: pkcs15.EncodingASCIINumeric, MinLength: 4, MaxLength: 8, Reference: 0x01}
	user := &pkcs15.AuthInfo{AuthMethod: pkcs15.AuthMethodCHV, Encoding: pkcs15.EncodingASCIINumeric, MinLength: 4, MaxLength: 8, Reference: 0x02}

	// so's verify fails (wrong SO-PIN), but it's Optional, so a cascade
	// of only that level still succeeds; the second run adds a required
	// user level with the card accepting, and the user PIN is cached.
	card := &fakeCard{verifyErr: errors.New("wrong pin")}
	cache := NewCache(3)
	levels := []Credential{
		{Info: so, Plaintext: "0000", Optional: true},
	}
	if err := VerifyAndCache(card, levels, false, cache); err != nil {
		t.Fatalf("VerifyAndCache with only an optional failing level: %v", err)
	}

	card.verifyErr = nil
	levels = append(levels, Credential{Info: user, Plaintext: "1234"})
	if err := VerifyAndCache(card, levels, false, cache); err != nil {
		t.Fatalf("VerifyAndCache: %v", err)
	}
	if !bytes.Equal(card.verifyData, []byte("1234")) {
		t.Fatalf("last verify data = %q, want 1234", card.verifyData)
	}
	if data, ok := cache.Reuse(); !ok || string(data) != "1234" {
		t.Fatal("expected cache populated from the last successful level")
	}
}

func TestVerifyAndCacheStopsOnRequiredFailure(t *testing.T) {
	so := &pkcs15.AuthInfo{AuthMethod: pkcs15.AuthMethodCHV, Encoding: pkcs15.EncodingASCIINumeric, MinLength: 4, MaxLength: 8, Reference: 0x01}
	user := &pkcs15.AuthInfo{AuthMethod: pkcs15.AuthMethodCHV, Encoding: pkcs15.EncodingASCIINumeric, MinLength: 4, MaxLength: 8, Reference: 0x02}

	card := &fakeCard{verifyErr: errors.New("wrong pin")}
	levels := []Credential{
		{Info: so, Plaintext: "0000"},
		{Info: user, Plaintext: "1234"},
	}
	if err := VerifyAndCache(card, levels, false, nil); err == nil {
		t.Fatal("expected the required level's failure to abort the cascade")
	}
	if !bytes.Equal(card.verifyData, []byte("0000")) {
		t.Fatalf("verify data = %q, want the SO-PIN attempt only", card.verifyData)
	}
}

func TestUnblockUsesDedicatedPUKObject(t *testing.T) {
	info := &pkcs15.AuthInfo{
		AuthMethod: pkcs15.AuthMethodCHV, Encoding: pkcs15.EncodingASCIINumeric,
		MinLength: 4, MaxLength: 8, Reference: 1, AuthID: []byte{0x01},
	}
	pukInfo := &pkcs15.AuthInfo{AuthMethod: pkcs15.AuthMethodCHV, Encoding: pkcs15.EncodingBCD}
	card := &fakeCard{}
	graph := pkcs15.NewGraph()
	graph.Add(pkcs15.Object{Type: pkcs15.TypeAuthPIN, AuthID: []byte{0x01}, Payload: pukInfo})

	if err := UnblockPIN(card, graph, info, "1234", "4321", false, nil); err != nil {
		t.Fatalf("UnblockPIN: %v", err)
	}
	if !bytes.Equal(card.resetPuk, []byte{0x12, 0x34}) {
		t.Fatalf("expected PUK encoded as BCD per dedicated PUK object, got % X", card.resetPuk)
	}
}
