package driver

import (
	"bytes"
	"encoding/hex"
	"testing"
)

type fakeTransmitter struct {
	calls [][]byte
	resps [][]byte
}

func (f *fakeTransmitter) Transmit(cmd []byte) ([]byte, error) {
	f.calls = append(f.calls, append([]byte(nil), cmd...))
	resp := f.resps[0]
	f.resps = f.resps[1:]
	return resp, nil
}

func TestMatchKnownPrefix(t *testing.T) {
	atr, _ := hex.DecodeString("3B9F95801FC78031A073B6A10067CF3211B252C679FF")
	q := Match(atr)
	if !q.ForceGSMClass {
		t.Fatalf("expected GSM-class quirk to match, got %+v", q)
	}
}

func TestMatchNoQuirk(t *testing.T) {
	atr, _ := hex.DecodeString("3B7D940000")
	q := Match(atr)
	if q.ForceGSMClass || q.Name != "" {
		t.Fatalf("expected zero quirk, got %+v", q)
	}
}

func TestGSMFallbackRetriesOnClaNotSupported(t *testing.T) {
	ft := &fakeTransmitter{resps: [][]byte{{0x6E, 0x00}, {0x90, 0x00}}}
	g := gsmFallback{inner: ft}

	cmd := []byte{0x00, 0xA4, 0x00, 0x00, 0x02, 0x3F, 0x00}
	rsp, err := g.Transmit(cmd)
	if err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	if !bytes.Equal(rsp, []byte{0x90, 0x00}) {
		t.Fatalf("final response = % X", rsp)
	}
	if len(ft.calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(ft.calls))
	}
	if ft.calls[1][0] != 0xA0 {
		t.Fatalf("expected retry CLA=0xA0, got %#x", ft.calls[1][0])
	}
}

func TestGSMFallbackPassesThroughSuccess(t *testing.T) {
	ft := &fakeTransmitter{resps: [][]byte{{0x90, 0x00}}}
	g := gsmFallback{inner: ft}

	cmd := []byte{0x00, 0xA4, 0x00, 0x00, 0x02, 0x3F, 0x00}
	if _, err := g.Transmit(cmd); err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	if len(ft.calls) != 1 {
		t.Fatalf("expected single attempt on success, got %d", len(ft.calls))
	}
}
