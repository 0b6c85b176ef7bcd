package pin

import (
	"errors"
	"testing"

	"github.com/opencard/pkcs15mw/ckerr"
	"github.com/opencard/pkcs15mw/pkcs15"
)

func TestValidateLengthBounds(t *testing.T) {
	info := &pkcs15.AuthInfo{AuthMethod: pkcs15.AuthMethodCHV, MinLength: 4, MaxLength: 8, StoredLength: 8}
	if err := Validate(info, 6, false); err != nil {
		t.Fatalf("expected valid length, got %v", err)
	}
	if err := Validate(info, 3, false); err == nil {
		t.Fatal("expected error for too-short pin")
	}
	if err := Validate(info, 9, false); err == nil {
		t.Fatal("expected error for too-long pin")
	}
}

func TestValidateSkipsLengthOnPINPad(t *testing.T) {
	info := &pkcs15.AuthInfo{AuthMethod: pkcs15.AuthMethodCHV, MinLength: 4, MaxLength: 8, StoredLength: 8}
	if err := Validate(info, 0, true); err != nil {
		t.Fatalf("expected pin-pad to skip length checks, got %v", err)
	}
}

func TestValidateBufferTooSmall(t *testing.T) {
	info := &pkcs15.AuthInfo{AuthMethod: pkcs15.AuthMethodCHV, StoredLength: pkcs15.CardMaxPINSize + 1}
	err := Validate(info, 4, false)
	if !errors.Is(err, ckerr.BufferTooSmall) {
		t.Fatalf("got %v, want BUFFER_TOO_SMALL", err)
	}
}

func TestValidateNonCHVPassthrough(t *testing.T) {
	info := &pkcs15.AuthInfo{AuthMethod: pkcs15.AuthMethodBiometric}
	if err := Validate(info, 999, false); err != nil {
		t.Fatalf("expected pass-through, got %v", err)
	}
}
