// Package reader wraps a PC/SC smart card connection as an
// apdu.Transmitter, adding the reset and PIN-pad capability queries the
// card and PIN layers need.
package reader

import (
	"encoding/binary"
	"fmt"

	"github.com/ebfe/scard"

	"github.com/opencard/pkcs15mw/ckerr"
)

const (
	ioctlGetFeatureRequest = 0x42000D48

	featureVerifyPINDirect = 0x06
	featureVerifyPINStart  = 0x01
	featureModifyPINDirect = 0x07
	featureModifyPINStart  = 0x02
)

// Capabilities summarizes what the connected reader can do beyond plain
// APDU transport, derived from the PC/SC GET_FEATURE_REQUEST control
// code (CCID "secure PIN entry" extensions).
type Capabilities struct {
	VerifyPINDirect uint32
	VerifyPINStart  uint32
	ModifyPINDirect uint32
	ModifyPINStart  uint32
}

// HasPINPad reports whether the reader exposes either VERIFY_PIN_DIRECT
// or VERIFY_PIN_START, i.e. it can collect a PIN on its own keypad
// without the plaintext ever reaching the host.
func (c Capabilities) HasPINPad() bool {
	return c.VerifyPINDirect != 0 || c.VerifyPINStart != 0
}

// Reader is a connected card in a PC/SC reader slot.
type Reader struct {
	ctx    *scard.Context
	card   *scard.Card
	name   string
	atr    []byte
	caps   Capabilities
	hasPIN bool
}

// ListReaders returns the names of all PC/SC readers currently visible
// to the subsystem, connected or not.
func ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, ckerr.Wrap(ckerr.TransmitFailed, err, "reader: establish PC/SC context")
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, ckerr.Wrap(ckerr.TransmitFailed, err, "reader: list readers")
	}
	return readers, nil
}

// Connect opens a shared-mode connection to the card present in the
// named reader and probes its PIN-pad capabilities.
func Connect(name string) (*Reader, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, ckerr.Wrap(ckerr.TransmitFailed, err, "reader: establish PC/SC context")
	}

	card, err := ctx.Connect(name, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		ctx.Release()
		return nil, ckerr.Wrap(ckerr.TransmitFailed, err, "reader: connect to %q", name)
	}

	status, err := card.Status()
	if err != nil {
		card.Disconnect(scard.LeaveCard)
		ctx.Release()
		return nil, ckerr.Wrap(ckerr.TransmitFailed, err, "reader: card status")
	}

	r := &Reader{ctx: ctx, card: card, name: name, atr: status.Atr}
	r.caps, r.hasPIN = probeFeatures(card)
	return r, nil
}

// ConnectFirst connects to the card in the first reader reporting one.
func ConnectFirst() (*Reader, error) {
	names, err := ListReaders()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ckerr.New(ckerr.NotSupported, "reader: no PC/SC readers found")
	}
	var lastErr error
	for _, name := range names {
		r, err := Connect(name)
		if err == nil {
			return r, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Transmit implements apdu.Transmitter.
func (r *Reader) Transmit(cmd []byte) ([]byte, error) {
	rsp, err := r.card.Transmit(cmd)
	if err != nil {
		return nil, ckerr.Wrap(ckerr.TransmitFailed, err, "reader: transmit")
	}
	return rsp, nil
}

// Close releases the card and the PC/SC context.
func (r *Reader) Close() error {
	if r.card != nil {
		r.card.Disconnect(scard.LeaveCard)
	}
	if r.ctx != nil {
		r.ctx.Release()
	}
	return nil
}

// Name returns the PC/SC reader name this connection was opened on.
func (r *Reader) Name() string { return r.name }

// ATR returns the card's Answer-to-Reset bytes captured at connect or
// reconnect time.
func (r *Reader) ATR() []byte { return r.atr }

// Capabilities returns the reader's PIN-pad feature set.
func (r *Reader) Capabilities() Capabilities { return r.caps }

// IsPINPad reports whether this reader can collect PINs on its own
// keypad, the readerIsPINPad input pin.Validate and pin.Cache.Eligible
// expect.
func (r *Reader) IsPINPad() bool { return r.hasPIN }

// Reconnect resets the card without tearing down the PC/SC context: a
// cold reset powers the card off and on, a warm reset just resets it
// under power.
func (r *Reader) Reconnect(cold bool) error {
	if r.card == nil {
		return ckerr.New(ckerr.NotSupported, "reader: no card connected")
	}

	init := scard.ResetCard
	if cold {
		init = scard.UnpowerCard
	}

	if err := r.card.Reconnect(scard.ShareShared, scard.ProtocolAny, init); err != nil {
		return ckerr.Wrap(ckerr.TransmitFailed, err, "reader: reconnect")
	}

	status, err := r.card.Status()
	if err == nil {
		r.atr = status.Atr
	}
	r.caps, r.hasPIN = probeFeatures(r.card)
	return nil
}

// DetectPresence reports whether a card is still present and powered
// in the reader, without disturbing its state.
func (r *Reader) DetectPresence() bool {
	if r.card == nil {
		return false
	}
	status, err := r.card.Status()
	if err != nil {
		return false
	}
	return status.State&scard.Present != 0
}

// controller is the slice of *scard.Card that probeFeatures needs,
// narrowed out so the TLV decoding can be exercised without a PC/SC
// stack present.
type controller interface {
	Control(ioctl uint32, in []byte) ([]byte, error)
}

// probeFeatures issues CM_IOCTL_GET_FEATURE_REQUEST and decodes the
// TLV list of reader features CCID-class PIN-pad readers advertise.
// Readers that don't support the control code (most non-PIN-pad
// readers) simply report no capabilities.
func probeFeatures(card controller) (Capabilities, bool) {
	var caps Capabilities

	raw, err := card.Control(ioctlGetFeatureRequest, nil)
	if err != nil || len(raw)%6 != 0 {
		return caps, false
	}

	for i := 0; i+6 <= len(raw); i += 6 {
		tag := raw[i]
		ioctl := binary.BigEndian.Uint32(raw[i+2 : i+6])
		switch tag {
		case featureVerifyPINDirect:
			caps.VerifyPINDirect = ioctl
		case featureVerifyPINStart:
			caps.VerifyPINStart = ioctl
		case featureModifyPINDirect:
			caps.ModifyPINDirect = ioctl
		case featureModifyPINStart:
			caps.ModifyPINStart = ioctl
		}
	}
	return caps, caps.HasPINPad()
}

// ATRString renders the reader's current ATR as an uppercase hex
// string, for logging and the CLI's reader/card info output.
func (r *Reader) ATRString() string { return fmt.Sprintf("%X", r.atr) }
