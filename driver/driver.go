// Package driver implements the capability-delegation pattern spec.md
// §9 calls for in place of per-card quirk subclasses: a small registry
// of ATR-matched Quirks, each overriding only the handful of fields a
// non-conformant card needs, layered transparently underneath the
// plain iso7816.Card.
package driver

import (
	"encoding/hex"
	"strings"

	"github.com/opencard/pkcs15mw/apdu"
	"github.com/opencard/pkcs15mw/iso7816"
)

// Quirk describes one family of non-conformant cards, matched by an
// ATR prefix. A zero Quirk changes nothing; fields are overrides, not
// replacements, so new quirks only need to state what differs.
type Quirk struct {
	Name string

	// ATRPrefix, as uppercase hex, matched against the start of the
	// card's ATR. Empty matches nothing and is used for the
	// registry's implicit "no quirk" sentinel only.
	ATRPrefix string

	// ForceGSMClass wraps the transport so any command rejected with
	// CLA_NOT_SUPPORTED or INS_NOT_SUPPORTED under CLA=0x00 is
	// retried once with CLA=0xA0, for legacy cards built against the
	// GSM 11.11 command class rather than ISO 7816-4.
	ForceGSMClass bool

	// MaxPINSize records a tighter PIN-size ceiling than
	// pkcs15.CardMaxPINSize for cards that report looser AODF
	// attributes than their chip actually enforces. Zero means none.
	// Nothing in this module reads it: PIN validation and AODF
	// decoding always use pkcs15.CardMaxPINSize.
	MaxPINSize int
}

// registry lists known quirky card families. Entries are ATR
// prefixes observed on cards that reject ISO-class APDUs outright;
// ordinary ISO/IEC 7816-4 and PKCS#15 tokens match nothing here and
// get the zero Quirk.
var registry = []Quirk{
	{
		Name:          "legacy GSM-class card (GRv2 family)",
		ATRPrefix:     "3B9F95801FC78031A073B6A10067CF3211B252C679",
		ForceGSMClass: true,
	},
	{
		Name:          "legacy GSM-class card (GRv2 variant 1)",
		ATRPrefix:     "3B9F94801FC38031A073B6A10067CF3210DF0EF5",
		ForceGSMClass: true,
	},
	{
		Name:          "legacy GSM-class card (GRv2 variant 3)",
		ATRPrefix:     "3B9F94801FC38031A073B6A10067CF3250DF0E72",
		ForceGSMClass: true,
	},
}

// Match returns the quirk registered for atr, or the zero Quirk if
// none applies.
func Match(atr []byte) Quirk {
	hexATR := strings.ToUpper(hex.EncodeToString(atr))
	for _, q := range registry {
		if q.ATRPrefix != "" && strings.HasPrefix(hexATR, q.ATRPrefix) {
			return q
		}
	}
	return Quirk{}
}

// NewCard builds an iso7816.Card over t, applying whatever quirk
// matches atr. The returned transmitter wraps t only when a quirk
// requires it, so conformant cards pay no overhead.
func NewCard(t apdu.Transmitter, atr []byte) (iso7816.Card, Quirk) {
	q := Match(atr)
	if q.ForceGSMClass {
		t = gsmFallback{inner: t}
	}
	return iso7816.Card{T: t}, q
}

// gsmFallback retries a command under the GSM 11.11 class byte when
// the card rejects it as unsupported under the ISO class byte.
type gsmFallback struct {
	inner apdu.Transmitter
}

func (g gsmFallback) Transmit(cmd []byte) ([]byte, error) {
	rsp, err := g.inner.Transmit(cmd)
	if err != nil || len(rsp) < 2 || len(cmd) == 0 || cmd[0] != 0x00 {
		return rsp, err
	}

	sw1 := rsp[len(rsp)-2]
	if sw1 != 0x6E && sw1 != 0x6D {
		return rsp, nil
	}

	retry := append([]byte(nil), cmd...)
	retry[0] = 0xA0
	return g.inner.Transmit(retry)
}
