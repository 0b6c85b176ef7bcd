package pin

import "github.com/opencard/pkcs15mw/secure"

// Cache is the bounded PIN-reuse state machine of spec.md §4.J:
//
//	(cold) --verify(success)--> (cached, counter=0)
//	(cached, c)  --operation--> (cached, c+1)   if c+1 < limit
//	(cached, c)  --operation--> (cold)          if c+1 >= limit
//	(cached, *)  --wrong pin--> (cold)
//	(any)        --pincache_clear--> (cold)
//
// Content is held in a secure.Bytes wrapper so Clear always scrubs
// and (where supported) page-locks the plaintext PIN.
type Cache struct {
	limit    int
	content  *secure.Bytes
	counter  int
	disabled bool
}

// NewCache returns a cache bounded to limit uses between verifications.
// limit <= 0 disables caching outright (equivalent to use_pin_cache
// off).
func NewCache(limit int) *Cache {
	return &Cache{limit: limit, disabled: limit <= 0}
}

// Eligible reports whether caching may be entered for this PIN, per
// spec.md §4.J: "Entry denied if: caching disabled, reader is a
// PIN-pad, protected object requires user consent, or any object
// protected by this PIN requires user consent."
func (c *Cache) Eligible(readerIsPINPad bool, userConsentRequired bool) bool {
	if c == nil || c.disabled {
		return false
	}
	if readerIsPINPad || userConsentRequired {
		return false
	}
	return true
}

// MarkVerified enters (cached, counter=0) with a copy of plaintext.
// MarkVerified itself only refuses a disabled cache. VerifyPIN calls it
// only when Eligible holds for the reader; it passes user consent as
// not required, so the user-consent denial is not applied there.
func (c *Cache) MarkVerified(plaintext []byte) {
	if c == nil || c.disabled {
		return
	}
	c.content.Clear()
	c.content = secure.New(plaintext)
	c.counter = 0
}

// Reuse returns the cached PIN bytes for a transparent re-auth before
// an operation that might need it, advancing the counter per the
// state machine. ok is false in the cold state or once the counter
// has reached limit (after which content has already been wiped).
func (c *Cache) Reuse() (data []byte, ok bool) {
	if c == nil || c.disabled || c.content == nil || c.content.Len() == 0 {
		return nil, false
	}
	c.counter++
	if c.counter >= c.limit {
		data = append([]byte(nil), c.content.Bytes()...)
		c.Clear()
		return data, true
	}
	return c.content.Bytes(), true
}

// Revalidate reports whether err (from a verify_pin using cached
// bytes) represents failure; on failure the cache is wiped
// immediately, per spec.md §4.J.
func (c *Cache) Revalidate(err error) {
	if err != nil {
		c.Clear()
	}
}

// Clear transitions to (cold), scrubbing content. Matches
// pincache_clear, reachable from any state.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	if c.content != nil {
		c.content.Clear()
		c.content = nil
	}
	c.counter = 0
}
