package ws

import (
	"sync"
	"time"
)

// dedup remembers recently seen message ids per host so a redelivered
// MESSAGE is not executed twice. Keys are scoped by the HELLO subject,
// which survives reconnects.
type dedup struct {
	mu        sync.Mutex
	seen      map[string]int64
	ttl       time.Duration
	lastPrune int64
}

func newDedup(ttl time.Duration) *dedup {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &dedup{seen: map[string]int64{}, ttl: ttl}
}

// first reports whether (subject, messageID) has not been seen within ttl,
// and records it.
func (d *dedup) first(subject, messageID string, now time.Time) bool {
	if d == nil || messageID == "" {
		return true
	}
	key := subject + "|" + messageID
	nowMS := now.UnixMilli()
	expiresAt := nowMS + d.ttl.Milliseconds()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.shouldPruneLocked(nowMS) {
		d.pruneLocked(nowMS)
	}
	if exp, ok := d.seen[key]; ok && exp > nowMS {
		return false
	}
	d.seen[key] = expiresAt
	if len(d.seen) > 65536 {
		d.seen = map[string]int64{key: expiresAt}
		d.lastPrune = nowMS
	}
	return true
}

func (d *dedup) shouldPruneLocked(nowMS int64) bool {
	if len(d.seen) == 0 {
		return false
	}
	if len(d.seen) > 4096 {
		return true
	}
	return nowMS-d.lastPrune > d.ttl.Milliseconds()/2
}

func (d *dedup) pruneLocked(nowMS int64) {
	for k, exp := range d.seen {
		if exp <= nowMS {
			delete(d.seen, k)
		}
	}
	d.lastPrune = nowMS
}
