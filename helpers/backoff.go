package helpers

import "time"

// Backoff grows retry delay from Min by factor K up to Max.
// Not safe for concurrent use, keep it owned by the retrying goroutine.
type Backoff struct {
	Min  time.Duration
	Max  time.Duration
	K    float32
	next time.Duration
}

// Failure returns delay before next attempt and grows the one after.
func (b *Backoff) Failure() time.Duration {
	if b.next < b.Min {
		b.next = b.Min
	}
	d := b.next
	if d > b.Max {
		d = b.Max
	}
	b.next = time.Duration(float32(b.next) * b.K)
	if b.next > b.Max {
		b.next = b.Max
	}
	return d
}

// Reset after success, next Failure returns Min.
func (b *Backoff) Reset() { b.next = 0 }
