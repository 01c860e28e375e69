package keypad

import "sync/atomic"

// Debouncer turns sampled level of one button into press events.
// Tick is called by poll task with period long enough to cover contact bounce.
// Consume is called by reader. Each physical press yields one event
// no matter how many ticks it is held.
//
// Fields have single writer each: level and presses belong to Tick,
// seen belongs to Consume.
type Debouncer struct {
	level   uint32
	presses uint32
	seen    uint32
}

type DebounceState struct {
	Raw         bool
	StableEvent bool
	Consumed    bool
}

func (self *Debouncer) Tick(raw bool) {
	var v uint32
	if raw {
		v = 1
	}
	prev := atomic.SwapUint32(&self.level, v)
	if prev == 0 && v == 1 {
		atomic.AddUint32(&self.presses, 1)
	}
}

// Consume reports whether there was a press not yet consumed and marks it consumed.
func (self *Debouncer) Consume() bool {
	p := atomic.LoadUint32(&self.presses)
	if p == atomic.LoadUint32(&self.seen) {
		return false
	}
	atomic.StoreUint32(&self.seen, p)
	return true
}

func (self *Debouncer) State() DebounceState {
	p := atomic.LoadUint32(&self.presses)
	s := atomic.LoadUint32(&self.seen)
	return DebounceState{
		Raw:         atomic.LoadUint32(&self.level) == 1,
		StableEvent: p != s,
		Consumed:    p != 0 && p == s,
	}
}
