// Package keypad acquires key presses: line sampling, debounce,
// decode and a bounded queue read by UI.
package keypad

import (
	"sync"
	"sync/atomic"
)

const DefaultQueueSize = 540

// Queue is fixed capacity ring of raw key codes.
// When full, Push evicts the oldest code.
type Queue struct {
	dropped uint32
	mu      sync.Mutex
	buf     []byte
	head    int
	n       int
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &Queue{buf: make([]byte, capacity)}
}

func (self *Queue) Push(code byte) (dropped bool) {
	self.mu.Lock()
	if self.n == len(self.buf) {
		self.head = (self.head + 1) % len(self.buf)
		self.n--
		dropped = true
	}
	self.buf[(self.head+self.n)%len(self.buf)] = code
	self.n++
	self.mu.Unlock()
	if dropped {
		atomic.AddUint32(&self.dropped, 1)
	}
	return dropped
}

func (self *Queue) Pop() (byte, bool) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.n == 0 {
		return 0, false
	}
	b := self.buf[self.head]
	self.head = (self.head + 1) % len(self.buf)
	self.n--
	return b, true
}

// Next implements Source.
func (self *Queue) Next() (byte, bool) { return self.Pop() }

func (self *Queue) Len() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.n
}

func (self *Queue) Cap() int { return len(self.buf) }

func (self *Queue) Dropped() uint32 { return atomic.LoadUint32(&self.dropped) }

// Snapshot returns queued codes oldest first, queue is not modified.
func (self *Queue) Snapshot() []byte {
	self.mu.Lock()
	defer self.mu.Unlock()
	out := make([]byte, self.n)
	for i := range out {
		out[i] = self.buf[(self.head+i)%len(self.buf)]
	}
	return out
}

func (self *Queue) Clear() {
	self.mu.Lock()
	self.head, self.n = 0, 0
	self.mu.Unlock()
}
